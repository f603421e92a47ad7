package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cassiomorais/checkout/internal/domain/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/processor"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ContinueChargeable is the deferred half of a source.chargeable event. It charges the
// source unless the redirect path already did, using the same derivation and
// idempotency key. ErrChargeInProgress means another path holds the charge claim.
func (e *Engine) ContinueChargeable(ctx context.Context, c checkout.ChargeableContinuation) (err error) {
	start := time.Now()
	outcome := "discarded"
	ctx, span := e.tracer.Start(ctx, "reconciliation.ContinueChargeable", trace.WithAttributes(
		attribute.String("transaction.id", c.TransactionID.String()),
		attribute.String("source.id", c.SourceID),
		attribute.Int("attempt", c.Attempt),
	))
	defer func() { e.observe(span, "continuation", start, &outcome, &err) }()

	log := e.logger.With().
		Str("transaction_id", c.TransactionID.String()).
		Str("source_id", c.SourceID).
		Str("event_id", c.EventID).
		Logger()

	tx, err := e.transactions.GetByID(ctx, c.TransactionID)
	if errors.Is(err, domainErrors.ErrTransactionNotFound) {
		log.Warn().Msg("Transaction vanished before continuation")
		return nil
	}
	if err != nil {
		return err
	}
	if !tx.BelongsTo(c.ChannelID) {
		return nil
	}
	if tx.State.IsTerminal() {
		log.Info().Str("state", string(tx.State)).Msg("Transaction already settled, discarding")
		return nil
	}

	ref, err := e.references.GetReference(ctx, tx.ID)
	if err != nil {
		return fmt.Errorf("load reference: %w", err)
	}
	switch {
	case ref.ChargedSource(c.SourceID):
		log.Info().Str("charge_id", ref.ChargeID).Msg("Charge already created by redirect, discarding")
		return nil
	case ref.SourceID != c.SourceID:
		log.Info().Str("current_source_id", ref.SourceID).Msg("Newer payment attempt, discarding")
		return nil
	}

	gw, err := e.gateways.ForChannel(ctx, tx.ChannelID)
	if err != nil {
		return err
	}
	src, err := gw.GetSource(ctx, c.SourceID)
	if err != nil {
		return fmt.Errorf("get source: %w", err)
	}
	if src.Status != processor.SourceChargeable {
		log.Info().Str("status", string(src.Status)).Msg("Source no longer chargeable, discarding")
		return nil
	}

	charge, err := e.chargeSource(ctx, "webhook", gw, tx, src)
	if err != nil {
		return err
	}
	if charge == nil {
		return nil
	}

	outcome = string(charge.Status)
	switch charge.Status {
	case processor.ChargeSucceeded:
		return e.pay(ctx, tx)
	case processor.ChargeFailed:
		return e.cancel(ctx, tx)
	case processor.ChargePending, processor.ChargeUnknown:
	}
	return nil
}

// ProcessContinuation runs a continuation and reschedules it with a growing delay while
// the charge claim is held elsewhere or the gateway is down, up to maxAttempts.
func (e *Engine) ProcessContinuation(ctx context.Context, c checkout.ChargeableContinuation, maxAttempts int) error {
	err := e.ContinueChargeable(ctx, c)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domainErrors.ErrChargeInProgress) && !errors.Is(err, domainErrors.ErrGatewayUnavailable) {
		return err
	}

	next := c.Next()
	if next.Attempt >= maxAttempts {
		return fmt.Errorf("continuation for source %s gave up after %d attempts: %w", c.SourceID, next.Attempt, err)
	}
	delay := e.gracePeriod * time.Duration(next.Attempt+1)
	if serr := e.scheduler.ScheduleChargeable(ctx, next, delay); serr != nil {
		return fmt.Errorf("reschedule continuation: %w", serr)
	}
	e.logger.Info().
		Err(err).
		Str("source_id", c.SourceID).
		Int("attempt", next.Attempt).
		Dur("delay", delay).
		Msg("Continuation rescheduled")
	return nil
}
