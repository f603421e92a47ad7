package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cassiomorais/checkout/internal/domain/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/processor"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type lookup struct {
	field transaction.ReferenceField
	value string
}

// ReconcileFromWebhook applies a verified processor event. Events for unknown
// transactions, or transactions of another channel, are ignored without error.
func (e *Engine) ReconcileFromWebhook(ctx context.Context, channelID string, evt *processor.Event) (outcome checkout.WebhookOutcome, err error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "reconciliation.ReconcileFromWebhook", trace.WithAttributes(
		attribute.String("event.id", evt.ID),
		attribute.String("event.type", evt.RawType),
		attribute.String("channel.id", channelID),
	))
	defer func() {
		label := string(outcome)
		e.observe(span, "webhook", start, &label, &err)
	}()

	if evt.ObjectID() == "" && evt.Type != processor.EventUnknown {
		return "", domainErrors.NewDomainError("malformed_event",
			fmt.Sprintf("event %s carries no %s object", evt.ID, evt.Type), nil)
	}

	switch evt.Type {
	case processor.EventPaymentIntentSucceeded:
		return e.onPaymentIntentSucceeded(ctx, channelID, evt.PaymentIntent)

	case processor.EventPaymentIntentCanceled, processor.EventPaymentIntentPaymentFailed:
		return e.onFailure(ctx, channelID, evt, lookup{transaction.FieldPaymentIntentID, evt.ObjectID()})

	case processor.EventChargeSucceeded:
		return e.onChargeSucceeded(ctx, channelID, evt.Charge)

	case processor.EventChargeFailed:
		if evt.Charge.PaymentIntentID != "" {
			// The payment intent's own events decide.
			e.logger.Debug().Str("charge_id", evt.Charge.ID).Msg("Ignoring failed charge of a payment intent")
			return checkout.OutcomeIgnored, nil
		}
		return e.onFailure(ctx, channelID, evt,
			lookup{transaction.FieldChargeID, evt.Charge.ID},
			lookup{transaction.FieldSourceID, evt.Charge.SourceID},
		)

	case processor.EventSourceChargeable:
		return e.onSourceChargeable(ctx, channelID, evt)

	case processor.EventSourceFailed, processor.EventSourceCanceled:
		return e.onFailure(ctx, channelID, evt, lookup{transaction.FieldSourceID, evt.ObjectID()})

	case processor.EventUnknown:
	}
	return "", fmt.Errorf("event type %q: %w", evt.RawType, domainErrors.ErrUnknownEventType)
}

// findTransaction tries the lookups in order and returns the first match, or nil.
func (e *Engine) findTransaction(ctx context.Context, channelID string, lookups ...lookup) (*transaction.OrderTransaction, error) {
	for _, l := range lookups {
		if l.value == "" {
			continue
		}
		tx, err := e.transactions.FindByReference(ctx, l.field, l.value)
		if errors.Is(err, domainErrors.ErrTransactionNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find transaction by %s: %w", l.field, err)
		}
		if !tx.BelongsTo(channelID) {
			e.logger.Info().
				Str("transaction_id", tx.ID.String()).
				Str("transaction_channel", tx.ChannelID).
				Str("event_channel", channelID).
				Msg("Transaction belongs to another channel")
			return nil, nil
		}
		return tx, nil
	}
	return nil, nil
}

func (e *Engine) ignoreUnmatched(evt string, id string) checkout.WebhookOutcome {
	e.logger.Info().Str("event_type", evt).Str("object_id", id).Msg("No order transaction for event")
	return checkout.OutcomeIgnored
}

func (e *Engine) onPaymentIntentSucceeded(ctx context.Context, channelID string, pi *processor.PaymentIntent) (checkout.WebhookOutcome, error) {
	tx, err := e.findTransaction(ctx, channelID, lookup{transaction.FieldPaymentIntentID, pi.ID})
	if err != nil {
		return "", err
	}
	if tx == nil {
		return e.ignoreUnmatched(string(processor.EventPaymentIntentSucceeded), pi.ID), nil
	}
	if tx.State == transaction.StatePaid {
		return checkout.OutcomeIgnored, nil
	}

	if err := e.persistCharge(ctx, tx, pi.LatestChargeID); err != nil {
		return "", err
	}
	gw, err := e.gateways.ForChannel(ctx, channelID)
	if err != nil {
		return "", err
	}
	e.annotatePaymentIntent(ctx, gw, tx, pi)
	if err := e.pay(ctx, tx); err != nil {
		return "", err
	}
	return checkout.OutcomeProcessed, nil
}

func (e *Engine) onChargeSucceeded(ctx context.Context, channelID string, charge *processor.Charge) (checkout.WebhookOutcome, error) {
	tx, err := e.findTransaction(ctx, channelID,
		lookup{transaction.FieldChargeID, charge.ID},
		lookup{transaction.FieldPaymentIntentID, charge.PaymentIntentID},
		lookup{transaction.FieldSourceID, charge.SourceID},
	)
	if err != nil {
		return "", err
	}
	if tx == nil {
		return e.ignoreUnmatched(string(processor.EventChargeSucceeded), charge.ID), nil
	}
	if tx.State == transaction.StatePaid {
		return checkout.OutcomeIgnored, nil
	}

	if _, err := e.references.MergeReference(ctx, tx.ID,
		transaction.PaymentReference{ChargeID: charge.ID, ChargedSourceID: charge.SourceID}); err != nil {
		return "", fmt.Errorf("persist charge id: %w", err)
	}
	gw, err := e.gateways.ForChannel(ctx, channelID)
	if err != nil {
		return "", err
	}
	e.annotateCharge(ctx, gw, tx, charge)
	if err := e.pay(ctx, tx); err != nil {
		return "", err
	}
	return checkout.OutcomeProcessed, nil
}

// onFailure cancels the matched transaction. Paid and cancelled transactions are left alone.
func (e *Engine) onFailure(ctx context.Context, channelID string, evt *processor.Event, lookups ...lookup) (checkout.WebhookOutcome, error) {
	tx, err := e.findTransaction(ctx, channelID, lookups...)
	if err != nil {
		return "", err
	}
	if tx == nil {
		return e.ignoreUnmatched(evt.RawType, evt.ObjectID()), nil
	}
	if tx.State == transaction.StateCancelled || tx.State == transaction.StatePaid {
		e.logger.Info().
			Str("transaction_id", tx.ID.String()).
			Str("state", string(tx.State)).
			Str("event_type", evt.RawType).
			Msg("Failure event for settled transaction, nothing to do")
		return checkout.OutcomeIgnored, nil
	}
	if err := e.cancel(ctx, tx); err != nil {
		return "", err
	}
	return checkout.OutcomeProcessed, nil
}

// onSourceChargeable defers the charge by the grace period instead of blocking the request.
func (e *Engine) onSourceChargeable(ctx context.Context, channelID string, evt *processor.Event) (checkout.WebhookOutcome, error) {
	src := evt.Source
	tx, err := e.findTransaction(ctx, channelID, lookup{transaction.FieldSourceID, src.ID})
	if err != nil {
		return "", err
	}
	if tx == nil {
		return e.ignoreUnmatched(evt.RawType, src.ID), nil
	}
	if tx.State == transaction.StatePaid {
		return checkout.OutcomeIgnored, nil
	}

	c := checkout.ChargeableContinuation{
		EventID:       evt.ID,
		ChannelID:     channelID,
		TransactionID: tx.ID,
		SourceID:      src.ID,
	}
	if err := e.scheduler.ScheduleChargeable(ctx, c, e.gracePeriod); err != nil {
		return "", fmt.Errorf("schedule chargeable continuation: %w", err)
	}
	e.logger.Info().
		Str("transaction_id", tx.ID.String()).
		Str("source_id", src.ID).
		Dur("grace_period", e.gracePeriod).
		Msg("Chargeable continuation scheduled")
	return checkout.OutcomeScheduled, nil
}
