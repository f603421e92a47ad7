package reconciliation

import (
	"context"
	"fmt"

	"github.com/cassiomorais/checkout/internal/application/methods"
	"github.com/cassiomorais/checkout/internal/domain/checkout"
	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/cassiomorais/checkout/internal/domain/processor"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
)

// ChargeIdempotencyKey is the processor idempotency key of the charge of a source.
// Both completion paths use it, so at most one charge exists per source.
func ChargeIdempotencyKey(sourceID string) string {
	return "charge-" + sourceID
}

// newChargeRequest derives the charge of a chargeable source. Amount and currency come
// from the source itself, never from the current order total.
func newChargeRequest(src *processor.Source, tx *transaction.OrderTransaction, ord *order.Order, settings checkout.ChannelSettings) processor.ChargeRequest {
	req := processor.ChargeRequest{
		SourceID:            src.ID,
		Amount:              src.Amount,
		Currency:            src.Currency,
		StatementDescriptor: settings.SourceStatementDescriptor(),
		IdempotencyKey:      ChargeIdempotencyKey(src.ID),
		Metadata:            map[string]string{methods.TransactionMetadataKey: tx.ID.String()},
	}
	if c := ord.Customer; c != nil {
		req.Description = processor.AnnotateWithOrderNumber(c.Description(), ord.Number)
		if settings.SendReceiptEmail {
			req.ReceiptEmail = c.Email
		}
	} else {
		req.Description = processor.AnnotateWithOrderNumber("", ord.Number)
	}
	return req
}

// chargeSource claims the transaction, re-reads the reference and creates the charge
// unless one is already recorded for this source. It returns the charge, or nil when
// another path already charged the source. Declined charges are not recorded, so a new
// attempt can still be charged.
func (e *Engine) chargeSource(
	ctx context.Context,
	path string,
	gw processor.Gateway,
	tx *transaction.OrderTransaction,
	src *processor.Source,
) (*processor.Charge, error) {
	claim, err := e.claimer.Claim(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := claim.Release(context.WithoutCancel(ctx)); err != nil {
			e.logger.Warn().Err(err).Str("transaction_id", tx.ID.String()).Msg("Failed to release charge claim")
		}
	}()

	ref, err := e.references.GetReference(ctx, tx.ID)
	if err != nil {
		return nil, fmt.Errorf("reload reference: %w", err)
	}
	if ref.ChargedSource(src.ID) {
		e.logger.Info().
			Str("transaction_id", tx.ID.String()).
			Str("charge_id", ref.ChargeID).
			Str("path", path).
			Msg("Source already charged, skipping")
		return nil, nil
	}

	ord, err := e.orders.GetByTransactionID(ctx, tx.ID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	settings, err := e.settings.ChannelSettings(tx.ChannelID)
	if err != nil {
		return nil, err
	}

	charge, err := gw.CreateCharge(ctx, newChargeRequest(src, tx, ord, settings))
	if err != nil {
		return nil, fmt.Errorf("create charge: %w", err)
	}
	e.metrics.ObserveCharge(path, string(charge.Status))

	if charge.Status != processor.ChargeFailed {
		patch := transaction.PaymentReference{ChargeID: charge.ID, ChargedSourceID: src.ID}
		if _, err := e.references.MergeReference(ctx, tx.ID, patch); err != nil {
			return nil, fmt.Errorf("persist charge id: %w", err)
		}
	}

	e.logger.Info().
		Str("transaction_id", tx.ID.String()).
		Str("source_id", src.ID).
		Str("charge_id", charge.ID).
		Str("status", string(charge.Status)).
		Str("path", path).
		Msg("Source charged")
	return charge, nil
}
