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
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RedirectStatusCanceled is the redirect_status query value of an aborted redirect.
const RedirectStatusCanceled = "canceled"

// FinalizeRequest carries the query of the customer's return from the processor.
type FinalizeRequest struct {
	TransactionID uuid.UUID
	// PaymentIntentClientSecret is the proof token of the payment intent flow.
	PaymentIntentClientSecret string
	// ClientSecret is the proof token of the source flow.
	ClientSecret   string
	RedirectStatus string
	// ChannelID scopes the caller to one sales channel when set.
	ChannelID string
}

// FinalizeFromRedirect completes a payment when the customer returns. It is safe to
// call any number of times for the same transaction.
func (e *Engine) FinalizeFromRedirect(ctx context.Context, req FinalizeRequest) (res *checkout.FinalizeResult, err error) {
	start := time.Now()
	outcome := ""
	ctx, span := e.tracer.Start(ctx, "reconciliation.FinalizeFromRedirect", trace.WithAttributes(
		attribute.String("transaction.id", req.TransactionID.String()),
	))
	defer func() {
		if res != nil {
			outcome = string(res.Status)
		}
		e.observe(span, "finalize", start, &outcome, &err)
	}()

	tx, err := e.transactions.GetByID(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeChannel(req.ChannelID, tx); err != nil {
		return nil, err
	}
	ref, err := e.references.GetReference(ctx, tx.ID)
	if err != nil {
		return nil, fmt.Errorf("load reference: %w", err)
	}

	gw, err := e.gateways.ForChannel(ctx, tx.ChannelID)
	if err != nil {
		return nil, err
	}

	switch {
	case ref.PaymentIntentID != "":
		return e.finalizePaymentIntent(ctx, gw, tx, ref.PaymentIntentID, req)
	case ref.SourceID != "":
		return e.finalizeSource(ctx, gw, tx, ref.SourceID, req)
	default:
		return nil, domainErrors.NewDomainError("invalid_transaction",
			fmt.Sprintf("transaction %s has no payment reference", tx.ID), domainErrors.ErrInvalidTransaction)
	}
}

func (e *Engine) finalizePaymentIntent(
	ctx context.Context,
	gw processor.Gateway,
	tx *transaction.OrderTransaction,
	paymentIntentID string,
	req FinalizeRequest,
) (*checkout.FinalizeResult, error) {
	pi, err := gw.GetPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("get payment intent: %w", err)
	}
	if !proofMatches(req.PaymentIntentClientSecret, pi.ClientSecret) {
		return nil, domainErrors.NewDomainError("invalid_transaction",
			fmt.Sprintf("proof token mismatch for payment intent %s", pi.ID), domainErrors.ErrInvalidTransaction)
	}

	if tx.State == transaction.StatePaid {
		return &checkout.FinalizeResult{Status: checkout.FinalizePaid, ResetSession: true}, nil
	}

	switch pi.Status {
	case processor.PaymentIntentProcessing:
		return &checkout.FinalizeResult{Status: checkout.FinalizeAwaitingWebhook, ResetSession: true}, nil

	case processor.PaymentIntentSucceeded:
		if err := e.persistCharge(ctx, tx, pi.LatestChargeID); err != nil {
			return nil, err
		}
		e.annotatePaymentIntent(ctx, gw, tx, pi)
		if err := e.pay(ctx, tx); err != nil {
			return nil, err
		}
		return &checkout.FinalizeResult{Status: checkout.FinalizePaid, ResetSession: true}, nil

	case processor.PaymentIntentRequiresPaymentMethod,
		processor.PaymentIntentRequiresConfirmation,
		processor.PaymentIntentRequiresAction,
		processor.PaymentIntentRequiresCapture,
		processor.PaymentIntentCanceled,
		processor.PaymentIntentUnknown:
	}
	return nil, fmt.Errorf("payment intent %s is %s: %w", pi.ID, pi.Status, domainErrors.ErrPaymentIntentNotChargeable)
}

func (e *Engine) finalizeSource(
	ctx context.Context,
	gw processor.Gateway,
	tx *transaction.OrderTransaction,
	sourceID string,
	req FinalizeRequest,
) (*checkout.FinalizeResult, error) {
	src, err := gw.GetSource(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	if !proofMatches(req.ClientSecret, src.ClientSecret) {
		return nil, domainErrors.NewDomainError("invalid_transaction",
			fmt.Sprintf("proof token mismatch for source %s", src.ID), domainErrors.ErrInvalidTransaction)
	}
	if tx.State == transaction.StatePaid {
		return &checkout.FinalizeResult{Status: checkout.FinalizePaid, ResetSession: true}, nil
	}
	if src.CanceledByCustomer() || req.RedirectStatus == RedirectStatusCanceled {
		return nil, fmt.Errorf("source %s: %w", src.ID, domainErrors.ErrCustomerCanceled)
	}

	switch src.Status {
	case processor.SourcePending:
		return &checkout.FinalizeResult{Status: checkout.FinalizeAwaitingWebhook, ResetSession: true}, nil

	case processor.SourceChargeable:
		charge, err := e.chargeSource(ctx, "redirect", gw, tx, src)
		switch {
		case errors.Is(err, domainErrors.ErrChargeInProgress):
			// The webhook continuation is charging; it completes the transaction.
			return &checkout.FinalizeResult{Status: checkout.FinalizeAwaitingWebhook, ResetSession: true}, nil
		case err != nil:
			return nil, err
		case charge == nil:
			return e.finalizeAlreadyCharged(ctx, tx)
		}

		switch charge.Status {
		case processor.ChargeSucceeded:
			if err := e.pay(ctx, tx); err != nil {
				return nil, err
			}
			return &checkout.FinalizeResult{Status: checkout.FinalizePaid, ResetSession: true}, nil
		case processor.ChargeFailed:
			return nil, fmt.Errorf("charge %s: %s: %w", charge.ID, charge.FailureMessage, domainErrors.ErrChargeFailed)
		case processor.ChargePending, processor.ChargeUnknown:
		}
		return &checkout.FinalizeResult{Status: checkout.FinalizeAwaitingWebhook, ResetSession: true}, nil

	case processor.SourceConsumed,
		processor.SourceFailed,
		processor.SourceCanceled,
		processor.SourceUnknown:
	}
	return nil, fmt.Errorf("source %s is %s: %w", src.ID, src.Status, domainErrors.ErrSourceNotChargeable)
}

// finalizeAlreadyCharged answers a return after the other path created the charge.
// Only the paid guard applies; the charge events settle anything else.
func (e *Engine) finalizeAlreadyCharged(ctx context.Context, tx *transaction.OrderTransaction) (*checkout.FinalizeResult, error) {
	current, err := e.transactions.GetByID(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	if current.State == transaction.StatePaid {
		return &checkout.FinalizeResult{Status: checkout.FinalizePaid, ResetSession: true}, nil
	}
	return &checkout.FinalizeResult{Status: checkout.FinalizeAwaitingWebhook, ResetSession: true}, nil
}

// annotatePaymentIntent appends the order number to the intent's description. Failures
// are logged and never abort the payment.
func (e *Engine) annotatePaymentIntent(ctx context.Context, gw processor.Gateway, tx *transaction.OrderTransaction, pi *processor.PaymentIntent) {
	ord, err := e.orders.GetByTransactionID(ctx, tx.ID)
	if err != nil {
		e.logger.Warn().Err(err).Str("transaction_id", tx.ID.String()).Msg("Cannot annotate payment intent, order unavailable")
		return
	}
	desc := processor.AnnotateWithOrderNumber(pi.Description, ord.Number)
	if desc == pi.Description {
		return
	}
	if err := gw.UpdatePaymentIntentDescription(ctx, pi.ID, desc); err != nil {
		e.logger.Warn().Err(err).Str("payment_intent_id", pi.ID).Msg("Failed to annotate payment intent")
	}
}

func (e *Engine) annotateCharge(ctx context.Context, gw processor.Gateway, tx *transaction.OrderTransaction, charge *processor.Charge) {
	ord, err := e.orders.GetByTransactionID(ctx, tx.ID)
	if err != nil {
		e.logger.Warn().Err(err).Str("transaction_id", tx.ID.String()).Msg("Cannot annotate charge, order unavailable")
		return
	}
	desc := processor.AnnotateWithOrderNumber(charge.Description, ord.Number)
	if desc == charge.Description {
		return
	}
	if err := gw.UpdateChargeDescription(ctx, charge.ID, desc); err != nil {
		e.logger.Warn().Err(err).Str("charge_id", charge.ID).Msg("Failed to annotate charge")
	}
}
