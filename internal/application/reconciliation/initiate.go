package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/cassiomorais/checkout/internal/application/methods"
	"github.com/cassiomorais/checkout/internal/domain/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/processor"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ProofTokenParam carries the payment intent client secret back to finalize.
const ProofTokenParam = "payment_intent_client_secret"

type InitiateRequest struct {
	TransactionID uuid.UUID
	Method        checkout.Method
	// ChannelID scopes the caller to one sales channel when set.
	ChannelID string
	// ReturnURL overrides the channel's return URL template.
	ReturnURL string
	Session   checkout.Session
}

// Initiate creates the processor object for a new payment attempt and tells the caller
// where to send the customer. It never marks a transaction paid unless the processor
// reports the payment as already succeeded.
func (e *Engine) Initiate(ctx context.Context, req InitiateRequest) (res *checkout.InitiateResult, err error) {
	start := time.Now()
	outcome := "redirect"
	ctx, span := e.tracer.Start(ctx, "reconciliation.Initiate", trace.WithAttributes(
		attribute.String("transaction.id", req.TransactionID.String()),
		attribute.String("payment.method", string(req.Method)),
	))
	defer func() {
		if res != nil && res.Immediate {
			outcome = "immediate"
		}
		e.observe(span, "initiate", start, &outcome, &err)
	}()

	tx, err := e.transactions.GetByID(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeChannel(req.ChannelID, tx); err != nil {
		return nil, err
	}
	if tx.State.IsTerminal() {
		return nil, domainErrors.NewDomainError("invalid_state_transition",
			fmt.Sprintf("transaction %s is already %s", tx.ID, tx.State), domainErrors.ErrInvalidStateTransition)
	}
	ord, err := e.orders.GetByTransactionID(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	if ord.Customer == nil {
		return nil, domainErrors.NewValidationError("customer", "customer is not authenticated")
	}

	builder, err := e.methods.Get(req.Method)
	if err != nil {
		return nil, err
	}
	if err := builder.Validate(req.Session); err != nil {
		return nil, err
	}

	settings, err := e.settings.ChannelSettings(tx.ChannelID)
	if err != nil {
		return nil, err
	}
	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = settings.ReturnURL(tx.ID.String())
	}
	if returnURL == "" {
		return nil, domainErrors.NewValidationError("return_url", "no return URL configured")
	}

	gw, err := e.gateways.ForChannel(ctx, tx.ChannelID)
	if err != nil {
		return nil, err
	}

	in := methods.BuildInput{
		Order:         ord,
		TransactionID: tx.ID,
		Settings:      settings,
		Session:       req.Session,
		ReturnURL:     returnURL,
	}
	if builder.Flow() == processor.FlowPaymentIntent {
		if in.StripeCustomerID, err = e.ensureCustomer(ctx, gw, ord.Customer); err != nil {
			return nil, err
		}
	}

	createReq, err := builder.Build(in)
	if err != nil {
		return nil, err
	}

	switch createReq.Flow() {
	case processor.FlowPaymentIntent:
		return e.initiatePaymentIntent(ctx, gw, tx, *createReq.PaymentIntent, returnURL)
	case processor.FlowSource:
		return e.initiateSource(ctx, gw, tx, *createReq.Source)
	default:
		return nil, domainErrors.NewDomainError("invalid_payment_request",
			fmt.Sprintf("builder for %s produced no request", req.Method), nil)
	}
}

func (e *Engine) initiatePaymentIntent(
	ctx context.Context,
	gw processor.Gateway,
	tx *transaction.OrderTransaction,
	req processor.PaymentIntentRequest,
	returnURL string,
) (*checkout.InitiateResult, error) {
	pi, err := gw.CreatePaymentIntent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	startAttempt := func() error {
		if _, err := e.references.StartAttempt(ctx, tx.ID, "", pi.ID); err != nil {
			return fmt.Errorf("persist payment intent: %w", err)
		}
		return nil
	}

	log := e.logger.With().
		Str("transaction_id", tx.ID.String()).
		Str("payment_intent_id", pi.ID).
		Str("status", string(pi.Status)).
		Logger()

	switch pi.Status {
	case processor.PaymentIntentSucceeded:
		if err := startAttempt(); err != nil {
			return nil, err
		}
		if err := e.persistCharge(ctx, tx, pi.LatestChargeID); err != nil {
			return nil, err
		}
		if err := e.pay(ctx, tx); err != nil {
			return nil, err
		}
		log.Info().Msg("Payment intent succeeded on creation")
		return &checkout.InitiateResult{
			RedirectURL:  withQuery(returnURL, ProofTokenParam, pi.ClientSecret),
			Immediate:    true,
			ResetSession: true,
		}, nil

	case processor.PaymentIntentRequiresAction:
		target, ok := pi.RedirectTarget()
		if !ok {
			return nil, domainErrors.NewDomainError("missing_redirect_target",
				fmt.Sprintf("payment intent %s requires action %q without redirect", pi.ID, pi.NextActionType),
				domainErrors.ErrMissingRedirectTarget)
		}
		if err := startAttempt(); err != nil {
			return nil, err
		}
		log.Info().Msg("Redirecting to hosted action")
		return &checkout.InitiateResult{RedirectURL: target}, nil

	case processor.PaymentIntentProcessing:
		if err := startAttempt(); err != nil {
			return nil, err
		}
		if err := e.persistCharge(ctx, tx, pi.LatestChargeID); err != nil {
			return nil, err
		}
		log.Info().Msg("Payment intent processing, awaiting webhook")
		return &checkout.InitiateResult{RedirectURL: withQuery(returnURL, ProofTokenParam, pi.ClientSecret)}, nil

	case processor.PaymentIntentRequiresPaymentMethod,
		processor.PaymentIntentRequiresConfirmation,
		processor.PaymentIntentRequiresCapture,
		processor.PaymentIntentCanceled,
		processor.PaymentIntentUnknown:
	}
	return nil, fmt.Errorf("payment intent %s is %s: %w", pi.ID, pi.Status, domainErrors.ErrPaymentIntentNotChargeable)
}

func (e *Engine) initiateSource(
	ctx context.Context,
	gw processor.Gateway,
	tx *transaction.OrderTransaction,
	req processor.SourceRequest,
) (*checkout.InitiateResult, error) {
	src, err := gw.CreateSource(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}

	switch src.Status {
	case processor.SourcePending:
		if src.RedirectStatus != processor.RedirectPending || src.RedirectURL == "" {
			return nil, fmt.Errorf("source %s redirect is %s: %w", src.ID, src.RedirectStatus, domainErrors.ErrInvalidSourceRedirect)
		}
		if _, err := e.references.StartAttempt(ctx, tx.ID, src.ID, ""); err != nil {
			return nil, fmt.Errorf("persist source: %w", err)
		}
		e.logger.Info().
			Str("transaction_id", tx.ID.String()).
			Str("source_id", src.ID).
			Msg("Redirecting to source authorisation")
		return &checkout.InitiateResult{RedirectURL: src.RedirectURL}, nil

	case processor.SourceChargeable,
		processor.SourceConsumed,
		processor.SourceFailed,
		processor.SourceCanceled,
		processor.SourceUnknown:
	}
	return nil, fmt.Errorf("source %s is %s: %w", src.ID, src.Status, domainErrors.ErrSourceNotChargeable)
}

// persistCharge records an observed charge id. An existing one is kept.
func (e *Engine) persistCharge(ctx context.Context, tx *transaction.OrderTransaction, chargeID string) error {
	if chargeID == "" {
		return nil
	}
	if _, err := e.references.MergeReference(ctx, tx.ID, transaction.PaymentReference{ChargeID: chargeID}); err != nil {
		return fmt.Errorf("persist charge id: %w", err)
	}
	return nil
}
