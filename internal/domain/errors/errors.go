package errors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// Lookup errors
	ErrTransactionNotFound = errors.New("order transaction not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrCustomerNotFound    = errors.New("customer not found")

	// Reconciliation errors
	ErrInvalidTransaction         = errors.New("invalid transaction")
	ErrCustomerCanceled           = errors.New("customer canceled the payment")
	ErrPaymentNotChargeable       = errors.New("payment not chargeable")
	ErrPaymentIntentNotChargeable = errors.New("payment intent not chargeable")
	ErrSourceNotChargeable        = errors.New("source not chargeable")
	ErrInvalidSourceRedirect      = errors.New("invalid source redirect")
	ErrMissingRedirectTarget      = errors.New("missing redirect target")
	ErrChargeFailed               = errors.New("charge failed")
	ErrChargeInProgress           = errors.New("charge creation in progress")
	ErrInvalidStateTransition     = errors.New("invalid state transition")

	// Gateway errors
	ErrGatewayUnavailable      = errors.New("payment gateway unavailable")
	ErrGatewayRejected         = errors.New("request rejected by payment gateway")
	ErrProcessorObjectNotFound = errors.New("processor object not found")
	ErrChannelNotConfigured    = errors.New("channel not configured")

	// Webhook errors
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrUnknownEventType = errors.New("unknown webhook event type")

	// Lock errors
	ErrLockNotHeld = errors.New("lock not held")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
)

var notChargeable = []error{
	ErrPaymentIntentNotChargeable,
	ErrSourceNotChargeable,
	ErrInvalidSourceRedirect,
}

// IsNotChargeable reports whether err belongs to the not-chargeable family.
func IsNotChargeable(err error) bool {
	if errors.Is(err, ErrPaymentNotChargeable) {
		return true
	}
	for _, target := range notChargeable {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

var codes = []struct {
	err  error
	code string
}{
	{ErrValidationFailed, "validation_error"},
	{ErrInvalidTransaction, "invalid_transaction"},
	{ErrCustomerCanceled, "customer_canceled"},
	{ErrPaymentIntentNotChargeable, "payment_intent_not_chargeable"},
	{ErrSourceNotChargeable, "source_not_chargeable"},
	{ErrInvalidSourceRedirect, "invalid_source_redirect"},
	{ErrPaymentNotChargeable, "payment_not_chargeable"},
	{ErrMissingRedirectTarget, "missing_redirect_target"},
	{ErrChargeFailed, "charge_failed"},
	{ErrChargeInProgress, "charge_in_progress"},
	{ErrInvalidStateTransition, "invalid_state_transition"},
	{ErrGatewayUnavailable, "gateway_unavailable"},
	{ErrGatewayRejected, "gateway_rejected"},
	{ErrProcessorObjectNotFound, "processor_object_not_found"},
	{ErrChannelNotConfigured, "channel_not_configured"},
	{ErrTransactionNotFound, "transaction_not_found"},
	{ErrOrderNotFound, "order_not_found"},
	{ErrCustomerNotFound, "customer_not_found"},
	{ErrInvalidSignature, "invalid_signature"},
	{ErrUnknownEventType, "unknown_event_type"},
	{ErrUnauthorized, "unauthorized"},
}

// CodeOf returns the internal support code for err. Sentinels take precedence over a
// DomainError code.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	var de *DomainError
	if errors.As(err, &de) && de.Code != "" {
		return de.Code
	}
	return "internal_error"
}

// Phase names the entry point a PaymentProcessError came out of.
type Phase string

const (
	PhaseInitiate Phase = "initiate"
	PhaseFinalize Phase = "finalize"
)

// PaymentProcessError is the single customer-facing failure of the checkout boundary.
// The message never leaks internals; Code keeps the diagnostic code for support.
type PaymentProcessError struct {
	Phase         Phase
	TransactionID uuid.UUID
	Code          string
	Err           error
}

func NewPaymentProcessError(phase Phase, transactionID uuid.UUID, err error) *PaymentProcessError {
	return &PaymentProcessError{
		Phase:         phase,
		TransactionID: transactionID,
		Code:          CodeOf(err),
		Err:           err,
	}
}

func (e *PaymentProcessError) Error() string {
	return fmt.Sprintf("payment processing failed (%s, transaction %s): %v", e.Phase, e.TransactionID, e.Err)
}

func (e *PaymentProcessError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the customer may simply try again with a new attempt.
func (e *PaymentProcessError) Retryable() bool {
	return errors.Is(e.Err, ErrGatewayUnavailable) ||
		errors.Is(e.Err, ErrCustomerCanceled) ||
		errors.Is(e.Err, ErrChargeFailed) ||
		IsNotChargeable(e.Err)
}
