package processor

// PaymentIntentStatus is the closed set of payment intent states the engine reasons about.
type PaymentIntentStatus string

const (
	PaymentIntentRequiresPaymentMethod PaymentIntentStatus = "requires_payment_method"
	PaymentIntentRequiresConfirmation  PaymentIntentStatus = "requires_confirmation"
	PaymentIntentRequiresAction        PaymentIntentStatus = "requires_action"
	PaymentIntentProcessing            PaymentIntentStatus = "processing"
	PaymentIntentRequiresCapture       PaymentIntentStatus = "requires_capture"
	PaymentIntentSucceeded             PaymentIntentStatus = "succeeded"
	PaymentIntentCanceled              PaymentIntentStatus = "canceled"
	PaymentIntentUnknown               PaymentIntentStatus = "unknown"
)

func ParsePaymentIntentStatus(s string) PaymentIntentStatus {
	switch st := PaymentIntentStatus(s); st {
	case PaymentIntentRequiresPaymentMethod,
		PaymentIntentRequiresConfirmation,
		PaymentIntentRequiresAction,
		PaymentIntentProcessing,
		PaymentIntentRequiresCapture,
		PaymentIntentSucceeded,
		PaymentIntentCanceled:
		return st
	default:
		return PaymentIntentUnknown
	}
}

// SourceStatus is the closed set of source states.
type SourceStatus string

const (
	SourcePending    SourceStatus = "pending"
	SourceChargeable SourceStatus = "chargeable"
	SourceConsumed   SourceStatus = "consumed"
	SourceFailed     SourceStatus = "failed"
	SourceCanceled   SourceStatus = "canceled"
	SourceUnknown    SourceStatus = "unknown"
)

func ParseSourceStatus(s string) SourceStatus {
	switch st := SourceStatus(s); st {
	case SourcePending, SourceChargeable, SourceConsumed, SourceFailed, SourceCanceled:
		return st
	default:
		return SourceUnknown
	}
}

// RedirectStatus is the state of a source's hosted redirect flow.
type RedirectStatus string

const (
	RedirectPending     RedirectStatus = "pending"
	RedirectSucceeded   RedirectStatus = "succeeded"
	RedirectFailed      RedirectStatus = "failed"
	RedirectNotRequired RedirectStatus = "not_required"
	RedirectUnknown     RedirectStatus = "unknown"
)

func ParseRedirectStatus(s string) RedirectStatus {
	switch st := RedirectStatus(s); st {
	case RedirectPending, RedirectSucceeded, RedirectFailed, RedirectNotRequired:
		return st
	default:
		return RedirectUnknown
	}
}

// FailureReasonUserAbort marks a redirect the customer left on purpose.
const FailureReasonUserAbort = "user_abort"

// ChargeStatus is the closed set of charge states.
type ChargeStatus string

const (
	ChargeSucceeded ChargeStatus = "succeeded"
	ChargePending   ChargeStatus = "pending"
	ChargeFailed    ChargeStatus = "failed"
	ChargeUnknown   ChargeStatus = "unknown"
)

func ParseChargeStatus(s string) ChargeStatus {
	switch st := ChargeStatus(s); st {
	case ChargeSucceeded, ChargePending, ChargeFailed:
		return st
	default:
		return ChargeUnknown
	}
}

// NextActionRedirectToURL is the only next action the checkout can follow.
const NextActionRedirectToURL = "redirect_to_url"
