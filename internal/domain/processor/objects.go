package processor

import "strings"

// PaymentIntent is the processor-side view of a payment intent. It is never persisted
// locally beyond its ID.
type PaymentIntent struct {
	ID             string
	Status         PaymentIntentStatus
	ClientSecret   string
	Amount         int64
	Currency       string
	Description    string
	NextActionType string
	RedirectURL    string
	LatestChargeID string
	Metadata       map[string]string
}

// RedirectTarget returns the hosted action URL, if the intent asks for a redirect.
func (pi *PaymentIntent) RedirectTarget() (string, bool) {
	if pi.NextActionType != NextActionRedirectToURL || pi.RedirectURL == "" {
		return "", false
	}
	return pi.RedirectURL, true
}

// Source is the processor-side view of a redirect-based payment source.
type Source struct {
	ID                    string
	Type                  string
	Status                SourceStatus
	ClientSecret          string
	Amount                int64
	Currency              string
	RedirectStatus        RedirectStatus
	RedirectFailureReason string
	RedirectURL           string
	Metadata              map[string]string
}

// CanceledByCustomer reports whether the customer aborted the hosted redirect.
func (s *Source) CanceledByCustomer() bool {
	return s.RedirectStatus == RedirectFailed && s.RedirectFailureReason == FailureReasonUserAbort
}

// Charge is the result of a funds-capture call.
type Charge struct {
	ID              string
	Status          ChargeStatus
	Amount          int64
	Currency        string
	Description     string
	FailureMessage  string
	PaymentIntentID string
	SourceID        string
}

// Customer is a processor-side customer record.
type Customer struct {
	ID      string
	Email   string
	Deleted bool
}

// AnnotateWithOrderNumber appends the order number to a description for operator
// traceability. Applying it twice yields the same description.
func AnnotateWithOrderNumber(description, orderNumber string) string {
	suffix := "Order " + orderNumber
	if orderNumber == "" || strings.HasSuffix(description, suffix) {
		return description
	}
	if description == "" {
		return suffix
	}
	return description + " / " + suffix
}
