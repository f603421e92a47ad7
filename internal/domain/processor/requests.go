package processor

// Address is a postal address as the processor expects it.
type Address struct {
	Line1      string
	City       string
	PostalCode string
	Country    string
}

// Owner describes the payer of a source.
type Owner struct {
	Name    string
	Email   string
	Address *Address
}

// OrderItem is a source order line (Klarna).
type OrderItem struct {
	Type        string
	Description string
	Quantity    int64
	Currency    string
	Amount      int64
}

// MandateAcceptance records an online SEPA mandate acceptance.
type MandateAcceptance struct {
	IPAddress string
	UserAgent string
}

type PaymentIntentRequest struct {
	Amount              int64
	Currency            string
	PaymentMethodID     string
	PaymentMethodTypes  []string
	CustomerID          string
	Description         string
	StatementDescriptor string
	ReceiptEmail        string
	ReturnURL           string
	SetupFutureUsage    bool
	MOTO                bool
	Mandate             *MandateAcceptance
	Metadata            map[string]string
}

type SourceRequest struct {
	Type                string
	Amount              int64
	Currency            string
	ReturnURL           string
	StatementDescriptor string
	Owner               *Owner
	// TypeData holds the method specific fields, e.g. sofort[country].
	TypeData        map[string]string
	Items           []OrderItem
	ShippingAddress *Address
	Metadata        map[string]string
}

type ChargeRequest struct {
	SourceID            string
	Amount              int64
	Currency            string
	Description         string
	ReceiptEmail        string
	StatementDescriptor string
	IdempotencyKey      string
	Metadata            map[string]string
}

type CustomerRequest struct {
	Name        string
	Description string
	Email       string
}

// CreateRequest is what a payment method builder produces. Exactly one field is set; it
// selects the completion flow.
type CreateRequest struct {
	PaymentIntent *PaymentIntentRequest
	Source        *SourceRequest
}

// Flow identifies the completion path of a payment attempt.
type Flow string

const (
	FlowPaymentIntent Flow = "payment_intent"
	FlowSource        Flow = "source"
	FlowNone          Flow = ""
)

func (r CreateRequest) Flow() Flow {
	switch {
	case r.PaymentIntent != nil && r.Source == nil:
		return FlowPaymentIntent
	case r.Source != nil && r.PaymentIntent == nil:
		return FlowSource
	default:
		return FlowNone
	}
}
