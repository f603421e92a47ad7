package methods

import (
	"fmt"

	"github.com/cassiomorais/checkout/internal/domain/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/cassiomorais/checkout/internal/domain/processor"
	"github.com/google/uuid"
)

// TransactionMetadataKey links processor objects back to the order transaction.
const TransactionMetadataKey = "order_transaction_id"

// BuildInput is everything a builder may read to produce a create request.
type BuildInput struct {
	Order            *order.Order
	TransactionID    uuid.UUID
	Settings         checkout.ChannelSettings
	Session          checkout.Session
	ReturnURL        string
	StripeCustomerID string
}

// RequestBuilder maps order data to the processor payload of one payment method.
type RequestBuilder interface {
	Method() checkout.Method
	Flow() processor.Flow
	// Validate checks the session carries the selection the method needs.
	Validate(session checkout.Session) error
	Build(in BuildInput) (processor.CreateRequest, error)
}

// Registry resolves builders by method.
type Registry struct {
	builders map[checkout.Method]RequestBuilder
}

func NewRegistry(builders ...RequestBuilder) *Registry {
	r := &Registry{builders: make(map[checkout.Method]RequestBuilder, len(builders))}
	for _, b := range builders {
		r.builders[b.Method()] = b
	}
	return r
}

// DefaultRegistry holds a builder for every supported method.
func DefaultRegistry() *Registry {
	return NewRegistry(
		CardBuilder{},
		SEPABuilder{},
		WalletBuilder{},
		SofortBuilder{},
		BancontactBuilder{},
		KlarnaBuilder{},
	)
}

func (r *Registry) Get(m checkout.Method) (RequestBuilder, error) {
	b, ok := r.builders[m]
	if !ok {
		return nil, domainErrors.NewValidationError("method", fmt.Sprintf("unsupported payment method %q", m))
	}
	return b, nil
}

func metadata(txID uuid.UUID) map[string]string {
	return map[string]string{TransactionMetadataKey: txID.String()}
}

func requireCustomer(o *order.Order) (*order.Customer, error) {
	if o == nil || o.Customer == nil {
		return nil, domainErrors.NewValidationError("customer", "customer is not authenticated")
	}
	return o.Customer, nil
}

func receiptEmail(s checkout.ChannelSettings, c *order.Customer) string {
	if !s.SendReceiptEmail {
		return ""
	}
	return c.Email
}

func toAddress(a *order.Address) *processor.Address {
	if a == nil {
		return nil
	}
	return &processor.Address{
		Line1:      a.Street,
		City:       a.City,
		PostalCode: a.ZipCode,
		Country:    a.Country,
	}
}
