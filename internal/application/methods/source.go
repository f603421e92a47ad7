package methods

import (
	"github.com/cassiomorais/checkout/internal/domain/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/cassiomorais/checkout/internal/domain/processor"
)

// Source methods need no session selection; the customer authorises on the hosted page.
type sourceBase struct{}

func (sourceBase) Flow() processor.Flow            { return processor.FlowSource }
func (sourceBase) Validate(checkout.Session) error { return nil }

func newSourceRequest(typ string, in BuildInput) *processor.SourceRequest {
	return &processor.SourceRequest{
		Type:                typ,
		Amount:              in.Order.PayableAmount(),
		Currency:            in.Order.ProcessorCurrency(),
		ReturnURL:           in.ReturnURL,
		StatementDescriptor: in.Settings.SourceStatementDescriptor(),
		Metadata:            metadata(in.TransactionID),
	}
}

type SofortBuilder struct{ sourceBase }

func (SofortBuilder) Method() checkout.Method { return checkout.MethodSofort }

func (SofortBuilder) Build(in BuildInput) (processor.CreateRequest, error) {
	customer, err := requireCustomer(in.Order)
	if err != nil {
		return processor.CreateRequest{}, err
	}
	if in.Order.BillingAddress == nil || in.Order.BillingAddress.Country == "" {
		return processor.CreateRequest{}, domainErrors.NewValidationError("billing_address", "billing country is required")
	}

	req := newSourceRequest("sofort", in)
	req.Owner = &processor.Owner{Name: customer.DisplayName()}
	req.TypeData = map[string]string{"country": in.Order.BillingAddress.Country}
	return processor.CreateRequest{Source: req}, nil
}

type BancontactBuilder struct{ sourceBase }

func (BancontactBuilder) Method() checkout.Method { return checkout.MethodBancontact }

func (BancontactBuilder) Build(in BuildInput) (processor.CreateRequest, error) {
	customer, err := requireCustomer(in.Order)
	if err != nil {
		return processor.CreateRequest{}, err
	}

	req := newSourceRequest("bancontact", in)
	req.Owner = &processor.Owner{Name: customer.DisplayName()}
	return processor.CreateRequest{Source: req}, nil
}

type KlarnaBuilder struct{ sourceBase }

func (KlarnaBuilder) Method() checkout.Method { return checkout.MethodKlarna }

func (KlarnaBuilder) Build(in BuildInput) (processor.CreateRequest, error) {
	customer, err := requireCustomer(in.Order)
	if err != nil {
		return processor.CreateRequest{}, err
	}
	billing, shipping := in.Order.BillingAddress, in.Order.ShippingAddress
	if billing == nil {
		return processor.CreateRequest{}, domainErrors.NewValidationError("billing_address", "billing address is required")
	}
	if shipping == nil {
		shipping = billing
	}

	req := newSourceRequest("klarna", in)
	req.Owner = &processor.Owner{
		Name:    customer.DisplayName(),
		Email:   customer.Email,
		Address: toAddress(billing),
	}
	req.TypeData = map[string]string{
		"first_name":          customer.FirstName,
		"last_name":           customer.LastName,
		"product":             "payment",
		"purchase_country":    billing.Country,
		"shipping_first_name": shipping.FirstName,
		"shipping_last_name":  shipping.LastName,
		"locale":              in.Order.Locale,
	}
	req.Items = klarnaItems(in.Order)
	req.ShippingAddress = toAddress(shipping)
	return processor.CreateRequest{Source: req}, nil
}

func klarnaItems(o *order.Order) []processor.OrderItem {
	currency := o.ProcessorCurrency()
	items := make([]processor.OrderItem, 0, len(o.LineItems)+1)
	for _, li := range o.LineItems {
		items = append(items, processor.OrderItem{
			Type:        "sku",
			Description: li.Label,
			Quantity:    li.Quantity,
			Currency:    currency,
			Amount:      order.ToMinorUnits(li.TotalPrice, o.Currency),
		})
	}
	items = append(items, processor.OrderItem{
		Type:        "shipping",
		Description: "Shipping",
		Currency:    currency,
		Amount:      order.ToMinorUnits(o.ShippingTotal, o.Currency),
	})
	return items
}
