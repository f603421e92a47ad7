package providers

import (
	"fmt"
	"strconv"

	"github.com/cassiomorais/checkout/internal/domain/processor"
	"github.com/stripe/stripe-go/v74"
)

func toPaymentIntent(pi *stripe.PaymentIntent) *processor.PaymentIntent {
	out := &processor.PaymentIntent{
		ID:           pi.ID,
		Status:       processor.ParsePaymentIntentStatus(string(pi.Status)),
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Description:  pi.Description,
		Metadata:     pi.Metadata,
	}
	if na := pi.NextAction; na != nil {
		out.NextActionType = string(na.Type)
		if na.RedirectToURL != nil {
			out.RedirectURL = na.RedirectToURL.URL
		}
	}
	if pi.LatestCharge != nil {
		out.LatestChargeID = pi.LatestCharge.ID
	}
	return out
}

func toSource(src *stripe.Source) *processor.Source {
	out := &processor.Source{
		ID:           src.ID,
		Type:         src.Type,
		Status:       processor.ParseSourceStatus(string(src.Status)),
		ClientSecret: src.ClientSecret,
		Amount:       src.Amount,
		Currency:     string(src.Currency),
		Metadata:     src.Metadata,
	}
	if r := src.Redirect; r != nil {
		out.RedirectStatus = processor.ParseRedirectStatus(string(r.Status))
		out.RedirectFailureReason = string(r.FailureReason)
		out.RedirectURL = r.URL
	}
	return out
}

func toCharge(ch *stripe.Charge) *processor.Charge {
	out := &processor.Charge{
		ID:             ch.ID,
		Status:         processor.ParseChargeStatus(string(ch.Status)),
		Amount:         ch.Amount,
		Currency:       string(ch.Currency),
		Description:    ch.Description,
		FailureMessage: ch.FailureMessage,
	}
	if ch.PaymentIntent != nil {
		out.PaymentIntentID = ch.PaymentIntent.ID
	}
	if ch.Source != nil {
		out.SourceID = ch.Source.ID
	}
	return out
}

func toCustomer(c *stripe.Customer) *processor.Customer {
	return &processor.Customer{ID: c.ID, Email: c.Email, Deleted: c.Deleted}
}

func paymentIntentParams(req processor.PaymentIntentRequest) *stripe.PaymentIntentParams {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(req.Currency),
		Confirm:            stripe.Bool(true),
		ConfirmationMethod: stripe.String(string(stripe.PaymentIntentConfirmationMethodAutomatic)),
	}
	if req.PaymentMethodID != "" {
		params.PaymentMethod = stripe.String(req.PaymentMethodID)
	}
	if len(req.PaymentMethodTypes) > 0 {
		params.PaymentMethodTypes = stripe.StringSlice(req.PaymentMethodTypes)
	}
	setString(&params.Customer, req.CustomerID)
	setString(&params.Description, req.Description)
	setString(&params.StatementDescriptor, req.StatementDescriptor)
	setString(&params.ReceiptEmail, req.ReceiptEmail)
	setString(&params.ReturnURL, req.ReturnURL)
	if req.SetupFutureUsage {
		params.SetupFutureUsage = stripe.String(string(stripe.PaymentIntentSetupFutureUsageOffSession))
	}
	if req.MOTO {
		params.AddExtra("payment_method_options[card][moto]", "true")
	}
	if m := req.Mandate; m != nil {
		params.AddExtra("mandate_data[customer_acceptance][type]", "online")
		params.AddExtra("mandate_data[customer_acceptance][online][ip_address]", m.IPAddress)
		params.AddExtra("mandate_data[customer_acceptance][online][user_agent]", m.UserAgent)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}

func sourceParams(req processor.SourceRequest) *stripe.SourceParams {
	params := &stripe.SourceParams{
		Type:     stripe.String(req.Type),
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		Redirect: &stripe.SourceRedirectParams{ReturnURL: stripe.String(req.ReturnURL)},
	}
	setString(&params.StatementDescriptor, req.StatementDescriptor)
	if o := req.Owner; o != nil {
		params.Owner = &stripe.SourceOwnerParams{}
		setString(&params.Owner.Name, o.Name)
		setString(&params.Owner.Email, o.Email)
		if a := o.Address; a != nil {
			params.Owner.Address = addressParams(a)
		}
	}
	for k, v := range req.TypeData {
		params.AddExtra(fmt.Sprintf("%s[%s]", req.Type, k), v)
	}
	for i, item := range req.Items {
		prefix := "source_order[items][" + strconv.Itoa(i) + "]"
		params.AddExtra(prefix+"[type]", item.Type)
		params.AddExtra(prefix+"[description]", item.Description)
		params.AddExtra(prefix+"[quantity]", strconv.FormatInt(item.Quantity, 10))
		params.AddExtra(prefix+"[currency]", item.Currency)
		params.AddExtra(prefix+"[amount]", strconv.FormatInt(item.Amount, 10))
	}
	if a := req.ShippingAddress; a != nil {
		params.AddExtra("source_order[shipping][address][line1]", a.Line1)
		params.AddExtra("source_order[shipping][address][city]", a.City)
		params.AddExtra("source_order[shipping][address][postal_code]", a.PostalCode)
		params.AddExtra("source_order[shipping][address][country]", a.Country)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}

func chargeParams(req processor.ChargeRequest) (*stripe.ChargeParams, error) {
	params := &stripe.ChargeParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
	}
	if err := params.SetSource(req.SourceID); err != nil {
		return nil, err
	}
	setString(&params.Description, req.Description)
	setString(&params.ReceiptEmail, req.ReceiptEmail)
	setString(&params.StatementDescriptor, req.StatementDescriptor)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	return params, nil
}

func addressParams(a *processor.Address) *stripe.AddressParams {
	out := &stripe.AddressParams{}
	setString(&out.Line1, a.Line1)
	setString(&out.City, a.City)
	setString(&out.PostalCode, a.PostalCode)
	setString(&out.Country, a.Country)
	return out
}

func setString(dst **string, v string) {
	if v != "" {
		*dst = stripe.String(v)
	}
}
