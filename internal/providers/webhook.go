package providers

import (
	"encoding/json"
	"fmt"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/processor"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
)

// ParseWebhook verifies the Stripe-Signature header with the channel's endpoint secret
// and decodes the embedded object of the event families the service handles.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*processor.Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                g.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domainErrors.ErrInvalidSignature)
	}

	out := &processor.Event{
		ID:      evt.ID,
		RawType: string(evt.Type),
		Type:    processor.ParseEventType(string(evt.Type)),
	}
	if out.Type == processor.EventUnknown || evt.Data == nil {
		return out, nil
	}

	switch out.Type {
	case processor.EventPaymentIntentSucceeded,
		processor.EventPaymentIntentCanceled,
		processor.EventPaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent of event %s: %w", evt.ID, err)
		}
		out.PaymentIntent = toPaymentIntent(&pi)

	case processor.EventChargeSucceeded, processor.EventChargeFailed:
		var ch stripe.Charge
		if err := json.Unmarshal(evt.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge of event %s: %w", evt.ID, err)
		}
		out.Charge = toCharge(&ch)

	case processor.EventSourceChargeable, processor.EventSourceFailed, processor.EventSourceCanceled:
		var src stripe.Source
		if err := json.Unmarshal(evt.Data.Raw, &src); err != nil {
			return nil, fmt.Errorf("decode source of event %s: %w", evt.ID, err)
		}
		out.Source = toSource(&src)

	case processor.EventUnknown:
	}
	return out, nil
}
