package processor

import "context"

// PlatformMetadataKey is injected into the metadata of every mutating call.
const PlatformMetadataKey = "platform_name"

// Gateway is the request/response client of one merchant channel. Implementations are
// scoped to that channel's credentials and never rely on process-wide configuration.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)
	UpdatePaymentIntentDescription(ctx context.Context, id, description string) error

	CreateSource(ctx context.Context, req SourceRequest) (*Source, error)
	GetSource(ctx context.Context, id string) (*Source, error)

	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	UpdateChargeDescription(ctx context.Context, id, description string) error

	GetCustomer(ctx context.Context, id string) (*Customer, error)
	CreateCustomer(ctx context.Context, req CustomerRequest) (*Customer, error)

	// ParseWebhook verifies the signature header against the channel's webhook secret and
	// decodes the event. Unknown event types decode with Type == EventUnknown.
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
