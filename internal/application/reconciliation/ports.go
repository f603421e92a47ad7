package reconciliation

import (
	"context"
	"time"

	"github.com/cassiomorais/checkout/internal/domain/checkout"
	"github.com/cassiomorais/checkout/internal/domain/processor"
	"github.com/google/uuid"
)

// TransactionManager defines the interface for transaction management.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Gateways hands out the processor client of a sales channel.
type Gateways interface {
	ForChannel(ctx context.Context, channelID string) (processor.Gateway, error)
}

// SettingsProvider resolves per-channel configuration.
type SettingsProvider interface {
	ChannelSettings(channelID string) (checkout.ChannelSettings, error)
}

// ChargeClaim is held while a path creates the charge of a source.
type ChargeClaim interface {
	Release(ctx context.Context) error
}

// ChargeClaimer grants one path at a time the right to charge a transaction's source.
// Claim returns ErrChargeInProgress when another path holds it.
type ChargeClaimer interface {
	Claim(ctx context.Context, txID uuid.UUID) (ChargeClaim, error)
}

// ContinuationScheduler defers a chargeable continuation by delay.
type ContinuationScheduler interface {
	ScheduleChargeable(ctx context.Context, c checkout.ChargeableContinuation, delay time.Duration) error
}

// CustomerDirectory stores the processor customer linked to a shop customer.
type CustomerDirectory interface {
	SetStripeCustomerID(ctx context.Context, customerID uuid.UUID, stripeCustomerID string) error
}

// WebhookEventStore de-duplicates webhook deliveries by event id.
type WebhookEventStore interface {
	// Begin records a delivery and reports whether the event was already processed.
	Begin(ctx context.Context, eventID, channelID, eventType string) (processed bool, err error)
	MarkProcessed(ctx context.Context, eventID string) error
	MarkFailed(ctx context.Context, eventID, reason string) error
}
