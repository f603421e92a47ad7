package reconciliation

import (
	"context"
	"fmt"

	"github.com/cassiomorais/checkout/internal/domain/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/processor"
	"github.com/cassiomorais/checkout/internal/infrastructure/observability"
	"github.com/rs/zerolog"
)

// HandleWebhookUseCase verifies, de-duplicates and reconciles one webhook delivery.
type HandleWebhookUseCase struct {
	engine   *Engine
	gateways Gateways
	events   WebhookEventStore
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

func NewHandleWebhookUseCase(
	engine *Engine,
	gateways Gateways,
	events WebhookEventStore,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *HandleWebhookUseCase {
	return &HandleWebhookUseCase{
		engine:   engine,
		gateways: gateways,
		events:   events,
		logger:   logger.With().Str("component", "webhook").Logger(),
		metrics:  metrics,
	}
}

// Execute returns ErrInvalidSignature for unverifiable payloads and ErrUnknownEventType
// for events the service does not handle. Redelivered processed events are duplicates.
func (uc *HandleWebhookUseCase) Execute(ctx context.Context, channelID string, payload []byte, signature string) (checkout.WebhookOutcome, error) {
	if signature == "" {
		return "", fmt.Errorf("missing signature header: %w", domainErrors.ErrInvalidSignature)
	}

	gw, err := uc.gateways.ForChannel(ctx, channelID)
	if err != nil {
		return "", err
	}
	evt, err := gw.ParseWebhook(payload, signature)
	if err != nil {
		return "", err
	}

	log := uc.logger.With().
		Str("event_id", evt.ID).
		Str("event_type", evt.RawType).
		Str("channel_id", channelID).
		Logger()

	if evt.Type == processor.EventUnknown {
		uc.metrics.ObserveWebhook("unknown", "rejected")
		log.Info().Msg("Unhandled event type")
		return "", fmt.Errorf("event type %q: %w", evt.RawType, domainErrors.ErrUnknownEventType)
	}

	processed, err := uc.events.Begin(ctx, evt.ID, channelID, evt.RawType)
	if err != nil {
		return "", fmt.Errorf("record webhook event: %w", err)
	}
	if processed {
		uc.metrics.ObserveWebhook(evt.RawType, string(checkout.OutcomeDuplicate))
		log.Info().Msg("Event already processed")
		return checkout.OutcomeDuplicate, nil
	}

	outcome, err := uc.engine.ReconcileFromWebhook(ctx, channelID, evt)
	if err != nil {
		uc.metrics.ObserveWebhook(evt.RawType, "failed")
		if markErr := uc.events.MarkFailed(context.WithoutCancel(ctx), evt.ID, err.Error()); markErr != nil {
			log.Error().Err(markErr).Msg("Failed to record webhook failure")
		}
		log.Error().Err(err).Str("code", domainErrors.CodeOf(err)).Msg("Webhook reconciliation failed")
		return "", err
	}

	if err := uc.events.MarkProcessed(ctx, evt.ID); err != nil {
		log.Error().Err(err).Msg("Failed to mark webhook event processed")
	}
	uc.metrics.ObserveWebhook(evt.RawType, string(outcome))
	log.Info().Str("outcome", string(outcome)).Msg("Webhook handled")
	return outcome, nil
}
