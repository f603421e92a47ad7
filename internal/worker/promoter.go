package worker

import (
	"context"
	"time"

	"github.com/cassiomorais/checkout/internal/application/reconciliation"
	"github.com/cassiomorais/checkout/internal/domain/checkout"
	"github.com/cassiomorais/checkout/internal/domain/outbox"
	"github.com/cassiomorais/checkout/internal/infrastructure/observability"
	"github.com/rs/zerolog"
)

// ContinuationPublisher hands a due continuation to the consumers.
type ContinuationPublisher interface {
	PublishContinuation(ctx context.Context, c checkout.ChargeableContinuation) error
}

// OutboxPromoter moves due outbox entries onto the continuation stream. Rows are locked
// for the duration of a batch so several workers can poll the same table.
type OutboxPromoter struct {
	txm       reconciliation.TransactionManager
	repo      outbox.Repository
	publisher ContinuationPublisher
	batchSize int
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

func NewOutboxPromoter(
	txm reconciliation.TransactionManager,
	repo outbox.Repository,
	publisher ContinuationPublisher,
	batchSize int,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *OutboxPromoter {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &OutboxPromoter{
		txm:       txm,
		repo:      repo,
		publisher: publisher,
		batchSize: batchSize,
		logger:    logger.With().Str("component", "outbox").Logger(),
		metrics:   metrics,
	}
}

// Run polls until ctx is done.
func (p *OutboxPromoter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if _, err := p.PromoteDue(ctx); err != nil {
			p.logger.Error().Err(err).Msg("Outbox promotion failed")
		}
	}
}

// PromoteDue publishes one batch of due entries and returns how many were published.
func (p *OutboxPromoter) PromoteDue(ctx context.Context) (int, error) {
	published := 0
	err := p.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		entries, err := p.repo.GetDue(txCtx, p.batchSize)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if p.promote(ctx, txCtx, entry) {
				published++
			}
		}
		return nil
	})
	return published, err
}

func (p *OutboxPromoter) promote(ctx, txCtx context.Context, entry *outbox.Entry) bool {
	log := p.logger.With().Str("outbox_id", entry.ID.String()).Str("event_type", entry.EventType).Logger()

	if entry.EventType != outbox.EventChargeableContinuation {
		log.Warn().Msg("Unsupported outbox event type")
		p.fail(txCtx, entry)
		return false
	}

	c, err := checkout.ContinuationFromPayload(entry.Payload)
	if err != nil {
		log.Error().Err(err).Msg("Invalid continuation payload")
		p.fail(txCtx, entry)
		return false
	}

	if err := p.publisher.PublishContinuation(ctx, c); err != nil {
		log.Error().Err(err).Msg("Failed to publish continuation")
		p.fail(txCtx, entry)
		return false
	}

	if err := p.repo.MarkPublished(txCtx, entry.ID); err != nil {
		log.Error().Err(err).Msg("Failed to mark outbox entry published")
		return false
	}
	p.metrics.ObserveOutbox(entry.EventType, "published")
	log.Debug().Str("source_id", c.SourceID).Int("attempt", c.Attempt).Msg("Continuation promoted")
	return true
}

func (p *OutboxPromoter) fail(ctx context.Context, entry *outbox.Entry) {
	if err := p.repo.MarkFailed(ctx, entry.ID); err != nil {
		p.logger.Error().Err(err).Str("outbox_id", entry.ID.String()).Msg("Failed to mark outbox entry failed")
	}
	p.metrics.ObserveOutbox(entry.EventType, "failed")
}
