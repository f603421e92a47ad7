package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cassiomorais/checkout/internal/domain/checkout"
	"github.com/cassiomorais/checkout/internal/domain/outbox"
)

// OutboxScheduler defers chargeable continuations through the outbox. The worker moves
// due rows to the continuation stream.
type OutboxScheduler struct {
	repo       outbox.Repository
	maxRetries int
}

func NewOutboxScheduler(repo outbox.Repository, maxRetries int) *OutboxScheduler {
	return &OutboxScheduler{repo: repo, maxRetries: maxRetries}
}

func (s *OutboxScheduler) ScheduleChargeable(ctx context.Context, c checkout.ChargeableContinuation, delay time.Duration) error {
	entry := outbox.NewEntry(
		outbox.AggregateOrderTransaction,
		c.TransactionID,
		outbox.EventChargeableContinuation,
		c.Payload(),
		delay,
	)
	if s.maxRetries > 0 {
		entry.MaxRetries = s.maxRetries
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("schedule continuation of %s: %w", c.SourceID, err)
	}
	return nil
}
