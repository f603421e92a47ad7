package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cassiomorais/checkout/internal/domain/checkout"
	"github.com/cassiomorais/checkout/internal/domain/outbox"
	"github.com/cassiomorais/checkout/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxScheduler_InsertsDelayedEntry(t *testing.T) {
	repo := &testutil.MockOutboxRepository{}
	scheduler := NewOutboxScheduler(repo, 7)
	c := checkout.ChargeableContinuation{
		EventID:       "evt_1",
		ChannelID:     "storefront",
		TransactionID: uuid.New(),
		SourceID:      "src_1",
	}

	require.NoError(t, scheduler.ScheduleChargeable(context.Background(), c, 5*time.Second))

	require.Len(t, repo.Entries, 1)
	entry := repo.Entries[0]
	assert.Equal(t, outbox.EventChargeableContinuation, entry.EventType)
	assert.Equal(t, c.TransactionID, entry.AggregateID)
	assert.Equal(t, 7, entry.MaxRetries)
	assert.Equal(t, 5*time.Second, entry.AvailableAt.Sub(entry.CreatedAt))
	assert.False(t, entry.IsDue(entry.CreatedAt))

	back, err := checkout.ContinuationFromPayload(entry.Payload)
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestOutboxScheduler_PropagatesInsertError(t *testing.T) {
	repo := &testutil.MockOutboxRepository{
		InsertFunc: func(context.Context, *outbox.Entry) error { return errors.New("db down") },
	}
	scheduler := NewOutboxScheduler(repo, 0)

	err := scheduler.ScheduleChargeable(context.Background(), checkout.ChargeableContinuation{
		TransactionID: uuid.New(),
		SourceID:      "src_1",
	}, time.Second)
	assert.ErrorContains(t, err, "db down")
}
