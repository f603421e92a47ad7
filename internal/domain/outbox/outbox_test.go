package outbox

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	aggregateID := uuid.New()
	payload := map[string]any{
		"event_id":  "evt_1",
		"source_id": "src_1",
	}

	entry := NewEntry(AggregateOrderTransaction, aggregateID, EventChargeableContinuation, payload, 5*time.Second)

	require.NotNil(t, entry)
	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, aggregateID, entry.AggregateID)
	assert.Equal(t, EventChargeableContinuation, entry.EventType)
	assert.Equal(t, payload, entry.Payload)
	assert.Equal(t, StatusPending, entry.Status)
	assert.Equal(t, 5, entry.MaxRetries)
	assert.Equal(t, 5*time.Second, entry.AvailableAt.Sub(entry.CreatedAt))
	assert.Nil(t, entry.PublishedAt)
}

func TestNewEntry_NegativeDelayIsImmediate(t *testing.T) {
	entry := NewEntry(AggregateOrderTransaction, uuid.New(), EventChargeableContinuation, nil, -time.Second)
	assert.Equal(t, entry.CreatedAt, entry.AvailableAt)
	assert.True(t, entry.IsDue(time.Now()))
}

func TestEntry_IsDue(t *testing.T) {
	entry := NewEntry(AggregateOrderTransaction, uuid.New(), EventChargeableContinuation, nil, time.Minute)

	assert.False(t, entry.IsDue(entry.CreatedAt))
	assert.True(t, entry.IsDue(entry.AvailableAt))
	assert.True(t, entry.IsDue(entry.AvailableAt.Add(time.Second)))

	entry.Status = StatusPublished
	assert.False(t, entry.IsDue(entry.AvailableAt.Add(time.Second)))
}

func TestEntry_UniqueIDs(t *testing.T) {
	aggregateID := uuid.New()
	entry1 := NewEntry(AggregateOrderTransaction, aggregateID, EventChargeableContinuation, nil, 0)
	entry2 := NewEntry(AggregateOrderTransaction, aggregateID, EventChargeableContinuation, nil, 0)

	assert.NotEqual(t, entry1.ID, entry2.ID)
	assert.Equal(t, entry1.AggregateID, entry2.AggregateID)
}
