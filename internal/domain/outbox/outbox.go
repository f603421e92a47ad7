package outbox

import (
	"time"

	"github.com/google/uuid"
)

const (
	AggregateOrderTransaction = "order_transaction"

	// EventChargeableContinuation defers the charge of a source that became chargeable.
	EventChargeableContinuation = "source.chargeable.continuation"
)

type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	EventType     string
	Payload       map[string]any
	Status        Status
	RetryCount    int
	MaxRetries    int
	CreatedAt     time.Time
	// AvailableAt is the earliest time the entry may be published.
	AvailableAt time.Time
	PublishedAt *time.Time
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
)

// NewEntry creates a pending entry that becomes due after delay.
func NewEntry(aggregateType string, aggregateID uuid.UUID, eventType string, payload map[string]any, delay time.Duration) *Entry {
	now := time.Now()
	if delay < 0 {
		delay = 0
	}
	return &Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		Status:        StatusPending,
		MaxRetries:    5,
		CreatedAt:     now,
		AvailableAt:   now.Add(delay),
	}
}

// IsDue reports whether the entry may be published at t.
func (e *Entry) IsDue(t time.Time) bool {
	return e.Status == StatusPending && !e.AvailableAt.After(t)
}
