package checkout

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// InitiateResult tells the storefront where to send the customer.
type InitiateResult struct {
	RedirectURL string
	// Immediate is set when the payment completed during initiate.
	Immediate    bool
	ResetSession bool
}

type FinalizeStatus string

const (
	FinalizePaid            FinalizeStatus = "paid"
	FinalizeAwaitingWebhook FinalizeStatus = "awaiting_webhook"
)

type FinalizeResult struct {
	Status       FinalizeStatus
	ResetSession bool
}

// WebhookOutcome records what reconciliation did with an event.
type WebhookOutcome string

const (
	OutcomeProcessed WebhookOutcome = "processed"
	OutcomeIgnored   WebhookOutcome = "ignored"
	OutcomeDuplicate WebhookOutcome = "duplicate"
	OutcomeScheduled WebhookOutcome = "scheduled"
)

// ChargeableContinuation is the deferred second half of a source.chargeable event.
type ChargeableContinuation struct {
	EventID       string    `json:"event_id"`
	ChannelID     string    `json:"channel_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	SourceID      string    `json:"source_id"`
	Attempt       int       `json:"attempt"`
}

// Next returns the continuation for the following attempt.
func (c ChargeableContinuation) Next() ChargeableContinuation {
	c.Attempt++
	return c
}

// Payload renders the continuation as a generic JSON object.
func (c ChargeableContinuation) Payload() map[string]any {
	return map[string]any{
		"event_id":       c.EventID,
		"channel_id":     c.ChannelID,
		"transaction_id": c.TransactionID.String(),
		"source_id":      c.SourceID,
		"attempt":        c.Attempt,
	}
}

// ContinuationFromPayload is the inverse of Payload.
func ContinuationFromPayload(payload map[string]any) (ChargeableContinuation, error) {
	var c ChargeableContinuation
	raw, err := json.Marshal(payload)
	if err != nil {
		return c, fmt.Errorf("marshal continuation payload: %w", err)
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("unmarshal continuation payload: %w", err)
	}
	if c.SourceID == "" || c.TransactionID == uuid.Nil {
		return c, errors.New("continuation payload is incomplete")
	}
	return c, nil
}
