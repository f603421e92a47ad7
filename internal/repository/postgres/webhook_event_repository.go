package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	webhookEventProcessing = "processing"
	webhookEventProcessed  = "processed"
	webhookEventFailed     = "failed"
)

// WebhookEventRepository de-duplicates Stripe deliveries by event id.
type WebhookEventRepository struct {
	pool *pgxpool.Pool
}

func NewWebhookEventRepository(pool *pgxpool.Pool) *WebhookEventRepository {
	return &WebhookEventRepository{pool: pool}
}

func (r *WebhookEventRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Begin records a delivery attempt. A processed event keeps its status, which tells the
// caller to acknowledge without side effects.
func (r *WebhookEventRepository) Begin(ctx context.Context, eventID, channelID, eventType string) (bool, error) {
	var status string
	err := r.db(ctx).QueryRow(ctx,
		`INSERT INTO webhook_events (event_id, channel_id, event_type, status, attempts, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, 1, NOW(), NOW())
		 ON CONFLICT (event_id) DO UPDATE SET
		   attempts = webhook_events.attempts + 1,
		   status = CASE WHEN webhook_events.status = $5 THEN webhook_events.status ELSE $4 END,
		   updated_at = NOW()
		 RETURNING status`,
		eventID, channelID, eventType, webhookEventProcessing, webhookEventProcessed,
	).Scan(&status)
	if err != nil {
		return false, fmt.Errorf("begin webhook event: %w", err)
	}
	return status == webhookEventProcessed, nil
}

func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, eventID string) error {
	_, err := r.db(ctx).Exec(ctx,
		`UPDATE webhook_events SET status = $2, last_error = NULL, processed_at = NOW(), updated_at = NOW()
		 WHERE event_id = $1`,
		eventID, webhookEventProcessed,
	)
	if err != nil {
		return fmt.Errorf("mark webhook event processed: %w", err)
	}
	return nil
}

func (r *WebhookEventRepository) MarkFailed(ctx context.Context, eventID, reason string) error {
	_, err := r.db(ctx).Exec(ctx,
		`UPDATE webhook_events SET status = $2, last_error = $3, updated_at = NOW()
		 WHERE event_id = $1 AND status <> $4`,
		eventID, webhookEventFailed, reason, webhookEventProcessed,
	)
	if err != nil {
		return fmt.Errorf("mark webhook event failed: %w", err)
	}
	return nil
}

// Cleanup removes events older than retention.
func (r *WebhookEventRepository) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := r.db(ctx).Exec(ctx,
		`DELETE FROM webhook_events WHERE created_at < $1`, time.Now().Add(-retention),
	)
	if err != nil {
		return 0, fmt.Errorf("cleanup webhook events: %w", err)
	}
	return tag.RowsAffected(), nil
}
