package worker

import (
	"context"
	"time"

	"github.com/cassiomorais/checkout/internal/domain/checkout"
	"github.com/cassiomorais/checkout/internal/infrastructure/observability"
	infraRedis "github.com/cassiomorais/checkout/internal/infrastructure/redis"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ContinuationStream is the consumer-group side of the continuation stream.
type ContinuationStream interface {
	Read(ctx context.Context) ([]redis.XMessage, error)
	ClaimStale(ctx context.Context, minIdle time.Duration) ([]redis.XMessage, error)
	Ack(ctx context.Context, messageID string) error
}

type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, messageID string, reason string, values map[string]any) error
}

// ContinuationProcessor runs or reschedules a chargeable continuation.
type ContinuationProcessor interface {
	ProcessContinuation(ctx context.Context, c checkout.ChargeableContinuation, maxAttempts int) error
}

// ConsumerConfig tunes the consumer. StaleAfter is how long a delivered message may stay
// unacknowledged before another consumer takes it over.
type ConsumerConfig struct {
	MaxAttempts   int
	StaleAfter    time.Duration
	ClaimInterval time.Duration
}

// ContinuationConsumer charges chargeable sources the webhook path deferred.
// A message is acknowledged once it was processed, rescheduled or dead-lettered.
type ContinuationConsumer struct {
	stream    ContinuationStream
	dlq       DeadLetterPublisher
	processor ContinuationProcessor
	cfg       ConsumerConfig
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

func NewContinuationConsumer(
	stream ContinuationStream,
	dlq DeadLetterPublisher,
	processor ContinuationProcessor,
	cfg ConsumerConfig,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *ContinuationConsumer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = time.Minute
	}
	if cfg.ClaimInterval <= 0 {
		cfg.ClaimInterval = 30 * time.Second
	}
	return &ContinuationConsumer{
		stream:    stream,
		dlq:       dlq,
		processor: processor,
		cfg:       cfg,
		logger:    logger.With().Str("component", "continuations").Logger(),
		metrics:   metrics,
	}
}

// Run reads the stream until ctx is done.
func (c *ContinuationConsumer) Run(ctx context.Context) error {
	lastClaim := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if time.Since(lastClaim) >= c.cfg.ClaimInterval {
			lastClaim = time.Now()
			stale, err := c.stream.ClaimStale(ctx, c.cfg.StaleAfter)
			if err != nil {
				c.logger.Warn().Err(err).Msg("Failed to claim stale messages")
			}
			c.HandleBatch(ctx, stale)
		}

		messages, err := c.stream.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error().Err(err).Msg("Failed to read from stream")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		c.HandleBatch(ctx, messages)
	}
}

func (c *ContinuationConsumer) HandleBatch(ctx context.Context, messages []redis.XMessage) {
	for _, msg := range messages {
		c.handle(ctx, msg)
	}
}

func (c *ContinuationConsumer) handle(ctx context.Context, msg redis.XMessage) {
	start := time.Now()
	log := c.logger.With().Str("message_id", msg.ID).Logger()

	cont, err := infraRedis.DecodeContinuation(msg.Values)
	if err != nil {
		log.Error().Err(err).Msg("Undecodable continuation, moving to DLQ")
		c.deadLetter(ctx, msg, err.Error())
		c.ack(ctx, msg.ID)
		c.metrics.ObserveWorkerMessage(infraRedis.ContinuationStream, "invalid", time.Since(start))
		return
	}

	log = log.With().
		Str("transaction_id", cont.TransactionID.String()).
		Str("source_id", cont.SourceID).
		Int("attempt", cont.Attempt).
		Logger()

	if err := c.processor.ProcessContinuation(ctx, cont, c.cfg.MaxAttempts); err != nil {
		if ctx.Err() != nil {
			// Left pending; it is claimed again after StaleAfter.
			return
		}
		log.Error().Err(err).Msg("Continuation failed, moving to DLQ")
		c.deadLetter(ctx, msg, err.Error())
		c.ack(ctx, msg.ID)
		c.metrics.ObserveWorkerMessage(infraRedis.ContinuationStream, "failed", time.Since(start))
		return
	}

	c.ack(ctx, msg.ID)
	c.metrics.ObserveWorkerMessage(infraRedis.ContinuationStream, "success", time.Since(start))
	log.Info().Dur("elapsed", time.Since(start)).Msg("Continuation handled")
}

func (c *ContinuationConsumer) deadLetter(ctx context.Context, msg redis.XMessage, reason string) {
	if err := c.dlq.PublishToDLQ(ctx, msg.ID, reason, msg.Values); err != nil {
		c.logger.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to publish to DLQ")
	}
}

func (c *ContinuationConsumer) ack(ctx context.Context, id string) {
	if err := c.stream.Ack(ctx, id); err != nil {
		c.logger.Error().Err(err).Str("message_id", id).Msg("Failed to ack message")
	}
}
