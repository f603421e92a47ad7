package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cassiomorais/checkout/internal/bootstrap"
	infraRedis "github.com/cassiomorais/checkout/internal/infrastructure/redis"
	"github.com/cassiomorais/checkout/internal/repository/postgres"
	"github.com/cassiomorais/checkout/internal/worker"
	"golang.org/x/sync/errgroup"
)

const (
	outboxRetention = 7 * 24 * time.Hour
	staleAfter      = time.Minute
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := bootstrap.New(ctx, "checkout-worker", "checkout_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	cfg := app.Config
	workerCfg := cfg.Worker
	rec := app.NewReconciliation()
	producer := infraRedis.NewStreamProducer(app.Redis)
	idempotencyRepo := postgres.NewIdempotencyRepository(app.Pool)

	stream := infraRedis.NewStreamConsumer(
		app.Redis,
		infraRedis.ContinuationStream,
		workerCfg.ConsumerGroup,
		cfg.InstanceID,
		workerCfg.BatchSize,
		workerCfg.BlockDuration,
	)
	if err := stream.CreateGroup(ctx); err != nil {
		app.Logger.Fatal().Err(err).Msg("Failed to create consumer group")
	}

	promoter := worker.NewOutboxPromoter(rec.TxM, rec.Outbox, producer, int(workerCfg.BatchSize), app.Logger, app.Metrics)
	consumer := worker.NewContinuationConsumer(stream, producer, rec.Engine, worker.ConsumerConfig{
		MaxAttempts: cfg.Payment.ContinuationMaxAttempts,
		StaleAfter:  staleAfter,
	}, app.Logger, app.Metrics)
	cleaner := worker.NewCleaner(app.Logger,
		worker.CleanupTask{Name: "idempotency_keys", Run: idempotencyRepo.Cleanup},
		worker.CleanupTask{Name: "webhook_events", Run: func(ctx context.Context) (int64, error) {
			return rec.Webhooks.Cleanup(ctx, workerCfg.WebhookEventTTL)
		}},
		worker.CleanupTask{Name: "outbox", Run: func(ctx context.Context) (int64, error) {
			return rec.Outbox.Cleanup(ctx, outboxRetention)
		}},
	)

	app.Logger.Info().
		Str("stream", infraRedis.ContinuationStream).
		Str("group", workerCfg.ConsumerGroup).
		Str("consumer", cfg.InstanceID).
		Msg("Worker started, listening for continuations...")

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Run(gCtx)
	})
	g.Go(func() error {
		return promoter.Run(gCtx, workerCfg.OutboxPollInterval)
	})
	g.Go(func() error {
		return cleaner.Run(gCtx, workerCfg.CleanupInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}
