package bootstrap

import (
	"github.com/cassiomorais/checkout/internal/application/reconciliation"
	infraRedis "github.com/cassiomorais/checkout/internal/infrastructure/redis"
	"github.com/cassiomorais/checkout/internal/providers"
	"github.com/cassiomorais/checkout/internal/repository/postgres"
)

const outboxMaxRetries = 5

// Reconciliation is the engine with the stores it was built on.
type Reconciliation struct {
	Engine   *reconciliation.Engine
	Gateways *providers.Factory
	TxM      *postgres.TxManager
	Outbox   *postgres.OutboxRepository
	Webhooks *postgres.WebhookEventRepository
}

// NewReconciliation wires the engine to PostgreSQL, Redis and Stripe.
func (a *App) NewReconciliation() *Reconciliation {
	cfg := a.Config

	txm := postgres.NewTxManager(a.Pool)
	outboxRepo := postgres.NewOutboxRepository(a.Pool)
	gateways := providers.NewFactory(&cfg.Stripe, cfg.Payment, cfg.Stripe, a.Logger, providers.WithMetrics(a.Metrics))

	engine := reconciliation.NewEngine(reconciliation.Dependencies{
		Transactions: postgres.NewTransactionRepository(a.Pool),
		References:   postgres.NewReferenceStore(a.Pool),
		States:       postgres.NewStateHandler(a.Pool, a.Logger),
		Orders:       postgres.NewOrderRepository(a.Pool),
		Customers:    postgres.NewCustomerRepository(a.Pool),
		Settings:     &cfg.Stripe,
		Gateways:     gateways,
		Claimer:      infraRedis.NewChargeClaimer(a.Redis, cfg.Payment.ClaimTTL),
		Scheduler:    postgres.NewOutboxScheduler(outboxRepo, outboxMaxRetries),
	}, reconciliation.Options{
		GracePeriod: cfg.Payment.GracePeriod,
		Logger:      a.Logger,
		Metrics:     a.Metrics,
	})

	return &Reconciliation{
		Engine:   engine,
		Gateways: gateways,
		TxM:      txm,
		Outbox:   outboxRepo,
		Webhooks: postgres.NewWebhookEventRepository(a.Pool),
	}
}
