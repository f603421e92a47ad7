package reconciliation

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cassiomorais/checkout/internal/application/methods"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
	"github.com/cassiomorais/checkout/internal/infrastructure/observability"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultGracePeriod = 5 * time.Second

// Dependencies are the collaborators the engine drives.
type Dependencies struct {
	Transactions transaction.Repository
	References   transaction.ReferenceStore
	States       transaction.StateHandler
	Orders       order.Reader
	Customers    CustomerDirectory
	Settings     SettingsProvider
	Gateways     Gateways
	Methods      *methods.Registry
	Claimer      ChargeClaimer
	Scheduler    ContinuationScheduler
}

type Options struct {
	// GracePeriod delays the webhook charge of a chargeable source so the
	// redirect path gets the first chance to create it.
	GracePeriod time.Duration
	Logger      zerolog.Logger
	Metrics     *observability.Metrics
}

// Engine drives an order transaction from payment initiation to paid or cancelled
// across the redirect and webhook completion paths. It holds no lock of its own
// across gateway or persistence calls.
type Engine struct {
	transactions transaction.Repository
	references   transaction.ReferenceStore
	states       transaction.StateHandler
	orders       order.Reader
	customers    CustomerDirectory
	settings     SettingsProvider
	gateways     Gateways
	methods      *methods.Registry
	claimer      ChargeClaimer
	scheduler    ContinuationScheduler

	gracePeriod time.Duration
	logger      zerolog.Logger
	metrics     *observability.Metrics
	tracer      trace.Tracer
}

func NewEngine(deps Dependencies, opts Options) *Engine {
	if deps.Methods == nil {
		deps.Methods = methods.DefaultRegistry()
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	return &Engine{
		transactions: deps.Transactions,
		references:   deps.References,
		states:       deps.States,
		orders:       deps.Orders,
		customers:    deps.Customers,
		settings:     deps.Settings,
		gateways:     deps.Gateways,
		methods:      deps.Methods,
		claimer:      deps.Claimer,
		scheduler:    deps.Scheduler,
		gracePeriod:  opts.GracePeriod,
		logger:       opts.Logger.With().Str("component", "reconciliation").Logger(),
		metrics:      opts.Metrics,
		tracer:       otel.Tracer("github.com/cassiomorais/checkout/reconciliation"),
	}
}

// pay marks the transaction paid unless it already is.
func (e *Engine) pay(ctx context.Context, tx *transaction.OrderTransaction) error {
	if tx.State == transaction.StatePaid {
		return nil
	}
	if err := e.states.Pay(ctx, tx.ID); err != nil {
		return err
	}
	tx.State = transaction.StatePaid
	e.metrics.ObserveTransition(string(transaction.StatePaid))
	e.logger.Info().Str("transaction_id", tx.ID.String()).Msg("Order transaction paid")
	return nil
}

// cancel marks the transaction cancelled. A paid transaction is never cancelled.
func (e *Engine) cancel(ctx context.Context, tx *transaction.OrderTransaction) error {
	if tx.State == transaction.StateCancelled || tx.State == transaction.StatePaid {
		return nil
	}
	if err := e.states.Cancel(ctx, tx.ID); err != nil {
		return err
	}
	tx.State = transaction.StateCancelled
	e.metrics.ObserveTransition(string(transaction.StateCancelled))
	e.logger.Info().Str("transaction_id", tx.ID.String()).Msg("Order transaction cancelled")
	return nil
}

// authorizeChannel rejects callers scoped to another sales channel. An empty scope is
// unrestricted.
func authorizeChannel(scope string, tx *transaction.OrderTransaction) error {
	if scope == "" || scope == tx.ChannelID {
		return nil
	}
	return domainErrors.NewDomainError("unauthorized",
		fmt.Sprintf("transaction %s belongs to another channel", tx.ID), domainErrors.ErrUnauthorized)
}

// observe ends the span and records the call outcome. Call it deferred with pointers to
// the named results.
func (e *Engine) observe(span trace.Span, entry string, start time.Time, outcome *string, err *error) {
	if *err != nil {
		span.RecordError(*err)
		span.SetStatus(codes.Error, domainErrors.CodeOf(*err))
		*outcome = domainErrors.CodeOf(*err)
	}
	span.End()
	e.metrics.ObserveReconciliation(entry, *outcome, time.Since(start))
}

// proofMatches compares the returned proof token with the object's secret in constant time.
func proofMatches(returned, secret string) bool {
	if returned == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(returned), []byte(secret)) == 1
}

// withQuery sets key=value on rawURL, keeping any query it already carries.
func withQuery(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		return rawURL + sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
