package providers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cassiomorais/checkout/internal/application/reconciliation"
	"github.com/cassiomorais/checkout/internal/domain/processor"
	"github.com/cassiomorais/checkout/internal/infrastructure/config"
	"github.com/cassiomorais/checkout/internal/infrastructure/observability"
	"github.com/cassiomorais/checkout/pkg/retry"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
)

// Factory builds one StripeGateway per sales channel on first use, each with its own
// credentials and circuit breaker.
type Factory struct {
	settings reconciliation.SettingsProvider
	cfg      config.PaymentConfig
	stripe   config.StripeConfig
	logger   zerolog.Logger
	metrics  *observability.Metrics
	backends *stripe.Backends

	mu       sync.Mutex
	gateways map[string]*StripeGateway
}

type FactoryOption func(*Factory)

// WithBackends points every client at the given backends, e.g. an httptest server.
func WithBackends(b *stripe.Backends) FactoryOption {
	return func(f *Factory) { f.backends = b }
}

func WithMetrics(m *observability.Metrics) FactoryOption {
	return func(f *Factory) { f.metrics = m }
}

func NewFactory(
	settings reconciliation.SettingsProvider,
	paymentCfg config.PaymentConfig,
	stripeCfg config.StripeConfig,
	logger zerolog.Logger,
	opts ...FactoryOption,
) *Factory {
	f := &Factory{
		settings: settings,
		cfg:      paymentCfg,
		stripe:   stripeCfg,
		logger:   logger.With().Str("component", "stripe").Logger(),
		gateways: make(map[string]*StripeGateway),
	}
	for _, o := range opts {
		o(f)
	}
	if f.backends == nil {
		f.backends = &stripe.Backends{
			API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
				HTTPClient:        &http.Client{Timeout: 30 * time.Second},
				MaxNetworkRetries: stripe.Int64(0),
				LeveledLogger:     leveledLogger{f.logger},
			}),
		}
	}
	return f
}

var _ reconciliation.Gateways = (*Factory)(nil)

// ForChannel returns ErrChannelNotConfigured for channels without Stripe settings.
func (f *Factory) ForChannel(_ context.Context, channelID string) (processor.Gateway, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if gw, ok := f.gateways[channelID]; ok {
		return gw, nil
	}

	settings, err := f.settings.ChannelSettings(channelID)
	if err != nil {
		return nil, err
	}

	backends := *f.backends
	if backends.Connect == nil {
		backends.Connect = backends.API
	}
	if backends.Uploads == nil {
		backends.Uploads = backends.API
	}

	gw := &StripeGateway{
		channelID:     channelID,
		api:           client.New(settings.SecretKey, &backends),
		webhookSecret: settings.WebhookSecret,
		tolerance:     f.stripe.WebhookTolerance,
		platformName:  f.stripe.PlatformName,
		breaker:       f.newBreaker(channelID),
		retry: retry.Config{
			MaxAttempts:  uint(max(f.cfg.MaxRetries, 1)),
			InitialDelay: f.cfg.RetryDelay,
			MaxDelay:     10 * f.cfg.RetryDelay,
		},
		logger:  f.logger.With().Str("channel_id", channelID).Logger(),
		metrics: f.metrics,
	}
	f.gateways[channelID] = gw
	return gw, nil
}

func (f *Factory) newBreaker(channelID string) *gobreaker.CircuitBreaker[any] {
	threshold := uint32(max(f.cfg.CircuitBreakerThreshold, 1))
	timeout := f.cfg.CircuitBreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	name := "stripe:" + channelID

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.metrics.SetBreakerState(name, float64(to))
			f.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})
}

// leveledLogger routes stripe-go client logs through zerolog.
type leveledLogger struct {
	logger zerolog.Logger
}

func (l leveledLogger) Debugf(format string, v ...interface{}) { l.logger.Debug().Msgf(format, v...) }
func (l leveledLogger) Infof(format string, v ...interface{})  { l.logger.Debug().Msgf(format, v...) }
func (l leveledLogger) Warnf(format string, v ...interface{})  { l.logger.Warn().Msgf(format, v...) }
func (l leveledLogger) Errorf(format string, v ...interface{}) { l.logger.Error().Msgf(format, v...) }
