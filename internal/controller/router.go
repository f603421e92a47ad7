package controller

import (
	"net/http"
	"time"

	"github.com/cassiomorais/checkout/internal/infrastructure/config"
	"github.com/cassiomorais/checkout/internal/infrastructure/observability"
	customMW "github.com/cassiomorais/checkout/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const apiRequestsPerMinute = 120

// RouterDeps carries the collaborators of the HTTP surface. A nil Gatherer serves
// /metrics from the default registry.
type RouterDeps struct {
	Processor       PaymentProcessor
	Webhooks        WebhookHandler
	IdempotencyRepo customMW.IdempotencyStore
	Checks          []DependencyCheck
	Metrics         *observability.Metrics
	Gatherer        prometheus.Gatherer
	Logger          zerolog.Logger
	CORSConfig      config.CORSConfig
	JWTSecret       string
	DefaultChannel  string
	ServiceName     string
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(customMW.Tracing(deps.ServiceName))
	r.Use(customMW.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Checks...)
	checkoutH := NewCheckoutController(deps.Processor)
	webhookH := NewWebhookController(deps.Webhooks, deps.DefaultChannel)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Stripe calls these; they are authenticated by the payload signature.
	r.Post("/webhooks/stripe", webhookH.Handle)
	r.Post("/webhooks/stripe/{channelID}", webhookH.Handle)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
			AllowCredentials: deps.CORSConfig.AllowCredentials,
			MaxAge:           300,
		}))
		r.Use(customMW.SecurityHeaders())
		r.Use(customMW.RateLimit(apiRequestsPerMinute))
		if deps.JWTSecret != "" {
			r.Use(customMW.RequireAuth(deps.JWTSecret))
		}

		r.With(customMW.Idempotency(deps.IdempotencyRepo)).
			Post("/transactions/{id}/payments", checkoutH.Initiate)
		r.Get("/transactions/{id}/finalize", checkoutH.Finalize)
	})

	return r
}
