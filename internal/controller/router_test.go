package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cassiomorais/checkout/internal/application/reconciliation"
	"github.com/cassiomorais/checkout/internal/domain/checkout"
	"github.com/cassiomorais/checkout/internal/infrastructure/observability"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, secret string, checks ...DependencyCheck) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewRouter(RouterDeps{
		Processor: &stubProcessor{
			FinalizeFunc: func(context.Context, reconciliation.FinalizeRequest) (*checkout.FinalizeResult, error) {
				return &checkout.FinalizeResult{Status: checkout.FinalizeAwaitingWebhook}, nil
			},
		},
		Webhooks: &stubWebhookHandler{
			ExecuteFunc: func(context.Context, string, []byte, string) (checkout.WebhookOutcome, error) {
				return checkout.OutcomeIgnored, nil
			},
		},
		Checks:         checks,
		Metrics:        observability.NewMetrics("checkout", reg),
		Gatherer:       reg,
		Logger:         zerolog.Nop(),
		JWTSecret:      secret,
		DefaultChannel: "default",
		ServiceName:    "checkout-api-test",
	})
}

func TestRouter_HealthEndpoints(t *testing.T) {
	router := newTestRouter(t, "")

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouter_ReadinessFailsOnDependency(t *testing.T) {
	router := newTestRouter(t, "",
		DependencyCheck{Name: "database", Check: func(context.Context) error { return nil }},
		DependencyCheck{Name: "redis", Check: func(context.Context) error { return errors.New("dial tcp: refused") }},
	)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"not ready","reason":"redis unavailable"}`, w.Body.String())
}

func TestRouter_MetricsExposed(t *testing.T) {
	router := newTestRouter(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestRouter_APIRequiresToken(t *testing.T) {
	router := newTestRouter(t, "test-secret")
	path := "/api/v1/transactions/" + uuid.NewString() + "/finalize"

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "storefront"}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRouter_WebhooksBypassAuth(t *testing.T) {
	router := newTestRouter(t, "test-secret")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/stripe/eu-shop", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusOK, w.Code)
}
