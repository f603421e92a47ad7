package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cassiomorais/checkout/internal/infrastructure/observability"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(Metrics(metrics))
	r.Get("/api/v1/transactions/{id}/finalize", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"a", "b", "c"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/transactions/"+id+"/finalize", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, float64(3), promtest.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/transactions/{id}/finalize", "200")))
}

func TestMetrics_StatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		label  string
	}{
		{"ok", http.StatusOK, "200"},
		{"bad request", http.StatusBadRequest, "400"},
		{"unavailable", http.StatusServiceUnavailable, "503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := observability.NewMetrics("test", prometheus.NewRegistry())
			r := chi.NewRouter()
			r.Use(Metrics(metrics))
			r.Post("/webhooks/stripe", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", nil))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, float64(1), promtest.ToFloat64(
				metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/webhooks/stripe", tt.label)))
		})
	}
}

func TestMetrics_UnmatchedPathsShareALabel(t *testing.T) {
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())
	handler := Metrics(metrics)(http.NotFoundHandler())

	for _, path := range []string{"/x", "/y", "/z"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(3), promtest.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")))
}

func TestMetrics_NilMetricsPassesThrough(t *testing.T) {
	handler := Metrics(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestStatusRecorder(t *testing.T) {
	w := httptest.NewRecorder()
	rec := newBodyRecorder(w, 4)

	_, _ = rec.Write([]byte("ok"))
	assert.Equal(t, http.StatusOK, rec.statusCode)
	assert.Equal(t, "ok", rec.body.String())

	_, _ = rec.Write([]byte("too long"))
	assert.True(t, rec.truncated)
	assert.Equal(t, "oktoo long", w.Body.String())
}
