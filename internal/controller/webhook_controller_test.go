package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cassiomorais/checkout/internal/domain/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWebhookHandler struct {
	ExecuteFunc func(ctx context.Context, channelID string, payload []byte, signature string) (checkout.WebhookOutcome, error)
}

func (s *stubWebhookHandler) Execute(ctx context.Context, channelID string, payload []byte, signature string) (checkout.WebhookOutcome, error) {
	return s.ExecuteFunc(ctx, channelID, payload, signature)
}

func newWebhookRouter(h WebhookHandler) *chi.Mux {
	c := NewWebhookController(h, "default")
	r := chi.NewRouter()
	r.Post("/webhooks/stripe", c.Handle)
	r.Post("/webhooks/stripe/{channelID}", c.Handle)
	return r
}

func TestWebhook_ChannelAndSignature(t *testing.T) {
	tests := []struct {
		path            string
		expectedChannel string
	}{
		{"/webhooks/stripe", "default"},
		{"/webhooks/stripe/eu-shop", "eu-shop"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var gotChannel, gotSignature string
			var gotPayload []byte
			router := newWebhookRouter(&stubWebhookHandler{
				ExecuteFunc: func(_ context.Context, channelID string, payload []byte, signature string) (checkout.WebhookOutcome, error) {
					gotChannel, gotPayload, gotSignature = channelID, payload, signature
					return checkout.OutcomeProcessed, nil
				},
			})

			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(`{"id":"evt_1"}`))
			req.Header.Set("Stripe-Signature", "t=1,v1=abc")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, w.Body.String())
			assert.Equal(t, tt.expectedChannel, gotChannel)
			assert.Equal(t, `{"id":"evt_1"}`, string(gotPayload))
			assert.Equal(t, "t=1,v1=abc", gotSignature)
		})
	}
}

func TestWebhook_StatusMapping(t *testing.T) {
	tests := []struct {
		name           string
		outcome        checkout.WebhookOutcome
		err            error
		expectedStatus int
	}{
		{"processed", checkout.OutcomeProcessed, nil, http.StatusOK},
		{"ignored", checkout.OutcomeIgnored, nil, http.StatusOK},
		{"duplicate", checkout.OutcomeDuplicate, nil, http.StatusOK},
		{"scheduled", checkout.OutcomeScheduled, nil, http.StatusOK},
		{"bad signature", "", domainErrors.ErrInvalidSignature, http.StatusBadRequest},
		{"unknown event type", "", domainErrors.ErrUnknownEventType, http.StatusBadRequest},
		{"engine failure", "", fmt.Errorf("pay: %w", domainErrors.ErrInvalidStateTransition), http.StatusBadRequest},
		{"storage failure", "", errors.New("connection refused"), http.StatusBadRequest},
		{"gateway down", "", fmt.Errorf("get source: %w", domainErrors.ErrGatewayUnavailable), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newWebhookRouter(&stubWebhookHandler{
				ExecuteFunc: func(context.Context, string, []byte, string) (checkout.WebhookOutcome, error) {
					return tt.outcome, tt.err
				},
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{}`)))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}

func TestWebhook_OversizedPayload(t *testing.T) {
	called := false
	router := newWebhookRouter(&stubWebhookHandler{
		ExecuteFunc: func(context.Context, string, []byte, string) (checkout.WebhookOutcome, error) {
			called = true
			return checkout.OutcomeProcessed, nil
		},
	})

	body := strings.Repeat("x", maxWebhookBodySize+1)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_payload")
	assert.False(t, called)
}
