package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cassiomorais/checkout/internal/application/reconciliation"
	"github.com/cassiomorais/checkout/internal/domain/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	customMW "github.com/cassiomorais/checkout/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProcessor struct {
	InitiateFunc func(ctx context.Context, req reconciliation.InitiateRequest) (*checkout.InitiateResult, error)
	FinalizeFunc func(ctx context.Context, req reconciliation.FinalizeRequest) (*checkout.FinalizeResult, error)
}

func (s *stubProcessor) Initiate(ctx context.Context, req reconciliation.InitiateRequest) (*checkout.InitiateResult, error) {
	return s.InitiateFunc(ctx, req)
}

func (s *stubProcessor) FinalizeFromRedirect(ctx context.Context, req reconciliation.FinalizeRequest) (*checkout.FinalizeResult, error) {
	return s.FinalizeFunc(ctx, req)
}

func newCheckoutRouter(p PaymentProcessor) *chi.Mux {
	h := NewCheckoutController(p)
	r := chi.NewRouter()
	r.Post("/api/v1/transactions/{id}/payments", h.Initiate)
	r.Get("/api/v1/transactions/{id}/finalize", h.Finalize)
	return r
}

func TestInitiate_InvalidTransactionID(t *testing.T) {
	router := newCheckoutRouter(&stubProcessor{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/not-a-uuid/payments", strings.NewReader(`{"method":"card"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "invalid_id", resp.Code)
}

func TestInitiate_ValidationFailure(t *testing.T) {
	called := false
	router := newCheckoutRouter(&stubProcessor{
		InitiateFunc: func(context.Context, reconciliation.InitiateRequest) (*checkout.InitiateResult, error) {
			called = true
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+uuid.NewString()+"/payments", strings.NewReader(`{"method":"ideal"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, called)
}

func TestInitiate_PassesRequestThrough(t *testing.T) {
	txID := uuid.New()
	var got reconciliation.InitiateRequest
	router := newCheckoutRouter(&stubProcessor{
		InitiateFunc: func(_ context.Context, req reconciliation.InitiateRequest) (*checkout.InitiateResult, error) {
			got = req
			return &checkout.InitiateResult{RedirectURL: "https://hooks.stripe.com/redirect/src_1", ResetSession: true}, nil
		},
	})

	body := `{"method":"sepa","return_url":"https://shop.example.com/return","session":{"selected_bank_account_id":"pm_sepa_1","save_bank_account":true}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+txID.String()+"/payments", strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:51234"
	req.Header.Set("User-Agent", "Mozilla/5.0 (test)")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, txID, got.TransactionID)
	assert.Equal(t, checkout.MethodSEPA, got.Method)
	assert.Equal(t, "https://shop.example.com/return", got.ReturnURL)
	assert.Equal(t, "pm_sepa_1", got.Session.SelectedBankAccountID)
	assert.True(t, got.Session.SaveBankAccount)
	assert.Equal(t, "203.0.113.7", got.Session.ClientIP)
	assert.Equal(t, "Mozilla/5.0 (test)", got.Session.UserAgent)

	var resp InitiatePaymentResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "https://hooks.stripe.com/redirect/src_1", resp.RedirectURL)
	assert.False(t, resp.Immediate)
	assert.True(t, resp.ResetSession)
}

func TestInitiate_ProcessFailure(t *testing.T) {
	txID := uuid.New()
	router := newCheckoutRouter(&stubProcessor{
		InitiateFunc: func(context.Context, reconciliation.InitiateRequest) (*checkout.InitiateResult, error) {
			return nil, domainErrors.ErrPaymentIntentNotChargeable
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+txID.String()+"/payments", strings.NewReader(`{"method":"card"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp ProcessErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "payment_intent_not_chargeable", resp.Code)
	assert.Equal(t, txID.String(), resp.TransactionID)
	assert.True(t, resp.Retryable)
}

func TestFinalize_ReadsRedirectParameters(t *testing.T) {
	txID := uuid.New()
	var got reconciliation.FinalizeRequest
	router := newCheckoutRouter(&stubProcessor{
		FinalizeFunc: func(_ context.Context, req reconciliation.FinalizeRequest) (*checkout.FinalizeResult, error) {
			got = req
			return &checkout.FinalizeResult{Status: checkout.FinalizePaid, ResetSession: true}, nil
		},
	})

	url := "/api/v1/transactions/" + txID.String() + "/finalize?payment_intent_client_secret=pi_1_secret_x&redirect_status=succeeded"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, txID, got.TransactionID)
	assert.Equal(t, "pi_1_secret_x", got.PaymentIntentClientSecret)
	assert.Empty(t, got.ClientSecret)
	assert.Equal(t, "succeeded", got.RedirectStatus)

	var resp FinalizePaymentResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "paid", resp.Status)
	assert.True(t, resp.ResetSession)
}

func TestFinalize_AwaitingWebhook(t *testing.T) {
	router := newCheckoutRouter(&stubProcessor{
		FinalizeFunc: func(_ context.Context, req reconciliation.FinalizeRequest) (*checkout.FinalizeResult, error) {
			assert.Equal(t, "src_1_secret_y", req.ClientSecret)
			return &checkout.FinalizeResult{Status: checkout.FinalizeAwaitingWebhook}, nil
		},
	})

	url := "/api/v1/transactions/" + uuid.NewString() + "/finalize?client_secret=src_1_secret_y"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"awaiting_webhook","reset_session":false}`, w.Body.String())
}

func TestFinalize_Failures(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"customer canceled", domainErrors.ErrCustomerCanceled, http.StatusUnprocessableEntity, "customer_canceled"},
		{"charge in progress", domainErrors.ErrChargeInProgress, http.StatusConflict, "charge_in_progress"},
		{"unknown transaction", domainErrors.ErrTransactionNotFound, http.StatusNotFound, "transaction_not_found"},
		{"other channel", domainErrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"gateway down", domainErrors.ErrGatewayUnavailable, http.StatusServiceUnavailable, "gateway_unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newCheckoutRouter(&stubProcessor{
				FinalizeFunc: func(context.Context, reconciliation.FinalizeRequest) (*checkout.FinalizeResult, error) {
					return nil, tt.err
				},
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/transactions/"+uuid.NewString()+"/finalize", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			var resp ProcessErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.expectedCode, resp.Code)
		})
	}
}

func TestFinalize_ScopesToTokenChannel(t *testing.T) {
	var got reconciliation.FinalizeRequest
	router := newCheckoutRouter(&stubProcessor{
		FinalizeFunc: func(_ context.Context, req reconciliation.FinalizeRequest) (*checkout.FinalizeResult, error) {
			got = req
			return &checkout.FinalizeResult{Status: checkout.FinalizePaid}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/"+uuid.NewString()+"/finalize", nil)
	req = req.WithContext(context.WithValue(req.Context(), customMW.ChannelIDKey, "storefront"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "storefront", got.ChannelID)
}
