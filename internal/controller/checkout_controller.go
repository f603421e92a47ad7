package controller

import (
	"context"
	"net"
	"net/http"

	"github.com/cassiomorais/checkout/internal/application/reconciliation"
	"github.com/cassiomorais/checkout/internal/domain/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	customMW "github.com/cassiomorais/checkout/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PaymentProcessor is the storefront-facing side of the reconciliation engine.
type PaymentProcessor interface {
	Initiate(ctx context.Context, req reconciliation.InitiateRequest) (*checkout.InitiateResult, error)
	FinalizeFromRedirect(ctx context.Context, req reconciliation.FinalizeRequest) (*checkout.FinalizeResult, error)
}

// CheckoutController starts payments and completes them when the customer returns.
type CheckoutController struct {
	processor PaymentProcessor
}

func NewCheckoutController(processor PaymentProcessor) *CheckoutController {
	return &CheckoutController{processor: processor}
}

// Initiate handles POST /api/v1/transactions/{id}/payments
func (h *CheckoutController) Initiate(w http.ResponseWriter, r *http.Request) {
	txID, ok := transactionID(w, r)
	if !ok {
		return
	}

	var req InitiatePaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	session := req.Session
	session.ClientIP = clientIP(r)
	session.UserAgent = r.UserAgent()

	channelID, _ := customMW.GetChannelID(r.Context())
	res, err := h.processor.Initiate(r.Context(), reconciliation.InitiateRequest{
		TransactionID: txID,
		Method:        checkout.Method(req.Method),
		ChannelID:     channelID,
		ReturnURL:     req.ReturnURL,
		Session:       session,
	})
	if err != nil {
		writeProcessError(w, domainErrors.NewPaymentProcessError(domainErrors.PhaseInitiate, txID, err))
		return
	}

	writeJSON(w, http.StatusOK, toInitiateResponse(res))
}

// Finalize handles GET /api/v1/transactions/{id}/finalize
func (h *CheckoutController) Finalize(w http.ResponseWriter, r *http.Request) {
	txID, ok := transactionID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	channelID, _ := customMW.GetChannelID(r.Context())
	res, err := h.processor.FinalizeFromRedirect(r.Context(), reconciliation.FinalizeRequest{
		TransactionID:             txID,
		PaymentIntentClientSecret: q.Get(reconciliation.ProofTokenParam),
		ClientSecret:              q.Get("client_secret"),
		RedirectStatus:            q.Get("redirect_status"),
		ChannelID:                 channelID,
	})
	if err != nil {
		writeProcessError(w, domainErrors.NewPaymentProcessError(domainErrors.PhaseFinalize, txID, err))
		return
	}

	writeJSON(w, http.StatusOK, toFinalizeResponse(res))
}

func transactionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid transaction id", Code: "invalid_id"})
		return uuid.Nil, false
	}
	return id, true
}

// clientIP expects RealIP to have rewritten RemoteAddr from the proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
