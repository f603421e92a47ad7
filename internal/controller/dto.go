package controller

import (
	"github.com/cassiomorais/checkout/internal/domain/checkout"
)

// InitiatePaymentRequest is the body of POST /api/v1/transactions/{id}/payments.
type InitiatePaymentRequest struct {
	Method    string           `json:"method" validate:"required,oneof=card sepa sofort bancontact klarna digital_wallets"`
	ReturnURL string           `json:"return_url,omitempty" validate:"omitempty,url"`
	Session   checkout.Session `json:"session"`
}

type InitiatePaymentResponse struct {
	RedirectURL  string `json:"redirect_url,omitempty"`
	Immediate    bool   `json:"immediate"`
	ResetSession bool   `json:"reset_session"`
}

type FinalizePaymentResponse struct {
	Status       string `json:"status"`
	ResetSession bool   `json:"reset_session"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// ProcessErrorResponse is the body of a failed initiate or finalize call.
type ProcessErrorResponse struct {
	Error         string `json:"error"`
	Code          string `json:"code"`
	TransactionID string `json:"transaction_id"`
	Retryable     bool   `json:"retryable"`
}

func toInitiateResponse(res *checkout.InitiateResult) InitiatePaymentResponse {
	return InitiatePaymentResponse{
		RedirectURL:  res.RedirectURL,
		Immediate:    res.Immediate,
		ResetSession: res.ResetSession,
	}
}

func toFinalizeResponse(res *checkout.FinalizeResult) FinalizePaymentResponse {
	return FinalizePaymentResponse{
		Status:       string(res.Status),
		ResetSession: res.ResetSession,
	}
}
