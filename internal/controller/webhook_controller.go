package controller

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/cassiomorais/checkout/internal/domain/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/go-chi/chi/v5"
)

const maxWebhookBodySize = 1 << 20

// WebhookHandler verifies and reconciles one webhook delivery.
type WebhookHandler interface {
	Execute(ctx context.Context, channelID string, payload []byte, signature string) (checkout.WebhookOutcome, error)
}

// WebhookController answers Stripe. Stripe retries anything but a 2xx, so only
// gateway unavailability gets a 5xx; every other failure is final and answered 400.
type WebhookController struct {
	handler        WebhookHandler
	defaultChannel string
}

func NewWebhookController(handler WebhookHandler, defaultChannel string) *WebhookController {
	return &WebhookController{handler: handler, defaultChannel: defaultChannel}
}

// Handle handles POST /webhooks/stripe and POST /webhooks/stripe/{channelID}
func (h *WebhookController) Handle(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	if channelID == "" {
		channelID = h.defaultChannel
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unreadable payload", Code: "invalid_payload"})
		return
	}

	if _, err := h.handler.Execute(r.Context(), channelID, payload, r.Header.Get("Stripe-Signature")); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, domainErrors.ErrGatewayUnavailable) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, ErrorResponse{Error: http.StatusText(status), Code: domainErrors.CodeOf(err)})
		return
	}

	w.WriteHeader(http.StatusOK)
}
