package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

type errorMapping struct {
	err    error
	status int
}

// errorMappings is ordered: the first sentinel in the chain decides the status.
var errorMappings = []errorMapping{
	{domainErrors.ErrValidationFailed, http.StatusBadRequest},
	{domainErrors.ErrUnauthorized, http.StatusUnauthorized},
	{domainErrors.ErrTransactionNotFound, http.StatusNotFound},
	{domainErrors.ErrOrderNotFound, http.StatusNotFound},
	{domainErrors.ErrChargeInProgress, http.StatusConflict},
	{domainErrors.ErrInvalidStateTransition, http.StatusConflict},
	{domainErrors.ErrGatewayUnavailable, http.StatusServiceUnavailable},
	{domainErrors.ErrChannelNotConfigured, http.StatusInternalServerError},
}

func statusFor(err error) int {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	if domainErrors.CodeOf(err) == "internal_error" {
		return http.StatusInternalServerError
	}
	return http.StatusUnprocessableEntity
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error(), Code: domainErrors.CodeOf(err)}
	status := statusFor(err)

	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		resp.Field = validationErr.Field
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", resp.Code).Msg("unhandled error in handler")
		resp.Error = http.StatusText(status)
	}
	writeJSON(w, status, resp)
}

// writeProcessError answers a failed checkout call. The customer sees a generic message
// and the internal code; details stay in the log.
func writeProcessError(w http.ResponseWriter, pe *domainErrors.PaymentProcessError) {
	status := statusFor(pe.Err)
	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(pe.Err).
		Str("phase", string(pe.Phase)).
		Str("transaction_id", pe.TransactionID.String()).
		Str("code", pe.Code).
		Msg("payment processing failed")

	writeJSON(w, status, ProcessErrorResponse{
		Error:         "payment processing failed",
		Code:          pe.Code,
		TransactionID: pe.TransactionID.String(),
		Retryable:     pe.Retryable(),
	})
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainErrors.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return domainErrors.NewValidationError(ve[0].Field(), ve[0].Tag()+" validation failed")
		}
		return domainErrors.NewValidationError("body", err.Error())
	}
	return nil
}
