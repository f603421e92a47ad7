package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v74"
)

// mapError translates a Stripe client error into the domain taxonomy, keeping the
// Stripe message for the logs.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("stripe %s: %w", op, err)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("stripe %s: %w: %w", op, err, domainErrors.ErrGatewayUnavailable)
	}

	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		// Transport failure; the request may never have reached Stripe.
		return fmt.Errorf("stripe %s: %v: %w", op, err, domainErrors.ErrGatewayUnavailable)
	}

	switch {
	case stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripe.ErrorCodeResourceMissing:
		return fmt.Errorf("stripe %s: %s: %w", op, stripeErr.Msg, domainErrors.ErrProcessorObjectNotFound)
	case stripeErr.HTTPStatusCode == http.StatusTooManyRequests || stripeErr.HTTPStatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("stripe %s: %s: %w", op, stripeErr.Msg, domainErrors.ErrGatewayUnavailable)
	case stripeErr.HTTPStatusCode == http.StatusUnauthorized:
		return fmt.Errorf("stripe %s: %s: %w", op, stripeErr.Msg, domainErrors.ErrChannelNotConfigured)
	default:
		return fmt.Errorf("stripe %s: %s: %w", op, stripeErr.Msg, domainErrors.ErrGatewayRejected)
	}
}

// isTransient reports whether a mapped error is worth another attempt.
func isTransient(err error) bool {
	return errors.Is(err, domainErrors.ErrGatewayUnavailable) &&
		!errors.Is(err, gobreaker.ErrOpenState) &&
		!errors.Is(err, gobreaker.ErrTooManyRequests)
}

// resultLabel is the metrics label of a gateway call outcome.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domainErrors.ErrGatewayUnavailable):
		return "unavailable"
	case errors.Is(err, domainErrors.ErrProcessorObjectNotFound):
		return "not_found"
	default:
		return "rejected"
	}
}
