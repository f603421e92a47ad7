package reconciliation

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/cassiomorais/checkout/internal/domain/processor"
)

// ensureCustomer returns the processor customer of the shop customer, creating one
// when none is linked or the linked one is gone.
func (e *Engine) ensureCustomer(ctx context.Context, gw processor.Gateway, c *order.Customer) (string, error) {
	if c.StripeCustomerID != "" {
		existing, err := gw.GetCustomer(ctx, c.StripeCustomerID)
		switch {
		case err == nil && !existing.Deleted:
			return existing.ID, nil
		case errors.Is(err, domainErrors.ErrGatewayUnavailable):
			return "", fmt.Errorf("get customer: %w", err)
		}

		e.logger.Warn().Err(err).
			Str("customer_id", c.ID.String()).
			Str("stripe_customer_id", c.StripeCustomerID).
			Msg("Linked processor customer unusable, creating a new one")
		if err := e.customers.SetStripeCustomerID(ctx, c.ID, ""); err != nil {
			return "", fmt.Errorf("unlink customer: %w", err)
		}
		c.StripeCustomerID = ""
	}

	created, err := gw.CreateCustomer(ctx, processor.CustomerRequest{
		Name:        c.FullName(),
		Description: c.FullName(),
		Email:       c.Email,
	})
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	if err := e.customers.SetStripeCustomerID(ctx, c.ID, created.ID); err != nil {
		return "", fmt.Errorf("link customer: %w", err)
	}
	c.StripeCustomerID = created.ID
	return created.ID, nil
}
