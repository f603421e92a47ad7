package postgres

import (
	"context"
	"fmt"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CustomerRepository stores the Stripe customer linked to a shop customer.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

func (r *CustomerRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// SetStripeCustomerID links stripeCustomerID to the customer. An empty id clears the link.
func (r *CustomerRepository) SetStripeCustomerID(ctx context.Context, customerID uuid.UUID, stripeCustomerID string) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE customers SET stripe_customer_id = NULLIF($2, ''), updated_at = NOW() WHERE id = $1`,
		customerID, stripeCustomerID,
	)
	if err != nil {
		return fmt.Errorf("set stripe customer id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrCustomerNotFound
	}
	return nil
}
