package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderRepository implements order.Reader. Orders are owned by the commerce platform and
// only read here.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

var _ order.Reader = (*OrderRepository)(nil)

func (r *OrderRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// GetByTransactionID loads the current order of a transaction, so amounts always reflect
// the cart as it is now.
func (r *OrderRepository) GetByTransactionID(ctx context.Context, txID uuid.UUID) (*order.Order, error) {
	var (
		o             order.Order
		total         string
		shippingTotal string
		customerID    *uuid.UUID
		number        *string
		email         *string
		firstName     *string
		lastName      *string
		company       *string
		stripeID      *string
		billing       []byte
		shipping      []byte
		items         []byte
	)
	err := r.db(ctx).QueryRow(ctx,
		`SELECT o.id, o.order_number, o.channel_id, o.total::text, o.shipping_total::text,
		        o.currency, o.locale, o.billing_address, o.shipping_address, o.line_items,
		        c.id, c.customer_number, c.email, c.first_name, c.last_name, c.company, c.stripe_customer_id
		 FROM order_transactions t
		 JOIN orders o ON o.id = t.order_id
		 LEFT JOIN customers c ON c.id = o.customer_id
		 WHERE t.id = $1`, txID,
	).Scan(
		&o.ID, &o.Number, &o.ChannelID, &total, &shippingTotal,
		&o.Currency, &o.Locale, &billing, &shipping, &items,
		&customerID, &number, &email, &firstName, &lastName, &company, &stripeID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order of transaction: %w", err)
	}

	if o.Total, err = parseNumeric(total); err != nil {
		return nil, fmt.Errorf("parse order total: %w", err)
	}
	if o.ShippingTotal, err = parseNumeric(shippingTotal); err != nil {
		return nil, fmt.Errorf("parse shipping total: %w", err)
	}

	if o.BillingAddress, err = decodeAddress(billing); err != nil {
		return nil, fmt.Errorf("decode billing address: %w", err)
	}
	if o.ShippingAddress, err = decodeAddress(shipping); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.LineItems); err != nil {
			return nil, fmt.Errorf("decode line items: %w", err)
		}
	}

	if customerID != nil {
		o.Customer = &order.Customer{
			ID:               *customerID,
			Number:           deref(number),
			Email:            deref(email),
			FirstName:        deref(firstName),
			LastName:         deref(lastName),
			Company:          deref(company),
			StripeCustomerID: deref(stripeID),
		}
	}
	return &o, nil
}

func decodeAddress(raw []byte) (*order.Address, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var a order.Address
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
