package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// referenceExprs whitelists the lookup keys of the stored reference. Each expression
// matches an index in the init migration verbatim, so the path must stay a literal.
var referenceExprs = map[transaction.ReferenceField]string{
	transaction.FieldSourceID:        `custom_fields #>> '{stripe_payment_context,payment,source_id}'`,
	transaction.FieldPaymentIntentID: `custom_fields #>> '{stripe_payment_context,payment,payment_intent_id}'`,
	transaction.FieldChargeID:        `custom_fields #>> '{stripe_payment_context,payment,charge_id}'`,
}

func referenceExpr(field transaction.ReferenceField) (string, error) {
	expr, ok := referenceExprs[field]
	if !ok {
		return "", fmt.Errorf("unsupported reference field %q", field)
	}
	return expr, nil
}

// ReferenceStore implements transaction.ReferenceStore on the custom_fields JSONB column,
// at stripe_payment_context.payment.
// Writes lock the row, so concurrent merges never lose a charge id.
type ReferenceStore struct {
	pool *pgxpool.Pool
	txm  *TxManager
}

func NewReferenceStore(pool *pgxpool.Pool) *ReferenceStore {
	return &ReferenceStore{pool: pool, txm: NewTxManager(pool)}
}

var _ transaction.ReferenceStore = (*ReferenceStore)(nil)

func (s *ReferenceStore) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, s.pool)
}

func (s *ReferenceStore) GetReference(ctx context.Context, txID uuid.UUID) (transaction.PaymentReference, error) {
	return s.read(ctx, txID, false)
}

func (s *ReferenceStore) MergeReference(ctx context.Context, txID uuid.UUID, patch transaction.PaymentReference) (transaction.PaymentReference, error) {
	return s.update(ctx, txID, func(ref transaction.PaymentReference) transaction.PaymentReference {
		return ref.Merge(patch)
	})
}

func (s *ReferenceStore) StartAttempt(ctx context.Context, txID uuid.UUID, sourceID, paymentIntentID string) (transaction.PaymentReference, error) {
	return s.update(ctx, txID, func(ref transaction.PaymentReference) transaction.PaymentReference {
		return ref.StartAttempt(sourceID, paymentIntentID)
	})
}

func (s *ReferenceStore) read(ctx context.Context, txID uuid.UUID, forUpdate bool) (transaction.PaymentReference, error) {
	query := `SELECT COALESCE(custom_fields #> '{stripe_payment_context,payment}', '{}'::jsonb)
		 FROM order_transactions WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		ref transaction.PaymentReference
		raw []byte
	)
	if err := s.db(ctx).QueryRow(ctx, query, txID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ref, domainErrors.ErrTransactionNotFound
		}
		return ref, fmt.Errorf("get payment reference: %w", err)
	}
	if err := json.Unmarshal(raw, &ref); err != nil {
		return ref, fmt.Errorf("unmarshal payment reference: %w", err)
	}
	return ref, nil
}

func (s *ReferenceStore) update(
	ctx context.Context,
	txID uuid.UUID,
	apply func(transaction.PaymentReference) transaction.PaymentReference,
) (transaction.PaymentReference, error) {
	var out transaction.PaymentReference
	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		ref, err := s.read(ctx, txID, true)
		if err != nil {
			return err
		}
		out = apply(ref)

		payload, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("marshal payment reference: %w", err)
		}
		_, err = s.db(ctx).Exec(ctx,
			`UPDATE order_transactions SET
			   custom_fields = jsonb_set(
			     jsonb_set(COALESCE(custom_fields, '{}'::jsonb), '{stripe_payment_context}',
			               COALESCE(custom_fields -> 'stripe_payment_context', '{}'::jsonb)),
			     '{stripe_payment_context,payment}', $2::jsonb),
			   updated_at = NOW()
			 WHERE id = $1`,
			txID, payload,
		)
		if err != nil {
			return fmt.Errorf("update payment reference: %w", err)
		}
		return nil
	})
	return out, err
}
