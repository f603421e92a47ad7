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

const selectTransaction = `SELECT id, order_id, channel_id, payment_method, state,
		        COALESCE(custom_fields #> '{stripe_payment_context,payment}', '{}'::jsonb)
		 FROM order_transactions`

// TransactionRepository implements transaction.Repository using PostgreSQL.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

var _ transaction.Repository = (*TransactionRepository)(nil)

func (r *TransactionRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *TransactionRepository) scanTransaction(s scanner) (*transaction.OrderTransaction, error) {
	t := &transaction.OrderTransaction{}
	var (
		state string
		raw   []byte
	)
	if err := s.Scan(&t.ID, &t.OrderID, &t.ChannelID, &t.PaymentMethod, &state, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("scan order transaction: %w", err)
	}

	st, ok := transaction.ParseState(state)
	if !ok {
		return nil, fmt.Errorf("order transaction %s has unknown state %q", t.ID, state)
	}
	t.State = st

	if err := json.Unmarshal(raw, &t.Reference); err != nil {
		return nil, fmt.Errorf("unmarshal payment reference: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.OrderTransaction, error) {
	return r.scanTransaction(r.db(ctx).QueryRow(ctx, selectTransaction+` WHERE id = $1`, id))
}

// FindByReference matches one whitelisted key of the stored reference. When an id was
// reused across attempts, the most recently updated transaction wins.
func (r *TransactionRepository) FindByReference(ctx context.Context, field transaction.ReferenceField, value string) (*transaction.OrderTransaction, error) {
	if value == "" {
		return nil, domainErrors.ErrTransactionNotFound
	}
	expr, err := referenceExpr(field)
	if err != nil {
		return nil, err
	}
	return r.scanTransaction(r.db(ctx).QueryRow(ctx,
		selectTransaction+` WHERE `+expr+` = $1
		 ORDER BY updated_at DESC LIMIT 1`, value))
}
