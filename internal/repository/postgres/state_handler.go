package postgres

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// StateHandler implements transaction.StateHandler. A transition and its history row are
// written in one database transaction; repeating a transition is a no-op.
type StateHandler struct {
	pool   *pgxpool.Pool
	txm    *TxManager
	logger zerolog.Logger
}

func NewStateHandler(pool *pgxpool.Pool, logger zerolog.Logger) *StateHandler {
	return &StateHandler{
		pool:   pool,
		txm:    NewTxManager(pool),
		logger: logger.With().Str("component", "state_handler").Logger(),
	}
}

var _ transaction.StateHandler = (*StateHandler)(nil)

func (h *StateHandler) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, h.pool)
}

func (h *StateHandler) Pay(ctx context.Context, txID uuid.UUID) error {
	return h.transition(ctx, txID, transaction.StatePaid)
}

func (h *StateHandler) Cancel(ctx context.Context, txID uuid.UUID) error {
	return h.transition(ctx, txID, transaction.StateCancelled)
}

func (h *StateHandler) transition(ctx context.Context, txID uuid.UUID, to transaction.State) error {
	return h.txm.WithTransaction(ctx, func(ctx context.Context) error {
		var current string
		err := h.db(ctx).QueryRow(ctx,
			`SELECT state FROM order_transactions WHERE id = $1 FOR UPDATE`, txID,
		).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrTransactionNotFound
			}
			return fmt.Errorf("lock order transaction: %w", err)
		}

		from := transaction.State(current)
		if from == to {
			return nil
		}
		if !from.CanTransitionTo(to) {
			return domainErrors.NewDomainError("invalid_state_transition",
				fmt.Sprintf("cannot move order transaction from %s to %s", from, to),
				domainErrors.ErrInvalidStateTransition)
		}

		tag, err := h.db(ctx).Exec(ctx,
			`UPDATE order_transactions SET state = $2, updated_at = NOW()
			 WHERE id = $1 AND state = ANY($3)`,
			txID, string(to), stateNames(transaction.SourcesFor(to)),
		)
		if err != nil {
			return fmt.Errorf("update order transaction state: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrInvalidStateTransition
		}

		if _, err := h.db(ctx).Exec(ctx,
			`INSERT INTO order_transaction_state_history (id, transaction_id, from_state, to_state, created_at)
			 VALUES ($1, $2, $3, $4, NOW())`,
			uuid.New(), txID, string(from), string(to),
		); err != nil {
			return fmt.Errorf("insert state history: %w", err)
		}

		h.logger.Info().
			Str("transaction_id", txID.String()).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("Order transaction state changed")
		return nil
	})
}

func stateNames(states []transaction.State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}
