package transaction

import (
	"context"

	"github.com/google/uuid"
)

// Repository reads order transactions.
type Repository interface {
	// GetByID returns ErrTransactionNotFound for an unknown id.
	GetByID(ctx context.Context, id uuid.UUID) (*OrderTransaction, error)

	// FindByReference does an equality lookup on one field of the stored reference.
	// It returns ErrTransactionNotFound when nothing matches.
	FindByReference(ctx context.Context, field ReferenceField, value string) (*OrderTransaction, error)
}

// ReferenceStore persists the payment reference of a transaction.
type ReferenceStore interface {
	GetReference(ctx context.Context, txID uuid.UUID) (PaymentReference, error)

	// MergeReference merges patch into the stored reference and returns the result.
	MergeReference(ctx context.Context, txID uuid.UUID, patch PaymentReference) (PaymentReference, error)

	// StartAttempt overwrites source and payment intent ids, keeping any charge id.
	StartAttempt(ctx context.Context, txID uuid.UUID, sourceID, paymentIntentID string) (PaymentReference, error)
}

// StateHandler performs terminal transitions. Both calls are idempotent: repeating a
// transition the transaction already made succeeds without effect.
type StateHandler interface {
	Pay(ctx context.Context, txID uuid.UUID) error
	Cancel(ctx context.Context, txID uuid.UUID) error
}
