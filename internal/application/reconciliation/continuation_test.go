package reconciliation_test

import (
	"context"
	"testing"

	"github.com/cassiomorais/checkout/internal/domain/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/cassiomorais/checkout/internal/domain/processor"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
	"github.com/cassiomorais/checkout/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chargeableSource initiates a source payment and completes the hosted redirect.
func (h *harness) chargeableSource(t *testing.T, method checkout.Method) (*transaction.OrderTransaction, checkout.ChargeableContinuation) {
	t.Helper()
	tx, _ := h.newTransaction(method)
	h.initiate(t, tx, method)
	srcID := h.reference(tx).SourceID
	h.gateway.SetSourceStatus(srcID, processor.SourceChargeable, processor.RedirectSucceeded)
	return tx, checkout.ChargeableContinuation{
		EventID:       "evt_chargeable",
		ChannelID:     testutil.TestChannelID,
		TransactionID: tx.ID,
		SourceID:      srcID,
	}
}

func TestContinueChargeable_ChargesWhenRedirectDidNot(t *testing.T) {
	h := newHarness(t)
	tx, c := h.chargeableSource(t, checkout.MethodSofort)

	require.NoError(t, h.engine.ContinueChargeable(context.Background(), c))

	assert.Equal(t, transaction.StatePaid, h.state(tx))
	require.Len(t, h.gateway.ChargeRequests, 1)
	assert.Equal(t, int64(1999), h.gateway.ChargeRequests[0].Amount)
	assert.NotEmpty(t, h.reference(tx).ChargeID)
}

func TestContinueChargeable_AfterRedirectCharged_NoSecondCharge(t *testing.T) {
	h := newHarness(t)
	tx, c := h.chargeableSource(t, checkout.MethodSofort)

	res, err := h.finalizeSource(t, tx)
	require.NoError(t, err)
	require.Equal(t, checkout.FinalizePaid, res.Status)

	require.NoError(t, h.engine.ContinueChargeable(context.Background(), c))

	assert.Equal(t, 1, h.gateway.ChargeCount())
	assert.Len(t, h.gateway.ChargeRequests, 1)
	assert.Equal(t, 1, h.store.TransitionCount(transaction.StatePaid))
}

func TestContinueChargeable_BothPathsRace_SingleCharge(t *testing.T) {
	h := newHarness(t)
	tx, c := h.chargeableSource(t, checkout.MethodSofort)

	// The continuation charged but crashed before persisting the charge id, so the
	// redirect finds no charge and retries with the same idempotency key.
	h.store.MergeReferenceFunc = func(context.Context, uuid.UUID, transaction.PaymentReference) (transaction.PaymentReference, error) {
		return transaction.PaymentReference{}, assert.AnError
	}
	require.Error(t, h.engine.ContinueChargeable(context.Background(), c))
	h.store.MergeReferenceFunc = nil
	h.gateway.SetSourceStatus(c.SourceID, processor.SourceChargeable, processor.RedirectSucceeded)

	res, err := h.finalizeSource(t, tx)

	require.NoError(t, err)
	assert.Equal(t, checkout.FinalizePaid, res.Status)
	assert.Len(t, h.gateway.ChargeRequests, 2)
	assert.Equal(t, 1, h.gateway.ChargeCount())
	assert.Equal(t, h.gateway.ChargeRequests[0].IdempotencyKey, h.gateway.ChargeRequests[1].IdempotencyKey)
}

func TestContinueChargeable_AmountFromSource(t *testing.T) {
	h := newHarness(t)
	tx, c := h.chargeableSource(t, checkout.MethodKlarna)
	h.orders.Update(tx.ID, func(o *order.Order) { o.Total = decimal.RequireFromString("5.00") })

	require.NoError(t, h.engine.ContinueChargeable(context.Background(), c))

	require.Len(t, h.gateway.ChargeRequests, 1)
	assert.Equal(t, int64(1999), h.gateway.ChargeRequests[0].Amount)
}

func TestContinueChargeable_Discards(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness, tx *transaction.OrderTransaction, c *checkout.ChargeableContinuation)
	}{
		{
			name: "newer attempt",
			setup: func(h *harness, tx *transaction.OrderTransaction, _ *checkout.ChargeableContinuation) {
				_, _ = h.store.StartAttempt(context.Background(), tx.ID, "src_newer", "")
			},
		},
		{
			name: "charge recorded",
			setup: func(h *harness, tx *transaction.OrderTransaction, c *checkout.ChargeableContinuation) {
				_, _ = h.store.MergeReference(context.Background(), tx.ID,
					transaction.PaymentReference{ChargeID: "ch_other", ChargedSourceID: c.SourceID})
			},
		},
		{
			name: "source no longer chargeable",
			setup: func(h *harness, _ *transaction.OrderTransaction, c *checkout.ChargeableContinuation) {
				h.gateway.SetSourceStatus(c.SourceID, processor.SourceCanceled, processor.RedirectSucceeded)
			},
		},
		{
			name: "already paid",
			setup: func(h *harness, tx *transaction.OrderTransaction, _ *checkout.ChargeableContinuation) {
				_ = h.store.Pay(context.Background(), tx.ID)
			},
		},
		{
			name: "already cancelled",
			setup: func(h *harness, tx *transaction.OrderTransaction, _ *checkout.ChargeableContinuation) {
				_ = h.store.Cancel(context.Background(), tx.ID)
			},
		},
		{
			name: "other channel",
			setup: func(_ *harness, _ *transaction.OrderTransaction, c *checkout.ChargeableContinuation) {
				c.ChannelID = "wholesale"
			},
		},
		{
			name: "unknown transaction",
			setup: func(_ *harness, _ *transaction.OrderTransaction, c *checkout.ChargeableContinuation) {
				c.TransactionID = uuid.New()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tx, c := h.chargeableSource(t, checkout.MethodSofort)
			tt.setup(h, tx, &c)

			require.NoError(t, h.engine.ContinueChargeable(context.Background(), c))
			assert.Empty(t, h.gateway.ChargeRequests)
		})
	}
}

func TestContinueChargeable_ChargeFailed_Cancels(t *testing.T) {
	h := newHarness(t)
	h.gateway.ChargeStatus = processor.ChargeFailed
	tx, c := h.chargeableSource(t, checkout.MethodBancontact)

	require.NoError(t, h.engine.ContinueChargeable(context.Background(), c))

	assert.Equal(t, transaction.StateCancelled, h.state(tx))
}

func TestContinueChargeable_ClaimHeld(t *testing.T) {
	h := newHarness(t)
	tx, c := h.chargeableSource(t, checkout.MethodSofort)
	h.claimer.Hold(tx.ID)

	err := h.engine.ContinueChargeable(context.Background(), c)

	assert.ErrorIs(t, err, domainErrors.ErrChargeInProgress)
	assert.Empty(t, h.gateway.ChargeRequests)
}

func TestProcessContinuation_ReschedulesWhileClaimHeld(t *testing.T) {
	h := newHarness(t)
	tx, c := h.chargeableSource(t, checkout.MethodSofort)
	h.claimer.Hold(tx.ID)

	require.NoError(t, h.engine.ProcessContinuation(context.Background(), c, 3))

	require.Len(t, h.scheduler.Scheduled, 1)
	next := h.scheduler.Scheduled[0]
	assert.Equal(t, 1, next.Continuation.Attempt)
	assert.Equal(t, 2*testGracePeriod, next.Delay)
	assert.Equal(t, c.SourceID, next.Continuation.SourceID)
}

func TestProcessContinuation_GivesUp(t *testing.T) {
	h := newHarness(t)
	tx, c := h.chargeableSource(t, checkout.MethodSofort)
	h.claimer.Hold(tx.ID)
	c.Attempt = 2

	err := h.engine.ProcessContinuation(context.Background(), c, 3)

	assert.ErrorIs(t, err, domainErrors.ErrChargeInProgress)
	assert.Empty(t, h.scheduler.Scheduled)
}

func TestProcessContinuation_GatewayDown_Reschedules(t *testing.T) {
	h := newHarness(t)
	_, c := h.chargeableSource(t, checkout.MethodSofort)
	h.gateway.GetSourceFunc = func(context.Context, string) (*processor.Source, error) {
		return nil, domainErrors.ErrGatewayUnavailable
	}

	require.NoError(t, h.engine.ProcessContinuation(context.Background(), c, 5))
	assert.Len(t, h.scheduler.Scheduled, 1)
}

func TestProcessContinuation_OtherErrorsPropagate(t *testing.T) {
	h := newHarness(t)
	_, c := h.chargeableSource(t, checkout.MethodSofort)
	h.gateway.GetSourceFunc = func(context.Context, string) (*processor.Source, error) {
		return nil, domainErrors.ErrGatewayRejected
	}

	err := h.engine.ProcessContinuation(context.Background(), c, 5)

	assert.ErrorIs(t, err, domainErrors.ErrGatewayRejected)
	assert.Empty(t, h.scheduler.Scheduled)
}

func TestContinueChargeable_RetryAfterDeclinedCharge(t *testing.T) {
	h := newHarness(t)
	h.gateway.ChargeStatus = processor.ChargeFailed
	tx, _ := h.newTransaction(checkout.MethodSofort)
	h.initiate(t, tx, checkout.MethodSofort)
	h.gateway.SetSourceStatus(h.reference(tx).SourceID, processor.SourceChargeable, processor.RedirectSucceeded)
	_, err := h.finalizeSource(t, tx)
	require.ErrorIs(t, err, domainErrors.ErrChargeFailed)

	h.gateway.ChargeStatus = processor.ChargeSucceeded
	h.initiate(t, tx, checkout.MethodSofort)
	retryID := h.reference(tx).SourceID
	h.gateway.SetSourceStatus(retryID, processor.SourceChargeable, processor.RedirectSucceeded)

	require.NoError(t, h.engine.ContinueChargeable(context.Background(), checkout.ChargeableContinuation{
		EventID:       "evt_retry",
		ChannelID:     testutil.TestChannelID,
		TransactionID: tx.ID,
		SourceID:      retryID,
	}))

	require.Len(t, h.gateway.ChargeRequests, 2)
	assert.Equal(t, retryID, h.gateway.ChargeRequests[1].SourceID)
	assert.Equal(t, transaction.StatePaid, h.state(tx))
	assert.Equal(t, retryID, h.reference(tx).ChargedSourceID)
}
