package reconciliation_test

import (
	"context"
	"testing"
	"time"

	"github.com/cassiomorais/checkout/internal/application/reconciliation"
	"github.com/cassiomorais/checkout/internal/domain/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/processor"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
	"github.com/cassiomorais/checkout/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookUseCase(h *harness) (*reconciliation.HandleWebhookUseCase, *testutil.MockWebhookEventStore) {
	events := testutil.NewMockWebhookEventStore()
	return reconciliation.NewHandleWebhookUseCase(h.engine, h.gateways, events, zerolog.Nop(), nil), events
}

func TestHandleWebhook_ProcessesThenDeduplicates(t *testing.T) {
	h := newHarness(t)
	uc, events := newWebhookUseCase(h)
	tx, _ := h.newTransaction(checkout.MethodCard)
	h.initiate(t, tx, checkout.MethodCard)
	h.gateway.Events["t=1,v1=good"] = piEvent(processor.EventPaymentIntentSucceeded, &processor.PaymentIntent{
		ID:     h.reference(tx).PaymentIntentID,
		Status: processor.PaymentIntentSucceeded,
	})

	outcome, err := uc.Execute(context.Background(), testutil.TestChannelID, []byte(`{}`), "t=1,v1=good")
	require.NoError(t, err)
	assert.Equal(t, checkout.OutcomeProcessed, outcome)

	outcome, err = uc.Execute(context.Background(), testutil.TestChannelID, []byte(`{}`), "t=1,v1=good")
	require.NoError(t, err)
	assert.Equal(t, checkout.OutcomeDuplicate, outcome)

	assert.Equal(t, transaction.StatePaid, h.state(tx))
	assert.Equal(t, 1, h.store.TransitionCount(transaction.StatePaid))
	evtID := "evt_" + h.reference(tx).PaymentIntentID
	assert.Equal(t, "processed", events.Statuses[evtID])
	assert.Equal(t, 2, events.Attempts[evtID])
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	h := newHarness(t)
	uc, events := newWebhookUseCase(h)

	_, err := uc.Execute(context.Background(), testutil.TestChannelID, []byte(`{}`), "")
	assert.ErrorIs(t, err, domainErrors.ErrInvalidSignature)

	_, err = uc.Execute(context.Background(), testutil.TestChannelID, []byte(`{}`), "t=1,v1=forged")
	assert.ErrorIs(t, err, domainErrors.ErrInvalidSignature)
	assert.Empty(t, events.Statuses)
}

func TestHandleWebhook_UnknownEventType(t *testing.T) {
	h := newHarness(t)
	uc, events := newWebhookUseCase(h)
	h.gateway.Events["sig"] = &processor.Event{ID: "evt_invoice", Type: processor.EventUnknown, RawType: "invoice.paid"}

	_, err := uc.Execute(context.Background(), testutil.TestChannelID, []byte(`{}`), "sig")

	assert.ErrorIs(t, err, domainErrors.ErrUnknownEventType)
	assert.Empty(t, events.Statuses)
}

func TestHandleWebhook_UnconfiguredChannel(t *testing.T) {
	h := newHarness(t)
	uc, _ := newWebhookUseCase(h)

	_, err := uc.Execute(context.Background(), "unknown-channel", []byte(`{}`), "sig")

	assert.ErrorIs(t, err, domainErrors.ErrChannelNotConfigured)
}

func TestHandleWebhook_FailureIsRecordedAndRetryable(t *testing.T) {
	h := newHarness(t)
	uc, events := newWebhookUseCase(h)
	tx, _ := h.newTransaction(checkout.MethodSofort)
	h.initiate(t, tx, checkout.MethodSofort)
	evt := sourceEvent(processor.EventSourceChargeable, &processor.Source{ID: h.reference(tx).SourceID})
	h.gateway.Events["sig"] = evt

	h.scheduler.ScheduleFunc = func(context.Context, checkout.ChargeableContinuation, time.Duration) error {
		return assert.AnError
	}
	_, err := uc.Execute(context.Background(), testutil.TestChannelID, []byte(`{}`), "sig")
	require.Error(t, err)
	assert.Equal(t, "failed", events.Statuses[evt.ID])

	h.scheduler.ScheduleFunc = nil
	outcome, err := uc.Execute(context.Background(), testutil.TestChannelID, []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.Equal(t, checkout.OutcomeScheduled, outcome)
	assert.Equal(t, "processed", events.Statuses[evt.ID])
}

func TestHandleWebhook_UnmatchedEventIsAcknowledged(t *testing.T) {
	h := newHarness(t)
	uc, events := newWebhookUseCase(h)
	h.gateway.Events["sig"] = sourceEvent(processor.EventSourceFailed, &processor.Source{ID: "src_elsewhere"})

	outcome, err := uc.Execute(context.Background(), testutil.TestChannelID, []byte(`{}`), "sig")

	require.NoError(t, err)
	assert.Equal(t, checkout.OutcomeIgnored, outcome)
	assert.Equal(t, "processed", events.Statuses["evt_src_elsewhere"])
}
