package reconciliation_test

import (
	"context"
	"testing"
	"time"

	"github.com/cassiomorais/checkout/internal/application/reconciliation"
	"github.com/cassiomorais/checkout/internal/domain/checkout"
	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
	"github.com/cassiomorais/checkout/internal/testutil"
	"github.com/rs/zerolog"
)

const testGracePeriod = 2 * time.Second

// harness wires an engine to in-memory collaborators for one channel.
type harness struct {
	store     *testutil.MockTransactionStore
	orders    *testutil.MockOrderReader
	gateway   *testutil.MockGateway
	gateways  *testutil.MockGateways
	settings  *testutil.MockSettings
	claimer   *testutil.MockChargeClaimer
	scheduler *testutil.MockScheduler
	customers *testutil.MockCustomerDirectory
	engine    *reconciliation.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:     testutil.NewMockTransactionStore(),
		orders:    testutil.NewMockOrderReader(),
		gateway:   testutil.NewMockGateway(),
		settings:  testutil.NewMockSettings(testutil.NewTestSettings()),
		claimer:   testutil.NewMockChargeClaimer(),
		scheduler: &testutil.MockScheduler{},
		customers: testutil.NewMockCustomerDirectory(),
	}
	h.gateways = testutil.NewMockGateways(testutil.TestChannelID, h.gateway)
	h.engine = reconciliation.NewEngine(reconciliation.Dependencies{
		Transactions: h.store,
		References:   h.store,
		States:       h.store,
		Orders:       h.orders,
		Customers:    h.customers,
		Settings:     h.settings,
		Gateways:     h.gateways,
		Claimer:      h.claimer,
		Scheduler:    h.scheduler,
	}, reconciliation.Options{
		GracePeriod: testGracePeriod,
		Logger:      zerolog.Nop(),
	})
	return h
}

// newTransaction stores an open transaction and its 19.99 EUR order.
func (h *harness) newTransaction(method checkout.Method) (*transaction.OrderTransaction, *order.Order) {
	tx := testutil.NewTestTransaction(string(method))
	ord := testutil.NewTestOrder(tx)
	h.store.Add(tx)
	h.orders.Add(tx.ID, ord)
	return tx, ord
}

func (h *harness) initiate(t *testing.T, tx *transaction.OrderTransaction, method checkout.Method) *checkout.InitiateResult {
	t.Helper()
	res, err := h.engine.Initiate(context.Background(), reconciliation.InitiateRequest{
		TransactionID: tx.ID,
		Method:        method,
		Session:       testutil.NewTestSession(),
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	return res
}

func (h *harness) reference(tx *transaction.OrderTransaction) transaction.PaymentReference {
	return h.store.Snapshot(tx.ID).Reference
}

func (h *harness) state(tx *transaction.OrderTransaction) transaction.State {
	return h.store.Snapshot(tx.ID).State
}
