package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cassiomorais/checkout/internal/application/reconciliation"
	"github.com/cassiomorais/checkout/internal/domain/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/cassiomorais/checkout/internal/domain/outbox"
	"github.com/cassiomorais/checkout/internal/domain/processor"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
	"github.com/google/uuid"
)

// --- Transaction Store Mock ---

// MockTransactionStore implements transaction.Repository, transaction.ReferenceStore and
// transaction.StateHandler over one shared in-memory table, so the engine sees its own
// writes the way it would against Postgres.
type MockTransactionStore struct {
	mu           sync.Mutex
	transactions map[uuid.UUID]*transaction.OrderTransaction

	// Transitions records every effective state change, in order.
	Transitions []transaction.State

	GetByIDFunc         func(ctx context.Context, id uuid.UUID) (*transaction.OrderTransaction, error)
	FindByReferenceFunc func(ctx context.Context, field transaction.ReferenceField, value string) (*transaction.OrderTransaction, error)
	MergeReferenceFunc  func(ctx context.Context, txID uuid.UUID, patch transaction.PaymentReference) (transaction.PaymentReference, error)
	PayFunc             func(ctx context.Context, txID uuid.UUID) error
	CancelFunc          func(ctx context.Context, txID uuid.UUID) error
}

func NewMockTransactionStore() *MockTransactionStore {
	return &MockTransactionStore{transactions: make(map[uuid.UUID]*transaction.OrderTransaction)}
}

func (m *MockTransactionStore) Add(tx *transaction.OrderTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tx
	m.transactions[tx.ID] = &cp
}

// Snapshot returns a copy of the stored transaction.
func (m *MockTransactionStore) Snapshot(id uuid.UUID) transaction.OrderTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.transactions[id]
}

func (m *MockTransactionStore) TransitionCount(state transaction.State) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.Transitions {
		if s == state {
			n++
		}
	}
	return n
}

func (m *MockTransactionStore) GetByID(ctx context.Context, id uuid.UUID) (*transaction.OrderTransaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok {
		return nil, domainErrors.ErrTransactionNotFound
	}
	cp := *tx
	return &cp, nil
}

func (m *MockTransactionStore) FindByReference(ctx context.Context, field transaction.ReferenceField, value string) (*transaction.OrderTransaction, error) {
	if m.FindByReferenceFunc != nil {
		return m.FindByReferenceFunc(ctx, field, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range m.transactions {
		var got string
		switch field {
		case transaction.FieldSourceID:
			got = tx.Reference.SourceID
		case transaction.FieldPaymentIntentID:
			got = tx.Reference.PaymentIntentID
		case transaction.FieldChargeID:
			got = tx.Reference.ChargeID
		}
		if got != "" && got == value {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, domainErrors.ErrTransactionNotFound
}

func (m *MockTransactionStore) GetReference(ctx context.Context, txID uuid.UUID) (transaction.PaymentReference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[txID]
	if !ok {
		return transaction.PaymentReference{}, domainErrors.ErrTransactionNotFound
	}
	return tx.Reference, nil
}

func (m *MockTransactionStore) MergeReference(ctx context.Context, txID uuid.UUID, patch transaction.PaymentReference) (transaction.PaymentReference, error) {
	if m.MergeReferenceFunc != nil {
		return m.MergeReferenceFunc(ctx, txID, patch)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[txID]
	if !ok {
		return transaction.PaymentReference{}, domainErrors.ErrTransactionNotFound
	}
	tx.Reference = tx.Reference.Merge(patch)
	return tx.Reference, nil
}

func (m *MockTransactionStore) StartAttempt(ctx context.Context, txID uuid.UUID, sourceID, paymentIntentID string) (transaction.PaymentReference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[txID]
	if !ok {
		return transaction.PaymentReference{}, domainErrors.ErrTransactionNotFound
	}
	tx.Reference = tx.Reference.StartAttempt(sourceID, paymentIntentID)
	return tx.Reference, nil
}

func (m *MockTransactionStore) Pay(ctx context.Context, txID uuid.UUID) error {
	if m.PayFunc != nil {
		return m.PayFunc(ctx, txID)
	}
	return m.transition(txID, transaction.StatePaid)
}

func (m *MockTransactionStore) Cancel(ctx context.Context, txID uuid.UUID) error {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, txID)
	}
	return m.transition(txID, transaction.StateCancelled)
}

// transition mirrors the idempotent conditional update of the Postgres state handler.
func (m *MockTransactionStore) transition(txID uuid.UUID, to transaction.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[txID]
	if !ok {
		return domainErrors.ErrTransactionNotFound
	}
	if tx.State == to {
		return nil
	}
	if !tx.State.CanTransitionTo(to) {
		return fmt.Errorf("%s -> %s: %w", tx.State, to, domainErrors.ErrInvalidStateTransition)
	}
	tx.State = to
	m.Transitions = append(m.Transitions, to)
	return nil
}

// --- Gateway Mock ---

// MockGateway is an in-memory processor. Charges honour idempotency keys like the
// real API: a repeated key returns the first charge.
type MockGateway struct {
	mu             sync.Mutex
	paymentIntents map[string]*processor.PaymentIntent
	sources        map[string]*processor.Source
	charges        map[string]*processor.Charge
	chargesByKey   map[string]*processor.Charge
	customers      map[string]*processor.Customer
	seq            int

	// ChargeStatus is the status of newly created charges (default succeeded).
	ChargeStatus processor.ChargeStatus
	// Events maps a signature header to the event ParseWebhook returns.
	Events map[string]*processor.Event

	ChargeRequests        []processor.ChargeRequest
	PaymentIntentRequests []processor.PaymentIntentRequest
	SourceRequests        []processor.SourceRequest
	DescriptionUpdates    map[string]string

	CreatePaymentIntentFunc func(ctx context.Context, req processor.PaymentIntentRequest) (*processor.PaymentIntent, error)
	GetPaymentIntentFunc    func(ctx context.Context, id string) (*processor.PaymentIntent, error)
	CreateSourceFunc        func(ctx context.Context, req processor.SourceRequest) (*processor.Source, error)
	GetSourceFunc           func(ctx context.Context, id string) (*processor.Source, error)
	CreateChargeFunc        func(ctx context.Context, req processor.ChargeRequest) (*processor.Charge, error)
	GetCustomerFunc         func(ctx context.Context, id string) (*processor.Customer, error)
	UpdateDescriptionFunc   func(ctx context.Context, id, description string) error
	ParseWebhookFunc        func(payload []byte, signature string) (*processor.Event, error)
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		paymentIntents:     make(map[string]*processor.PaymentIntent),
		sources:            make(map[string]*processor.Source),
		charges:            make(map[string]*processor.Charge),
		chargesByKey:       make(map[string]*processor.Charge),
		customers:          make(map[string]*processor.Customer),
		Events:             make(map[string]*processor.Event),
		DescriptionUpdates: make(map[string]string),
		ChargeStatus:       processor.ChargeSucceeded,
	}
}

func (m *MockGateway) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s_%d", prefix, m.seq)
}

func (m *MockGateway) PutPaymentIntent(pi *processor.PaymentIntent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pi
	m.paymentIntents[pi.ID] = &cp
}

func (m *MockGateway) PutSource(src *processor.Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *src
	m.sources[src.ID] = &cp
}

func (m *MockGateway) PutCustomer(c *processor.Customer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.customers[c.ID] = &cp
}

// ChargeCount is the number of distinct charges created.
func (m *MockGateway) ChargeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.charges)
}

func (m *MockGateway) CreatePaymentIntent(ctx context.Context, req processor.PaymentIntentRequest) (*processor.PaymentIntent, error) {
	m.mu.Lock()
	m.PaymentIntentRequests = append(m.PaymentIntentRequests, req)
	m.mu.Unlock()
	if m.CreatePaymentIntentFunc != nil {
		pi, err := m.CreatePaymentIntentFunc(ctx, req)
		if err == nil {
			m.PutPaymentIntent(pi)
		}
		return pi, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID("pi")
	pi := &processor.PaymentIntent{
		ID:             id,
		Status:         processor.PaymentIntentRequiresAction,
		ClientSecret:   id + "_secret",
		Amount:         req.Amount,
		Currency:       req.Currency,
		Description:    req.Description,
		NextActionType: processor.NextActionRedirectToURL,
		RedirectURL:    "https://hooks.stripe.com/redirect/authenticate/" + id,
		Metadata:       req.Metadata,
	}
	cp := *pi
	m.paymentIntents[id] = &cp
	return pi, nil
}

func (m *MockGateway) GetPaymentIntent(ctx context.Context, id string) (*processor.PaymentIntent, error) {
	if m.GetPaymentIntentFunc != nil {
		return m.GetPaymentIntentFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pi, ok := m.paymentIntents[id]
	if !ok {
		return nil, domainErrors.ErrProcessorObjectNotFound
	}
	cp := *pi
	return &cp, nil
}

func (m *MockGateway) UpdatePaymentIntentDescription(ctx context.Context, id, description string) error {
	if m.UpdateDescriptionFunc != nil {
		return m.UpdateDescriptionFunc(ctx, id, description)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if pi, ok := m.paymentIntents[id]; ok {
		pi.Description = description
	}
	m.DescriptionUpdates[id] = description
	return nil
}

func (m *MockGateway) CreateSource(ctx context.Context, req processor.SourceRequest) (*processor.Source, error) {
	m.mu.Lock()
	m.SourceRequests = append(m.SourceRequests, req)
	m.mu.Unlock()
	if m.CreateSourceFunc != nil {
		src, err := m.CreateSourceFunc(ctx, req)
		if err == nil {
			m.PutSource(src)
		}
		return src, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID("src")
	src := &processor.Source{
		ID:             id,
		Type:           req.Type,
		Status:         processor.SourcePending,
		ClientSecret:   id + "_secret",
		Amount:         req.Amount,
		Currency:       req.Currency,
		RedirectStatus: processor.RedirectPending,
		RedirectURL:    "https://hooks.stripe.com/redirect/authenticate/" + id,
		Metadata:       req.Metadata,
	}
	cp := *src
	m.sources[id] = &cp
	return src, nil
}

func (m *MockGateway) GetSource(ctx context.Context, id string) (*processor.Source, error) {
	if m.GetSourceFunc != nil {
		return m.GetSourceFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.sources[id]
	if !ok {
		return nil, domainErrors.ErrProcessorObjectNotFound
	}
	cp := *src
	return &cp, nil
}

// SetSourceStatus simulates the customer completing the hosted redirect.
func (m *MockGateway) SetSourceStatus(id string, status processor.SourceStatus, redirect processor.RedirectStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if src, ok := m.sources[id]; ok {
		src.Status = status
		src.RedirectStatus = redirect
	}
}

func (m *MockGateway) SetPaymentIntentStatus(id string, status processor.PaymentIntentStatus, chargeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pi, ok := m.paymentIntents[id]; ok {
		pi.Status = status
		pi.LatestChargeID = chargeID
	}
}

func (m *MockGateway) CreateCharge(ctx context.Context, req processor.ChargeRequest) (*processor.Charge, error) {
	m.mu.Lock()
	m.ChargeRequests = append(m.ChargeRequests, req)
	m.mu.Unlock()
	if m.CreateChargeFunc != nil {
		return m.CreateChargeFunc(ctx, req)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if req.IdempotencyKey != "" {
		if existing, ok := m.chargesByKey[req.IdempotencyKey]; ok {
			cp := *existing
			return &cp, nil
		}
	}
	ch := &processor.Charge{
		ID:          m.nextID("ch"),
		Status:      m.ChargeStatus,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		SourceID:    req.SourceID,
	}
	m.charges[ch.ID] = ch
	if req.IdempotencyKey != "" {
		m.chargesByKey[req.IdempotencyKey] = ch
	}
	if src, ok := m.sources[req.SourceID]; ok {
		src.Status = processor.SourceConsumed
	}
	cp := *ch
	return &cp, nil
}

func (m *MockGateway) UpdateChargeDescription(ctx context.Context, id, description string) error {
	if m.UpdateDescriptionFunc != nil {
		return m.UpdateDescriptionFunc(ctx, id, description)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.charges[id]; ok {
		ch.Description = description
	}
	m.DescriptionUpdates[id] = description
	return nil
}

func (m *MockGateway) GetCustomer(ctx context.Context, id string) (*processor.Customer, error) {
	if m.GetCustomerFunc != nil {
		return m.GetCustomerFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, domainErrors.ErrProcessorObjectNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockGateway) CreateCustomer(ctx context.Context, req processor.CustomerRequest) (*processor.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &processor.Customer{ID: m.nextID("cus"), Email: req.Email}
	m.customers[c.ID] = c
	cp := *c
	return &cp, nil
}

func (m *MockGateway) ParseWebhook(payload []byte, signature string) (*processor.Event, error) {
	if m.ParseWebhookFunc != nil {
		return m.ParseWebhookFunc(payload, signature)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	evt, ok := m.Events[signature]
	if !ok {
		return nil, domainErrors.ErrInvalidSignature
	}
	return evt, nil
}

// --- Gateways Mock ---

// MockGateways hands out one gateway per channel.
type MockGateways struct {
	Gateways       map[string]processor.Gateway
	ForChannelFunc func(ctx context.Context, channelID string) (processor.Gateway, error)
}

func NewMockGateways(channelID string, gw processor.Gateway) *MockGateways {
	return &MockGateways{Gateways: map[string]processor.Gateway{channelID: gw}}
}

func (m *MockGateways) ForChannel(ctx context.Context, channelID string) (processor.Gateway, error) {
	if m.ForChannelFunc != nil {
		return m.ForChannelFunc(ctx, channelID)
	}
	gw, ok := m.Gateways[channelID]
	if !ok {
		return nil, domainErrors.ErrChannelNotConfigured
	}
	return gw, nil
}

// --- Order Reader Mock ---

type MockOrderReader struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.Order

	GetByTransactionIDFunc func(ctx context.Context, txID uuid.UUID) (*order.Order, error)
}

func NewMockOrderReader() *MockOrderReader {
	return &MockOrderReader{orders: make(map[uuid.UUID]*order.Order)}
}

func (m *MockOrderReader) Add(txID uuid.UUID, o *order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[txID] = o
}

// Update mutates the stored order, e.g. to change the cart after initiate.
func (m *MockOrderReader) Update(txID uuid.UUID, fn func(o *order.Order)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.orders[txID])
}

func (m *MockOrderReader) GetByTransactionID(ctx context.Context, txID uuid.UUID) (*order.Order, error) {
	if m.GetByTransactionIDFunc != nil {
		return m.GetByTransactionIDFunc(ctx, txID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[txID]
	if !ok {
		return nil, domainErrors.ErrOrderNotFound
	}
	cp := *o
	if o.Customer != nil {
		c := *o.Customer
		cp.Customer = &c
	}
	return &cp, nil
}

// --- Settings Mock ---

type MockSettings struct {
	Channels map[string]checkout.ChannelSettings
}

func NewMockSettings(settings ...checkout.ChannelSettings) *MockSettings {
	m := &MockSettings{Channels: make(map[string]checkout.ChannelSettings)}
	for _, s := range settings {
		m.Channels[s.ChannelID] = s
	}
	return m
}

func (m *MockSettings) ChannelSettings(channelID string) (checkout.ChannelSettings, error) {
	s, ok := m.Channels[channelID]
	if !ok {
		return checkout.ChannelSettings{}, domainErrors.ErrChannelNotConfigured
	}
	return s, nil
}

// --- Charge Claimer Mock ---

// MockChargeClaimer emulates the Redis SET NX claim.
type MockChargeClaimer struct {
	mu   sync.Mutex
	held map[uuid.UUID]bool

	Claims   int
	Releases int
}

func NewMockChargeClaimer() *MockChargeClaimer {
	return &MockChargeClaimer{held: make(map[uuid.UUID]bool)}
}

// Hold simulates another path owning the claim.
func (m *MockChargeClaimer) Hold(txID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[txID] = true
}

func (m *MockChargeClaimer) Claim(ctx context.Context, txID uuid.UUID) (reconciliation.ChargeClaim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[txID] {
		return nil, domainErrors.ErrChargeInProgress
	}
	m.held[txID] = true
	m.Claims++
	return &mockClaim{owner: m, txID: txID}, nil
}

type mockClaim struct {
	owner *MockChargeClaimer
	txID  uuid.UUID
}

func (c *mockClaim) Release(ctx context.Context) error {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()
	delete(c.owner.held, c.txID)
	c.owner.Releases++
	return nil
}

// --- Continuation Scheduler Mock ---

type ScheduledContinuation struct {
	Continuation checkout.ChargeableContinuation
	Delay        time.Duration
}

type MockScheduler struct {
	mu        sync.Mutex
	Scheduled []ScheduledContinuation

	ScheduleFunc func(ctx context.Context, c checkout.ChargeableContinuation, delay time.Duration) error
}

func (m *MockScheduler) ScheduleChargeable(ctx context.Context, c checkout.ChargeableContinuation, delay time.Duration) error {
	if m.ScheduleFunc != nil {
		return m.ScheduleFunc(ctx, c, delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Scheduled = append(m.Scheduled, ScheduledContinuation{Continuation: c, Delay: delay})
	return nil
}

// --- Customer Directory Mock ---

type MockCustomerDirectory struct {
	mu    sync.Mutex
	Links map[uuid.UUID]string
}

func NewMockCustomerDirectory() *MockCustomerDirectory {
	return &MockCustomerDirectory{Links: make(map[uuid.UUID]string)}
}

func (m *MockCustomerDirectory) SetStripeCustomerID(ctx context.Context, customerID uuid.UUID, stripeCustomerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Links[customerID] = stripeCustomerID
	return nil
}

// --- Webhook Event Store Mock ---

type MockWebhookEventStore struct {
	mu       sync.Mutex
	Statuses map[string]string
	Attempts map[string]int

	BeginFunc func(ctx context.Context, eventID, channelID, eventType string) (bool, error)
}

func NewMockWebhookEventStore() *MockWebhookEventStore {
	return &MockWebhookEventStore{Statuses: make(map[string]string), Attempts: make(map[string]int)}
}

func (m *MockWebhookEventStore) Begin(ctx context.Context, eventID, channelID, eventType string) (bool, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, eventID, channelID, eventType)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Attempts[eventID]++
	if m.Statuses[eventID] == "processed" {
		return true, nil
	}
	m.Statuses[eventID] = "processing"
	return false, nil
}

func (m *MockWebhookEventStore) MarkProcessed(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Statuses[eventID] = "processed"
	return nil
}

func (m *MockWebhookEventStore) MarkFailed(ctx context.Context, eventID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Statuses[eventID] = "failed"
	return nil
}

// --- Transaction Manager Mock ---

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// --- Outbox Repository Mock ---

// MockOutboxRepository is a mock implementation of outbox.Repository.
type MockOutboxRepository struct {
	mu      sync.Mutex
	Entries []*outbox.Entry

	InsertFunc        func(ctx context.Context, entry *outbox.Entry) error
	GetDueFunc        func(ctx context.Context, limit int) ([]*outbox.Entry, error)
	MarkPublishedFunc func(ctx context.Context, id uuid.UUID) error
	MarkFailedFunc    func(ctx context.Context, id uuid.UUID) error
}

func (m *MockOutboxRepository) Insert(ctx context.Context, entry *outbox.Entry) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
	return nil
}

func (m *MockOutboxRepository) GetDue(ctx context.Context, limit int) ([]*outbox.Entry, error) {
	if m.GetDueFunc != nil {
		return m.GetDueFunc(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var due []*outbox.Entry
	for _, e := range m.Entries {
		if e.IsDue(now) && len(due) < limit {
			due = append(due, e)
		}
	}
	return due, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Entries {
		if e.ID == id {
			now := time.Now()
			e.Status = outbox.StatusPublished
			e.PublishedAt = &now
		}
	}
	return nil
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Entries {
		if e.ID == id {
			e.RetryCount++
			if e.RetryCount >= e.MaxRetries {
				e.Status = outbox.StatusFailed
			}
		}
	}
	return nil
}
