// internal/service/mocks_test.go
package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"payment-orchestrator/internal/analytics"
	"payment-orchestrator/internal/connector"
	"payment-orchestrator/internal/models"
	"payment-orchestrator/internal/routing"
)

// In-memory stores. Get returns copies so precondition-failure tests can
// assert stored state was left untouched.

type memIntentStore struct {
	mu      sync.Mutex
	intents map[string]*models.PaymentIntent
	// attempts backs UpdateWithAttempt, which spans both stores.
	attempts *memAttemptStore
}

func newMemIntentStore() *memIntentStore {
	return &memIntentStore{intents: make(map[string]*models.PaymentIntent)}
}

func (m *memIntentStore) Create(ctx context.Context, intent *models.PaymentIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *intent
	m.intents[intent.PaymentID] = &cp
	return nil
}

func (m *memIntentStore) GetByPaymentID(ctx context.Context, paymentID string) (*models.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	intent, ok := m.intents[paymentID]
	if !ok {
		return nil, nil
	}
	cp := *intent
	return &cp, nil
}

func (m *memIntentStore) Update(ctx context.Context, intent *models.PaymentIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *intent
	m.intents[intent.PaymentID] = &cp
	return nil
}

func (m *memIntentStore) UpdateWithAttempt(ctx context.Context, intent *models.PaymentIntent, attempt *models.PaymentAttempt) error {
	cp := *intent
	m.mu.Lock()
	m.intents[intent.PaymentID] = &cp
	m.mu.Unlock()
	return m.attempts.Update(ctx, attempt)
}

func (m *memIntentStore) List(ctx context.Context, filter *models.ListPaymentsFilter) ([]*models.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.PaymentIntent
	for _, intent := range m.intents {
		if intent.MerchantID != filter.MerchantID {
			continue
		}
		if filter.Status != "" && intent.Status != filter.Status {
			continue
		}
		cp := *intent
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memAttemptStore struct {
	mu       sync.Mutex
	attempts map[string]*models.PaymentAttempt
	order    []string
}

func newMemAttemptStore() *memAttemptStore {
	return &memAttemptStore{attempts: make(map[string]*models.PaymentAttempt)}
}

func (m *memAttemptStore) Create(ctx context.Context, attempt *models.PaymentAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *attempt
	m.attempts[attempt.ID] = &cp
	m.order = append(m.order, attempt.ID)
	return nil
}

func (m *memAttemptStore) GetByID(ctx context.Context, id string) (*models.PaymentAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempt, ok := m.attempts[id]
	if !ok {
		return nil, nil
	}
	cp := *attempt
	return &cp, nil
}

func (m *memAttemptStore) GetLatestByPaymentID(ctx context.Context, paymentID string) (*models.PaymentAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		if attempt := m.attempts[m.order[i]]; attempt.PaymentID == paymentID {
			cp := *attempt
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memAttemptStore) Update(ctx context.Context, attempt *models.PaymentAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *attempt
	m.attempts[attempt.ID] = &cp
	return nil
}

type memRefundStore struct {
	mu      sync.Mutex
	refunds map[string]*models.Refund
	updates int
}

func newMemRefundStore() *memRefundStore {
	return &memRefundStore{refunds: make(map[string]*models.Refund)}
}

func (m *memRefundStore) Create(ctx context.Context, refund *models.Refund) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *refund
	m.refunds[refund.RefundID] = &cp
	return nil
}

func (m *memRefundStore) GetByRefundID(ctx context.Context, refundID string) (*models.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	refund, ok := m.refunds[refundID]
	if !ok {
		return nil, nil
	}
	cp := *refund
	return &cp, nil
}

func (m *memRefundStore) ListByPaymentID(ctx context.Context, paymentID string) ([]*models.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Refund
	for _, refund := range m.refunds {
		if refund.PaymentID == paymentID {
			cp := *refund
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRefundStore) Update(ctx context.Context, refund *models.Refund) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *refund
	m.refunds[refund.RefundID] = &cp
	m.updates++
	return nil
}

type memRoutingLogStore struct {
	mu        sync.Mutex
	logs      []*models.RoutingDecisionLog
	success   map[string]bool
	createErr error
	patchErr  error
}

func newMemRoutingLogStore() *memRoutingLogStore {
	return &memRoutingLogStore{success: make(map[string]bool)}
}

func (m *memRoutingLogStore) Create(ctx context.Context, log *models.RoutingDecisionLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *log
	m.logs = append(m.logs, &cp)
	return nil
}

func (m *memRoutingLogStore) GetByAttemptID(ctx context.Context, attemptID string) (*models.RoutingDecisionLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, log := range m.logs {
		if log.AttemptID != attemptID {
			continue
		}
		cp := *log
		if success, ok := m.success[attemptID]; ok {
			cp.Success = &success
		}
		return &cp, nil
	}
	return nil, nil
}

func (m *memRoutingLogStore) UpdateSuccess(ctx context.Context, attemptID string, success bool) error {
	if m.patchErr != nil {
		return m.patchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.success[attemptID] = success
	return nil
}

// fakeGateway scripts connector responses per operation.
type fakeGateway struct {
	name string

	authorizeResp *connector.Response
	authorizeErr  error
	captureResp   *connector.Response
	captureErr    error
	refundResp    *connector.Response
	refundErr     error
	syncResp      *connector.Response
	syncErr       error
	verifyResp    *connector.Response
	verifyErr     error

	mu             sync.Mutex
	authorizeCalls int
	captureCalls   int
	refundCalls    int
	syncCalls      int
	verifyCalls    int
}

func (g *fakeGateway) Name() string {
	if g.name != "" {
		return g.name
	}
	return "stripe"
}

func (g *fakeGateway) Authorize(ctx context.Context, req *connector.AuthorizeRequest) (*connector.Response, error) {
	g.mu.Lock()
	g.authorizeCalls++
	g.mu.Unlock()
	return g.authorizeResp, g.authorizeErr
}

func (g *fakeGateway) Capture(ctx context.Context, req *connector.CaptureRequest) (*connector.Response, error) {
	g.mu.Lock()
	g.captureCalls++
	g.mu.Unlock()
	return g.captureResp, g.captureErr
}

func (g *fakeGateway) Refund(ctx context.Context, req *connector.RefundRequest) (*connector.Response, error) {
	g.mu.Lock()
	g.refundCalls++
	g.mu.Unlock()
	return g.refundResp, g.refundErr
}

func (g *fakeGateway) SyncPayment(ctx context.Context, req *connector.SyncRequest) (*connector.Response, error) {
	g.mu.Lock()
	g.syncCalls++
	g.mu.Unlock()
	return g.syncResp, g.syncErr
}

func (g *fakeGateway) SyncRefund(ctx context.Context, req *connector.SyncRequest) (*connector.Response, error) {
	g.mu.Lock()
	g.syncCalls++
	g.mu.Unlock()
	return g.syncResp, g.syncErr
}

func (g *fakeGateway) Verify3DS(ctx context.Context, req *connector.VerifyRequest) (*connector.Response, error) {
	g.mu.Lock()
	g.verifyCalls++
	g.mu.Unlock()
	return g.verifyResp, g.verifyErr
}

func authorizeResponse(status, txnID string) *connector.Response {
	return &connector.Response{Status: status, TransactionID: txnID}
}

func connectorError(name, code, message string) *connector.Error {
	return &connector.Error{Connector: name, Code: code, Message: message}
}

// fakeEngine returns a scripted routing decision.
type fakeEngine struct {
	decision *routing.Decision
	err      error
}

func (e *fakeEngine) SelectConnectors(ctx context.Context, req *routing.Request) (*routing.Decision, error) {
	return e.decision, e.err
}

// recordingAnalytics captures records; failure can be scripted to verify it
// never propagates.
type recordingAnalytics struct {
	mu      sync.Mutex
	records []*analytics.AttemptRecord
	windows []*analytics.WindowUpdate
	err     error
}

func (r *recordingAnalytics) RecordPaymentAttempt(ctx context.Context, record *analytics.AttemptRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return r.err
}

func (r *recordingAnalytics) UpdateSuccessRateWindow(ctx context.Context, update *analytics.WindowUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows = append(r.windows, update)
	return r.err
}

// fakeMandates is an in-memory mandate service.
type fakeMandates struct {
	mu        sync.Mutex
	mandates  map[string]*models.Mandate
	created   []*models.CreateMandateRequest
	createErr error
}

func newFakeMandates() *fakeMandates {
	return &fakeMandates{mandates: make(map[string]*models.Mandate)}
}

func (f *fakeMandates) GetMandate(ctx context.Context, mandateID string) (*models.Mandate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.mandates[mandateID]
	if !ok {
		return nil, models.NewError(models.ErrMandateNotFound, "mandate not found")
	}
	return m, nil
}

func (f *fakeMandates) CreateMandate(ctx context.Context, merchantID string, req *models.CreateMandateRequest) (*models.Mandate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Mandate{
		MandateID:       "man_test",
		MerchantID:      merchantID,
		CustomerID:      req.CustomerID,
		PaymentMethodID: req.PaymentMethodID,
		MandateType:     req.MandateType,
		Status:          models.MandateStatusActive,
	}, nil
}

// harness wires a PaymentService over in-memory collaborators with side
// effects executed inline so tests can observe them deterministically.
type harness struct {
	svc         *PaymentService
	intents     *memIntentStore
	attempts    *memAttemptStore
	refunds     *memRefundStore
	routingLogs *memRoutingLogStore
	gateway     *fakeGateway
	engine      *fakeEngine
	recorder    *recordingAnalytics
	mandates    *fakeMandates
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		intents:     newMemIntentStore(),
		attempts:    newMemAttemptStore(),
		refunds:     newMemRefundStore(),
		routingLogs: newMemRoutingLogStore(),
		gateway:     &fakeGateway{},
		engine:      &fakeEngine{decision: &routing.Decision{Connectors: []string{"stripe"}, Algorithm: "priority/v1"}},
		recorder:    &recordingAnalytics{},
		mandates:    newFakeMandates(),
	}
	h.intents.attempts = h.attempts

	registry := connector.NewRegistry()
	registry.Register(h.gateway)

	h.svc = NewPaymentService(
		Stores{
			Intents:     h.intents,
			Attempts:    h.attempts,
			Refunds:     h.refunds,
			RoutingLogs: h.routingLogs,
		},
		registry,
		h.engine,
		h.mandates,
		h.recorder,
		nil,
		Config{RedirectBaseURL: "http://localhost:8080"},
		zaptest.NewLogger(t),
	)
	h.svc.runAsync = func(fn func()) { fn() }

	return h
}
