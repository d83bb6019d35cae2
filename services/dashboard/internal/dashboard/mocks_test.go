package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/aquamarinepk/aqm/events"

	"github.com/campusbite/backoffice/services/dashboard/internal/campus"
)

var errNotImplemented = errors.New("not implemented")

// MockCampus implements Campus with optional function fields.
type MockCampus struct {
	LoginFunc             func(ctx context.Context, creds campus.Credentials) (*campus.Manager, error)
	SignupFunc            func(ctx context.Context, req campus.SignupRequest) (*campus.Manager, error)
	GetManagerFunc        func(ctx context.Context, id string) (*campus.Manager, error)
	ListUniversitiesFunc  func(ctx context.Context) ([]campus.University, error)
	ListVendorsFunc       func(ctx context.Context) ([]campus.Vendor, error)
	ListRidersFunc        func(ctx context.Context) ([]campus.Rider, error)
	SetVendorApprovalFunc func(ctx context.Context, id string, valid bool) error
	SetRiderApprovalFunc  func(ctx context.Context, id string, valid bool) error
	ListOrdersFunc        func(ctx context.Context) ([]campus.Order, error)
	DecidePackFunc        func(ctx context.Context, orderID, vendorID string, accepted bool) error
	ListProductsFunc      func(ctx context.Context) ([]campus.Product, error)
	CreateProductFunc     func(ctx context.Context, input campus.ProductInput) (*campus.Product, error)
	UpdateProductFunc     func(ctx context.Context, id string, input campus.ProductInput) (*campus.Product, error)

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockCampus) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

// Calls returns how often the named method ran.
func (m *MockCampus) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockCampus) Login(ctx context.Context, creds campus.Credentials) (*campus.Manager, error) {
	m.record("Login")
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	return nil, errNotImplemented
}

func (m *MockCampus) Signup(ctx context.Context, req campus.SignupRequest) (*campus.Manager, error) {
	m.record("Signup")
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *MockCampus) GetManager(ctx context.Context, id string) (*campus.Manager, error) {
	m.record("GetManager")
	if m.GetManagerFunc != nil {
		return m.GetManagerFunc(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *MockCampus) ListUniversities(ctx context.Context) ([]campus.University, error) {
	m.record("ListUniversities")
	if m.ListUniversitiesFunc != nil {
		return m.ListUniversitiesFunc(ctx)
	}
	return nil, errNotImplemented
}

func (m *MockCampus) ListVendors(ctx context.Context) ([]campus.Vendor, error) {
	m.record("ListVendors")
	if m.ListVendorsFunc != nil {
		return m.ListVendorsFunc(ctx)
	}
	return nil, errNotImplemented
}

func (m *MockCampus) ListRiders(ctx context.Context) ([]campus.Rider, error) {
	m.record("ListRiders")
	if m.ListRidersFunc != nil {
		return m.ListRidersFunc(ctx)
	}
	return nil, errNotImplemented
}

func (m *MockCampus) SetVendorApproval(ctx context.Context, id string, valid bool) error {
	m.record("SetVendorApproval")
	if m.SetVendorApprovalFunc != nil {
		return m.SetVendorApprovalFunc(ctx, id, valid)
	}
	return errNotImplemented
}

func (m *MockCampus) SetRiderApproval(ctx context.Context, id string, valid bool) error {
	m.record("SetRiderApproval")
	if m.SetRiderApprovalFunc != nil {
		return m.SetRiderApprovalFunc(ctx, id, valid)
	}
	return errNotImplemented
}

func (m *MockCampus) ListOrders(ctx context.Context) ([]campus.Order, error) {
	m.record("ListOrders")
	if m.ListOrdersFunc != nil {
		return m.ListOrdersFunc(ctx)
	}
	return nil, errNotImplemented
}

func (m *MockCampus) DecidePack(ctx context.Context, orderID, vendorID string, accepted bool) error {
	m.record("DecidePack")
	if m.DecidePackFunc != nil {
		return m.DecidePackFunc(ctx, orderID, vendorID, accepted)
	}
	return errNotImplemented
}

func (m *MockCampus) ListProducts(ctx context.Context) ([]campus.Product, error) {
	m.record("ListProducts")
	if m.ListProductsFunc != nil {
		return m.ListProductsFunc(ctx)
	}
	return nil, errNotImplemented
}

func (m *MockCampus) CreateProduct(ctx context.Context, input campus.ProductInput) (*campus.Product, error) {
	m.record("CreateProduct")
	if m.CreateProductFunc != nil {
		return m.CreateProductFunc(ctx, input)
	}
	return nil, errNotImplemented
}

func (m *MockCampus) UpdateProduct(ctx context.Context, id string, input campus.ProductInput) (*campus.Product, error) {
	m.record("UpdateProduct")
	if m.UpdateProductFunc != nil {
		return m.UpdateProductFunc(ctx, id, input)
	}
	return nil, errNotImplemented
}

// MockSubscriber records subscriptions and lets tests deliver messages.
type MockSubscriber struct {
	SubscribeErr error

	mu       sync.Mutex
	handlers map[string]events.HandlerFunc
	closed   int
}

func (m *MockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

func (m *MockSubscriber) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockSubscriber) Subscribe(_ context.Context, topic string, handler events.HandlerFunc) error {
	if m.SubscribeErr != nil {
		return m.SubscribeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handlers == nil {
		m.handlers = make(map[string]events.HandlerFunc)
	}
	m.handlers[topic] = handler
	return nil
}

func (m *MockSubscriber) Deliver(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	handler, ok := m.handlers[topic]
	m.mu.Unlock()
	if !ok {
		return errors.New("no handler for " + topic)
	}
	return handler(ctx, msg)
}

// MockSink collects audit entries.
type MockSink struct {
	Err error

	mu      sync.Mutex
	entries []AuditEntry
}

func (m *MockSink) Save(_ context.Context, entry AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return m.Err
}

func (m *MockSink) Entries() []AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AuditEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

func boolPtr(b bool) *bool {
	return &b
}

func testScope() Scope {
	return Scope{
		SessionID:            "session-1",
		ManagerID:            "m1",
		ManagerName:          "Ada",
		SelectedUniversity:   "Unilag",
		SelectedUniversityID: "u1",
	}
}

func managerAt(university string) func(context.Context, string) (*campus.Manager, error) {
	return func(_ context.Context, id string) (*campus.Manager, error) {
		return &campus.Manager{ID: id, ManagerName: "Ada", University: university}, nil
	}
}
