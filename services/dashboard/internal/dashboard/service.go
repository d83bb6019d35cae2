package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/aquamarinepk/aqm"

	"github.com/campusbite/backoffice/services/dashboard/internal/campus"
)

// Campus is the remote API as seen by the dashboard.
type Campus interface {
	Login(ctx context.Context, creds campus.Credentials) (*campus.Manager, error)
	Signup(ctx context.Context, req campus.SignupRequest) (*campus.Manager, error)
	GetManager(ctx context.Context, id string) (*campus.Manager, error)
	ListUniversities(ctx context.Context) ([]campus.University, error)
	ListVendors(ctx context.Context) ([]campus.Vendor, error)
	ListRiders(ctx context.Context) ([]campus.Rider, error)
	SetVendorApproval(ctx context.Context, id string, valid bool) error
	SetRiderApproval(ctx context.Context, id string, valid bool) error
	ListOrders(ctx context.Context) ([]campus.Order, error)
	DecidePack(ctx context.Context, orderID, vendorID string, accepted bool) error
	ListProducts(ctx context.Context) ([]campus.Product, error)
	CreateProduct(ctx context.Context, input campus.ProductInput) (*campus.Product, error)
	UpdateProduct(ctx context.Context, id string, input campus.ProductInput) (*campus.Product, error)
}

// UserError carries the inline message shown to the manager next to the
// underlying cause.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func userErr(message string, err error) error {
	return &UserError{Message: message, Err: err}
}

// MessageFor returns the inline message for err, or fallback when err does
// not carry one.
func MessageFor(err error, fallback string) string {
	var ue *UserError
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message
	}
	return fallback
}

// serverMessage prefers the API's own message for validation failures.
func serverMessage(err error, fallback string) string {
	var apiErr *campus.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Service holds the shared resource snapshots and runs the workflows. Each
// remote list is the same for every manager; scoping happens on read.
type Service struct {
	campus Campus
	audit  *AuditLogger
	logger aqm.Logger
	now    func() time.Time

	orders   Snapshot[[]campus.Order]
	riders   Snapshot[[]campus.Rider]
	vendors  Snapshot[[]campus.Vendor]
	products Snapshot[[]campus.Product]
	managers Keyed[*campus.Manager]

	decisions inflight
}

func NewService(client Campus, audit *AuditLogger, logger aqm.Logger) *Service {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	if audit == nil {
		audit = NewAuditLogger(logger, nil)
	}
	return &Service{
		campus: client,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// Manager returns the manager record for the scope, fetching it on first use.
func (s *Service) Manager(ctx context.Context, scope Scope) (*campus.Manager, error) {
	return s.manager(ctx, scope, false)
}

// ForgetManager drops the cached manager record so the next page loads it
// again. Called whenever the manager signs in or out.
func (s *Service) ForgetManager(managerID string) {
	if managerID == "" {
		return
	}
	s.managers.Forget(managerID)
}

func (s *Service) manager(ctx context.Context, scope Scope, fresh bool) (*campus.Manager, error) {
	if err := scope.Validate(); err != nil {
		return nil, userErr("Manager not found. Please login again.", err)
	}

	snap := s.managers.For(scope.ManagerID)
	manager, err := snap.Current(ctx, fresh, func(ctx context.Context) (*campus.Manager, error) {
		return s.campus.GetManager(ctx, scope.ManagerID)
	})
	if err != nil {
		return manager, userErr("Failed to load manager data", err)
	}
	if manager == nil {
		return nil, userErr("Failed to load manager data", campus.ErrMalformedPayload)
	}
	return manager, nil
}

func (s *Service) LoadOrders(ctx context.Context) ([]campus.Order, error) {
	return s.orders.Load(ctx, s.campus.ListOrders)
}

func (s *Service) LoadRiders(ctx context.Context) ([]campus.Rider, error) {
	return s.riders.Load(ctx, s.campus.ListRiders)
}

func (s *Service) LoadVendors(ctx context.Context) ([]campus.Vendor, error) {
	return s.vendors.Load(ctx, s.campus.ListVendors)
}

func (s *Service) LoadProducts(ctx context.Context) ([]campus.Product, error) {
	return s.products.Load(ctx, s.campus.ListProducts)
}

// Universities is not cached; it is only used by sign-up and selection.
func (s *Service) Universities(ctx context.Context) ([]campus.University, error) {
	unis, err := s.campus.ListUniversities(ctx)
	if err != nil {
		return nil, userErr("Failed to load universities", err)
	}
	return unis, nil
}
