package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/campusbite/backoffice/services/dashboard/internal/campus"
	"github.com/campusbite/backoffice/services/dashboard/internal/orderview"
)

// OrdersRequest describes one render of the orders page.
type OrdersRequest struct {
	Tab    string
	Search string
	// Fresh forces a re-fetch; otherwise a loaded snapshot is reused so tab
	// and search changes stay local.
	Fresh bool
	// Refresh marks a manual refresh, which only changes the error wording.
	Refresh bool
}

type OrdersPage struct {
	Manager  *campus.Manager
	View     orderview.View
	Riders   orderview.RiderDirectory
	Tab      string
	Search   string
	LoadedAt time.Time
}

// Orders loads the manager, riders and orders together and derives the view
// scoped by the manager's own university. On failure the page still carries
// whatever was loaded before, and the error holds the inline message.
func (s *Service) Orders(ctx context.Context, scope Scope, req OrdersRequest) (OrdersPage, error) {
	page := OrdersPage{
		Tab:    req.Tab,
		Search: req.Search,
		View:   orderview.View{Orders: []campus.Order{}},
	}
	if page.Tab == "" {
		page.Tab = orderview.TabAll
	}

	if err := scope.Validate(); err != nil {
		return page, userErr("Manager not found. Please login again.", err)
	}

	var (
		manager             *campus.Manager
		orders              []campus.Order
		riders              []campus.Rider
		managerErr, loadErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		manager, managerErr = s.manager(ctx, scope, req.Fresh)
		return nil
	})
	g.Go(func() error {
		var err error
		riders, err = s.riders.Current(ctx, req.Fresh, s.campus.ListRiders)
		if err != nil {
			s.logger.Error("cannot load riders", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		orders, loadErr = s.orders.Current(ctx, req.Fresh, s.campus.ListOrders)
		return nil
	})
	_ = g.Wait()

	page.Manager = manager
	page.Riders = orderview.NewRiderDirectory(riders)
	page.LoadedAt = s.orders.LoadedAt()

	university := ""
	if manager != nil {
		university = manager.University
	}
	page.View = orderview.Derive(orders, orderview.Query{
		University: university,
		Match:      orderview.MatchExact,
		Tab:        page.Tab,
		Search:     req.Search,
	}, page.Riders)

	switch {
	case managerErr != nil:
		return page, managerErr
	case loadErr != nil:
		msg := "Failed to load orders"
		if req.Refresh {
			msg = "Failed to refresh orders"
		}
		return page, userErr(msg, loadErr)
	}
	return page, nil
}

// RefreshOrders re-fetches orders and riders, e.g. after a realtime trigger.
func (s *Service) RefreshOrders(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		_, err := s.LoadOrders(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.LoadRiders(ctx)
		return err
	})
	return g.Wait()
}
