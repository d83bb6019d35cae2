package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campusbite/backoffice/services/dashboard/internal/campus"
)

func fixtureOrders() []campus.Order {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return []campus.Order{
		{ID: "o1", Status: "pending", University: "Unilag", CreatedAt: campus.Timestamp{Time: day}},
		{ID: "o2", Status: "delivered", University: "Unilag", CreatedAt: campus.Timestamp{Time: day.Add(time.Hour)}},
		{ID: "o3", Status: "pending", University: "UI", CreatedAt: campus.Timestamp{Time: day}},
		{ID: "o4", Status: "in-transit", University: "unilag", CreatedAt: campus.Timestamp{Time: day}},
	}
}

func TestOrders(t *testing.T) {
	mock := &MockCampus{
		GetManagerFunc: managerAt("Unilag"),
		ListOrdersFunc: func(context.Context) ([]campus.Order, error) { return fixtureOrders(), nil },
		ListRidersFunc: func(context.Context) ([]campus.Rider, error) {
			return []campus.Rider{{ID: "r1", UserName: "rider1"}}, nil
		},
	}
	svc := NewService(mock, nil, nil)

	page, err := svc.Orders(context.Background(), testScope(), OrdersRequest{})
	if err != nil {
		t.Fatalf("Orders() error = %v", err)
	}
	if page.Tab != "all" {
		t.Errorf("Tab = %q, want all", page.Tab)
	}
	// Exact match on the manager's university: "unilag" is out of scope.
	if len(page.View.Orders) != 2 {
		t.Fatalf("orders = %d, want 2", len(page.View.Orders))
	}
	if page.View.Orders[0].ID != "o2" {
		t.Errorf("first order = %q, want newest o2", page.View.Orders[0].ID)
	}
	if page.View.Counters.Pending != 1 || page.View.Counters.Completed != 1 {
		t.Errorf("counters = %+v", page.View.Counters)
	}
	if name, ok := page.Riders.Name("r1"); !ok || name != "rider1" {
		t.Errorf("rider directory = %v", page.Riders)
	}
}

func TestOrdersReusesSnapshot(t *testing.T) {
	mock := &MockCampus{
		GetManagerFunc: managerAt("Unilag"),
		ListOrdersFunc: func(context.Context) ([]campus.Order, error) { return fixtureOrders(), nil },
		ListRidersFunc: func(context.Context) ([]campus.Rider, error) { return nil, nil },
	}
	svc := NewService(mock, nil, nil)
	ctx := context.Background()

	_, _ = svc.Orders(ctx, testScope(), OrdersRequest{})
	_, _ = svc.Orders(ctx, testScope(), OrdersRequest{Tab: "pending", Search: "o1"})
	if got := mock.Calls("ListOrders"); got != 1 {
		t.Errorf("ListOrders calls = %d, want 1 for tab and search changes", got)
	}

	_, _ = svc.Orders(ctx, testScope(), OrdersRequest{Fresh: true, Refresh: true})
	if got := mock.Calls("ListOrders"); got != 2 {
		t.Errorf("ListOrders calls = %d, want 2 after refresh", got)
	}
}

func TestOrdersErrors(t *testing.T) {
	tests := []struct {
		name       string
		scope      Scope
		req        OrdersRequest
		managerErr error
		ordersErr  error
		want       string
	}{
		{name: "missingManager", scope: Scope{}, want: "Manager not found. Please login again."},
		{name: "managerLoadFails", scope: testScope(), managerErr: errors.New("down"), want: "Failed to load manager data"},
		{name: "ordersLoadFails", scope: testScope(), ordersErr: errors.New("down"), want: "Failed to load orders"},
		{name: "refreshFails", scope: testScope(), req: OrdersRequest{Fresh: true, Refresh: true}, ordersErr: errors.New("down"), want: "Failed to refresh orders"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockCampus{
				GetManagerFunc: func(ctx context.Context, id string) (*campus.Manager, error) {
					if tt.managerErr != nil {
						return nil, tt.managerErr
					}
					return managerAt("Unilag")(ctx, id)
				},
				ListOrdersFunc: func(context.Context) ([]campus.Order, error) { return nil, tt.ordersErr },
				ListRidersFunc: func(context.Context) ([]campus.Rider, error) { return nil, nil },
			}
			svc := NewService(mock, nil, nil)

			page, err := svc.Orders(context.Background(), tt.scope, tt.req)
			if got := MessageFor(err, ""); got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
			if page.View.Orders == nil {
				t.Error("Orders is nil, want empty list")
			}
		})
	}
}

func TestOrdersKeepStaleDataOnRefreshFailure(t *testing.T) {
	fail := false
	mock := &MockCampus{
		GetManagerFunc: managerAt("Unilag"),
		ListOrdersFunc: func(context.Context) ([]campus.Order, error) {
			if fail {
				return nil, errors.New("down")
			}
			return fixtureOrders(), nil
		},
		ListRidersFunc: func(context.Context) ([]campus.Rider, error) { return nil, nil },
	}
	svc := NewService(mock, nil, nil)
	ctx := context.Background()

	_, _ = svc.Orders(ctx, testScope(), OrdersRequest{})
	fail = true
	page, err := svc.Orders(ctx, testScope(), OrdersRequest{Fresh: true, Refresh: true})
	if err == nil {
		t.Fatal("Orders() error = nil")
	}
	if len(page.View.Orders) != 2 {
		t.Errorf("orders = %d, want the 2 stale orders", len(page.View.Orders))
	}
}

func TestOrdersRiderFailureIsNotFatal(t *testing.T) {
	mock := &MockCampus{
		GetManagerFunc: managerAt("Unilag"),
		ListOrdersFunc: func(context.Context) ([]campus.Order, error) { return fixtureOrders(), nil },
		ListRidersFunc: func(context.Context) ([]campus.Rider, error) { return nil, errors.New("down") },
	}
	svc := NewService(mock, nil, nil)

	page, err := svc.Orders(context.Background(), testScope(), OrdersRequest{})
	if err != nil {
		t.Fatalf("Orders() error = %v", err)
	}
	if len(page.View.Orders) != 2 {
		t.Errorf("orders = %d, want 2", len(page.View.Orders))
	}
}

func TestRefreshOrders(t *testing.T) {
	mock := &MockCampus{
		ListOrdersFunc: func(context.Context) ([]campus.Order, error) { return fixtureOrders(), nil },
		ListRidersFunc: func(context.Context) ([]campus.Rider, error) { return nil, errors.New("down") },
	}
	svc := NewService(mock, nil, nil)

	if err := svc.RefreshOrders(context.Background()); err == nil {
		t.Error("RefreshOrders() error = nil, want rider failure")
	}
	if len(svc.orders.Get()) != 4 {
		t.Errorf("orders = %d, want 4", len(svc.orders.Get()))
	}
}
