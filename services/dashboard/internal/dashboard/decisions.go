package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/campusbite/backoffice/services/dashboard/internal/orderview"
)

var (
	ErrDecisionInFlight = errors.New("decision already in flight")
	ErrMissingDecision  = errors.New("order id and vendor id are required")
)

const decisionFailedMsg = "Failed to update order. Please try again."

// Decision kinds carried by Outcome.
const (
	DecisionAccepted = "accepted"
	DecisionDeclined = "declined"
)

// Outcome is the transient notice shown after a successful decision.
type Outcome struct {
	Kind         string `json:"type"`
	ShortOrderID string `json:"orderId"`
	OrderID      string `json:"-"`
	VendorID     string `json:"-"`
}

func (o Outcome) Notice() string {
	return fmt.Sprintf("Order #%s %s", o.ShortOrderID, o.Kind)
}

// inflight tracks the (order, vendor) pairs with a pending decision.
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func decisionKey(orderID, vendorID string) string {
	return orderID + ":" + vendorID
}

func (f *inflight) acquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.keys == nil {
		f.keys = make(map[string]struct{})
	}
	if _, busy := f.keys[key]; busy {
		return false
	}
	f.keys[key] = struct{}{}
	return true
}

func (f *inflight) release(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
}

// Busy reports whether a decision for the pair is currently running.
func (s *Service) Busy(orderID, vendorID string) bool {
	key := decisionKey(orderID, vendorID)
	s.decisions.mu.Lock()
	defer s.decisions.mu.Unlock()
	_, busy := s.decisions.keys[key]
	return busy
}

// Decide submits an accept or decline for one pack. On success the order
// list is re-fetched in full; the pack is never patched locally. Failures
// leave every order untouched and are not retried.
func (s *Service) Decide(ctx context.Context, scope Scope, orderID, vendorID string, accept bool) (Outcome, error) {
	if err := scope.Validate(); err != nil {
		return Outcome{}, userErr("Manager not found. Please login again.", err)
	}
	if orderID == "" || vendorID == "" {
		return Outcome{}, userErr(decisionFailedMsg, ErrMissingDecision)
	}

	key := decisionKey(orderID, vendorID)
	if !s.decisions.acquire(key) {
		return Outcome{}, userErr("This order is already being updated.", ErrDecisionInFlight)
	}
	defer s.decisions.release(key)

	kind := DecisionDeclined
	if accept {
		kind = DecisionAccepted
	}

	payload := map[string]interface{}{"order_id": orderID, "vendor_id": vendorID, "accepted": accept}
	err := s.campus.DecidePack(ctx, orderID, vendorID, accept)
	s.audit.LogAction(ctx, scope.ManagerID, ActionDecidePack, orderID, payload, err)
	if err != nil {
		s.logger.Error("cannot decide pack", "order_id", orderID, "vendor_id", vendorID, "error", err)
		return Outcome{}, userErr(decisionFailedMsg, err)
	}

	if _, err := s.LoadOrders(ctx); err != nil {
		// The decision is stored; the list will catch up on the next refresh.
		s.logger.Error("cannot refresh orders after decision", "order_id", orderID, "error", err)
	}

	return Outcome{
		Kind:         kind,
		ShortOrderID: orderview.ShortID(orderID),
		OrderID:      orderID,
		VendorID:     vendorID,
	}, nil
}
