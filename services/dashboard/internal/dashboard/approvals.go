package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"

	"github.com/campusbite/backoffice/services/dashboard/internal/campus"
)

type ApprovalKind string

const (
	ApprovalVendor ApprovalKind = "vendor"
	ApprovalRider  ApprovalKind = "rider"
)

func ParseApprovalKind(raw string) (ApprovalKind, error) {
	switch ApprovalKind(raw) {
	case ApprovalVendor, ApprovalRider:
		return ApprovalKind(raw), nil
	default:
		return "", fmt.Errorf("unknown approval kind %q", raw)
	}
}

// ApprovalLabel renders the tri-state valid flag.
func ApprovalLabel(valid *bool) string {
	switch {
	case valid == nil:
		return "Pending"
	case *valid:
		return "Approved"
	default:
		return "Rejected"
	}
}

type ApprovalsPage struct {
	University string
	Vendors    []campus.Vendor
	Riders     []campus.Rider
}

// sameUniversity compares university names with case folding. An empty
// scope matches nothing.
func sameUniversity(a, scope string) bool {
	if scope == "" {
		return false
	}
	fold := cases.Fold()
	return fold.String(a) == fold.String(scope)
}

// Approvals lists vendors and riders of the selected university.
func (s *Service) Approvals(ctx context.Context, scope Scope, fresh bool) (ApprovalsPage, error) {
	page := ApprovalsPage{University: scope.SelectedUniversity}
	if err := scope.Validate(); err != nil {
		return s.scopeApprovals(page), userErr("Manager not found. Please login again.", err)
	}

	var g errgroup.Group
	g.Go(func() error {
		_, err := s.vendors.Current(ctx, fresh, s.campus.ListVendors)
		return err
	})
	g.Go(func() error {
		_, err := s.riders.Current(ctx, fresh, s.campus.ListRiders)
		return err
	})
	err := g.Wait()

	page = s.scopeApprovals(page)
	if err != nil {
		return page, userErr("Failed to fetch approvals list", err)
	}
	return page, nil
}

// SetApproval submits the valid flag for a vendor or rider and then re-fetches
// both lists together, whichever kind changed.
func (s *Service) SetApproval(ctx context.Context, scope Scope, kind ApprovalKind, id string, approve bool) (ApprovalsPage, error) {
	if err := scope.Validate(); err != nil {
		return s.scopeApprovals(ApprovalsPage{University: scope.SelectedUniversity}),
			userErr("Manager not found. Please login again.", err)
	}

	var err error
	switch kind {
	case ApprovalVendor:
		err = s.campus.SetVendorApproval(ctx, id, approve)
	case ApprovalRider:
		err = s.campus.SetRiderApproval(ctx, id, approve)
	default:
		err = fmt.Errorf("unknown approval kind %q", kind)
	}

	payload := map[string]interface{}{"kind": string(kind), "valid": approve}
	s.audit.LogAction(ctx, scope.ManagerID, ActionSetApproval, id, payload, err)
	if err != nil {
		s.logger.Error("cannot set approval", "kind", kind, "id", id, "error", err)
		return s.scopeApprovals(ApprovalsPage{University: scope.SelectedUniversity}),
			userErr("Failed to update status", err)
	}

	return s.Approvals(ctx, scope, true)
}

func (s *Service) scopeApprovals(page ApprovalsPage) ApprovalsPage {
	page.Vendors = []campus.Vendor{}
	for _, v := range s.vendors.Get() {
		if sameUniversity(v.University, page.University) {
			page.Vendors = append(page.Vendors, v)
		}
	}

	page.Riders = []campus.Rider{}
	for _, r := range s.riders.Get() {
		if sameUniversity(r.University, page.University) {
			page.Riders = append(page.Riders, r)
		}
	}
	return page
}
