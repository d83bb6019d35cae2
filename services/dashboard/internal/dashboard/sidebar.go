package dashboard

import (
	"context"

	"github.com/campusbite/backoffice/services/dashboard/internal/orderview"
)

const defaultManagerName = "Manager"

type Sidebar struct {
	ManagerName string `json:"manager_name"`
	University  string `json:"university"`
	Pending     int    `json:"pending"`
	Total       int    `json:"total"`
	// Badge is the number next to the Orders link; zero hides it.
	Badge int `json:"badge"`
}

// Sidebar counts orders of the selected university. Load failures only
// hide the badge.
func (s *Service) Sidebar(ctx context.Context, scope Scope) Sidebar {
	sb := Sidebar{
		ManagerName: scope.ManagerName,
		University:  scope.SelectedUniversity,
	}

	if sb.ManagerName == "" && scope.ManagerID != "" {
		if m, err := s.Manager(ctx, scope); err == nil && m.ManagerName != "" {
			sb.ManagerName = m.ManagerName
		}
	}
	if sb.ManagerName == "" {
		sb.ManagerName = defaultManagerName
	}

	orders, err := s.orders.Current(ctx, false, s.campus.ListOrders)
	if err != nil {
		s.logger.Debug("sidebar counts unavailable", "error", err)
	}

	view := orderview.Derive(orders, orderview.Query{
		University: scope.SelectedUniversity,
		Match:      orderview.MatchFold,
	}, nil)

	sb.Pending = view.Counters.Pending
	sb.Total = view.Counters.All
	switch {
	case sb.Pending > 0:
		sb.Badge = sb.Pending
	case sb.Total > 0:
		sb.Badge = sb.Total
	}
	return sb
}
