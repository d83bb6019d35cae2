package orderview

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/campusbite/backoffice/pkg/enums/orderstatus"
	"github.com/campusbite/backoffice/services/dashboard/internal/campus"
)

// TabAll is the tab that shows every scoped order regardless of status.
const TabAll = "all"

// ScopeMatch selects how an order's university is compared to the scope.
type ScopeMatch int

const (
	// MatchExact compares the university byte for byte.
	MatchExact ScopeMatch = iota
	// MatchFold compares with Unicode case folding.
	MatchFold
)

// Query holds everything that shapes the visible order list.
type Query struct {
	University string
	Match      ScopeMatch
	Tab        string
	Search     string
}

// Counters are the tab partition sizes of the scoped set, before search.
type Counters struct {
	All       int `json:"all"`
	Pending   int `json:"pending"`
	Transit   int `json:"transit"`
	Completed int `json:"completed"`
	Declined  int `json:"declined"`
}

// For returns the counter shown next to the named tab.
func (c Counters) For(tab string) int {
	switch tab {
	case orderstatus.Buckets.Pending.Name:
		return c.Pending
	case orderstatus.Buckets.Transit.Name:
		return c.Transit
	case orderstatus.Buckets.Completed.Name:
		return c.Completed
	case orderstatus.Buckets.Declined.Name:
		return c.Declined
	default:
		return c.All
	}
}

type View struct {
	Orders   []campus.Order `json:"orders"`
	Counters Counters       `json:"counters"`
}

// Derive scopes, classifies, searches and sorts orders. The input slice is
// never modified; a nil or empty scope yields an empty view.
func Derive(orders []campus.Order, q Query, riders RiderDirectory) View {
	view := View{Orders: []campus.Order{}}
	if q.University == "" || len(orders) == 0 {
		return view
	}

	// Casers keep state and are not shared across goroutines.
	fold := cases.Fold()
	scope := q.University
	if q.Match == MatchFold {
		scope = fold.String(scope)
	}

	tab := orderstatus.ByName(q.Tab)
	needle := NormalizeSearch(q.Search)

	for _, o := range orders {
		if !inScope(fold, o.University, scope, q.Match) {
			continue
		}

		bucket := orderstatus.Classify(o.EffectiveStatus())
		view.Counters.add(bucket)

		if tab != nil && (bucket == nil || bucket.Name != tab.Name) {
			continue
		}
		if needle != "" && !Matches(o, needle, riders) {
			continue
		}
		view.Orders = append(view.Orders, o)
	}

	sort.SliceStable(view.Orders, func(i, j int) bool {
		return view.Orders[i].EffectiveTime().After(view.Orders[j].EffectiveTime())
	})

	return view
}

func (c *Counters) add(bucket *orderstatus.Bucket) {
	c.All++
	if bucket == nil {
		return
	}
	switch bucket.Name {
	case orderstatus.Buckets.Pending.Name:
		c.Pending++
	case orderstatus.Buckets.Transit.Name:
		c.Transit++
	case orderstatus.Buckets.Completed.Name:
		c.Completed++
	case orderstatus.Buckets.Declined.Name:
		c.Declined++
	}
}

func inScope(fold cases.Caser, university, scope string, match ScopeMatch) bool {
	if match == MatchFold {
		return fold.String(university) == scope
	}
	return university == scope
}

// NormalizeSearch trims and lowercases a raw search box value.
func NormalizeSearch(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Matches reports whether any searchable field of the order contains needle.
// needle must already be normalized.
func Matches(o campus.Order, needle string, riders RiderDirectory) bool {
	for _, field := range searchFields(o, riders) {
		if field != "" && strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func searchFields(o campus.Order, riders RiderDirectory) []string {
	fields := []string{
		o.ID,
		o.OrderNumber,
		o.UserName,
		o.CustomerName,
		o.UserEmail,
		o.VendorName,
	}
	if o.User != nil {
		fields = append(fields, o.User.Name, o.User.Email)
	}
	if o.Vendor != nil {
		fields = append(fields, o.Vendor.StoreName)
	}
	for _, p := range o.Packs {
		fields = append(fields, p.VendorName, p.Name)
		for _, it := range p.Items {
			fields = append(fields, it.Name)
		}
	}
	if name, ok := resolveRider(o, riders); ok {
		fields = append(fields, name)
	}
	return fields
}
