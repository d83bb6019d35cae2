package dashboard

import (
	"time"

	"github.com/campusbite/backoffice/pkg/enums/orderstatus"
	"github.com/campusbite/backoffice/services/dashboard/internal/campus"
	"github.com/campusbite/backoffice/services/dashboard/internal/orderview"
)

// OrderRow is one rendered line of the orders table.
type OrderRow struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Customer   string `json:"customer"`
	Email      string `json:"email"`
	Vendors    string `json:"vendors"`
	Preview    string `json:"preview"`
	Rider      string `json:"rider"`
	Total      string `json:"total"`
	Status     string `json:"status"`
	Badge      string `json:"badge"`
	BadgeClass string `json:"badge_class"`
	Placed     string `json:"placed"`
	// PendingVendorID is the first pack still awaiting a decision, if any.
	PendingVendorID string `json:"pending_vendor_id,omitempty"`
}

type PackView struct {
	VendorID   string     `json:"vendor_id"`
	VendorName string     `json:"vendor_name"`
	Decision   string     `json:"decision"`
	Undecided  bool       `json:"undecided"`
	Busy       bool       `json:"busy"`
	Items      []ItemView `json:"items"`
}

type ItemView struct {
	Name     string `json:"name"`
	Image    string `json:"image,omitempty"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// OrderDetail backs the order modal.
type OrderDetail struct {
	OrderRow
	Phone   string     `json:"phone"`
	Address string     `json:"address"`
	Packs   []PackView `json:"packs"`
}

type TabView struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
	Active bool   `json:"active"`
}

func orderRow(o campus.Order, riders orderview.RiderDirectory, now time.Time) OrderRow {
	row := OrderRow{
		ID:         o.ID,
		Label:      orderview.OrderLabel(o),
		Customer:   orderview.CustomerName(o),
		Email:      orderview.CustomerEmail(o),
		Vendors:    orderview.VendorNames(o),
		Preview:    orderview.PackPreview(o),
		Rider:      orderview.RiderName(o, riders),
		Total:      orderview.FormatNaira(orderview.OrderTotal(o)),
		Status:     o.EffectiveStatus(),
		Badge:      orderview.Badge(o.EffectiveStatus()),
		BadgeClass: orderview.BadgeClass(o.EffectiveStatus()),
		Placed:     orderview.RelativeTime(o.EffectiveTime(), now),
	}
	if p := orderview.FirstUndecidedPack(o); p != nil {
		row.PendingVendorID = p.VendorID
	}
	return row
}

func orderRows(orders []campus.Order, riders orderview.RiderDirectory, now time.Time) []OrderRow {
	rows := make([]OrderRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, orderRow(o, riders, now))
	}
	return rows
}

func (s *Service) orderDetail(o campus.Order, riders orderview.RiderDirectory, now time.Time) OrderDetail {
	detail := OrderDetail{
		OrderRow: orderRow(o, riders, now),
		Phone:    orderview.CustomerPhone(o),
		Address:  orderview.CustomerAddress(o),
		Packs:    make([]PackView, 0, len(o.Packs)),
	}
	for _, p := range o.Packs {
		pv := PackView{
			VendorID:   p.VendorID,
			VendorName: p.VendorName,
			Decision:   orderview.PackDecisionLabel(p),
			Undecided:  p.Undecided(),
			Busy:       s.Busy(o.ID, p.VendorID),
			Items:      make([]ItemView, 0, len(p.Items)),
		}
		for _, it := range p.Items {
			pv.Items = append(pv.Items, ItemView{
				Name:     it.Name,
				Image:    it.Image,
				Quantity: it.Quantity,
				Price:    orderview.FormatNaira(it.Price.Decimal),
			})
		}
		detail.Packs = append(detail.Packs, pv)
	}
	return detail
}

// tabViews lists the all tab followed by the status buckets.
func tabViews(counters orderview.Counters, active string) []TabView {
	tabs := []TabView{{Name: orderview.TabAll, Label: "All"}}
	for _, b := range orderstatus.All {
		tabs = append(tabs, TabView{Name: b.Name, Label: b.Label()})
	}
	for i := range tabs {
		tabs[i].Count = counters.For(tabs[i].Name)
		tabs[i].Active = tabs[i].Name == active
	}
	return tabs
}

// findOrder looks an order up in the already scoped list.
func findOrder(orders []campus.Order, id string) (campus.Order, bool) {
	for _, o := range orders {
		if o.ID == id {
			return o, true
		}
	}
	return campus.Order{}, false
}

// ApprovalRow is a vendor or rider with its resolved approval label.
type ApprovalRow struct {
	Kind       ApprovalKind `json:"kind"`
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	University string       `json:"university"`
	Status     string       `json:"status"`
	Pending    bool         `json:"pending"`
}

type ApprovalRows struct {
	University string        `json:"university"`
	Vendors    []ApprovalRow `json:"vendors"`
	Riders     []ApprovalRow `json:"riders"`
}

func approvalRows(page ApprovalsPage) ApprovalRows {
	rows := ApprovalRows{
		University: page.University,
		Vendors:    make([]ApprovalRow, 0, len(page.Vendors)),
		Riders:     make([]ApprovalRow, 0, len(page.Riders)),
	}
	for _, v := range page.Vendors {
		rows.Vendors = append(rows.Vendors, ApprovalRow{
			Kind:       ApprovalVendor,
			ID:         v.ID,
			Name:       v.StoreName,
			Email:      v.Email,
			University: v.University,
			Status:     ApprovalLabel(v.Valid),
			Pending:    v.Valid == nil,
		})
	}
	for _, r := range page.Riders {
		name := r.Name
		if name == "" {
			name = r.UserName
		}
		rows.Riders = append(rows.Riders, ApprovalRow{
			Kind:       ApprovalRider,
			ID:         r.ID,
			Name:       name,
			Email:      r.Email,
			University: r.University,
			Status:     ApprovalLabel(r.Valid),
			Pending:    r.Valid == nil,
		})
	}
	return rows
}
