package orderview

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/campusbite/backoffice/pkg/enums/orderstatus"
	"github.com/campusbite/backoffice/services/dashboard/internal/campus"
)

const (
	nairaSign      = "₦"
	shortIDLen     = 8
	packPreviewMax = 3
)

var badgeClasses = map[string]string{
	orderstatus.Buckets.Pending.Name:   "badge-pending",
	orderstatus.Buckets.Transit.Name:   "badge-transit",
	orderstatus.Buckets.Completed.Name: "badge-completed",
	orderstatus.Buckets.Declined.Name:  "badge-cancelled",
}

var moneyPrinter = message.NewPrinter(language.English)

// Badge returns the label shown for a raw status. Unknown statuses pass
// through unchanged.
func Badge(status string) string {
	if b := orderstatus.Classify(status); b != nil {
		return b.Badge
	}
	return status
}

func BadgeClass(status string) string {
	if b := orderstatus.Classify(status); b != nil {
		return badgeClasses[b.Name]
	}
	return "badge-unknown"
}

// RelativeTime renders t relative to now. The zero time renders as "Recently".
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "Recently"
	}

	mins := int(now.Sub(t) / time.Minute)
	if mins < 0 {
		mins = 0
	}
	if mins < 60 {
		return plural(mins, "min") + " ago"
	}

	hours := mins / 60
	if hours < 24 {
		return plural(hours, "hour") + " ago"
	}

	days := hours / 24
	if days < 7 {
		return plural(days, "day") + " ago"
	}

	local := t.In(now.Location())
	return fmt.Sprintf("%d/%d/%d", int(local.Month()), local.Day(), local.Year())
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatNaira groups thousands and keeps at most two fraction digits.
func FormatNaira(amount decimal.Decimal) string {
	rounded := amount.Round(2).InexactFloat64()
	return nairaSign + moneyPrinter.Sprint(number.Decimal(rounded, number.MaxFractionDigits(2)))
}

func ShortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// OrderLabel is the order number when present, else the short id.
func OrderLabel(o campus.Order) string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return ShortID(o.ID)
}

// OrderTotal applies totalAmount, then total, then the sum of the parts.
// Zero amounts count as absent.
func OrderTotal(o campus.Order) decimal.Decimal {
	if !o.TotalAmount.IsZero() {
		return o.TotalAmount.Decimal
	}
	if !o.Total.IsZero() {
		return o.Total.Decimal
	}
	return o.Subtotal.Add(o.ServiceFee.Decimal).Add(o.DeliveryFee.Decimal)
}

func CustomerName(o campus.Order) string {
	switch {
	case o.UserName != "":
		return o.UserName
	case o.CustomerName != "":
		return o.CustomerName
	case o.User != nil && o.User.Name != "":
		return o.User.Name
	default:
		return "N/A"
	}
}

func CustomerEmail(o campus.Order) string {
	switch {
	case o.UserEmail != "":
		return o.UserEmail
	case o.User != nil && o.User.Email != "":
		return o.User.Email
	default:
		return "No email"
	}
}

func CustomerPhone(o campus.Order) string {
	return orDefault(o.PhoneNumber, "No phone")
}

func CustomerAddress(o campus.Order) string {
	return orDefault(o.Address, "No address")
}

// VendorNames lists the distinct pack vendors, falling back to the
// order-level vendor.
func VendorNames(o campus.Order) string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range o.Packs {
		if p.VendorName == "" || seen[p.VendorName] {
			continue
		}
		seen[p.VendorName] = true
		names = append(names, p.VendorName)
	}
	if len(names) > 0 {
		return strings.Join(names, ", ")
	}

	if o.VendorName != "" {
		return o.VendorName
	}
	if o.Vendor != nil && o.Vendor.StoreName != "" {
		return o.Vendor.StoreName
	}
	return "N/A"
}

// PackPreview shows the first few pack names and how many are hidden.
func PackPreview(o campus.Order) string {
	if len(o.Packs) == 0 {
		return ""
	}

	names := make([]string, 0, packPreviewMax)
	for i, p := range o.Packs {
		if i == packPreviewMax {
			break
		}
		names = append(names, orDefault(p.Name, "Pack"))
	}

	preview := strings.Join(names, ", ")
	if extra := len(o.Packs) - packPreviewMax; extra > 0 {
		preview += fmt.Sprintf(" +%d", extra)
	}
	return preview
}

// FirstUndecidedPack returns the pack that currently offers the accept and
// decline actions, or nil when every pack is decided.
func FirstUndecidedPack(o campus.Order) *campus.Pack {
	for i := range o.Packs {
		if o.Packs[i].Undecided() {
			return &o.Packs[i]
		}
	}
	return nil
}

func PackDecisionLabel(p campus.Pack) string {
	switch {
	case p.Accepted == nil:
		return "Awaiting decision"
	case *p.Accepted:
		return "Accepted"
	default:
		return "Declined"
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
