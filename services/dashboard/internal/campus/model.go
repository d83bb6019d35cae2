package campus

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the read-only view of a customer order as returned by the API.
type Order struct {
	ID            string    `json:"_id"`
	OrderNumber   string    `json:"orderNumber,omitempty"`
	Status        string    `json:"status,omitempty"`
	CurrentStatus string    `json:"currentStatus,omitempty"`
	University    string    `json:"university,omitempty"`
	CreatedAt     Timestamp `json:"createdAt"`
	Date          Timestamp `json:"date"`
	Packs         []Pack    `json:"packs,omitempty"`

	Subtotal    Money `json:"subtotal"`
	ServiceFee  Money `json:"serviceFee"`
	DeliveryFee Money `json:"deliveryFee"`
	TotalAmount Money `json:"totalAmount"`
	Total       Money `json:"total"`

	UserName     string `json:"userName,omitempty"`
	CustomerName string `json:"customerName,omitempty"`
	User         *Ref   `json:"userId,omitempty"`
	UserEmail    string `json:"userEmail,omitempty"`
	PhoneNumber  string `json:"PhoneNumber,omitempty"`
	Address      string `json:"Address,omitempty"`

	VendorName string `json:"vendorName,omitempty"`
	Vendor     *Ref   `json:"vendorId,omitempty"`

	RiderName string `json:"riderName,omitempty"`
	RiderID   *Ref   `json:"riderId,omitempty"`
	Rider     *Ref   `json:"rider,omitempty"`
}

// EffectiveStatus returns status, falling back to currentStatus.
func (o Order) EffectiveStatus() string {
	if o.Status != "" {
		return o.Status
	}
	return o.CurrentStatus
}

// EffectiveTime returns createdAt, falling back to date. Orders with neither
// yield the zero time and therefore sort as the oldest.
func (o Order) EffectiveTime() time.Time {
	if !o.CreatedAt.IsZero() {
		return o.CreatedAt.Time
	}
	return o.Date.Time
}

// RiderRefID resolves the rider reference whichever shape the API used.
func (o Order) RiderRefID() string {
	if o.RiderID != nil && o.RiderID.ID != "" {
		return o.RiderID.ID
	}
	if o.Rider != nil && o.Rider.ID != "" {
		return o.Rider.ID
	}
	return ""
}

// Pack is the part of an order that belongs to a single vendor.
type Pack struct {
	ID         string `json:"_id"`
	Name       string `json:"name,omitempty"`
	VendorID   string `json:"vendorId,omitempty"`
	VendorName string `json:"vendorName,omitempty"`
	// Accepted is tri-state: nil means the vendor has not decided yet.
	Accepted *bool  `json:"accepted"`
	Items    []Item `json:"items,omitempty"`
}

// Undecided reports whether the pack still awaits an accept/decline decision.
func (p Pack) Undecided() bool {
	return p.Accepted == nil
}

type Item struct {
	ID       string `json:"_id"`
	Name     string `json:"name,omitempty"`
	Image    string `json:"image,omitempty"`
	Quantity int    `json:"quantity"`
	Price    Money  `json:"price"`
}

type Rider struct {
	ID         string `json:"_id"`
	UserName   string `json:"userName,omitempty"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	University string `json:"university,omitempty"`
	Valid      *bool  `json:"valid"`
}

type Vendor struct {
	ID         string `json:"_id"`
	StoreName  string `json:"storeName,omitempty"`
	Email      string `json:"email,omitempty"`
	University string `json:"university,omitempty"`
	Valid      *bool  `json:"valid"`
}

// Product categories accepted by the vendor catalogue.
const (
	CategoryCarbohydrate = "Carbohydrate"
	CategoryProtein      = "Protein"
	CategoryPastries     = "Pastries"
	CategoryDrinks       = "Drinks"
)

var Categories = []string{
	CategoryCarbohydrate,
	CategoryProtein,
	CategoryPastries,
	CategoryDrinks,
}

type Product struct {
	ID        string `json:"_id"`
	VendorID  string `json:"vendorId"`
	Title     string `json:"title"`
	Price     Money  `json:"price"`
	Category  string `json:"category"`
	Image     string `json:"image"`
	Available *bool  `json:"available,omitempty"`
}

// ProductInput is the body accepted by the add and edit product endpoints.
type ProductInput struct {
	VendorID string  `json:"vendorId"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Image    string  `json:"image"`
}

type University struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type Manager struct {
	ID          string `json:"_id"`
	ManagerName string `json:"managerName,omitempty"`
	Email       string `json:"email,omitempty"`
	University  string `json:"university,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	ManagerName string `json:"managerName"`
	University  string `json:"university"`
}

// AuthResult is the login/signup response envelope.
type AuthResult struct {
	Manager *Manager `json:"manager"`
	Message string   `json:"message,omitempty"`
}

// Ref is a foreign reference that the API sends either as a bare id string or
// as a populated object.
type Ref struct {
	ID        string `json:"_id,omitempty"`
	Name      string `json:"name,omitempty"`
	UserName  string `json:"userName,omitempty"`
	StoreName string `json:"storeName,omitempty"`
	Email     string `json:"email,omitempty"`
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		r.ID = id
		return nil
	}

	if data[0] != '{' {
		// Numbers or arrays are not references; leave empty.
		return nil
	}

	type plain Ref
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Ref(p)
	return nil
}

// Timestamp decodes leniently: anything unparsable becomes the zero time.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] != '"' {
		// Epoch milliseconds.
		if ms, err := strconv.ParseInt(string(data), 10, 64); err == nil {
			t.Time = time.UnixMilli(ms).UTC()
		}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	t.Time = ParseTime(raw)
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}

// ParseTime tries the layouts the API is known to emit.
func ParseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// Money is a decimal amount that tolerates null, empty and malformed values by
// decoding them as zero.
type Money struct {
	decimal.Decimal
}

func NewMoney(v float64) Money {
	return Money{Decimal: decimal.NewFromFloat(v)}
}

func (m *Money) UnmarshalJSON(data []byte) error {
	m.Decimal = decimal.Zero
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	m.Decimal = d
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}
