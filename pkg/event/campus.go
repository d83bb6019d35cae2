package event

import (
	"strings"
	"time"
)

// Realtime trigger names as emitted by the campus delivery backend.
const (
	OrdersNew          = "orders:new"
	OrdersStatus       = "orders:status"
	OrdersAssignRider  = "orders:assignRider"
	VendorsPackUpdated = "vendors:packsUpdated"
)

// SubjectPrefix namespaces every trigger on the NATS bus.
const SubjectPrefix = "campus"

// Triggers lists every realtime trigger the dashboard reacts to.
var Triggers = []string{
	OrdersNew,
	OrdersStatus,
	OrdersAssignRider,
	VendorsPackUpdated,
}

// Trigger is the envelope published on the bus. Consumers only rely on Name;
// the payload is carried for diagnostics and is otherwise ignored.
type Trigger struct {
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
	Source     string    `json:"source,omitempty"`
	Payload    []byte    `json:"payload,omitempty"`
}

// Subject maps a trigger name to its NATS subject, e.g.
// "orders:assignRider" -> "campus.orders.assignRider".
func Subject(name string) string {
	return SubjectPrefix + "." + strings.ReplaceAll(name, ":", ".")
}

// NameFromSubject is the inverse of Subject. It returns "" for subjects
// outside the campus namespace.
func NameFromSubject(subject string) string {
	rest, ok := strings.CutPrefix(subject, SubjectPrefix+".")
	if !ok || rest == "" {
		return ""
	}
	head, tail, found := strings.Cut(rest, ".")
	if !found {
		return head
	}
	return head + ":" + tail
}

// IsKnown reports whether name is one of the triggers in Triggers.
func IsKnown(name string) bool {
	for _, t := range Triggers {
		if t == name {
			return true
		}
	}
	return false
}
