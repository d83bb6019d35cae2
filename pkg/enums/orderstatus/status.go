package orderstatus

import (
	"strings"
)

// Bucket is one of the named status partitions used by the order tabs.
type Bucket struct {
	Name     string
	TabLabel string
	Badge    string
	synonyms []string
}

func (b Bucket) Code() string {
	return b.Name
}

// Label is the text shown on the tab for this bucket.
func (b Bucket) Label() string {
	return b.TabLabel
}

// Matches reports whether a raw status string belongs to the bucket.
// Comparison folds case and surrounding whitespace.
func (b Bucket) Matches(status string) bool {
	s := Normalize(status)
	for _, syn := range b.synonyms {
		if s == syn {
			return true
		}
	}
	return false
}

type Enum struct {
	Pending   Bucket
	Transit   Bucket
	Completed Bucket
	Declined  Bucket
}

var Buckets = Enum{
	Pending:   Bucket{Name: "pending", TabLabel: "Pending", Badge: "Pending", synonyms: []string{"pending"}},
	Transit:   Bucket{Name: "transit", TabLabel: "In Transit", Badge: "In Transit", synonyms: []string{"in-transit", "in transit"}},
	Completed: Bucket{Name: "completed", TabLabel: "Completed", Badge: "Completed", synonyms: []string{"delivered", "completed"}},
	Declined:  Bucket{Name: "declined", TabLabel: "Declined", Badge: "Cancelled", synonyms: []string{"cancelled", "declined"}},
}

// All lists the named buckets in tab order.
var All = []Bucket{
	Buckets.Pending,
	Buckets.Transit,
	Buckets.Completed,
	Buckets.Declined,
}

// Normalize lowercases and trims a raw status value.
func Normalize(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// Classify returns the bucket a raw status belongs to, or nil when the status
// is outside every named bucket.
func Classify(status string) *Bucket {
	for _, b := range All {
		if b.Matches(status) {
			return &b
		}
	}
	return nil
}

// ByName returns the bucket for a tab name, or nil if not found.
func ByName(name string) *Bucket {
	for _, b := range All {
		if b.Name == name {
			return &b
		}
	}
	return nil
}
