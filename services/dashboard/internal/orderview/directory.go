package orderview

import "github.com/campusbite/backoffice/services/dashboard/internal/campus"

const (
	riderFallbackName = "Rider"
	notAssigned       = "Not assigned"
)

// RiderDirectory maps rider ids to display names. It is rebuilt from a full
// rider list and never patched.
type RiderDirectory map[string]string

func NewRiderDirectory(riders []campus.Rider) RiderDirectory {
	dir := make(RiderDirectory, len(riders))
	for _, r := range riders {
		if r.ID == "" {
			continue
		}
		dir[r.ID] = riderDisplayName(r)
	}
	return dir
}

func (d RiderDirectory) Name(id string) (string, bool) {
	if d == nil || id == "" {
		return "", false
	}
	name, ok := d[id]
	return name, ok
}

func riderDisplayName(r campus.Rider) string {
	switch {
	case r.UserName != "":
		return r.UserName
	case r.Name != "":
		return r.Name
	case r.Email != "":
		return r.Email
	default:
		return riderFallbackName
	}
}

// RiderName resolves the rider shown for an order, or "Not assigned".
func RiderName(o campus.Order, riders RiderDirectory) string {
	if name, ok := resolveRider(o, riders); ok {
		return name
	}
	return notAssigned
}

func resolveRider(o campus.Order, riders RiderDirectory) (string, bool) {
	if o.RiderName != "" {
		return o.RiderName, true
	}
	if name, ok := riders.Name(o.RiderRefID()); ok {
		return name, true
	}
	for _, ref := range []*campus.Ref{o.RiderID, o.Rider} {
		if ref == nil {
			continue
		}
		if ref.Name != "" {
			return ref.Name, true
		}
		if ref.UserName != "" {
			return ref.UserName, true
		}
	}
	return "", false
}
