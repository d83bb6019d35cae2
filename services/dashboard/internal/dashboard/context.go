package dashboard

import (
	"context"
	"errors"
)

type contextKey string

const contextKeyScope contextKey = "scope"

// ErrMissingManager means the session carries no manager id.
var ErrMissingManager = errors.New("manager not found")

// Scope is the per-request view of the session. Workflows receive it as a
// parameter and never read the session store themselves.
type Scope struct {
	SessionID            string
	ManagerID            string
	ManagerName          string
	SelectedUniversity   string
	SelectedUniversityID string
}

func (s Scope) Validate() error {
	if s.ManagerID == "" {
		return ErrMissingManager
	}
	return nil
}

func (s Scope) HasUniversity() bool {
	return s.SelectedUniversity != ""
}

func scopeFromSession(session *Session) Scope {
	if session == nil {
		return Scope{}
	}
	return Scope{
		SessionID:            session.ID,
		ManagerID:            session.ManagerID,
		ManagerName:          session.ManagerName,
		SelectedUniversity:   session.SelectedUniversity,
		SelectedUniversityID: session.SelectedUniversityID,
	}
}

func withScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, contextKeyScope, scope)
}

// ScopeFrom returns the scope stored by SessionMiddleware.
func ScopeFrom(ctx context.Context) Scope {
	if scope, ok := ctx.Value(contextKeyScope).(Scope); ok {
		return scope
	}
	return Scope{}
}
