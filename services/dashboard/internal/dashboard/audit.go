package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
)

// Audit actions.
const (
	ActionLogin         = "login"
	ActionSignup        = "signup"
	ActionLogout        = "logout"
	ActionSelectUni     = "select-university"
	ActionDecidePack    = "decide-pack"
	ActionSetApproval   = "set-approval"
	ActionCreateProduct = "create-product"
	ActionUpdateProduct = "update-product"
)

// AuditEntry is a single manager action.
type AuditEntry struct {
	ID        uuid.UUID       `json:"id" bson:"_id"`
	ManagerID string          `json:"manager_id" bson:"manager_id"`
	Action    string          `json:"action" bson:"action"`
	Target    string          `json:"target" bson:"target"`
	Payload   json.RawMessage `json:"payload,omitempty" bson:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp" bson:"timestamp"`
	Success   bool            `json:"success" bson:"success"`
	Error     string          `json:"error,omitempty" bson:"error,omitempty"`
}

// AuditSink persists audit entries. Optional.
type AuditSink interface {
	Save(ctx context.Context, entry AuditEntry) error
}

type AuditLogger struct {
	logger aqm.Logger
	sink   AuditSink
}

func NewAuditLogger(logger aqm.Logger, sink AuditSink) *AuditLogger {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &AuditLogger{logger: logger, sink: sink}
}

// Log writes the entry to the log and, when configured, to the sink. Sink
// failures are logged and never reach the caller.
func (a *AuditLogger) Log(ctx context.Context, entry AuditEntry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	a.logger.Info("audit",
		"manager_id", entry.ManagerID,
		"action", entry.Action,
		"target", entry.Target,
		"success", entry.Success,
		"timestamp", entry.Timestamp.Format(time.RFC3339),
		"error", entry.Error,
	)

	if a.sink == nil {
		return
	}
	if err := a.sink.Save(ctx, entry); err != nil {
		a.logger.Error("cannot persist audit entry", "action", entry.Action, "error", err)
	}
}

func (a *AuditLogger) LogLogin(ctx context.Context, managerID string) {
	a.Log(ctx, AuditEntry{ManagerID: managerID, Action: ActionLogin, Target: "auth", Success: true})
}

func (a *AuditLogger) LogLogout(ctx context.Context, managerID string) {
	a.Log(ctx, AuditEntry{ManagerID: managerID, Action: ActionLogout, Target: "auth", Success: true})
}

// LogAction records an action on target with an optional payload and error.
func (a *AuditLogger) LogAction(ctx context.Context, managerID, action, target string, payload map[string]interface{}, err error) {
	entry := AuditEntry{
		ManagerID: managerID,
		Action:    action,
		Target:    target,
		Success:   err == nil,
	}
	if payload != nil {
		entry.Payload, _ = json.Marshal(payload)
	}
	if err != nil {
		entry.Error = err.Error()
	}
	a.Log(ctx, entry)
}
