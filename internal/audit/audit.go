// Package audit defines the append-only audit trail collaborator.
// Every state-changing operation in the service layer emits exactly one Event.
// Recording is fire-and-forget: a sink failure is logged by the caller and
// never rolls back the state change that produced the event — the database
// row is the source of truth, the audit trail is best-effort.
package audit

import "context"

// Action tags the kind of state change an Event describes.
type Action string

const (
	ActionCreateSession Action = "CREATE_SESSION"
	ActionStartSession  Action = "START_SESSION"
	ActionReturnSession Action = "RETURN_SESSION"
	ActionExpireSession Action = "EXPIRE_SESSION"
	ActionUpdateSession Action = "UPDATE_SESSION"
	ActionCreateStrike  Action = "CREATE_STRIKE"
)

// Event is one audit record. AdminID is nil for user-initiated actions and
// for the expiry timer; SessionID is nil for events not tied to a session.
// Details carries a small payload describing the new state (status, item id,
// relevant timestamps) and must be JSON-serializable.
type Event struct {
	UserID    int64          `json:"user_id"`
	AdminID   *int64         `json:"admin_id"`
	SessionID *int64         `json:"session_id"`
	Action    Action         `json:"action"`
	Details   map[string]any `json:"details"`
}

// Recorder is the sink an Event is delivered to. Implementations must be safe
// for concurrent use. See repo.NewAuditRepo for the Postgres sink and
// NewAMQPRecorder for the RabbitMQ sink.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}
