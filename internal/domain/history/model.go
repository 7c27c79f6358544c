package history

import (
	"context"
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a recorded action.
type Status string

const (
	StatusActive  Status = "active"
	StatusPending Status = "pending"
	StatusUndone  Status = "undone"
)

// UndoFunc reverses the effect of an action. It may block.
type UndoFunc func(ctx context.Context) error

// Action is an entry in the action history. Data is an opaque payload whose
// schema is owned by whoever records actions of that Type.
type Action struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Timestamp   time.Time       `json:"timestamp"`
	Data        json.RawMessage `json:"data,omitempty"`
	Undoable    bool            `json:"undoable"`
	Status      Status          `json:"status"`

	undo UndoFunc
}

// HasUndo reports whether a compensating function was supplied.
func (a Action) HasUndo() bool {
	return a.undo != nil
}

// AddRequest describes an action to append to the history.
type AddRequest struct {
	Type        string
	Description string
	Data        json.RawMessage
	Undoable    bool
	Undo        UndoFunc
}

// LogEvent is the kind of persisted history event.
type LogEvent string

const (
	EventRecorded   LogEvent = "recorded"
	EventUndone     LogEvent = "undone"
	EventUndoFailed LogEvent = "undo_failed"
	EventCleared    LogEvent = "cleared"
)

// LogEntry is a persisted audit record of history activity.
type LogEntry struct {
	ID          int64     `json:"id"`
	TenantID    string    `json:"tenant_id"`
	ActionID    string    `json:"action_id,omitempty"`
	Event       LogEvent  `json:"event"`
	ActionType  string    `json:"action_type,omitempty"`
	Description string    `json:"description,omitempty"`
	Data        string    `json:"data,omitempty"` // JSON string
	CreatedAt   time.Time `json:"created_at"`
}
