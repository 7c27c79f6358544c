package history

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outcome explains the result of an undo attempt.
type Outcome int

const (
	OutcomeUndone Outcome = iota
	OutcomeNotFound
	OutcomeNotUndoable
	// OutcomeUnavailable means the action is already undone or an undo is in flight.
	OutcomeUnavailable
	OutcomeFailed
)

// Manager is an ordered, append-only log of user actions supporting undo by id.
// Actions move Active -> Pending -> Undone; a failed undo returns to Active.
type Manager struct {
	mu      sync.Mutex
	actions []*Action

	maxEntries int
	now        func() time.Time
	newID      func() string
	logger     *slog.Logger
}

// NewManager creates an empty action history.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add appends an action and returns its freshly assigned id.
func (m *Manager) Add(req AddRequest) string {
	action := &Action{
		ID:          m.newID(),
		Type:        req.Type,
		Description: req.Description,
		Timestamp:   m.now(),
		Data:        req.Data,
		Undoable:    req.Undoable,
		Status:      StatusActive,
		undo:        req.Undo,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.actions = append(m.actions, action)
	if m.maxEntries > 0 && len(m.actions) > m.maxEntries {
		drop := len(m.actions) - m.maxEntries
		clear(m.actions[:drop])
		m.actions = m.actions[drop:]
	}
	return action.ID
}

// Undo runs the action's compensating function at most once. It returns true
// only when the function completed without error.
func (m *Manager) Undo(ctx context.Context, id string) bool {
	return m.TryUndo(ctx, id) == OutcomeUndone
}

// TryUndo is Undo with the reason for the result.
func (m *Manager) TryUndo(ctx context.Context, id string) Outcome {
	m.mu.Lock()
	action := m.find(id)
	if action == nil {
		m.mu.Unlock()
		return OutcomeNotFound
	}
	if !action.Undoable || action.undo == nil {
		m.mu.Unlock()
		return OutcomeNotUndoable
	}
	if action.Status != StatusActive {
		m.mu.Unlock()
		return OutcomeUnavailable
	}
	action.Status = StatusPending
	undo := action.undo
	m.mu.Unlock()

	err := runUndo(ctx, undo)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.logger.Error("failed to undo action", "action_id", id, "type", action.Type, "error", err)
		action.Status = StatusActive
		return OutcomeFailed
	}
	action.Status = StatusUndone
	return OutcomeUndone
}

// runUndo invokes undo, converting a panic into an error so the action
// returns to Active instead of staying Pending.
func runUndo(ctx context.Context, undo UndoFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("undo panicked: %v", r)
		}
	}()
	return undo(ctx)
}

// CanUndo reports whether Undo could currently succeed for id.
func (m *Manager) CanUndo(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	action := m.find(id)
	return action != nil && action.Undoable && action.undo != nil && action.Status == StatusActive
}

// Get returns a copy of the action with the given id.
func (m *Manager) Get(id string) (Action, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	action := m.find(id)
	if action == nil {
		return Action{}, false
	}
	return *action, true
}

// Actions returns a snapshot of the history, oldest first.
func (m *Manager) Actions() []Action {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Action, 0, len(m.actions))
	for _, action := range m.actions {
		out = append(out, *action)
	}
	return out
}

// Len returns the number of actions in the history.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.actions)
}

// Clear empties the history.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = nil
}

func (m *Manager) find(id string) *Action {
	for _, action := range m.actions {
		if action.ID == id {
			return action
		}
	}
	return nil
}
