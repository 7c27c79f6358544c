package history

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rpggio/healthspectrum/internal/metrics"
)

// Service owns one action history per tenant and mirrors history events into
// a persisted log.
type Service struct {
	mu       sync.Mutex
	managers map[string]*Manager

	log    LogRepository
	logger *slog.Logger
	opts   []Option
}

// NewService creates a new history service. Options apply to every tenant's
// Manager. log may be nil, in which case nothing is persisted.
func NewService(log LogRepository, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		managers: make(map[string]*Manager),
		log:      log,
		logger:   logger,
		opts:     append([]Option{WithLogger(logger)}, opts...),
	}
}

// Manager returns the tenant's action history, creating it on first use.
func (s *Service) Manager(tenantID string) *Manager {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.managers[tenantID]
	if !ok {
		m = NewManager(s.opts...)
		s.managers[tenantID] = m
	}
	return m
}

// Record appends an action to the tenant's history and returns its id.
func (s *Service) Record(ctx context.Context, tenantID string, req AddRequest) (string, error) {
	if strings.TrimSpace(req.Type) == "" {
		return "", ErrInvalidInput
	}

	id := s.Manager(tenantID).Add(req)
	metrics.ActionsRecorded.WithLabelValues(req.Type).Inc()

	s.append(ctx, tenantID, &LogEntry{
		ActionID:    id,
		Event:       EventRecorded,
		ActionType:  req.Type,
		Description: req.Description,
		Data:        string(req.Data),
	})
	return id, nil
}

// Undo reverses the action with the given id. See Manager.Undo.
func (s *Service) Undo(ctx context.Context, tenantID, id string) bool {
	m := s.Manager(tenantID)
	outcome := m.TryUndo(ctx, id)

	action, _ := m.Get(id)
	switch outcome {
	case OutcomeUndone:
		metrics.UndoAttempts.WithLabelValues(metrics.UndoSucceeded).Inc()
		s.append(ctx, tenantID, &LogEntry{
			ActionID:    id,
			Event:       EventUndone,
			ActionType:  action.Type,
			Description: action.Description,
		})
		return true
	case OutcomeFailed:
		metrics.UndoAttempts.WithLabelValues(metrics.UndoFailed).Inc()
		s.append(ctx, tenantID, &LogEntry{
			ActionID:    id,
			Event:       EventUndoFailed,
			ActionType:  action.Type,
			Description: action.Description,
		})
	case OutcomeUnavailable:
		metrics.UndoAttempts.WithLabelValues(metrics.UndoUnavailable).Inc()
	default:
		metrics.UndoAttempts.WithLabelValues(metrics.UndoRejected).Inc()
	}
	return false
}

// CanUndo reports whether the action can currently be undone.
func (s *Service) CanUndo(tenantID, id string) bool {
	return s.Manager(tenantID).CanUndo(id)
}

// Get returns the action with the given id.
func (s *Service) Get(tenantID, id string) (Action, error) {
	action, ok := s.Manager(tenantID).Get(id)
	if !ok {
		return Action{}, ErrActionNotFound
	}
	return action, nil
}

// List returns the tenant's in-memory history, oldest first.
func (s *Service) List(tenantID string) []Action {
	return s.Manager(tenantID).Actions()
}

// Clear empties the tenant's history.
func (s *Service) Clear(ctx context.Context, tenantID string) {
	m := s.Manager(tenantID)
	n := m.Len()
	m.Clear()
	s.append(ctx, tenantID, &LogEntry{
		Event:       EventCleared,
		Description: fmt.Sprintf("cleared %d actions", n),
	})
}

// ListLog returns persisted history events, newest first.
func (s *Service) ListLog(ctx context.Context, tenantID string, opts ListLogOptions) ([]LogEntry, error) {
	if s.log == nil {
		return nil, nil
	}
	entries, err := s.log.List(ctx, tenantID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing action log: %w", err)
	}
	return entries, nil
}

func (s *Service) append(ctx context.Context, tenantID string, entry *LogEntry) {
	if s.log == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.log.Append(ctx, tenantID, entry); err != nil {
		s.logger.Warn("failed to persist action log entry", "tenant_id", tenantID, "event", entry.Event, "error", err)
	}
}
