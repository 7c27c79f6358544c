package history

import (
	"log/slog"
	"time"
)

// ListLogOptions provides filtering options for the persisted log.
type ListLogOptions struct {
	ActionID *string
	Event    *LogEvent
	Limit    int
	Offset   int
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxEntries bounds the history; the oldest entries are dropped once the
// bound is exceeded. Zero or less means unbounded.
func WithMaxEntries(n int) Option {
	return func(m *Manager) { m.maxEntries = n }
}

// WithClock overrides the time source used for action timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides action id generation.
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) { m.newID = gen }
}

// WithLogger sets the logger used to report undo failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}
