package history

import "context"

// LogRepository persists history events.
type LogRepository interface {
	Append(ctx context.Context, tenantID string, entry *LogEntry) error
	List(ctx context.Context, tenantID string, opts ListLogOptions) ([]LogEntry, error)
}
