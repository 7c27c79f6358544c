package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/healthspectrum/internal/domain/history"
	"github.com/rpggio/healthspectrum/internal/repository"
)

// ActionLogRepository implements history.LogRepository for SQLite
type ActionLogRepository struct {
	db *DB
}

var _ repository.ActionLogRepository = (*ActionLogRepository)(nil)

// NewActionLogRepository creates a new ActionLogRepository
func NewActionLogRepository(db *DB) *ActionLogRepository {
	return &ActionLogRepository{db: db}
}

// Append inserts a new log entry
func (r *ActionLogRepository) Append(ctx context.Context, tenantID string, entry *history.LogEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO action_log (
			tenant_id, action_id, event, action_type, description, data, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		tenantID,
		nullString(entry.ActionID),
		entry.Event,
		nullString(entry.ActionType),
		nullString(entry.Description),
		nullString(entry.Data),
		createdAt,
	)
	if isConstraintViolation(err) {
		return fmt.Errorf("%w: event %q", repository.ErrInvalidInput, entry.Event)
	}
	if err != nil {
		return fmt.Errorf("failed to append action log: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		entry.ID = id
	}

	entry.TenantID = tenantID
	entry.CreatedAt = createdAt

	return nil
}

// List returns log entries matching the given filters, newest first
func (r *ActionLogRepository) List(ctx context.Context, tenantID string, opts history.ListLogOptions) ([]history.LogEntry, error) {
	query := `
		SELECT
			id, tenant_id, action_id, event, action_type, description, data, created_at
		FROM action_log
		WHERE tenant_id = ?
	`

	args := []any{tenantID}
	conditions := []string{}

	if opts.ActionID != nil {
		conditions = append(conditions, "action_id = ?")
		args = append(args, *opts.ActionID)
	}
	if opts.Event != nil {
		conditions = append(conditions, "event = ?")
		args = append(args, *opts.Event)
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	} else if opts.Offset > 0 {
		query += " LIMIT -1"
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list action log: %w", err)
	}
	defer rows.Close()

	entries := []history.LogEntry{}
	for rows.Next() {
		var entry history.LogEntry
		var actionID, actionType, description, data sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.TenantID,
			&actionID,
			&entry.Event,
			&actionType,
			&description,
			&data,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan action log entry: %w", err)
		}
		entry.ActionID = actionID.String
		entry.ActionType = actionType.String
		entry.Description = description.String
		entry.Data = data.String
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating action log rows: %w", err)
	}

	return entries, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
