package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/healthspectrum/internal/repository"
)

// StorageRepository implements storage.Repository for SQLite
type StorageRepository struct {
	db *DB
}

var _ repository.StorageRepository = (*StorageRepository)(nil)

// NewStorageRepository creates a new StorageRepository
func NewStorageRepository(db *DB) *StorageRepository {
	return &StorageRepository{db: db}
}

// Get returns the value stored under key
func (r *StorageRepository) Get(ctx context.Context, tenantID, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM local_storage WHERE tenant_id = ? AND key = ?`,
		tenantID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get storage value: %w", err)
	}
	return value, nil
}

// Set inserts or replaces the value stored under key
func (r *StorageRepository) Set(ctx context.Context, tenantID, key, value string) error {
	query := `
		INSERT INTO local_storage (tenant_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (tenant_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, tenantID, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to set storage value: %w", err)
	}
	return nil
}

// Remove deletes key; removing an absent key is a no-op
func (r *StorageRepository) Remove(ctx context.Context, tenantID, key string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM local_storage WHERE tenant_id = ? AND key = ?`,
		tenantID, key,
	); err != nil {
		return fmt.Errorf("failed to remove storage value: %w", err)
	}
	return nil
}

// Keys lists a tenant's keys in lexical order
func (r *StorageRepository) Keys(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key FROM local_storage WHERE tenant_id = ? ORDER BY key`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan storage key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating storage rows: %w", err)
	}
	return keys, nil
}
