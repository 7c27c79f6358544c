package repository

import (
	"context"

	"github.com/rpggio/healthspectrum/internal/domain/history"
)

// StorageRepository persists string values per tenant and key. Get returns
// ErrNotFound for absent keys.
type StorageRepository interface {
	Get(ctx context.Context, tenantID, key string) (string, error)
	Set(ctx context.Context, tenantID, key, value string) error
	Remove(ctx context.Context, tenantID, key string) error
	Keys(ctx context.Context, tenantID string) ([]string, error)
}

// ActionLogRepository manages the persisted history audit log
type ActionLogRepository interface {
	Append(ctx context.Context, tenantID string, entry *history.LogEntry) error
	List(ctx context.Context, tenantID string, opts history.ListLogOptions) ([]history.LogEntry, error)
}

// APIKeyRepository manages bearer tokens and the tenants they resolve to
type APIKeyRepository interface {
	Create(ctx context.Context, tenantID, token, description string) error
	ResolveTenant(ctx context.Context, token string) (string, error)
}
