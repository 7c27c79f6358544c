package storage

import "context"

// Repository provides string-keyed persistence scoped to a tenant.
// Get returns repository.ErrNotFound when the key is absent.
type Repository interface {
	Get(ctx context.Context, tenantID, key string) (string, error)
	Set(ctx context.Context, tenantID, key, value string) error
	Remove(ctx context.Context, tenantID, key string) error
	Keys(ctx context.Context, tenantID string) ([]string, error)
}
