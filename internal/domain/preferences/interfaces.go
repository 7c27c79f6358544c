package preferences

import "context"

// Store reads and writes JSON documents in a tenant's local storage.
type Store interface {
	LoadJSON(ctx context.Context, tenantID, key string, out any) (bool, error)
	SaveJSON(ctx context.Context, tenantID, key string, v any) error
	Remove(ctx context.Context, tenantID, key string) error
}
