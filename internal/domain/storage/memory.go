package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/rpggio/healthspectrum/internal/repository"
)

// MemoryRepository is a process-local Repository.
type MemoryRepository struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{values: make(map[string]map[string]string)}
}

func (r *MemoryRepository) Get(_ context.Context, tenantID, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.values[tenantID][key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return value, nil
}

func (r *MemoryRepository) Set(_ context.Context, tenantID, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.values[tenantID] == nil {
		r.values[tenantID] = make(map[string]string)
	}
	r.values[tenantID][key] = value
	return nil
}

func (r *MemoryRepository) Remove(_ context.Context, tenantID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.values[tenantID], key)
	return nil
}

func (r *MemoryRepository) Keys(_ context.Context, tenantID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.values[tenantID]))
	for key := range r.values[tenantID] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
