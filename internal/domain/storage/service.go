package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/rpggio/healthspectrum/internal/metrics"
	"github.com/rpggio/healthspectrum/internal/repository"
)

// Service reads and writes JSON documents in a tenant's local storage.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new storage service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger}
}

// LoadJSON decodes the value stored under key into out, which must be a
// non-nil pointer. The current value of *out seeds the decode, so callers can
// pre-fill defaults. It reports false when the key is absent or the stored
// value does not decode; in that case *out is reset to its zero value and a
// corrupt value is removed so the next write starts clean.
func (s *Service) LoadJSON(ctx context.Context, tenantID, key string, out any) (bool, error) {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return false, fmt.Errorf("loading %s: destination must be a non-nil pointer, got %T", key, out)
	}
	dest := target.Elem()

	raw, err := s.repo.Get(ctx, tenantID, key)
	if errors.Is(err, repository.ErrNotFound) {
		dest.SetZero()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading %s: %w", key, err)
	}

	decoded := reflect.New(dest.Type())
	decoded.Elem().Set(dest)
	if err := json.Unmarshal([]byte(raw), decoded.Interface()); err != nil {
		dest.SetZero()
		s.logger.Warn("discarding corrupt stored value", "tenant_id", tenantID, "key", key, "error", err)
		metrics.CorruptValues.WithLabelValues(key).Inc()
		if rmErr := s.repo.Remove(ctx, tenantID, key); rmErr != nil {
			s.logger.Error("failed to clear corrupt stored value", "tenant_id", tenantID, "key", key, "error", rmErr)
		}
		return false, nil
	}
	dest.Set(decoded.Elem())
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func (s *Service) SaveJSON(ctx context.Context, tenantID, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.repo.Set(ctx, tenantID, key, string(data)); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Service) Remove(ctx context.Context, tenantID, key string) error {
	if err := s.repo.Remove(ctx, tenantID, key); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys present for a tenant.
func (s *Service) Keys(ctx context.Context, tenantID string) ([]string, error) {
	return s.repo.Keys(ctx, tenantID)
}
