package mocks

import (
	"context"

	"github.com/rpggio/healthspectrum/internal/domain/history"
	"github.com/rpggio/healthspectrum/internal/repository"
	"github.com/stretchr/testify/mock"
)

var (
	_ repository.StorageRepository   = (*StorageRepository)(nil)
	_ repository.ActionLogRepository = (*ActionLogRepository)(nil)
)

// StorageRepository is a mock for storage.Repository.
type StorageRepository struct {
	mock.Mock
}

func (m *StorageRepository) Get(ctx context.Context, tenantID, key string) (string, error) {
	args := m.Called(ctx, tenantID, key)
	return args.String(0), args.Error(1)
}

func (m *StorageRepository) Set(ctx context.Context, tenantID, key, value string) error {
	args := m.Called(ctx, tenantID, key, value)
	return args.Error(0)
}

func (m *StorageRepository) Remove(ctx context.Context, tenantID, key string) error {
	args := m.Called(ctx, tenantID, key)
	return args.Error(0)
}

func (m *StorageRepository) Keys(ctx context.Context, tenantID string) ([]string, error) {
	args := m.Called(ctx, tenantID)
	if keys, ok := args.Get(0).([]string); ok {
		return keys, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActionLogRepository is a mock for history.LogRepository.
type ActionLogRepository struct {
	mock.Mock
}

func (m *ActionLogRepository) Append(ctx context.Context, tenantID string, entry *history.LogEntry) error {
	args := m.Called(ctx, tenantID, entry)
	return args.Error(0)
}

func (m *ActionLogRepository) List(ctx context.Context, tenantID string, opts history.ListLogOptions) ([]history.LogEntry, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]history.LogEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
