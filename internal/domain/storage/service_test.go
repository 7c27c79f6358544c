package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/healthspectrum/internal/domain/storage"
	"github.com/rpggio/healthspectrum/internal/repository"
	"github.com/rpggio/healthspectrum/internal/repository/mocks"
	"github.com/stretchr/testify/require"
)

func TestStorageService_LoadMissingKey(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.StorageRepository{}
	repo.On("Get", ctx, "tenant1", "seenTips").Return("", repository.ErrNotFound)

	svc := storage.NewService(repo, nil)
	var out map[string]bool
	found, err := svc.LoadJSON(ctx, "tenant1", "seenTips", &out)
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, out)
}

func TestStorageService_LoadCorruptValueIsCleared(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.StorageRepository{}
	repo.On("Get", ctx, "tenant1", storage.KeyRecentlyViewed).Return("{not valid json", nil)
	repo.On("Remove", ctx, "tenant1", storage.KeyRecentlyViewed).Return(nil).Once()

	svc := storage.NewService(repo, nil)
	var out []map[string]any
	found, err := svc.LoadJSON(ctx, "tenant1", storage.KeyRecentlyViewed, &out)
	require.NoError(t, err)
	require.False(t, found)
	repo.AssertExpectations(t)
}

func TestStorageService_LoadRepositoryError(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.StorageRepository{}
	repo.On("Get", ctx, "tenant1", "k").Return("", errors.New("database is locked"))

	svc := storage.NewService(repo, nil)
	var out any
	_, err := svc.LoadJSON(ctx, "tenant1", "k", &out)
	require.Error(t, err)
}

func TestStorageService_SaveAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := storage.NewService(storage.NewMemoryRepository(), nil)

	require.NoError(t, svc.SaveJSON(ctx, "tenant1", storage.KeySavedHelpTopics, []string{"billing", "refills"}))

	var topics []string
	found, err := svc.LoadJSON(ctx, "tenant1", storage.KeySavedHelpTopics, &topics)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"billing", "refills"}, topics)

	keys, err := svc.Keys(ctx, "tenant1")
	require.NoError(t, err)
	require.Equal(t, []string{storage.KeySavedHelpTopics}, keys)

	require.NoError(t, svc.Remove(ctx, "tenant1", storage.KeySavedHelpTopics))
	found, err = svc.LoadJSON(ctx, "tenant1", storage.KeySavedHelpTopics, &topics)
	require.NoError(t, err)
	require.False(t, found)
}

func TestStorageService_LoadWrongShapeResetsDestination(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryRepository()
	require.NoError(t, repo.Set(ctx, "tenant1", storage.KeySeenTips, `{"welcome":true,"tour":"yes"}`))
	svc := storage.NewService(repo, nil)

	out := map[string]bool{"seeded": true}
	found, err := svc.LoadJSON(ctx, "tenant1", storage.KeySeenTips, &out)
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, out)

	keys, err := repo.Keys(ctx, "tenant1")
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestStorageService_LoadSeedsFromDestination(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryRepository()
	require.NoError(t, repo.Set(ctx, "tenant1", "settings", `{"b":2}`))
	svc := storage.NewService(repo, nil)

	out := map[string]int{"a": 1}
	found, err := svc.LoadJSON(ctx, "tenant1", "settings", &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, map[string]int{"a": 1, "b": 2}, out)
}

func TestStorageService_LoadRequiresPointer(t *testing.T) {
	svc := storage.NewService(storage.NewMemoryRepository(), nil)

	var out []string
	_, err := svc.LoadJSON(context.Background(), "tenant1", "k", out)
	require.Error(t, err)
}
