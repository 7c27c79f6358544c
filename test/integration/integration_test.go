package integration_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rpggio/healthspectrum/internal/domain/history"
	"github.com/rpggio/healthspectrum/internal/domain/onboarding"
	"github.com/rpggio/healthspectrum/internal/domain/preferences"
	"github.com/rpggio/healthspectrum/internal/domain/recent"
	"github.com/rpggio/healthspectrum/internal/domain/storage"
	"github.com/rpggio/healthspectrum/internal/sqlite"
	"github.com/stretchr/testify/require"
)

const tenantID = "tenant1"

type testEnv struct {
	db          *sqlite.DB
	storageRepo *sqlite.StorageRepository
	logRepo     *sqlite.ActionLogRepository

	recentSvc     *recent.Service
	preferenceSvc *preferences.Service
	onboardingSvc *onboarding.Service
	historySvc    *history.Service

	clock time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		db:          db,
		storageRepo: sqlite.NewStorageRepository(db),
		logRepo:     sqlite.NewActionLogRepository(db),
		clock:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	store := storage.NewService(env.storageRepo, nil)
	env.recentSvc = recent.NewService(store, nil, recent.WithClock(env.tick))
	env.preferenceSvc = preferences.NewService(store, nil)
	env.onboardingSvc = onboarding.NewService(store, nil)
	env.historySvc = history.NewService(env.logRepo, nil, history.WithMaxEntries(200))
	return env
}

// tick advances the clock one second per call so timestamps are strictly
// increasing.
func (e *testEnv) tick() time.Time {
	e.clock = e.clock.Add(time.Second)
	return e.clock
}

func (e *testEnv) view(t *testing.T, id string, itemType recent.ItemType, title string) recent.Item {
	t.Helper()
	item, err := e.recentSvc.Add(context.Background(), tenantID, recent.AddRequest{
		ID:    id,
		Type:  itemType,
		Title: title,
		Path:  "/" + string(itemType) + "/" + id,
	})
	require.NoError(t, err)
	return item
}

func itemIDs(items []recent.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestIntegration_ActionIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	seen := map[string]bool{}
	for i := range 100 {
		id, err := env.historySvc.Record(ctx, tenantID, history.AddRequest{
			Type:        "test.action",
			Description: fmt.Sprintf("action %d", i),
		})
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestIntegration_UndoLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.False(t, env.historySvc.Undo(ctx, tenantID, "never-added"))

	var calls atomic.Int32
	id, err := env.historySvc.Record(ctx, tenantID, history.AddRequest{
		Type:        "recent.remove",
		Description: "Removed item",
		Undoable:    true,
		Undo: func(context.Context) error {
			calls.Add(1)
			return nil
		},
	})
	require.NoError(t, err)

	require.True(t, env.historySvc.CanUndo(tenantID, id))
	require.True(t, env.historySvc.Undo(ctx, tenantID, id))
	require.False(t, env.historySvc.Undo(ctx, tenantID, id))
	require.Equal(t, int32(1), calls.Load())

	action, err := env.historySvc.Get(tenantID, id)
	require.NoError(t, err)
	require.Equal(t, history.StatusUndone, action.Status)

	undone := history.EventUndone
	entries, err := env.historySvc.ListLog(ctx, tenantID, history.ListLogOptions{Event: &undone})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, id, entries[0].ActionID)
}

func TestIntegration_NotUndoableNeverInvokesUndo(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	invoked := false
	id, err := env.historySvc.Record(ctx, tenantID, history.AddRequest{
		Type:     "preferences.update",
		Undoable: false,
		Undo: func(context.Context) error {
			invoked = true
			return nil
		},
	})
	require.NoError(t, err)

	require.False(t, env.historySvc.CanUndo(tenantID, id))
	require.False(t, env.historySvc.Undo(ctx, tenantID, id))
	require.False(t, env.historySvc.Undo(ctx, tenantID, id))
	require.False(t, invoked)
}

func TestIntegration_FailedUndoCanBeRetried(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	attempts := 0
	id, err := env.historySvc.Record(ctx, tenantID, history.AddRequest{
		Type:     "recent.clear",
		Undoable: true,
		Undo: func(context.Context) error {
			attempts++
			if attempts == 1 {
				return errors.New("storage unavailable")
			}
			return nil
		},
	})
	require.NoError(t, err)

	require.False(t, env.historySvc.Undo(ctx, tenantID, id))
	require.True(t, env.historySvc.CanUndo(tenantID, id))
	require.True(t, env.historySvc.Undo(ctx, tenantID, id))

	failed := history.EventUndoFailed
	entries, err := env.historySvc.ListLog(ctx, tenantID, history.ListLogOptions{Event: &failed})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestIntegration_ReAddReplacesEntry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	first := env.view(t, "a", recent.TypeMedication, "Metformin 500mg")
	env.view(t, "b", recent.TypeDoctor, "Dr. Alvarez")
	second := env.view(t, "a", recent.TypeMedication, "Metformin 1000mg")

	items, err := env.recentSvc.Sorted(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "a", items[0].ID)
	require.Equal(t, "Metformin 1000mg", items[0].Title)
	require.Greater(t, second.Timestamp, first.Timestamp)
	require.Equal(t, second.Timestamp, items[0].Timestamp)
}

func TestIntegration_CapacityEvictsOldest(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	for i := range 25 {
		env.view(t, fmt.Sprintf("item-%02d", i), recent.TypeRecord, fmt.Sprintf("Record %d", i))
	}

	items, err := env.recentSvc.Items(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, items, recent.MaxItems)

	ids := itemIDs(items)
	for i := range 5 {
		require.NotContains(t, ids, fmt.Sprintf("item-%02d", i))
	}
	require.Equal(t, "item-24", ids[0])
}

func TestIntegration_PinnedSortsBeforeNewer(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.view(t, "t1", recent.TypeAppointment, "Annual physical")
	env.view(t, "t2", recent.TypeAppointment, "Dermatology")
	env.view(t, "t3", recent.TypeAppointment, "Cardiology follow-up")

	toggled, err := env.recentSvc.TogglePin(ctx, tenantID, "t1", "")
	require.NoError(t, err)
	require.Len(t, toggled, 1)
	require.True(t, toggled[0].Pinned)

	items, err := env.recentSvc.Sorted(ctx, tenantID)
	require.NoError(t, err)
	require.Equal(t, []string{"t1", "t3", "t2"}, itemIDs(items))

	view, err := env.recentSvc.Visible(ctx, tenantID, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"t1", "t3"}, itemIDs(view.Items))
	require.True(t, view.HasMore)
}

func TestIntegration_CorruptStorageIsRecovered(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.storageRepo.Set(ctx, tenantID, storage.KeyRecentlyViewed, "{not valid json"))
	require.NoError(t, env.storageRepo.Set(ctx, tenantID, storage.KeyPreferences, "{not valid json"))
	require.NoError(t, env.storageRepo.Set(ctx, tenantID, storage.KeySeenTips, "[1,2"))

	items, err := env.recentSvc.Items(ctx, tenantID)
	require.NoError(t, err)
	require.Empty(t, items)

	prefs, err := env.preferenceSvc.Get(ctx, tenantID)
	require.NoError(t, err)
	require.Equal(t, preferences.Defaults(), prefs)

	seen, err := env.onboardingSvc.HasSeenTip(ctx, tenantID, "welcome")
	require.NoError(t, err)
	require.False(t, seen)

	keys, err := env.storageRepo.Keys(ctx, tenantID)
	require.NoError(t, err)
	require.Empty(t, keys, "corrupt keys are removed")
}

func TestIntegration_RemoveThenRestoreViaUndo(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.view(t, "rx-1", recent.TypeMedication, "Atorvastatin")
	env.view(t, "doc-1", recent.TypeDoctor, "Dr. Nguyen")

	removed, err := env.recentSvc.Remove(ctx, tenantID, "rx-1", recent.TypeMedication)
	require.NoError(t, err)
	require.Len(t, removed, 1)

	data, err := json.Marshal(removed)
	require.NoError(t, err)
	id, err := env.historySvc.Record(ctx, tenantID, history.AddRequest{
		Type:        "recent.remove",
		Description: "Removed Atorvastatin",
		Data:        data,
		Undoable:    true,
		Undo: func(ctx context.Context) error {
			return env.recentSvc.Restore(ctx, tenantID, removed)
		},
	})
	require.NoError(t, err)

	require.True(t, env.historySvc.Undo(ctx, tenantID, id))

	items, err := env.recentSvc.Items(ctx, tenantID)
	require.NoError(t, err)
	require.Equal(t, []string{"doc-1", "rx-1"}, itemIDs(items))

	// Remove of a missing id is a no-op.
	removed, err = env.recentSvc.Remove(ctx, tenantID, "missing", "")
	require.NoError(t, err)
	require.Empty(t, removed)
}

func TestIntegration_PreferencesAndOnboardingPersist(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.preferenceSvc.Update(ctx, tenantID, "theme", json.RawMessage(`"dark"`))
	require.NoError(t, err)
	_, err = env.preferenceSvc.AddQuickAction(ctx, tenantID, "refill-request")
	require.NoError(t, err)

	saved, err := env.onboardingSvc.ToggleSavedTopic(ctx, tenantID, "billing")
	require.NoError(t, err)
	require.True(t, saved)
	changed, err := env.onboardingSvc.CompleteTour(ctx, tenantID, "dashboard")
	require.NoError(t, err)
	require.True(t, changed)

	// Fresh services over the same database see the same state.
	store := storage.NewService(sqlite.NewStorageRepository(env.db), nil)
	prefs, err := preferences.NewService(store, nil).Get(ctx, tenantID)
	require.NoError(t, err)
	require.Equal(t, preferences.ThemeDark, prefs.Theme)
	require.Contains(t, prefs.QuickActions, "refill-request")

	state, err := onboarding.NewService(store, nil).State(ctx, tenantID)
	require.NoError(t, err)
	require.Equal(t, []string{"billing"}, state.SavedHelpTopics)
	require.Equal(t, []string{"dashboard"}, state.CompletedTours)

	keys, err := env.storageRepo.Keys(ctx, tenantID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		storage.KeyPreferences,
		storage.KeySavedHelpTopics,
		storage.KeyCompletedTours,
	}, keys)
}

func TestIntegration_TenantsAreIsolated(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.view(t, "rx-1", recent.TypeMedication, "Atorvastatin")
	id, err := env.historySvc.Record(ctx, tenantID, history.AddRequest{
		Type:     "recent.add",
		Undoable: true,
		Undo:     func(context.Context) error { return nil },
	})
	require.NoError(t, err)

	items, err := env.recentSvc.Items(ctx, "tenant2")
	require.NoError(t, err)
	require.Empty(t, items)
	require.False(t, env.historySvc.CanUndo("tenant2", id))
	require.False(t, env.historySvc.Undo(ctx, "tenant2", id))
	require.True(t, env.historySvc.CanUndo(tenantID, id))
}
