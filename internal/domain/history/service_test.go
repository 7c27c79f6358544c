package history_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/healthspectrum/internal/domain/history"
	"github.com/rpggio/healthspectrum/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHistoryService_RecordAndUndoAreLogged(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant1"

	repo := &mocks.ActionLogRepository{}
	repo.On("Append", ctx, tenantID, mock.MatchedBy(func(e *history.LogEntry) bool {
		return e.Event == history.EventRecorded && e.ActionType == "recent.remove"
	})).Return(nil).Once()
	repo.On("Append", ctx, tenantID, mock.MatchedBy(func(e *history.LogEntry) bool {
		return e.Event == history.EventUndone
	})).Return(nil).Once()

	svc := history.NewService(repo, nil)
	id, err := svc.Record(ctx, tenantID, history.AddRequest{
		Type:        "recent.remove",
		Description: "Removed Lisinopril",
		Undoable:    true,
		Undo:        func(context.Context) error { return nil },
	})
	require.NoError(t, err)
	require.True(t, svc.CanUndo(tenantID, id))
	require.True(t, svc.Undo(ctx, tenantID, id))
	require.False(t, svc.Undo(ctx, tenantID, id))

	repo.AssertExpectations(t)
}

func TestHistoryService_TenantsAreIsolated(t *testing.T) {
	ctx := context.Background()
	svc := history.NewService(nil, nil)

	id, err := svc.Record(ctx, "tenant1", history.AddRequest{Type: "x", Undoable: true, Undo: func(context.Context) error { return nil }})
	require.NoError(t, err)

	require.False(t, svc.CanUndo("tenant2", id))
	require.False(t, svc.Undo(ctx, "tenant2", id))
	require.Empty(t, svc.List("tenant2"))
	require.Len(t, svc.List("tenant1"), 1)

	_, err = svc.Get("tenant2", id)
	require.ErrorIs(t, err, history.ErrActionNotFound)
}

func TestHistoryService_RecordValidation(t *testing.T) {
	svc := history.NewService(nil, nil)
	_, err := svc.Record(context.Background(), "tenant1", history.AddRequest{Type: "  "})
	require.ErrorIs(t, err, history.ErrInvalidInput)
}

func TestHistoryService_LogFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActionLogRepository{}
	repo.On("Append", ctx, "tenant1", mock.Anything).Return(errors.New("disk full"))

	svc := history.NewService(repo, nil)
	id, err := svc.Record(ctx, "tenant1", history.AddRequest{Type: "x"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	svc.Clear(ctx, "tenant1")
	require.Empty(t, svc.List("tenant1"))
}

func TestHistoryService_ListLog(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActionLogRepository{}
	opts := history.ListLogOptions{Limit: 10}
	repo.On("List", ctx, "tenant1", opts).Return([]history.LogEntry{{Event: history.EventRecorded}}, nil)

	svc := history.NewService(repo, nil)
	entries, err := svc.ListLog(ctx, "tenant1", opts)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
