package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rpggio/healthspectrum/internal/domain/history"
	"github.com/rpggio/healthspectrum/internal/domain/preferences"
	"github.com/rpggio/healthspectrum/internal/domain/recent"
)

// Handler dispatches MCP commands.
type Handler struct {
	recent      RecentService
	preferences PreferenceService
	onboarding  OnboardingService
	history     HistoryService
	logger      *slog.Logger
	now         func() time.Time
}

// NewHandler creates a new MCP handler.
func NewHandler(services Services, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		recent:      services.Recent,
		preferences: services.Preferences,
		onboarding:  services.Onboarding,
		history:     services.History,
		logger:      logger,
		now:         time.Now,
	}
}

// Handle dispatches MCP requests to domain services.
func (h *Handler) Handle(ctx context.Context, tenantID, sessionID, method string, params json.RawMessage) (any, error) {
	h.logger.Debug("handling tool call", "method", method, "tenant_id", tenantID, "session_id", sessionID)

	result, err := h.dispatch(ctx, tenantID, method, params)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func (h *Handler) dispatch(ctx context.Context, tenantID, method string, params json.RawMessage) (any, error) {
	switch method {
	// Recently viewed
	case "add_recent_item":
		var req AddRecentItemParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.addRecentItem(ctx, tenantID, req)
	case "list_recent_items":
		var req ListRecentItemsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.listRecentItems(ctx, tenantID, req)
	case "remove_recent_item":
		var req RecentItemKeyParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		removed, err := h.recent.Remove(ctx, tenantID, req.ID, req.Type)
		if err != nil || len(removed) == 0 {
			return RecentItemsMutationResponse{Items: emptyItems(removed)}, err
		}
		actionID, err := h.record(ctx, tenantID, "recent.remove",
			fmt.Sprintf("Removed %s from recently viewed", quoteTitles(removed)), removed,
			func(ctx context.Context) error {
				return h.recent.Restore(ctx, tenantID, removed)
			})
		return RecentItemsMutationResponse{Items: removed, ActionID: actionID}, err
	case "toggle_pin_recent_item":
		var req RecentItemKeyParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		toggled, err := h.recent.TogglePin(ctx, tenantID, req.ID, req.Type)
		if err != nil || len(toggled) == 0 {
			return RecentItemsMutationResponse{Items: emptyItems(toggled)}, err
		}
		verb := "Unpinned"
		if toggled[0].Pinned {
			verb = "Pinned"
		}
		actionID, err := h.record(ctx, tenantID, "recent.toggle_pin",
			fmt.Sprintf("%s %s", verb, quoteTitles(toggled)), toggled,
			func(ctx context.Context) error {
				for _, item := range toggled {
					if _, err := h.recent.TogglePin(ctx, tenantID, item.ID, item.Type); err != nil {
						return err
					}
				}
				return nil
			})
		return RecentItemsMutationResponse{Items: toggled, ActionID: actionID}, err
	case "clear_recent_items":
		cleared, err := h.recent.Clear(ctx, tenantID)
		if err != nil || len(cleared) == 0 {
			return RecentItemsMutationResponse{Items: emptyItems(cleared)}, err
		}
		actionID, err := h.record(ctx, tenantID, "recent.clear",
			fmt.Sprintf("Cleared %d recently viewed items", len(cleared)), cleared,
			func(ctx context.Context) error {
				return h.recent.Restore(ctx, tenantID, cleared)
			})
		return RecentItemsMutationResponse{Items: cleared, ActionID: actionID}, err

	// Preferences
	case "get_preferences":
		prefs, err := h.preferences.Get(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		return PreferencesResponse{Preferences: prefs}, nil
	case "update_preference":
		var req UpdatePreferenceParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutatePreferences(ctx, tenantID, "preferences.update",
			fmt.Sprintf("Changed %s", req.Key), req,
			func() (preferences.Preferences, error) {
				return h.preferences.Update(ctx, tenantID, req.Key, req.Value)
			})
	case "reset_preferences":
		return h.mutatePreferences(ctx, tenantID, "preferences.reset", "Reset preferences to defaults", nil,
			func() (preferences.Preferences, error) {
				if err := h.preferences.Reset(ctx, tenantID); err != nil {
					return preferences.Preferences{}, err
				}
				return h.preferences.Get(ctx, tenantID)
			})
	case "update_layout":
		var req UpdateLayoutParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutatePreferences(ctx, tenantID, "preferences.layout", "Rearranged dashboard", req,
			func() (preferences.Preferences, error) {
				return h.preferences.UpdateLayout(ctx, tenantID, req.Layout)
			})
	case "add_quick_action":
		var req QuickActionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutatePreferences(ctx, tenantID, "preferences.quick_action_add",
			fmt.Sprintf("Added quick action %s", req.ActionID), req,
			func() (preferences.Preferences, error) {
				return h.preferences.AddQuickAction(ctx, tenantID, req.ActionID)
			})
	case "remove_quick_action":
		var req QuickActionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutatePreferences(ctx, tenantID, "preferences.quick_action_remove",
			fmt.Sprintf("Removed quick action %s", req.ActionID), req,
			func() (preferences.Preferences, error) {
				return h.preferences.RemoveQuickAction(ctx, tenantID, req.ActionID)
			})
	case "reorder_quick_actions":
		var req ReorderQuickActionsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutatePreferences(ctx, tenantID, "preferences.quick_action_reorder", "Reordered quick actions", req,
			func() (preferences.Preferences, error) {
				return h.preferences.ReorderQuickActions(ctx, tenantID, req.ActionIDs)
			})

	// Onboarding
	case "get_onboarding_state":
		return h.onboarding.State(ctx, tenantID)
	case "mark_tip_seen":
		var req TipParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		changed, err := h.onboarding.MarkTipSeen(ctx, tenantID, req.TipID)
		if err != nil || !changed {
			return TipResponse{TipID: req.TipID, Seen: err == nil}, err
		}
		actionID, err := h.record(ctx, tenantID, "onboarding.tip_seen",
			fmt.Sprintf("Dismissed tip %s", req.TipID), req,
			func(ctx context.Context) error {
				return h.onboarding.UnmarkTipSeen(ctx, tenantID, req.TipID)
			})
		return TipResponse{TipID: req.TipID, Seen: true, ActionID: actionID}, err
	case "complete_tour":
		var req TourParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		changed, err := h.onboarding.CompleteTour(ctx, tenantID, req.TourID)
		if err != nil || !changed {
			return TourResponse{TourID: req.TourID, Completed: err == nil}, err
		}
		actionID, err := h.record(ctx, tenantID, "onboarding.tour_completed",
			fmt.Sprintf("Completed tour %s", req.TourID), req,
			func(ctx context.Context) error {
				return h.onboarding.UncompleteTour(ctx, tenantID, req.TourID)
			})
		return TourResponse{TourID: req.TourID, Completed: true, ActionID: actionID}, err
	case "toggle_saved_help_topic":
		var req HelpTopicParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		saved, err := h.onboarding.ToggleSavedTopic(ctx, tenantID, req.TopicID)
		if err != nil {
			return nil, err
		}
		verb := "Unsaved"
		if saved {
			verb = "Saved"
		}
		actionID, err := h.record(ctx, tenantID, "onboarding.help_topic",
			fmt.Sprintf("%s help topic %s", verb, req.TopicID), req,
			func(ctx context.Context) error {
				_, err := h.onboarding.ToggleSavedTopic(ctx, tenantID, req.TopicID)
				return err
			})
		if err != nil {
			return nil, err
		}
		topics, err := h.onboarding.SavedTopics(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		return HelpTopicResponse{TopicID: req.TopicID, Saved: saved, SavedTopics: topics, ActionID: actionID}, nil

	// Action history
	case "record_action":
		var req RecordActionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		id, err := h.history.Record(ctx, tenantID, history.AddRequest{
			Type:        req.Type,
			Description: req.Description,
			Data:        req.Data,
			Undoable:    req.Undoable,
		})
		if err != nil {
			return nil, err
		}
		return RecordActionResponse{ActionID: id}, nil
	case "undo_action":
		var req ActionIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return UndoResponse{ActionID: req.ActionID, Undone: h.history.Undo(ctx, tenantID, req.ActionID)}, nil
	case "can_undo":
		var req ActionIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return CanUndoResponse{ActionID: req.ActionID, CanUndo: h.history.CanUndo(tenantID, req.ActionID)}, nil
	case "get_action":
		var req ActionIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		action, err := h.history.Get(tenantID, req.ActionID)
		if err != nil {
			return nil, err
		}
		return h.actionResponse(tenantID, action), nil
	case "list_actions":
		actions := h.history.List(tenantID)
		resp := make([]ActionResponse, 0, len(actions))
		for _, action := range actions {
			resp = append(resp, h.actionResponse(tenantID, action))
		}
		return resp, nil
	case "clear_history":
		n := len(h.history.List(tenantID))
		h.history.Clear(ctx, tenantID)
		return ClearHistoryResponse{Cleared: n}, nil
	case "get_action_log":
		var req GetActionLogParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		entries, err := h.history.ListLog(ctx, tenantID, history.ListLogOptions{
			ActionID: req.ActionID,
			Event:    req.Event,
			Limit:    req.Limit,
			Offset:   req.Offset,
		})
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []history.LogEntry{}
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

func (h *Handler) addRecentItem(ctx context.Context, tenantID string, req AddRecentItemParams) (any, error) {
	before, err := h.recent.Items(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var previous []recent.Item
	for _, item := range before {
		if item.ID == req.ID && item.Type == req.Type {
			previous = append(previous, item)
		}
	}

	item, err := h.recent.Add(ctx, tenantID, recent.AddRequest{
		ID:       req.ID,
		Type:     req.Type,
		Title:    req.Title,
		Subtitle: req.Subtitle,
		Path:     req.Path,
		Pinned:   req.Pinned,
		Color:    req.Color,
	})
	if err != nil {
		return nil, err
	}

	actionID, err := h.record(ctx, tenantID, "recent.add",
		fmt.Sprintf("Viewed %q", item.Title), item,
		func(ctx context.Context) error {
			if _, err := h.recent.Remove(ctx, tenantID, item.ID, item.Type); err != nil {
				return err
			}
			return h.recent.Restore(ctx, tenantID, previous)
		})
	if err != nil {
		return nil, err
	}
	return AddRecentItemResponse{Item: item, ActionID: actionID}, nil
}

func (h *Handler) listRecentItems(ctx context.Context, tenantID string, req ListRecentItemsParams) (any, error) {
	var (
		items []recent.Item
		err   error
	)
	if req.Sorted == nil || *req.Sorted {
		items, err = h.recent.Sorted(ctx, tenantID)
	} else {
		items, err = h.recent.Items(ctx, tenantID)
	}
	if err != nil {
		return nil, err
	}

	resp := ListRecentItemsResponse{Total: len(items)}
	if req.Limit > 0 && len(items) > req.Limit {
		items = items[:req.Limit]
		resp.HasMore = true
	}

	now := h.now()
	resp.Items = make([]RecentItemResponse, 0, len(items))
	for _, item := range items {
		resp.Items = append(resp.Items, RecentItemResponse{
			Item:   item,
			Viewed: recent.FormatTimestamp(now, item.Timestamp),
		})
	}
	return resp, nil
}

// mutatePreferences applies fn and records an action whose undo saves the
// document that was in effect before.
func (h *Handler) mutatePreferences(ctx context.Context, tenantID, actionType, description string, data any, fn func() (preferences.Preferences, error)) (any, error) {
	previous, err := h.preferences.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	prefs, err := fn()
	if err != nil {
		return nil, err
	}
	actionID, err := h.record(ctx, tenantID, actionType, description, data,
		func(ctx context.Context) error {
			return h.preferences.Replace(ctx, tenantID, previous)
		})
	if err != nil {
		return nil, err
	}
	return PreferencesResponse{Preferences: prefs, ActionID: actionID}, nil
}

// record appends an undoable action to the tenant's history.
func (h *Handler) record(ctx context.Context, tenantID, actionType, description string, data any, undo history.UndoFunc) (string, error) {
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return "", fmt.Errorf("encoding action data: %w", err)
		}
		raw = encoded
	}
	return h.history.Record(ctx, tenantID, history.AddRequest{
		Type:        actionType,
		Description: description,
		Data:        raw,
		Undoable:    true,
		Undo:        undo,
	})
}

func (h *Handler) actionResponse(tenantID string, action history.Action) ActionResponse {
	return ActionResponse{
		ID:          action.ID,
		Type:        action.Type,
		Description: action.Description,
		Timestamp:   action.Timestamp,
		Data:        action.Data,
		Undoable:    action.Undoable,
		Status:      action.Status,
		CanUndo:     h.history.CanUndo(tenantID, action.ID),
	}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}

func quoteTitles(items []recent.Item) string {
	if len(items) == 1 {
		return fmt.Sprintf("%q", items[0].Title)
	}
	return fmt.Sprintf("%d items", len(items))
}

func emptyItems(items []recent.Item) []recent.Item {
	if items == nil {
		return []recent.Item{}
	}
	return items
}
