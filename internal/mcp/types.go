package mcp

import (
	"encoding/json"
	"time"

	"github.com/rpggio/healthspectrum/internal/domain/history"
	"github.com/rpggio/healthspectrum/internal/domain/preferences"
	"github.com/rpggio/healthspectrum/internal/domain/recent"
)

type AddRecentItemParams struct {
	ID       string          `json:"id"`
	Type     recent.ItemType `json:"type"`
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle,omitempty"`
	Path     string          `json:"path"`
	Pinned   bool            `json:"pinned,omitempty"`
	Color    string          `json:"color,omitempty"`
}

type ListRecentItemsParams struct {
	Sorted *bool `json:"sorted,omitempty"`
	Limit  int   `json:"limit,omitempty"`
}

type RecentItemKeyParams struct {
	ID   string          `json:"id"`
	Type recent.ItemType `json:"type,omitempty"`
}

type UpdatePreferenceParams struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type UpdateLayoutParams struct {
	Layout []string `json:"layout"`
}

type QuickActionParams struct {
	ActionID string `json:"action_id"`
}

type ReorderQuickActionsParams struct {
	ActionIDs []string `json:"action_ids"`
}

type TipParams struct {
	TipID string `json:"tip_id"`
}

type TourParams struct {
	TourID string `json:"tour_id"`
}

type HelpTopicParams struct {
	TopicID string `json:"topic_id"`
}

type RecordActionParams struct {
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Data        json.RawMessage `json:"data,omitempty"`
	Undoable    bool            `json:"undoable,omitempty"`
}

type ActionIDParams struct {
	ActionID string `json:"action_id"`
}

type GetActionLogParams struct {
	ActionID *string           `json:"action_id,omitempty"`
	Event    *history.LogEvent `json:"event,omitempty"`
	Limit    int               `json:"limit,omitempty"`
	Offset   int               `json:"offset,omitempty"`
}

// RecentItemResponse is an item plus its relative view time.
type RecentItemResponse struct {
	recent.Item
	Viewed string `json:"viewed"`
}

type ListRecentItemsResponse struct {
	Items   []RecentItemResponse `json:"items"`
	Total   int                  `json:"total"`
	HasMore bool                 `json:"has_more"`
}

type AddRecentItemResponse struct {
	Item     recent.Item `json:"item"`
	ActionID string      `json:"action_id"`
}

type RecentItemsMutationResponse struct {
	Items    []recent.Item `json:"items"`
	ActionID string        `json:"action_id,omitempty"`
}

type PreferencesResponse struct {
	Preferences preferences.Preferences `json:"preferences"`
	ActionID    string                  `json:"action_id,omitempty"`
}

type TipResponse struct {
	TipID    string `json:"tip_id"`
	Seen     bool   `json:"seen"`
	ActionID string `json:"action_id,omitempty"`
}

type TourResponse struct {
	TourID    string `json:"tour_id"`
	Completed bool   `json:"completed"`
	ActionID  string `json:"action_id,omitempty"`
}

type HelpTopicResponse struct {
	TopicID     string   `json:"topic_id"`
	Saved       bool     `json:"saved"`
	SavedTopics []string `json:"saved_topics"`
	ActionID    string   `json:"action_id"`
}

type RecordActionResponse struct {
	ActionID string `json:"action_id"`
}

type ActionResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Timestamp   time.Time       `json:"timestamp"`
	Data        json.RawMessage `json:"data,omitempty"`
	Undoable    bool            `json:"undoable"`
	Status      history.Status  `json:"status"`
	CanUndo     bool            `json:"can_undo"`
}

type UndoResponse struct {
	ActionID string `json:"action_id"`
	Undone   bool   `json:"undone"`
}

type CanUndoResponse struct {
	ActionID string `json:"action_id"`
	CanUndo  bool   `json:"can_undo"`
}

type ClearHistoryResponse struct {
	Cleared int `json:"cleared"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
