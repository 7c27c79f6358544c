package mcp

import (
	"context"
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolDefinition describes a callable tool.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

var itemTypeProp = map[string]any{
	"type":        "string",
	"description": "Item type",
	"enum":        []string{"appointment", "medication", "record", "doctor", "other"},
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Recently viewed
		{
			Name:        "add_recent_item",
			Description: "Record that an item was viewed. Re-viewing an item moves it to the front; at most 20 items are kept",
			InputSchema: objectSchema(map[string]any{
				"id":       stringProp("Item identifier"),
				"type":     itemTypeProp,
				"title":    stringProp("Display title"),
				"subtitle": stringProp("Secondary text"),
				"path":     stringProp("Navigation path in the app"),
				"pinned":   map[string]any{"type": "boolean", "description": "Pin the item"},
				"color":    stringProp("Accent color"),
			}, "id", "type", "title", "path"),
		},
		{
			Name:        "list_recent_items",
			Description: "List recently viewed items. Sorted order puts pinned items first, then newest first",
			InputSchema: objectSchema(map[string]any{
				"sorted": map[string]any{"type": "boolean", "description": "Display order (default true); false returns recency order"},
				"limit":  map[string]any{"type": "integer", "description": "Maximum number of items"},
			}),
		},
		{
			Name:        "remove_recent_item",
			Description: "Remove an item from recently viewed. Omit type to remove every item with the id",
			InputSchema: objectSchema(map[string]any{
				"id":   stringProp("Item identifier"),
				"type": itemTypeProp,
			}, "id"),
		},
		{
			Name:        "toggle_pin_recent_item",
			Description: "Pin or unpin a recently viewed item. Omit type to toggle every item with the id",
			InputSchema: objectSchema(map[string]any{
				"id":   stringProp("Item identifier"),
				"type": itemTypeProp,
			}, "id"),
		},
		{
			Name:        "clear_recent_items",
			Description: "Remove all recently viewed items",
			InputSchema: objectSchema(map[string]any{}),
		},

		// Preferences
		{
			Name:        "get_preferences",
			Description: "Get user preferences, with defaults for anything never set",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "update_preference",
			Description: "Set one preference, e.g. theme, fontSize, animations, compactMode, timeFormat",
			InputSchema: objectSchema(map[string]any{
				"key":   stringProp("Preference name"),
				"value": map[string]any{"description": "New value (JSON)"},
			}, "key", "value"),
		},
		{
			Name:        "reset_preferences",
			Description: "Restore default preferences",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "update_layout",
			Description: "Set the dashboard widget order",
			InputSchema: objectSchema(map[string]any{
				"layout": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Widget ids in display order"},
			}, "layout"),
		},
		{
			Name:        "add_quick_action",
			Description: "Add a quick action; duplicates are ignored",
			InputSchema: objectSchema(map[string]any{
				"action_id": stringProp("Quick action id"),
			}, "action_id"),
		},
		{
			Name:        "remove_quick_action",
			Description: "Remove a quick action",
			InputSchema: objectSchema(map[string]any{
				"action_id": stringProp("Quick action id"),
			}, "action_id"),
		},
		{
			Name:        "reorder_quick_actions",
			Description: "Replace the quick action order",
			InputSchema: objectSchema(map[string]any{
				"action_ids": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Quick action ids in display order"},
			}, "action_ids"),
		},

		// Onboarding
		{
			Name:        "get_onboarding_state",
			Description: "List seen tips, completed tours, and saved help topics",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "mark_tip_seen",
			Description: "Dismiss an onboarding tip so it is not shown again",
			InputSchema: objectSchema(map[string]any{
				"tip_id": stringProp("Tip id"),
			}, "tip_id"),
		},
		{
			Name:        "complete_tour",
			Description: "Mark a feature tour as completed or skipped",
			InputSchema: objectSchema(map[string]any{
				"tour_id": stringProp("Tour id"),
			}, "tour_id"),
		},
		{
			Name:        "toggle_saved_help_topic",
			Description: "Save a help topic, or unsave it if already saved",
			InputSchema: objectSchema(map[string]any{
				"topic_id": stringProp("Help topic id"),
			}, "topic_id"),
		},

		// Action history
		{
			Name:        "record_action",
			Description: "Record a client-side action in the history. Client actions cannot be undone by the server",
			InputSchema: objectSchema(map[string]any{
				"type":        stringProp("Action type"),
				"description": stringProp("Human-readable description"),
				"data":        map[string]any{"description": "Opaque payload (JSON)"},
				"undoable":    map[string]any{"type": "boolean", "description": "Whether the client considers the action reversible"},
			}, "type", "description"),
		},
		{
			Name:        "undo_action",
			Description: "Undo an action by id. Returns undone=false if the action is missing, not undoable, or already undone",
			InputSchema: objectSchema(map[string]any{
				"action_id": stringProp("Action id"),
			}, "action_id"),
		},
		{
			Name:        "can_undo",
			Description: "Check whether an action can currently be undone",
			InputSchema: objectSchema(map[string]any{
				"action_id": stringProp("Action id"),
			}, "action_id"),
		},
		{
			Name:        "get_action",
			Description: "Get one action from the history",
			InputSchema: objectSchema(map[string]any{
				"action_id": stringProp("Action id"),
			}, "action_id"),
		},
		{
			Name:        "list_actions",
			Description: "List the action history, oldest first",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "clear_history",
			Description: "Discard the action history. Cleared actions can no longer be undone",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "get_action_log",
			Description: "Get the persisted audit log of recorded, undone, and cleared actions, newest first",
			InputSchema: objectSchema(map[string]any{
				"action_id": stringProp("Filter by action id"),
				"event": map[string]any{
					"type":        "string",
					"description": "Filter by event",
					"enum":        []string{"recorded", "undone", "undo_failed", "cleared"},
				},
				"limit":  map[string]any{"type": "integer", "description": "Maximum number of entries"},
				"offset": map[string]any{"type": "integer", "description": "Offset for pagination"},
			}),
		},
	}
}

// registerTools exposes every catalog entry as an SDK tool backed by handler.
func registerTools(server *sdkmcp.Server, handler *Handler) {
	for _, def := range buildToolCatalog() {
		name := def.Name
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := handler.Handle(ctx, getTenantID(ctx), getSessionID(ctx), name, args)
			if err != nil {
				return toolError(err), nil
			}
			return toolResult(result)
		})
	}
}

func toolResult(result any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}

func toolError(err error) *sdkmcp.CallToolResult {
	payload := any(map[string]string{"code": "INTERNAL", "message": err.Error()})
	if apiErr, ok := err.(*APIError); ok {
		payload = apiErr
	}
	data, _ := json.Marshal(payload)
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}
