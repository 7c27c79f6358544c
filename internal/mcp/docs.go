package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `healthspectrum keeps a patient portal's client-side state: recently viewed items, preferences, onboarding progress, and an undoable action history.

Core concepts:
- Tenant: one browser profile. Everything below is scoped to the authenticated tenant.
- Recently viewed: at most 20 items keyed by (id, type). Pinned items list first, then newest first.
- Action: an entry in the history. Mutating tools return an action_id; undo_action(action_id) reverses the change once.
- Undo is at most once. A failed undo leaves the action undoable; a successful one is final. There is no redo.

Default workflow:
1) Read: list_recent_items, get_preferences, get_onboarding_state.
2) Change: add_recent_item, remove_recent_item, toggle_pin_recent_item, update_preference, update_layout, quick action tools, mark_tip_seen, complete_tour, toggle_saved_help_topic.
3) Offer undo: keep the returned action_id; check can_undo before showing an undo control; call undo_action when asked.
4) Audit: list_actions for the live history, get_action_log for the persisted event log.

Transport notes:
- HTTP: pass session id via Mcp-Session-Id header.
- Stdio: pass session id via _meta.session_id when supported.

Docs:
- healthspectrum://docs/index
- healthspectrum://docs/undo
- healthspectrum://docs/recently-viewed
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "healthspectrum://docs/index",
		Name:        "docs_index",
		Title:       "healthspectrum docs index",
		Description: "Entry point: what each document covers.",
		Content: `# healthspectrum: Docs Index

- healthspectrum://docs/undo: how actions are recorded and undone.
- healthspectrum://docs/recently-viewed: ordering, capacity, and pinning rules.

Stored documents that fail to parse are discarded and treated as empty, so a read never fails because of bad stored data.
`,
	},
	{
		URI:         "healthspectrum://docs/undo",
		Name:        "docs_undo",
		Title:       "Action history and undo",
		Description: "Action lifecycle, undo guarantees, and the audit log.",
		Content: `# Action history and undo

Every mutating tool returns ` + "`action_id`" + `. The action stores a compensating step captured at the time of the change:

| Tool | Undo restores |
|---|---|
| add_recent_item | the list without the item (or its previous entry) |
| remove_recent_item, clear_recent_items | the removed items |
| toggle_pin_recent_item | the previous pin state |
| preference tools | the previous preference document |
| mark_tip_seen, complete_tour | the unseen / incomplete flag |
| toggle_saved_help_topic | the previous saved state |

## Lifecycle

active -> pending -> undone. While an undo runs the action is pending; concurrent undo calls return false. If the compensating step fails the action returns to active and may be retried.

## Client actions

record_action stores an action described by the client. The server has no compensating step for it, so can_undo is always false.

## History size

The newest 200 actions are kept per tenant by default. clear_history drops them all; the audit log (get_action_log) keeps a "cleared" event.
`,
	},
	{
		URI:         "healthspectrum://docs/recently-viewed",
		Name:        "docs_recently_viewed",
		Title:       "Recently viewed items",
		Description: "Capacity, keys, ordering, and pinning.",
		Content: `# Recently viewed items

- Key: (id, type). Adding an existing key moves it to the front with a new timestamp and keeps its pin.
- Capacity: 20. The oldest items fall off.
- Types: appointment, medication, record, doctor, other.
- Display order: pinned first, then newest first. Ties keep stored order.
- remove_recent_item and toggle_pin_recent_item match by id alone when type is omitted.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
