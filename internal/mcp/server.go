package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/healthspectrum/internal/domain/history"
	"github.com/rpggio/healthspectrum/internal/domain/onboarding"
	"github.com/rpggio/healthspectrum/internal/domain/preferences"
	"github.com/rpggio/healthspectrum/internal/domain/recent"
)

// RecentService defines recently viewed operations needed by MCP.
type RecentService interface {
	Add(ctx context.Context, tenantID string, req recent.AddRequest) (recent.Item, error)
	Items(ctx context.Context, tenantID string) ([]recent.Item, error)
	Sorted(ctx context.Context, tenantID string) ([]recent.Item, error)
	Remove(ctx context.Context, tenantID, id string, itemType recent.ItemType) ([]recent.Item, error)
	TogglePin(ctx context.Context, tenantID, id string, itemType recent.ItemType) ([]recent.Item, error)
	Clear(ctx context.Context, tenantID string) ([]recent.Item, error)
	Restore(ctx context.Context, tenantID string, items []recent.Item) error
}

// PreferenceService defines preference operations needed by MCP.
type PreferenceService interface {
	Get(ctx context.Context, tenantID string) (preferences.Preferences, error)
	Update(ctx context.Context, tenantID, key string, value json.RawMessage) (preferences.Preferences, error)
	Replace(ctx context.Context, tenantID string, prefs preferences.Preferences) error
	Reset(ctx context.Context, tenantID string) error
	UpdateLayout(ctx context.Context, tenantID string, layout []string) (preferences.Preferences, error)
	AddQuickAction(ctx context.Context, tenantID, actionID string) (preferences.Preferences, error)
	RemoveQuickAction(ctx context.Context, tenantID, actionID string) (preferences.Preferences, error)
	ReorderQuickActions(ctx context.Context, tenantID string, actionIDs []string) (preferences.Preferences, error)
}

// OnboardingService defines onboarding operations needed by MCP.
type OnboardingService interface {
	MarkTipSeen(ctx context.Context, tenantID, tipID string) (bool, error)
	UnmarkTipSeen(ctx context.Context, tenantID, tipID string) error
	CompleteTour(ctx context.Context, tenantID, tourID string) (bool, error)
	UncompleteTour(ctx context.Context, tenantID, tourID string) error
	ToggleSavedTopic(ctx context.Context, tenantID, topicID string) (bool, error)
	SavedTopics(ctx context.Context, tenantID string) ([]string, error)
	State(ctx context.Context, tenantID string) (onboarding.State, error)
}

// HistoryService defines action history operations needed by MCP.
type HistoryService interface {
	Record(ctx context.Context, tenantID string, req history.AddRequest) (string, error)
	Undo(ctx context.Context, tenantID, id string) bool
	CanUndo(tenantID, id string) bool
	Get(tenantID, id string) (history.Action, error)
	List(tenantID string) []history.Action
	Clear(ctx context.Context, tenantID string)
	ListLog(ctx context.Context, tenantID string, opts history.ListLogOptions) ([]history.LogEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Recent      RecentService
	Preferences PreferenceService
	Onboarding  OnboardingService
	History     HistoryService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      TenantResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "healthspectrum",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio mode: always disable auth (local dev only)
	tenantMiddleware := fixedTenantMiddleware(DefaultTenant)
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		tenantMiddleware = authMiddleware(cfg.Resolver, cfg.Logger)
	}
	// The first middleware runs first, so traffic logs see the tenant.
	server.AddReceivingMiddleware(
		tenantMiddleware,
		sessionMiddleware(),
		trafficMiddleware(cfg.Logger, "inbound"),
	)
	server.AddSendingMiddleware(trafficMiddleware(cfg.Logger, "outbound"))

	registerTools(server, NewHandler(cfg.Services, cfg.Logger))

	return server
}
