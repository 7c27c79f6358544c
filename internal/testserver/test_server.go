package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/healthspectrum/internal/domain/history"
	"github.com/rpggio/healthspectrum/internal/domain/onboarding"
	"github.com/rpggio/healthspectrum/internal/domain/preferences"
	"github.com/rpggio/healthspectrum/internal/domain/recent"
	"github.com/rpggio/healthspectrum/internal/domain/storage"
	"github.com/rpggio/healthspectrum/internal/mcp"
	"github.com/rpggio/healthspectrum/internal/sqlite"
	"github.com/rpggio/healthspectrum/internal/transport"
	"github.com/stretchr/testify/require"
)

// TestServer is the full HTTP stack over an in-memory SQLite database.
type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Services mcp.Services
	Token    string
	TenantID string
}

// Option adjusts the server built by New.
type Option func(*options)

type options struct {
	rps   float64
	burst int
}

// WithRateLimit enables per-tenant rate limiting on /rpc.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		o.rps = rps
		o.burst = burst
	}
}

// New starts a server that authenticates token as tenantID on both /rpc and
// the streamable /mcp endpoint.
func New(t *testing.T, token, tenantID string, opts ...Option) *TestServer {
	t.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	store := storage.NewService(sqlite.NewStorageRepository(db), nil)
	services := mcp.Services{
		Recent:      recent.NewService(store, nil),
		Preferences: preferences.NewService(store, nil),
		Onboarding:  onboarding.NewService(store, nil),
		History:     history.NewService(sqlite.NewActionLogRepository(db), nil),
	}
	apiKeys := sqlite.NewAPIKeyRepository(db)

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      services,
		Resolver:      apiKeys,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	streamable := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		nil,
	)

	router := transport.NewServer(
		mcp.NewHandler(services, nil),
		transport.AuthMiddleware(apiKeys),
		transport.WithRateLimiter(transport.NewRateLimiter(o.rps, o.burst)),
		transport.WithStreamableMCP(streamable),
	)
	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       db,
		Services: services,
		Token:    token,
		TenantID: tenantID,
	}

	require.NoError(t, ts.AddAPIKey(token, tenantID))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddAPIKey registers another bearer token.
func (ts *TestServer) AddAPIKey(token, tenantID string) error {
	return sqlite.NewAPIKeyRepository(ts.DB).Create(context.Background(), tenantID, token, "test")
}
