package mcp

import (
	"context"
	"errors"
	"net/http"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type staticResolver map[string]string

func (r staticResolver) ResolveTenant(_ context.Context, token string) (string, error) {
	if tenant, ok := r[token]; ok {
		return tenant, nil
	}
	return "", errors.New("not found")
}

func toolRequest(header http.Header) *sdkmcp.CallToolRequest {
	return &sdkmcp.CallToolRequest{
		Params: &sdkmcp.CallToolParamsRaw{Name: "list_recent_items"},
		Extra:  &sdkmcp.RequestExtra{Header: header},
	}
}

// captureContext records the tenant and session seen by the next handler.
func captureContext(tenant, session *string) sdkmcp.MethodHandler {
	return func(ctx context.Context, _ string, _ sdkmcp.Request) (sdkmcp.Result, error) {
		*tenant = getTenantID(ctx)
		*session = getSessionID(ctx)
		return &sdkmcp.CallToolResult{}, nil
	}
}

func TestAuthMiddleware(t *testing.T) {
	resolver := staticResolver{"good-token": "tenant1"}
	var tenant, session string
	handler := authMiddleware(resolver, nil)(captureContext(&tenant, &session))
	ctx := context.Background()

	_, err := handler(ctx, "tools/call", toolRequest(http.Header{"Authorization": {"Bearer good-token"}}))
	require.NoError(t, err)
	require.Equal(t, "tenant1", tenant)

	_, err = handler(ctx, "tools/call", toolRequest(http.Header{}))
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = handler(ctx, "tools/call", toolRequest(http.Header{"Authorization": {"Bearer bad-token"}}))
	require.ErrorIs(t, err, ErrUnauthorized)

	tenant = "unset"
	_, err = handler(ctx, "notifications/initialized", toolRequest(nil))
	require.NoError(t, err)
	require.Empty(t, tenant)
}

func TestFixedTenantMiddleware(t *testing.T) {
	var tenant, session string
	handler := fixedTenantMiddleware(DefaultTenant)(captureContext(&tenant, &session))

	_, err := handler(context.Background(), "tools/call", toolRequest(nil))
	require.NoError(t, err)
	require.Equal(t, DefaultTenant, tenant)
}

func TestSessionMiddleware(t *testing.T) {
	var tenant, session string
	handler := sessionMiddleware()(captureContext(&tenant, &session))
	ctx := context.Background()

	_, err := handler(ctx, "tools/call", toolRequest(http.Header{"Mcp-Session-Id": {"header-session"}}))
	require.NoError(t, err)
	require.Equal(t, "header-session", session)

	req := toolRequest(nil)
	req.Params.Meta = sdkmcp.Meta{"session_id": "meta-session"}
	_, err = handler(ctx, "tools/call", req)
	require.NoError(t, err)
	require.Equal(t, "meta-session", session)

	_, err = handler(ctx, "tools/call", toolRequest(nil))
	require.NoError(t, err)
	require.Empty(t, session)
}
