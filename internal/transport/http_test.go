package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type testHandler struct {
	method string
	err    error
}

func (h *testHandler) Handle(_ context.Context, tenantID, sessionID, method string, params json.RawMessage) (any, error) {
	h.method = method
	if h.err != nil {
		return nil, h.err
	}
	return map[string]string{"tenant": tenantID, "session": sessionID}, nil
}

type staticResolver struct {
	tenant string
}

func (r *staticResolver) ResolveTenant(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	return r.tenant, nil
}

type codedError struct{ code string }

func (e codedError) Error() string             { return e.code }
func (e codedError) CodeValue() string         { return e.code }
func (e codedError) MessageValue() string      { return "bad input" }
func (e codedError) DetailsValue() any         { return nil }
func (e codedError) RecoveryHintValue() string { return "fix it" }

func postRPC(t *testing.T, url, body string, headers map[string]string) (*http.Response, Response) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/rpc", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var rpcResp Response
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.Unmarshal(data, &rpcResp))
	}
	return resp, rpcResp
}

func TestHTTPServer_RPC(t *testing.T) {
	handler := &testHandler{}
	resolver := &staticResolver{tenant: "tenant1"}
	server := httptest.NewServer(NewServer(handler, AuthMiddleware(resolver)))
	t.Cleanup(server.Close)

	resp, rpcResp := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"list_recent_items","id":1}`, map[string]string{
		"Authorization":  "Bearer token",
		"Mcp-Session-Id": "sess1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "list_recent_items", handler.method)
	require.Nil(t, rpcResp.Error)
	require.Equal(t, map[string]any{"tenant": "tenant1", "session": "sess1"}, rpcResp.Result)
}

func TestHTTPServer_RPCRequiresAuth(t *testing.T) {
	handler := &testHandler{}
	server := httptest.NewServer(NewServer(handler, AuthMiddleware(&staticResolver{tenant: "tenant1"})))
	t.Cleanup(server.Close)

	resp, _ := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"list_recent_items","id":1}`, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Empty(t, handler.method)
}

func TestHTTPServer_DefaultTenantWithoutAuth(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, nil))
	t.Cleanup(server.Close)

	resp, rpcResp := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"get_preferences","id":"a"}`, nil)
	result := rpcResp.Result.(map[string]any)
	require.Equal(t, DefaultTenant, result["tenant"])
	require.NotEmpty(t, result["session"], "a session is assigned")
	require.Equal(t, result["session"], resp.Header.Get(SessionHeader))
	require.Equal(t, "a", rpcResp.ID)
}

func TestHTTPServer_RPCErrors(t *testing.T) {
	handler := &testHandler{err: codedError{code: "INVALID_INPUT"}}
	server := httptest.NewServer(NewServer(handler, nil))
	t.Cleanup(server.Close)

	_, rpcResp := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"add_recent_item","id":1}`, nil)
	require.NotNil(t, rpcResp.Error)
	require.Equal(t, ErrInvalidParams, rpcResp.Error.Code)
	require.Equal(t, "INVALID_INPUT", rpcResp.Error.Data.(map[string]any)["code"])

	handler.err = codedError{code: "UNKNOWN_METHOD"}
	_, rpcResp = postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"nope","id":2}`, nil)
	require.Equal(t, ErrMethodNotFound, rpcResp.Error.Code)

	handler.err = errors.New("database is locked")
	_, rpcResp = postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"get_preferences","id":3}`, nil)
	require.Equal(t, ErrInternal, rpcResp.Error.Code)

	_, rpcResp = postRPC(t, server.URL, `not json`, nil)
	require.Equal(t, ErrParseCode, rpcResp.Error.Code)
}

func TestHTTPServer_RateLimit(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, nil, WithRateLimiter(NewRateLimiter(0.001, 2))))
	t.Cleanup(server.Close)

	body := `{"jsonrpc":"2.0","method":"list_actions","id":1}`
	for i := 0; i < 2; i++ {
		resp, _ := postRPC(t, server.URL, body, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := postRPC(t, server.URL, body, nil)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "1", resp.Header.Get("Retry-After"))
}

func TestHTTPServer_HealthAndMetrics(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, AuthMiddleware(&staticResolver{tenant: "t"})))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(data), "go_goroutines")
}

func TestHTTPServer_StreamableMount(t *testing.T) {
	mounted := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	server := httptest.NewServer(NewServer(&testHandler{}, nil, WithStreamableMCP(mounted)))
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/mcp", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestHTTPServer_Batch(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, nil))
	t.Cleanup(server.Close)

	body := `[
		{"jsonrpc":"2.0","method":"add_recent_item","id":1},
		{"jsonrpc":"2.0","method":"list_recent_items"},
		{"jsonrpc":"2.0","method":"list_actions","id":2}
	]`
	resp, err := http.Post(server.URL+"/rpc", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var responses []Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&responses))
	require.Len(t, responses, 2, "notifications get no entry")
	require.Equal(t, float64(1), responses[0].ID)
	require.Equal(t, float64(2), responses[1].ID)

	resp, err = http.Post(server.URL+"/rpc", "application/json",
		bytes.NewBufferString(`[{"jsonrpc":"2.0","method":"list_recent_items"}]`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}
