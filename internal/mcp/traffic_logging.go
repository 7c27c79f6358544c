package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/healthspectrum/internal/metrics"
)

// trafficMiddleware times every MCP request. Inbound requests are counted in
// metrics; both directions are logged at debug level with their payloads.
func trafficMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			start := time.Now()
			result, err := next(ctx, method, req)
			elapsed := time.Since(start)

			if direction == "inbound" {
				metrics.MCPRequests.WithLabelValues(method, outcome(result, err)).Observe(elapsed.Seconds())
			}
			if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) || strings.HasPrefix(method, "notifications/") {
				return result, err
			}

			attrs := []any{
				"direction", direction,
				"method", method,
				"session_id", safeSessionID(req),
				"tenant_id", getTenantID(ctx),
				"duration", elapsed,
				"params", formatPayload(safeParams(req)),
				"result", formatPayload(result),
			}
			if err != nil {
				attrs = append(attrs, "error", err)
			}
			logger.Debug("mcp traffic", attrs...)
			return result, err
		}
	}
}

func outcome(result sdkmcp.Result, err error) string {
	if err != nil {
		return "error"
	}
	if r, ok := result.(*sdkmcp.CallToolResult); ok && r.IsError {
		return "tool_error"
	}
	return "ok"
}

// safeSessionID and safeParams guard against SDK requests carrying nil
// sessions or params.
func safeSessionID(req sdkmcp.Request) (id string) {
	if req == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	if session := req.GetSession(); session != nil {
		return session.ID()
	}
	return ""
}

func safeParams(req sdkmcp.Request) (params any) {
	if req == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			params = nil
		}
	}()
	return req.GetParams()
}

func formatPayload(payload any) string {
	if payload == nil {
		return "<nil>"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%T", payload)
	}
	return string(data)
}
