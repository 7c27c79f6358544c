package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MCPHandler handles MCP method dispatch.
type MCPHandler interface {
	Handle(ctx context.Context, tenantID, sessionID, method string, params json.RawMessage) (any, error)
}

// apiError is implemented by errors that carry a stable API code.
type apiError interface {
	CodeValue() string
	MessageValue() string
	DetailsValue() any
	RecoveryHintValue() string
}

const maxRequestBytes = 1 << 20

// Server wires HTTP handlers.
type Server struct {
	handler MCPHandler
}

type serverOptions struct {
	limiter   *RateLimiter
	streaming http.Handler
	logger    *slog.Logger
}

// Option configures the HTTP router.
type Option func(*serverOptions)

// WithRateLimiter limits /rpc requests per tenant.
func WithRateLimiter(limiter *RateLimiter) Option {
	return func(o *serverOptions) { o.limiter = limiter }
}

// WithStreamableMCP mounts an MCP streamable HTTP handler at /mcp.
func WithStreamableMCP(h http.Handler) Option {
	return func(o *serverOptions) { o.streaming = h }
}

// WithLogger enables request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serverOptions) { o.logger = logger }
}

// NewServer creates an HTTP server router with middleware. When
// authMiddleware is nil every request runs as the default tenant.
func NewServer(handler MCPHandler, authMiddleware func(http.Handler) http.Handler, opts ...Option) *chi.Mux {
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}
	if authMiddleware == nil {
		authMiddleware = DefaultTenantMiddleware(DefaultTenant)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if o.logger != nil {
		r.Use(requestLogger(o.logger))
	}

	srv := &Server{handler: handler}

	r.Get("/health", srv.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(SessionMiddleware)
		r.Use(o.limiter.Middleware)
		r.Post("/rpc", srv.handleRPC)
	})

	if o.streaming != nil {
		r.Handle("/mcp", o.streaming)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	reqs, batch, err := ParseBatch(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		WriteError(w, nil, ErrorCode(err), err.Error(), nil)
		return
	}

	tenantID, ok := TenantFromContext(r.Context())
	if !ok || tenantID == "" {
		http.Error(w, "missing tenant", http.StatusUnauthorized)
		return
	}
	sessionID, _ := SessionIDFromContext(r.Context())

	if !batch {
		writeJSON(w, http.StatusOK, s.call(r.Context(), tenantID, sessionID, reqs[0]))
		return
	}

	// Batch calls run in order; notifications get no response entry.
	responses := make([]Response, 0, len(reqs))
	for _, req := range reqs {
		resp := s.call(r.Context(), tenantID, sessionID, req)
		if req.ID != nil {
			responses = append(responses, resp)
		}
	}
	if len(responses) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) call(ctx context.Context, tenantID, sessionID string, req Request) Response {
	result, err := s.handler.Handle(ctx, tenantID, sessionID, req.Method, req.Params)
	if err == nil {
		return Result(req.ID, result)
	}
	var apiErr apiError
	if errors.As(err, &apiErr) {
		return Failure(req.ID, rpcCode(apiErr.CodeValue()), apiErr.MessageValue(), map[string]any{
			"code":          apiErr.CodeValue(),
			"details":       apiErr.DetailsValue(),
			"recovery_hint": apiErr.RecoveryHintValue(),
		})
	}
	return Failure(req.ID, ErrInternal, err.Error(), nil)
}

func rpcCode(apiCode string) int {
	if apiCode == "UNKNOWN_METHOD" {
		return ErrMethodNotFound
	}
	return ErrInvalidParams
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
