// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Undo attempt results.
const (
	UndoSucceeded   = "succeeded"
	UndoFailed      = "failed"
	UndoRejected    = "rejected"
	UndoUnavailable = "unavailable"
)

var (
	ActionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthspectrum_actions_recorded_total",
		Help: "Actions appended to an action history, by action type",
	}, []string{"type"})

	UndoAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthspectrum_undo_attempts_total",
		Help: "Undo attempts by result",
	}, []string{"result"})

	RecentEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "healthspectrum_recent_evictions_total",
		Help: "Recently viewed items evicted by the capacity limit",
	})

	CorruptValues = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthspectrum_storage_corrupt_values_total",
		Help: "Stored values that failed to decode and were cleared, by key",
	}, []string{"key"})

	MCPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "healthspectrum_mcp_request_duration_seconds",
		Help:    "MCP requests handled by the SDK server, by method and outcome",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "outcome"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "healthspectrum_rate_limited_requests_total",
		Help: "Requests rejected by the rate limiter",
	})
)
