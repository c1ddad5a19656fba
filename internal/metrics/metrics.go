// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests by route, method and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finance",
		Name:      "http_requests_total",
		Help:      "HTTP requests handled, by route, method and status code.",
	}, []string{"route", "method", "status"})

	// HTTPDuration observes request latency by route and method.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "finance",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	// LedgerOperations counts Record/Amend/Retract calls by outcome.
	LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finance",
		Name:      "ledger_operations_total",
		Help:      "Ledger write operations, by operation and outcome.",
	}, []string{"operation", "outcome"})

	// CacheLookups counts summary cache lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finance",
		Name:      "cache_lookups_total",
		Help:      "Read-through cache lookups, by result.",
	}, []string{"result"})
)

// Outcome labels
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)
