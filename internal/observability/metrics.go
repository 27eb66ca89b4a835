// Package observability exposes Prometheus metrics for the caches and upstream APIs.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "websiteroast"

// Metrics records cache and upstream activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	cacheLookups     *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	shareOperations  *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Process-local cache lookups by cache and result (hit, miss).",
		}, []string{"cache", "result"}),
		upstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Calls to vendor APIs by provider and HTTP status (\"error\" when no response).",
		}, []string{"provider", "status"}),
		upstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of vendor API calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"provider"}),
		shareOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "share_operations_total",
			Help:      "Share store operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}
}

// CacheLookup implements cache.Observer.
func (m *Metrics) CacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

// UpstreamRequest implements llmclient.Observer.
func (m *Metrics) UpstreamRequest(provider, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(provider, status).Inc()
	m.upstreamDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ShareOperation counts a share create/get outcome ("ok", "not_found", "error").
func (m *Metrics) ShareOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.shareOperations.WithLabelValues(operation, outcome).Inc()
}
