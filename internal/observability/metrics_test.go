package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.CacheLookup("analysis", true)
	m.CacheLookup("analysis", false)
	m.CacheLookup("analysis", false)
	m.UpstreamRequest("Anthropic", "200", 3*time.Second)
	m.UpstreamRequest("ElevenLabs", "error", time.Second)
	m.ShareOperation("create", "ok")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("analysis", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("analysis", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamRequests.WithLabelValues("Anthropic", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamRequests.WithLabelValues("ElevenLabs", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.shareOperations.WithLabelValues("create", "ok")))

	count, err := testutil.GatherAndCount(reg, "websiteroast_upstream_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CacheLookup("audio", true)
		m.UpstreamRequest("Anthropic", "500", time.Second)
		m.ShareOperation("get", "error")
	})
}
