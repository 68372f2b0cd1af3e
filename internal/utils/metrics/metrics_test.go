package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func createTestMetrics() *Metrics {
	return NewWithRegistry("test", prometheus.NewRegistry())
}

func TestRecordHTTPRequest(t *testing.T) {
	m := createTestMetrics()

	m.RecordHTTPRequest("POST", "/api/v1/transactions/:id/handover", 200, 15*time.Millisecond)
	m.RecordHTTPRequest("POST", "/api/v1/transactions/:id/handover", 201, 5*time.Millisecond)
	m.RecordHTTPRequest("POST", "/api/v1/transactions/:id/handover", 409, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/transactions/:id/handover", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/transactions/:id/handover", "4xx")))
}

func TestLifecycleCounters(t *testing.T) {
	m := createTestMetrics()

	m.RecordTransition("transaction.completed")
	m.RecordConflict("confirm_handover")
	m.RecordConflict("confirm_handover")
	m.RecordRetriesExhausted("complete")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("transaction.completed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConflictsTotal.WithLabelValues("confirm_handover")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RetriesExhaustedTotal.WithLabelValues("complete")))
}

func TestRecordCacheResult(t *testing.T) {
	m := createTestMetrics()

	m.RecordCacheResult("transaction", true)
	m.RecordCacheResult("transaction", false)
	m.RecordCacheResult("transaction", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("transaction")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues("transaction")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
		m.RecordTransition("x")
		m.RecordConflict("x")
		m.RecordRetriesExhausted("x")
		m.RecordCacheResult("x", true)
	})
}

func TestRegistriesAreIndependent(t *testing.T) {
	assert.NotPanics(t, func() {
		createTestMetrics()
		createTestMetrics()
	})
}

func TestStatusCodeToString(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{200, "2xx"},
		{302, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
		{100, "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, statusCodeToString(tt.code))
	}
}
