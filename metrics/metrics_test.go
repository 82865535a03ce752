package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.CacheLookup("hit")
	m.CacheFetch("ok")
	m.CacheEvicted()
	m.SetCacheBytes(10)
	m.Play("counted")
	m.Degraded()
	m.Decision("full")
	m.Response(200, 10)
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Play("counted")
	m.Play("counted")
	m.Play("deduplicated")
	m.Response(206, 100)
	m.Degraded()

	if got := testutil.ToFloat64(m.PlaysRecorded.WithLabelValues("counted")); got != 2 {
		t.Errorf("counted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Responses.WithLabelValues("206")); got != 1 {
		t.Errorf("206 responses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StreamedBytes); got != 100 {
		t.Errorf("streamed bytes = %v, want 100", got)
	}
	if got := testutil.ToFloat64(m.EntitlementDegraded); got != 1 {
		t.Errorf("degraded = %v, want 1", got)
	}
}
