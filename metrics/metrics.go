// Package metrics holds the Prometheus collectors of the delivery engine.
// A nil *Metrics is valid and records nothing, which keeps tests free of
// registry plumbing.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	CacheLookups        *prometheus.CounterVec // result: hit, miss, wait
	CacheFetches        *prometheus.CounterVec // result: ok, failed, adopted
	CacheEvictions      prometheus.Counter
	CacheBytes          prometheus.Gauge
	PlaysRecorded       *prometheus.CounterVec // result: counted, deduplicated, error
	EntitlementDegraded prometheus.Counter
	Entitlements        *prometheus.CounterVec // decision: full, preview
	Responses           *prometheus.CounterVec // code
	StreamedBytes       prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatedfm_cache_lookups_total",
			Help: "Object cache lookups by result",
		}, []string{"result"}),
		CacheFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatedfm_cache_fetches_total",
			Help: "Remote object fetches by result",
		}, []string{"result"}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatedfm_cache_evictions_total",
			Help: "Cache entries evicted to stay under the byte cap",
		}),
		CacheBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gatedfm_cache_bytes",
			Help: "Bytes currently held by ready cache entries",
		}),
		PlaysRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatedfm_plays_total",
			Help: "Play signals by outcome",
		}, []string{"result"}),
		EntitlementDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatedfm_entitlement_degraded_total",
			Help: "Entitlement lookups that failed and fell back to preview",
		}),
		Entitlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatedfm_entitlement_decisions_total",
			Help: "Entitlement decisions by outcome",
		}, []string{"decision"}),
		Responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatedfm_stream_responses_total",
			Help: "Stream responses by HTTP status",
		}, []string{"code"}),
		StreamedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatedfm_streamed_bytes_total",
			Help: "Body bytes written to clients",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.CacheLookups, m.CacheFetches, m.CacheEvictions, m.CacheBytes,
			m.PlaysRecorded, m.EntitlementDegraded, m.Entitlements, m.Responses, m.StreamedBytes)
	}
	return m
}

func (m *Metrics) CacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) CacheFetch(result string) {
	if m != nil {
		m.CacheFetches.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) CacheEvicted() {
	if m != nil {
		m.CacheEvictions.Inc()
	}
}

func (m *Metrics) SetCacheBytes(n int64) {
	if m != nil {
		m.CacheBytes.Set(float64(n))
	}
}

func (m *Metrics) Play(result string) {
	if m != nil {
		m.PlaysRecorded.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Degraded() {
	if m != nil {
		m.EntitlementDegraded.Inc()
	}
}

func (m *Metrics) Decision(decision string) {
	if m != nil {
		m.Entitlements.WithLabelValues(decision).Inc()
	}
}

func (m *Metrics) Response(code int, bytes int64) {
	if m != nil {
		m.Responses.WithLabelValues(strconv.Itoa(code)).Inc()
		if bytes > 0 {
			m.StreamedBytes.Add(float64(bytes))
		}
	}
}
