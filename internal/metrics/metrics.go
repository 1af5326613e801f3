// Package metrics holds the Prometheus instrumentation for the tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors the gateway and services record into.
// A nil *Metrics is safe: recording methods become no-ops, which keeps
// test wiring small.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	CacheEvents      *prometheus.CounterVec
	RefreshCycles    *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_upstream_requests_total",
			Help: "Outbound requests to the data providers by operation and status.",
		}, []string{"service", "op", "status"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tracker_upstream_request_duration_seconds",
			Help:    "Latency of outbound provider requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "op"}),
		CacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_cache_events_total",
			Help: "Gateway cache lookups by cache tier and result.",
		}, []string{"cache", "result"}),
		RefreshCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_refresh_cycles_total",
			Help: "Portfolio refresh cycles by outcome.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.UpstreamRequests, m.UpstreamDuration, m.CacheEvents, m.RefreshCycles)
	return m
}

// RecordUpstream records one outbound request.
func (m *Metrics) RecordUpstream(service, op, status string, seconds float64) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(service, op, status).Inc()
	m.UpstreamDuration.WithLabelValues(service, op).Observe(seconds)
}

// RecordCache records one cache lookup result ("hit" or "miss").
func (m *Metrics) RecordCache(cache, result string) {
	if m == nil {
		return
	}
	m.CacheEvents.WithLabelValues(cache, result).Inc()
}

// RecordRefresh records one refresh cycle outcome.
func (m *Metrics) RecordRefresh(status string) {
	if m == nil {
		return
	}
	m.RefreshCycles.WithLabelValues(status).Inc()
}
