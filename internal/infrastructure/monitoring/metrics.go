package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Navigation outcomes
const (
	OutcomeLoaded    = "loaded"
	OutcomeCached    = "cached"
	OutcomeEmpty     = "empty"
	OutcomeFragment  = "fragment"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
	OutcomeVetoed    = "vetoed"
)

// Metrics holds all Prometheus metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Navigation metrics
	Navigations   *prometheus.CounterVec
	LoadDuration  *prometheus.HistogramVec
	LoadsInFlight prometheus.Gauge
	ChildrenPrune prometheus.Counter

	// Cache metrics
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	CacheEntries prometheus.Gauge
	CacheClears  prometheus.Counter

	// HTTP API metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds running totals for the JSON API
type Snapshot struct {
	Navigations int64 `json:"navigations"`
	Failures    int64 `json:"failures"`
	Cancelled   int64 `json:"cancelled"`
	CacheHits   int64 `json:"cache_hits"`
	Requests    int64 `json:"requests"`
}

// NewMetrics creates a metrics collector registered with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Navigations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "framenav_navigations_total",
				Help: "Total number of navigations by intent and outcome",
			},
			[]string{"intent", "outcome"},
		),
		LoadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "framenav_load_duration_seconds",
				Help:    "Content loader duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"scheme", "outcome"},
		),
		LoadsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "framenav_loads_in_flight",
				Help: "Number of content loads not yet completed or cancelled",
			},
		),
		ChildrenPrune: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "framenav_child_frames_pruned_total",
				Help: "Total number of child frame registrations pruned",
			},
		),
		CacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "framenav_cache_hits_total",
				Help: "Total number of content cache hits",
			},
		),
		CacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "framenav_cache_misses_total",
				Help: "Total number of content cache misses",
			},
		),
		CacheEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "framenav_cache_entries",
				Help: "Number of cached content entries across all frames",
			},
		),
		CacheClears: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "framenav_cache_clears_total",
				Help: "Total number of content cache clears",
			},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "framenav_http_requests_total",
				Help: "Total number of HTTP API requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "framenav_http_request_duration_seconds",
				Help:    "HTTP API request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "framenav_ws_connections",
				Help: "Number of active event stream connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "framenav_ws_messages_total",
				Help: "Total number of event stream messages",
			},
			[]string{"type"},
		),
	}
}

// RecordNavigation records a finished (or abandoned) navigation
func (m *Metrics) RecordNavigation(intent, outcome string) {
	if m == nil {
		return
	}
	m.Navigations.WithLabelValues(intent, outcome).Inc()

	m.mu.Lock()
	m.snapshot.Navigations++
	switch outcome {
	case OutcomeFailed:
		m.snapshot.Failures++
	case OutcomeCancelled:
		m.snapshot.Cancelled++
	}
	m.mu.Unlock()
}

// LoadStarted marks a content load as in flight
func (m *Metrics) LoadStarted() {
	if m == nil {
		return
	}
	m.LoadsInFlight.Inc()
}

// LoadFinished records the duration of a content load
func (m *Metrics) LoadFinished(scheme, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.LoadsInFlight.Dec()
	m.LoadDuration.WithLabelValues(scheme, outcome).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit or miss
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if !hit {
		m.CacheMisses.Inc()
		return
	}
	m.CacheHits.Inc()
	m.mu.Lock()
	m.snapshot.CacheHits++
	m.mu.Unlock()
}

// AddCacheEntries adjusts the cache entry gauge by delta
func (m *Metrics) AddCacheEntries(delta int) {
	if m == nil {
		return
	}
	m.CacheEntries.Add(float64(delta))
}

// RecordCacheClear records a cache clear that dropped n entries
func (m *Metrics) RecordCacheClear(n int) {
	if m == nil {
		return
	}
	m.CacheClears.Inc()
	m.CacheEntries.Sub(float64(n))
}

// RecordChildPruned records a pruned child frame registration
func (m *Metrics) RecordChildPruned() {
	if m == nil {
		return
	}
	m.ChildrenPrune.Inc()
}

// RecordHTTPRequest records an HTTP API request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Requests++
	m.mu.Unlock()
}

// RecordWSMessage records an event stream message
func (m *Metrics) RecordWSMessage(msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(msgType).Inc()
}

// IncWSConnections increments event stream connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements event stream connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}

// Snapshot returns a copy of the running totals
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
