// Package metrics provides Prometheus metrics for the search index.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for one engine. Each engine owns
// its registry so several can live in one process. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	// Index maintenance
	RebuildsTotal      prometheus.Counter
	NodeUpdatesTotal   *prometheus.CounterVec
	FlushesTotal       prometheus.Counter
	FlushDuration      prometheus.Histogram
	DocumentsTotal     prometheus.Gauge
	NotificationsTotal *prometheus.CounterVec

	// Queries
	QueriesTotal   *prometheus.CounterVec
	QueryDuration  prometheus.Histogram
	MatchesTotal   prometheus.Counter
	ParseCacheHits prometheus.Counter
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	m := &Metrics{Registry: reg}

	m.RebuildsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "outsearch_index_rebuilds_total",
			Help: "Total number of full index rebuilds",
		},
	)

	m.NodeUpdatesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outsearch_index_node_updates_total",
			Help: "Total number of targeted node recomputes",
		},
		[]string{"scope"},
	)

	m.FlushesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "outsearch_index_flushes_total",
			Help: "Total number of flushes that applied pending work",
		},
	)

	m.FlushDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "outsearch_index_flush_duration_seconds",
			Help:    "Duration of index flushes in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	m.DocumentsTotal = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "outsearch_index_documents",
			Help: "Current number of indexed documents",
		},
	)

	m.NotificationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outsearch_change_notifications_total",
			Help: "Total number of outline change notifications received",
		},
		[]string{"kind"},
	)

	m.QueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outsearch_queries_total",
			Help: "Total number of queries run",
		},
		[]string{"status"},
	)

	m.QueryDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "outsearch_query_duration_seconds",
			Help:    "Duration of query evaluation in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	m.MatchesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "outsearch_query_matches_total",
			Help: "Total number of matched edges returned",
		},
	)

	m.ParseCacheHits = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "outsearch_parse_cache_hits_total",
			Help: "Total number of parses served from the cache",
		},
	)

	return m
}

// RecordRebuild records a full rebuild and the resulting document count.
func (m *Metrics) RecordRebuild(documents int) {
	if m == nil {
		return
	}
	m.RebuildsTotal.Inc()
	m.DocumentsTotal.Set(float64(documents))
}

// RecordNodeUpdate records a targeted recompute.
func (m *Metrics) RecordNodeUpdate(scope string, documents int) {
	if m == nil {
		return
	}
	m.NodeUpdatesTotal.WithLabelValues(scope).Inc()
	m.DocumentsTotal.Set(float64(documents))
}

// RecordFlush records a flush that did work.
func (m *Metrics) RecordFlush(duration time.Duration) {
	if m == nil {
		return
	}
	m.FlushesTotal.Inc()
	m.FlushDuration.Observe(duration.Seconds())
}

// RecordNotification records an incoming change notification.
func (m *Metrics) RecordNotification(kind string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(kind).Inc()
}

// RecordQuery records a query run. status is "ok", or "empty" when there
// was no expression to evaluate.
func (m *Metrics) RecordQuery(status string, matches int, duration time.Duration) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(status).Inc()
	m.MatchesTotal.Add(float64(matches))
	m.QueryDuration.Observe(duration.Seconds())
}

// RecordParseCacheHit records a parse served from the cache.
func (m *Metrics) RecordParseCacheHit() {
	if m == nil {
		return
	}
	m.ParseCacheHits.Inc()
}
