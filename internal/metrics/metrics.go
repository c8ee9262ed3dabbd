// Package metrics defines the Prometheus collectors for a keysearch run and
// dumps them in the text exposition format when the run ends.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all collectors on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsIndexed prometheus.Gauge
	VocabularySize   prometheus.Gauge
	QueriesTotal     *prometheus.CounterVec
	RankLatency      *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec
	StageDuration    *prometheus.GaugeVec
}

// New creates and registers all metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DocumentsIndexed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "keysearch_documents_indexed",
				Help: "Documents with at least one term after normalization.",
			},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "keysearch_vocabulary_size",
				Help: "Distinct normalized terms across the corpus.",
			},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keysearch_queries_total",
				Help: "Queries ranked by mode (batch, interactive) and result (ok, empty, error).",
			},
			[]string{"mode", "result"},
		),
		RankLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keysearch_rank_latency_seconds",
				Help:    "Time to score and select the top results for one query.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"mode"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keysearch_stat_cache_lookups_total",
				Help: "Statistics cache lookups by collection and outcome (hit, miss).",
			},
			[]string{"collection", "outcome"},
		),
		StageDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "keysearch_stage_duration_seconds",
				Help: "Wall time of each pipeline stage in the last run.",
			},
			[]string{"stage"},
		),
	}

	m.registry.MustRegister(
		m.DocumentsIndexed,
		m.VocabularySize,
		m.QueriesTotal,
		m.RankLatency,
		m.CacheLookups,
		m.StageDuration,
	)

	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) IndexBuilt(docs, vocabulary int) {
	if m == nil {
		return
	}
	m.DocumentsIndexed.Set(float64(docs))
	m.VocabularySize.Set(float64(vocabulary))
}

// QueryRanked records one ranked query. result is "ok", "empty" or "error".
func (m *Metrics) QueryRanked(mode, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(mode, result).Inc()
	if result != "error" {
		m.RankLatency.WithLabelValues(mode).Observe(took.Seconds())
	}
}

func (m *Metrics) CacheLookup(collection string, hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.CacheLookups.WithLabelValues(collection, outcome).Inc()
}

func (m *Metrics) Stage(stage string, took time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Set(took.Seconds())
}

// WriteTextfile dumps every metric to path in the text exposition format,
// suitable for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
