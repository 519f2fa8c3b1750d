// Package metrics exports Prometheus metrics for ingestion, the index and
// search. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"newsdesk/internal/index"
	"newsdesk/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newsdesk"

// Metrics holds all newsdesk Prometheus metrics.
type Metrics struct {
	// Ingestion
	IngestCandidates *prometheus.CounterVec
	IngestRuns       *prometheus.CounterVec
	IngestDuration   *prometheus.HistogramVec

	// Index
	IndexVersion  prometheus.Gauge
	IndexArticles prometheus.Gauge
	IndexTerms    prometheus.Gauge
	IndexLayers   prometheus.Gauge
	LiveSnapshots prometheus.Gauge

	// Search
	Searches       *prometheus.CounterVec
	SearchDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers every metric on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		IngestCandidates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_candidates_total",
			Help:      "Candidates processed by ingestion, by source and outcome (added, updated, skipped, failed)",
		}, []string{"source", "outcome"}),
		IngestRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_runs_total",
			Help:      "Ingestion runs by source and result (ok, error)",
		}, []string{"source", "result"}),
		IngestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Wall time of one ingestion run",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"source"}),
		IndexVersion: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_version",
			Help:      "Version of the current index snapshot",
		}),
		IndexArticles: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_articles",
			Help:      "Articles in the current index snapshot",
		}),
		IndexTerms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_terms",
			Help:      "Distinct tokens in the current index snapshot",
		}),
		IndexLayers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_layers",
			Help:      "Delta layers beneath the current snapshot",
		}),
		LiveSnapshots: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_live_snapshots",
			Help:      "Snapshots still referenced by the manager or in-flight queries",
		}),
		Searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Search requests by mode and result (ok, empty_query, syntax, error)",
		}, []string{"mode", "result"}),
		SearchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time to evaluate a query against a snapshot",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"mode"}),
		gatherer: reg,
	}
}

// Handler serves the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveIngest records one finished run.
func (m *Metrics) ObserveIngest(r model.IngestReport) {
	if m == nil {
		return
	}
	m.IngestCandidates.WithLabelValues(r.Source, "added").Add(float64(r.Added))
	m.IngestCandidates.WithLabelValues(r.Source, "updated").Add(float64(r.Updated))
	m.IngestCandidates.WithLabelValues(r.Source, "skipped").Add(float64(r.Skipped))
	m.IngestCandidates.WithLabelValues(r.Source, "failed").Add(float64(r.Failed))
	result := "ok"
	if r.Error != "" {
		result = "error"
	}
	m.IngestRuns.WithLabelValues(r.Source, result).Inc()
	if !r.FinishedAt.IsZero() {
		m.IngestDuration.WithLabelValues(r.Source).Observe(r.FinishedAt.Sub(r.StartedAt).Seconds())
	}
}

// ObserveIndex mirrors index stats into gauges. Suitable as index.Options.OnPublish.
func (m *Metrics) ObserveIndex(s index.Stats) {
	if m == nil {
		return
	}
	m.IndexVersion.Set(float64(s.Version))
	m.IndexArticles.Set(float64(s.Articles))
	m.IndexTerms.Set(float64(s.Terms))
	m.IndexLayers.Set(float64(s.Layers))
	m.LiveSnapshots.Set(float64(s.LiveSnapshots))
}

// ObserveSearch records one search. result is a short outcome label.
func (m *Metrics) ObserveSearch(mode, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(mode, result).Inc()
	if result == "ok" {
		m.SearchDuration.WithLabelValues(mode).Observe(d.Seconds())
	}
}
