package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "obs_catalog"

// Metrics holds the Prometheus counters, histograms, and gauges for the catalog service.
type Metrics struct {
	// Ingestion metrics, labelled by provider.
	FilesDiscovered *prometheus.CounterVec
	FilesIngested   *prometheus.CounterVec
	FilesSkipped    *prometheus.CounterVec
	ParseFailures   *prometheus.CounterVec
	InsertFailures  *prometheus.CounterVec
	IngestDuration  *prometheus.HistogramVec
	IngestsDropped  *prometheus.CounterVec

	// Retrieval metrics, labelled by provider.
	QueryDuration *prometheus.HistogramVec
	QueryResults  *prometheus.HistogramVec

	PublishErrors    *prometheus.CounterVec
	SchedulerRunning prometheus.Gauge
}

// NewMetrics creates and registers all catalog metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}

func newMetrics() *Metrics {
	provider := []string{"provider"}
	return &Metrics{
		FilesDiscovered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_discovered_total",
			Help:      "Files matched by provider glob patterns during ingestion.",
		}, provider),
		FilesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_ingested_total",
			Help:      "Files newly inserted into a catalog.",
		}, provider),
		FilesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "Discovered files that were already cataloged.",
		}, provider),
		ParseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Discovered files rejected by the provider filename grammar.",
		}, provider),
		InsertFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insert_failures_total",
			Help:      "Parsed records the store refused.",
		}, provider),
		IngestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Duration of a complete discover-parse-insert run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, provider),
		IngestsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingests_dropped_total",
			Help:      "Ingest triggers dropped because a run was already in progress.",
		}, provider),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of windowed catalog queries.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, provider),
		QueryResults: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_results",
			Help:      "Number of files returned per windowed query.",
			Buckets:   []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
		}, provider),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failures publishing new-file notifications.",
		}, provider),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      "1 when scheduled ingestion is active, 0 when shut down.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FilesDiscovered,
		m.FilesIngested,
		m.FilesSkipped,
		m.ParseFailures,
		m.InsertFailures,
		m.IngestDuration,
		m.IngestsDropped,
		m.QueryDuration,
		m.QueryResults,
		m.PublishErrors,
		m.SchedulerRunning,
	}
}
