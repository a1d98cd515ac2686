package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// retrieval-and-merge pipeline.
type Metrics struct {
	FetchAttempts    *prometheus.CounterVec // labels: endpoint, outcome={success,retryable,fatal}
	FetchRetries     *prometheus.CounterVec // labels: endpoint
	RecordsFetched   *prometheus.CounterVec // labels: kind={cme,gst}
	RecordsDropped   *prometheus.CounterVec // labels: kind={cme,gst}
	MergedRecords    prometheus.Counter
	CandidatesPerGST prometheus.Histogram

	ExportDuration *prometheus.HistogramVec // labels: format
	ExportErrors   *prometheus.CounterVec   // labels: format

	PipelineRunning prometheus.Gauge
	LastRunSuccess  prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchAttempts,
		m.FetchRetries,
		m.RecordsFetched,
		m.RecordsDropped,
		m.MergedRecords,
		m.CandidatesPerGST,
		m.ExportDuration,
		m.ExportErrors,
		m.PipelineRunning,
		m.LastRunSuccess,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "donki_etl",
			Name:      "fetch_attempts_total",
			Help:      "Upstream request attempts by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		FetchRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "donki_etl",
			Name:      "fetch_retries_total",
			Help:      "Retried upstream requests by endpoint.",
		}, []string{"endpoint"}),
		RecordsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "donki_etl",
			Name:      "records_fetched_total",
			Help:      "Raw records returned by the upstream API, by kind.",
		}, []string{"kind"}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "donki_etl",
			Name:      "records_dropped_total",
			Help:      "Malformed records dropped during parsing, by kind.",
		}, []string{"kind"}),
		MergedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "donki_etl",
			Name:      "merged_records_total",
			Help:      "Merged GST records produced.",
		}),
		CandidatesPerGST: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "donki_etl",
			Name:      "cme_candidates_per_gst",
			Help:      "CME candidates associated with each storm.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}),
		ExportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "donki_etl",
			Name:      "export_duration_seconds",
			Help:      "Time to write one output file, by format.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"format"}),
		ExportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "donki_etl",
			Name:      "export_errors_total",
			Help:      "Export failures by format.",
		}, []string{"format"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "donki_etl",
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress.",
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "donki_etl",
			Name:      "last_run_success",
			Help:      "1 when the most recent run completed without error.",
		}),
	}
}
