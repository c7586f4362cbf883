package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	RecordsNormalized prometheus.Counter
	NormalizeErrors   prometheus.Counter
	ValidationIssues  *prometheus.CounterVec // label: rule={range,order,bounds,schema}
	BatchesProcessed  prometheus.Counter
	BatchDuration     prometheus.Histogram
	RowsExported      prometheus.Counter
	PipelineRunning   prometheus.Gauge

	// Extraction metrics.
	ExtractRuns      *prometheus.CounterVec // labels: source, outcome={fetched,fallback,error}
	RecordsPublished prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsNormalized,
		m.NormalizeErrors,
		m.ValidationIssues,
		m.BatchesProcessed,
		m.BatchDuration,
		m.RowsExported,
		m.PipelineRunning,
		m.ExtractRuns,
		m.RecordsPublished,
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
		RecordsNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_etl",
			Name:      "records_normalized_total",
			Help:      "Total raw records normalized to the canonical schema.",
		}),
		NormalizeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_etl",
			Name:      "normalize_errors_total",
			Help:      "Total raw records dropped during normalization.",
		}),
		ValidationIssues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqi_etl",
			Name:      "validation_issues_total",
			Help:      "Validation issues reported, by rule.",
		}, []string{"rule"}),
		BatchesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_etl",
			Name:      "batches_processed_total",
			Help:      "Total bronze files taken through normalize-validate-export.",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aqi_etl",
			Name:      "batch_duration_seconds",
			Help:      "Duration of one normalize-validate-export cycle per bronze file.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		RowsExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_etl",
			Name:      "rows_exported_total",
			Help:      "Total canonical rows written to partitioned export files.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aqi_etl",
			Name:      "pipeline_running",
			Help:      "1 while a pipeline cycle is active, 0 otherwise.",
		}),
		ExtractRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqi_etl",
			Name:      "extract_runs_total",
			Help:      "Source extraction attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_etl",
			Name:      "records_published_total",
			Help:      "Total canonical records delivered to optional sinks.",
		}),
	}
}
