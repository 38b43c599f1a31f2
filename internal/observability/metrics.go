package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// normalization pipeline.
type Metrics struct {
	FilesProcessed   prometheus.Counter
	FieldsNormalized prometheus.Counter
	ProcessErrors    prometheus.Counter
	PipelineRunning  prometheus.Gauge
	SinkEnabled      prometheus.Gauge

	ProcessingDuration prometheus.Histogram
	FieldsPerFile      prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exoclim",
			Name:      "files_processed_total",
			Help:      "Total model output files normalized successfully.",
		}),
		FieldsNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exoclim",
			Name:      "fields_normalized_total",
			Help:      "Total fields passed through the normalization pipeline.",
		}),
		ProcessErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exoclim",
			Name:      "process_errors_total",
			Help:      "Total files that failed to load or normalize.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "exoclim",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		SinkEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "exoclim",
			Name:      "sink_enabled",
			Help:      "1 when summary publishing is enabled, 0 otherwise.",
		}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "exoclim",
			Name:      "processing_duration_seconds",
			Help:      "Duration of a complete load-normalize-publish cycle per file.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		FieldsPerFile: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "exoclim",
			Name:      "fields_per_file",
			Help:      "Number of fields found per model output file.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
	}

	prometheus.MustRegister(
		m.FilesProcessed,
		m.FieldsNormalized,
		m.ProcessErrors,
		m.PipelineRunning,
		m.SinkEnabled,
		m.ProcessingDuration,
		m.FieldsPerFile,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FilesProcessed:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "exoclim", Name: "files_processed_total"}),
		FieldsNormalized:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "exoclim", Name: "fields_normalized_total"}),
		ProcessErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "exoclim", Name: "process_errors_total"}),
		PipelineRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "exoclim", Name: "pipeline_running"}),
		SinkEnabled:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "exoclim", Name: "sink_enabled"}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "exoclim", Name: "processing_duration_seconds"}),
		FieldsPerFile:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "exoclim", Name: "fields_per_file"}),
	}
}
