package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climogram_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the climogram pipeline.
type Metrics struct {
	RequestsConsumed   prometheus.Counter
	ClimogramsProduced prometheus.Counter
	TransformErrors    prometheus.Counter
	PipelineRunning    prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Aggregation metrics.
	AggregatesBuilt *prometheus.CounterVec // labels: dataset, result={values,empty}
	DroppedYears    prometheus.Counter
	BuildDuration   prometheus.Histogram

	// Catalog metrics.
	CatalogRequests    *prometheus.CounterVec   // labels: dataset, outcome={success,unavailable,error}
	CatalogCache       *prometheus.CounterVec   // labels: dataset, result={hit,miss}
	CatalogAPIDuration *prometheus.HistogramVec // labels: dataset
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RequestsConsumed,
		m.ClimogramsProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.AggregatesBuilt,
		m.DroppedYears,
		m.BuildDuration,
		m.CatalogRequests,
		m.CatalogCache,
		m.CatalogAPIDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_consumed_total",
			Help:      "Total climogram requests read from the source topic.",
		}),
		ClimogramsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "climograms_produced_total",
			Help:      "Total climograms written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total requests that failed to produce a climogram.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of requests per batch extracted from Kafka.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		AggregatesBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "annual_aggregates_total",
			Help:      "Annual aggregates built by dataset and whether they carried values.",
		}, []string{"dataset", "result"}),
		DroppedYears: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_years_total",
			Help:      "Years dropped by the year join because one dataset lacked them.",
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "climogram_build_duration_seconds",
			Help:      "Duration of building one climogram, catalog reads included.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		CatalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_requests_total",
			Help:      "Dataset catalog requests by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		CatalogCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_total",
			Help:      "Catalog cache lookups by dataset and result.",
		}, []string{"dataset", "result"}),
		CatalogAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_api_duration_seconds",
			Help:      "Dataset catalog request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"dataset"}),
	}
}
