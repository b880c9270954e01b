package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion and deduplication pipelines.
type Metrics struct {
	IngestFetchFailures    prometheus.Counter
	IngestDuplicateFetches prometheus.Counter
	IngestDeadLetters      prometheus.Counter
	IngestRawEvents        prometheus.Counter
	IngestRunDuration      *prometheus.HistogramVec // labels: source

	DedupClusters      prometheus.Counter
	DedupUnifiedEvents  prometheus.Counter
	DedupPassDuration   prometheus.Histogram
	DedupRecordsLoaded  prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		IngestFetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakestream",
			Name:      "ingest_fetch_failures_total",
			Help:      "Total source fetches that exhausted retries without success.",
		}),
		IngestDuplicateFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakestream",
			Name:      "ingest_duplicate_fetches_total",
			Help:      "Total fetches whose payload was byte-identical to the previous poll.",
		}),
		IngestDeadLetters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakestream",
			Name:      "ingest_dead_letters_total",
			Help:      "Total records or payloads diverted to the dead-letter sink.",
		}),
		IngestRawEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakestream",
			Name:      "ingest_raw_events_total",
			Help:      "Total normalized events accepted into the raw-event store.",
		}),
		IngestRunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quakestream",
			Name:      "ingest_run_duration_seconds",
			Help:      "Duration of one run_source_pipeline invocation.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		DedupClusters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakestream",
			Name:      "dedup_clusters_total",
			Help:      "Total clusters formed across all dedup passes.",
		}),
		DedupUnifiedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakestream",
			Name:      "dedup_unified_events_total",
			Help:      "Total unified events upserted across all dedup passes.",
		}),
		DedupPassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quakestream",
			Name:      "dedup_pass_duration_seconds",
			Help:      "Duration of one run_dedup_pass invocation.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		DedupRecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakestream",
			Name:      "dedup_records_loaded_total",
			Help:      "Total raw event records loaded by dedup passes.",
		}),
	}

	prometheus.MustRegister(
		m.IngestFetchFailures,
		m.IngestDuplicateFetches,
		m.IngestDeadLetters,
		m.IngestRawEvents,
		m.IngestRunDuration,
		m.DedupClusters,
		m.DedupUnifiedEvents,
		m.DedupPassDuration,
		m.DedupRecordsLoaded,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh, unregistered set of
// collectors so multiple tests can construct Metrics without colliding on
// the default Prometheus registry.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		IngestFetchFailures:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quakestream", Name: "ingest_fetch_failures_total"}),
		IngestDuplicateFetches: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quakestream", Name: "ingest_duplicate_fetches_total"}),
		IngestDeadLetters:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quakestream", Name: "ingest_dead_letters_total"}),
		IngestRawEvents:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quakestream", Name: "ingest_raw_events_total"}),
		IngestRunDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "quakestream", Name: "ingest_run_duration_seconds"}, []string{"source"}),
		DedupClusters:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quakestream", Name: "dedup_clusters_total"}),
		DedupUnifiedEvents:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quakestream", Name: "dedup_unified_events_total"}),
		DedupPassDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quakestream", Name: "dedup_pass_duration_seconds"}),
		DedupRecordsLoaded:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quakestream", Name: "dedup_records_loaded_total"}),
	}
}
