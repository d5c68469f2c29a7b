// Package monitoring exposes prometheus collectors for the pipeline:
// throughput, errors, stage durations, cache activity, and the most
// recent quality score. The collectors are package-level and registered
// with the default registry; the HTTP surface serves them on /metrics.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsProcessed counts rows flowing out of each pipeline stage.
	RecordsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "salesetl",
		Name:      "records_processed_total",
		Help:      "Number of records produced by each pipeline stage.",
	}, []string{"stage"})

	// RecordsDropped counts rows removed by cleaning and validation.
	RecordsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "salesetl",
		Name:      "records_dropped_total",
		Help:      "Number of records dropped, labeled by reason.",
	}, []string{"reason"})

	// PipelineErrors counts fatal stage errors.
	PipelineErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "salesetl",
		Name:      "pipeline_errors_total",
		Help:      "Number of fatal pipeline errors, labeled by stage.",
	}, []string{"stage"})

	// StageDuration observes wall time per pipeline stage.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "salesetl",
		Name:      "stage_duration_seconds",
		Help:      "Execution time of each pipeline stage.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})

	// CacheHits counts content cache hits per operation.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "salesetl",
		Name:      "cache_hits_total",
		Help:      "Content cache hits, labeled by operation.",
	}, []string{"operation"})

	// CacheMisses counts content cache misses per operation.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "salesetl",
		Name:      "cache_misses_total",
		Help:      "Content cache misses, labeled by operation.",
	}, []string{"operation"})

	// QualityScore holds the overall score of the most recent quality run.
	QualityScore = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "salesetl",
		Name:      "quality_overall_score",
		Help:      "Overall score of the most recent data quality report.",
	})

	// QualityIssues holds issue counts from the most recent quality run.
	QualityIssues = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "salesetl",
		Name:      "quality_issues",
		Help:      "Issues in the most recent quality report, by severity.",
	}, []string{"severity"})
)
