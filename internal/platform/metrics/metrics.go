// Package metrics provides Prometheus instrumentation for the NetIntel service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineBuckets covers pipeline latencies dominated by sequential upstream
// calls, ranging from 50ms to 60s.
var PipelineBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

var (
	// RequestsTotal counts HTTP requests by method, route, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netintel_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netintel_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: PipelineBuckets,
		},
		[]string{"route"},
	)

	// ProviderCallsTotal counts calls to external providers by outcome.
	ProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netintel_provider_calls_total",
			Help: "Provider calls",
		},
		[]string{"provider", "operation", "status"},
	)

	// AnalyzeDuration records full pipeline duration in seconds.
	AnalyzeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netintel_analyze_duration_seconds",
			Help:    "Search-and-enrichment pipeline duration",
			Buckets: PipelineBuckets,
		},
	)

	// DomainsAnalyzedTotal counts per-domain analysis outcomes.
	DomainsAnalyzedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netintel_domains_analyzed_total",
			Help: "Domains analyzed by the pipeline",
		},
		[]string{"dns"},
	)

	// ArchiveFailuresTotal counts swallowed persistence failures.
	ArchiveFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "netintel_archive_failures_total",
			Help: "Best-effort archive failures (logged, never propagated)",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		ProviderCallsTotal,
		AnalyzeDuration,
		DomainsAnalyzedTotal,
		ArchiveFailuresTotal,
	)
}
