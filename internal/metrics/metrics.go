// Package metrics exposes the Prometheus instrumentation for the research
// loop, in the same promauto style as the teacher's internal/metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HopsTotal is registered for research hops executed, labeled by mode.
	// No code in this module increments it, so it exports no samples.
	HopsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_hops_total",
			Help: "Total number of research loop hops executed",
		},
		[]string{"mode"},
	)

	// StopReasonTotal counts why the loop terminated.
	StopReasonTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_stop_reason_total",
			Help: "Total number of loop terminations by reason",
		},
		[]string{"reason"},
	)

	// SearchRetriesTotal counts retry attempts made by the Searcher.
	SearchRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "research_search_retries_total",
			Help: "Total number of search retry attempts",
		},
	)

	// SearchExhaustedTotal counts searches that failed after all retries.
	SearchExhaustedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "research_search_exhausted_total",
			Help: "Total number of searches that exhausted their retry budget",
		},
	)

	// ExtractTimeoutsTotal counts extraction calls that hit the 35s timeout.
	ExtractTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "research_extract_timeouts_total",
			Help: "Total number of extraction timeouts",
		},
	)

	// ExtractScrapeFallbackTotal counts scrape-fallback invocations.
	ExtractScrapeFallbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "research_extract_scrape_fallback_total",
			Help: "Total number of times the scrape fallback was used",
		},
	)

	// LoopDuration is registered for the wall-clock duration of a full
	// research loop. No code in this module observes into it.
	LoopDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "research_loop_duration_seconds",
			Help:    "Research loop duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	// AnalysisParseFallbackTotal counts times the Analyzer fell back below
	// direct JSON parsing (fenced block, regex salvage, or textual salvage).
	AnalysisParseFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_analysis_parse_fallback_total",
			Help: "Total number of analysis parses that required salvage",
		},
		[]string{"tier"},
	)
)
