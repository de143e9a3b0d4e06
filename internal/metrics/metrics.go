// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HttpRequestsTotal counts handled HTTP requests.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of http requests handled by the service.",
		},
		[]string{"path", "method", "code"},
	)

	// FeedLoadsTotal counts feed loads by feed and outcome (success/failed).
	FeedLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_loads_total",
			Help: "Total number of feed loads.",
		},
		[]string{"feed", "status"},
	)

	// CatalogJobs is the number of jobs in the loaded catalog.
	CatalogJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_jobs",
			Help: "Number of jobs in the currently loaded catalog.",
		},
	)

	// ListingRecomputesTotal counts view recomputations by trigger (filter/sort).
	ListingRecomputesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_recomputes_total",
			Help: "Total number of filtered view recomputations.",
		},
		[]string{"trigger"},
	)

	// ActiveSessions is the number of listing sessions held in memory.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "listing_active_sessions",
			Help: "Number of listing sessions currently held in memory.",
		},
	)

	// ApplicationsTotal counts recorded application intents.
	ApplicationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "job_applications_total",
			Help: "Total number of recorded job application intents.",
		},
	)
)
