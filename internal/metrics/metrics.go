// Package metrics provides Prometheus instrumentation for the tracker.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// UpstreamRequests counts Riot API calls by operation and outcome.
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lptracker_upstream_requests_total",
		Help: "Upstream API requests by operation and status",
	}, []string{"operation", "status"})

	// CacheHits counts live cache reads per tier.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lptracker_cache_hits_total",
		Help: "Cache hits by tier",
	}, []string{"tier"})

	// CacheMisses counts absent or expired reads per tier.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lptracker_cache_misses_total",
		Help: "Cache misses (absent or expired) by tier",
	}, []string{"tier"})

	// Reconstructions counts timeline reconstructions by outcome.
	Reconstructions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lptracker_reconstructions_total",
		Help: "Timeline reconstructions by outcome",
	}, []string{"outcome"})

	// SessionsCreated counts interactive sessions created.
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lptracker_sessions_created_total",
		Help: "Interactive sessions created",
	})

	// MatchSkips counts per-match detail fetches dropped from a
	// reconstruction.
	MatchSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lptracker_match_skips_total",
		Help: "Match detail fetches skipped after upstream failure",
	})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
