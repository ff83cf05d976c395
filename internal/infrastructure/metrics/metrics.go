// Package metrics provides Prometheus metrics for the voice-gateway service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveAvatarSessions tracks the number of avatar sessions in the store.
	ActiveAvatarSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_active_avatar_sessions",
			Help: "Number of avatar session records currently held in the store",
		},
	)

	// AvatarSessionsCreated tracks the total number of avatar sessions created.
	AvatarSessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_avatar_sessions_created_total",
			Help: "Total number of avatar sessions created",
		},
	)

	// AvatarSessionsReused tracks session-create requests answered with an existing session.
	AvatarSessionsReused = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_avatar_sessions_reused_total",
			Help: "Total number of session requests served by an existing active session",
		},
	)

	// SweepDeletions tracks records removed by the staleness sweep.
	SweepDeletions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_session_sweep_deletions_total",
			Help: "Total number of avatar session records removed by the staleness sweep",
		},
	)

	// TokenRefreshes tracks upstream ephemeral-token fetches.
	TokenRefreshes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_token_refreshes_total",
			Help: "Total number of upstream ephemeral token fetches",
		},
	)

	// TokenCacheHits tracks token requests served from cache.
	TokenCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_token_cache_hits_total",
			Help: "Total number of token requests served from the credential cache",
		},
	)

	// PoolWithdrawals tracks pool hits and misses.
	PoolWithdrawals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_session_pool_withdrawals_total",
			Help: "Total pool withdrawal attempts by outcome",
		},
		[]string{"outcome"}, // hit, miss
	)

	// PoolReplenishFailures tracks failed background replenish attempts.
	PoolReplenishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_session_pool_replenish_failures_total",
			Help: "Total number of failed pool replenish attempts",
		},
	)

	// ProviderFallbacks tracks legacy-endpoint fallbacks by operation.
	ProviderFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_provider_fallbacks_total",
			Help: "Total number of avatar-provider legacy endpoint fallbacks",
		},
		[]string{"operation"},
	)

	// UpstreamRequestDuration tracks upstream call latency by service.
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_upstream_request_duration_seconds",
			Help:    "Duration of upstream API calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	// HTTPRequestDuration tracks handler latency by route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// RecordPoolWithdrawal records a pool withdrawal outcome.
func RecordPoolWithdrawal(hit bool) {
	if hit {
		PoolWithdrawals.WithLabelValues("hit").Inc()
		return
	}
	PoolWithdrawals.WithLabelValues("miss").Inc()
}
