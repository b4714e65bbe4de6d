// Package metrics defines the Prometheus collectors for leaderboard and
// Redis operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Redis Operations Metrics
var (
	// RedisOpsTotal tracks total Redis operations by operation type and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis operation latency in seconds
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks Redis connection errors
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Total Redis connection errors",
		},
	)
)

// Leaderboard Metrics
var (
	// SubmitsTotal tracks score submissions by outcome (ok, disabled, error)
	SubmitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_submits_total",
			Help: "Total leaderboard score submissions by outcome",
		},
		[]string{"status"},
	)

	// QueriesTotal tracks leaderboard reads by query type and outcome
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_queries_total",
			Help: "Total leaderboard queries by query and outcome",
		},
		[]string{"query", "status"},
	)

	// PurgesTotal tracks user purge operations by outcome
	PurgesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_purges_total",
			Help: "Total leaderboard user purges by outcome",
		},
		[]string{"status"},
	)

	// RotationsScheduled tracks deferred rotation notifications by outcome
	// (scheduled, duplicate)
	RotationsScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_rotations_scheduled_total",
			Help: "Deferred rotation notifications by outcome",
		},
		[]string{"status"},
	)
)
