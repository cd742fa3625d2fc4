// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_created_total",
			Help: "Total number of tasks reported",
		},
		[]string{"category", "severity"},
	)

	TaskClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_claims_total",
			Help: "Total number of claim attempts",
		},
		[]string{"outcome"}, // claimed | lost_race
	)

	TaskSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_submissions_total",
			Help: "Total number of proof submissions",
		},
		[]string{"outcome"}, // submitted | missing_proofs
	)

	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verifications_total",
			Help: "Total number of settled verifications",
		},
		[]string{"decision"}, // approved | rejected
	)

	TokensAwardedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tokens_awarded_total",
			Help: "Total tokens credited through the ledger",
		},
	)

	RedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemptions_total",
			Help: "Total number of redemption attempts",
		},
		[]string{"outcome"}, // redeemed | insufficient_tokens | out_of_stock
	)

	TasksExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tasks_expired_total",
			Help: "Total number of tasks swept to expired",
		},
	)

	BadgesAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badges_awarded_total",
			Help: "Total number of badges awarded",
		},
		[]string{"code"},
	)
)
