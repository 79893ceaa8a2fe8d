package kube

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walrsctl_cluster_operations_total",
			Help: "Total number of cluster operations performed",
		},
		[]string{"operation", "status"},
	)

	rolloutWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "walrsctl_rollout_wait_seconds",
			Help:    "Time spent waiting for the broker rollout to become ready",
			Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300},
		},
	)
)

func recordOperation(operation, status string) {
	operationsTotal.WithLabelValues(operation, status).Inc()
}

func observeRolloutWait(d time.Duration) {
	rolloutWaitDuration.Observe(d.Seconds())
}
