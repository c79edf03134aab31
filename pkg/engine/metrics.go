package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// CallDurationSeconds tracks sidecar call latency per method.
	CallDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orderbot_engine_call_duration_seconds",
			Help:    "Duration of engine sidecar calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// CallErrorsTotal counts failed sidecar calls per method.
	CallErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbot_engine_call_errors_total",
			Help: "Total number of failed engine sidecar calls",
		},
		[]string{"method"},
	)
)
