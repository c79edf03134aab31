package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// RPCDurationSeconds tracks ledger RPC latency per method.
	RPCDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orderbot_ledger_rpc_duration_seconds",
			Help:    "Duration of ledger RPC calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// RPCErrorsTotal counts failed ledger RPC calls per method.
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbot_ledger_rpc_errors_total",
			Help: "Total number of failed ledger RPC calls",
		},
		[]string{"method"},
	)
)
