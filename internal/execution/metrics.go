package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StateTransitionsTotal counts entries into each funding state.
	StateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbot_execution_state_transitions_total",
			Help: "Total number of funding state machine transitions",
		},
		[]string{"state"},
	)

	// FundingAttemptsTotal tracks funding calls by result.
	FundingAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbot_execution_funding_attempts_total",
			Help: "Total number of funding attempts",
		},
		[]string{"result"},
	)

	// FallbacksTotal tracks cancel-only fallbacks.
	FallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderbot_execution_fallbacks_total",
		Help: "Total number of cancel-only fallbacks",
	})

	// TransactionsTotal tracks submitted transactions.
	TransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbot_execution_transactions_total",
			Help: "Total number of transactions submitted (or logged in dry-run)",
		},
		[]string{"mode"},
	)

	// FeesPaidShannons tracks fees of submitted transactions.
	FeesPaidShannons = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderbot_execution_fees_paid_shannons",
		Help: "Cumulative fees of submitted transactions",
	})

	// SubmitDurationSeconds tracks sign and submit latency.
	SubmitDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orderbot_execution_submit_duration_seconds",
		Help:    "Duration of transaction signing and submission",
		Buckets: prometheus.DefBuckets,
	})

	// SubmitErrorsTotal tracks signing and submission failures.
	SubmitErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderbot_execution_submit_errors_total",
		Help: "Total number of signing or submission errors",
	})
)
