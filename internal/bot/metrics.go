package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// IterationsTotal counts iterations by result.
	IterationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbot_iterations_total",
			Help: "Total number of bot iterations by result",
		},
		[]string{"result"},
	)

	// IterationDurationSeconds tracks how long an iteration takes end to end.
	IterationDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orderbot_iteration_duration_seconds",
			Help:    "Duration of a bot iteration",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// LastIterationTimestamp is the unix time of the last completed iteration.
	LastIterationTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orderbot_last_iteration_timestamp_seconds",
			Help: "Unix timestamp of the last completed iteration",
		},
	)

	// IterationPanicsTotal counts iterations that panicked.
	IterationPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orderbot_iteration_panics_total",
			Help: "Total number of recovered iteration panics",
		},
	)

	// SleepSeconds tracks the randomized delay between iterations.
	SleepSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orderbot_sleep_seconds",
			Help:    "Randomized delay between iterations",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)
