package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderbot_output_cache_hits_total",
		Help: "Total number of output cache hits",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderbot_output_cache_misses_total",
		Help: "Total number of output cache misses",
	})

	CacheSetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderbot_output_cache_sets_total",
		Help: "Total number of output cache sets",
	})

	CacheDeletesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderbot_output_cache_deletes_total",
		Help: "Total number of output cache deletes",
	})

	CacheHitRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orderbot_output_cache_hit_rate",
		Help: "Ratio of hits over lookups since start",
	})

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orderbot_output_cache_operation_duration_seconds",
			Help:    "Duration of output cache operations",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01},
		},
		[]string{"operation"},
	)
)
