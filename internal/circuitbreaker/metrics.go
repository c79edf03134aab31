package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DepletionBreakerTripped indicates whether the bot has stopped for lack of capital.
	DepletionBreakerTripped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orderbot_depletion_breaker_tripped",
		Help: "Whether the depletion breaker has tripped (1=tripped, 0=operating)",
	})

	// DepletionBreakerCapital tracks the last checked base-equivalent capital.
	DepletionBreakerCapital = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orderbot_depletion_breaker_capital",
		Help: "Last checked base-equivalent capital, in whole coins",
	})

	// DepletionBreakerMinCapital tracks the configured minimum operating capital.
	DepletionBreakerMinCapital = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orderbot_depletion_breaker_min_capital",
		Help: "Minimum operating capital, in whole coins",
	})
)
