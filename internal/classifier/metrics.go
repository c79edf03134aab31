package classifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ClassifiedCells is the size of each set after the last classification.
	ClassifiedCells = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orderbot_classified_cells",
			Help: "Number of cells per class in the last iteration",
		},
		[]string{"class"},
	)
)
