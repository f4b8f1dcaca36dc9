package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	capturesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bitelog",
			Subsystem: "lifecycle",
			Name:      "captures_total",
			Help:      "Capture attempts by outcome.",
		},
		[]string{"outcome"},
	)

	analysisTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bitelog",
			Subsystem: "lifecycle",
			Name:      "analysis_total",
			Help:      "Finished analysis jobs by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bitelog",
			Subsystem: "lifecycle",
			Name:      "analysis_duration_seconds",
			Help:      "Time spent in the inference call.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
	)

	pendingEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bitelog",
			Subsystem: "lifecycle",
			Name:      "pending_entries",
			Help:      "Entries waiting for analysis.",
		},
	)
)
