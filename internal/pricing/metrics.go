package pricing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Computation outcomes
const (
	outcomeOK            = "ok"
	outcomeInvalidInput  = "invalid_input"
	outcomeConfigMissing = "config_missing"
	outcomeError         = "error"
)

// Configuration load sources
const (
	loadSourceCache = "cache"
	loadSourceStore = "store"
	loadSourceError = "error"
)

var (
	fareComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fare_computations_total",
			Help: "Fare computations by service type and outcome",
		},
		[]string{"service_type", "outcome"},
	)

	rateFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fare_rate_fallbacks_total",
			Help: "Rate lookups that fell back to a default rate",
		},
		[]string{"service_type", "source"},
	)

	fareTotals = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fare_total_amount",
			Help:    "Distribution of computed total fares",
			Buckets: []float64{10, 25, 50, 75, 100, 150, 250, 500, 1000, 2500},
		},
		[]string{"service_type", "currency"},
	)

	activeConfigVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pricing_config_active_version",
			Help: "Version number of the configuration currently held in memory",
		},
	)

	configLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_config_loads_total",
			Help: "Active configuration loads by source",
		},
		[]string{"source"},
	)
)

func recordConfigLoad(source string) {
	configLoads.WithLabelValues(source).Inc()
}
