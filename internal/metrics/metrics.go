package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RefreshTotal counts refresh cycles by outcome: ok, acquire_error,
	// extract_error, cache_error, dropped.
	RefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rltracker_refresh_total",
		Help: "Refresh cycles by result.",
	}, []string{"result"})

	AcquireDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rltracker_acquire_duration_seconds",
		Help:    "Time spent obtaining page markup from the browser.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 180},
	})

	ExtractDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rltracker_extract_duration_seconds",
		Help:    "Time spent extracting a snapshot from markup.",
		Buckets: prometheus.DefBuckets,
	})

	LastSuccessTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rltracker_last_success_timestamp_seconds",
		Help: "Unix time of the last snapshot successfully written to the cache.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
