package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(geocodeLookupsTotal, geocodeLatency) }

var (
	geocodeLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_lookups_total",
			Help: "Reverse geocoding lookups by result.",
		},
		[]string{"result"}, // resolved|degraded|no_data
	)

	geocodeLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geocode_latency_ms",
			Help:    "Reverse geocoding HTTP latency in milliseconds.",
			Buckets: []float64{25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
	)
)

func IncGeocode(result string) {
	geocodeLookupsTotal.WithLabelValues(norm(result)).Inc()
}

func ObserveGeocodeLatency(d time.Duration) {
	geocodeLatency.Observe(float64(d.Milliseconds()))
}
