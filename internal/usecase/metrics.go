package usecase

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine label values for metrics.
const (
	engineFood  = "food"
	engineSport = "sport"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_requests_total",
			Help: "Recommendation requests by engine and outcome.",
		},
		[]string{"engine", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommender_request_duration_seconds",
			Help:    "End-to-end recommendation request duration.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"engine"},
	)

	gatewayFaults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_gateway_faults_total",
			Help: "Data gateway failures by engine and fault kind.",
		},
		[]string{"engine", "kind"},
	)
)

// observeRequest records the outcome and duration of one recommendation
// request. Failure outcomes are labeled with their reason; success with "ok".
func observeRequest(engine, outcome string, start time.Time) {
	requestsTotal.WithLabelValues(engine, outcome).Inc()
	requestDuration.WithLabelValues(engine).Observe(time.Since(start).Seconds())
}
