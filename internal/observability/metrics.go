// README: Prometheus metrics for ride economics and the HTTP layer.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesCreated    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridepool", Name: "rides_created_total", Help: "Total number of ride offers created"})
	OverbookedRides = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridepool", Name: "overbooked_rides_total", Help: "Ride reads whose roster exceeded capacity"})

	JoinDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridepool", Name: "join_decisions_total", Help: "Join eligibility decisions by reason code"},
		[]string{"reason"},
	)
	RideTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridepool", Name: "ride_transitions_total", Help: "Ride status transitions by target status"},
		[]string{"to"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridepool", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ridepool",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
