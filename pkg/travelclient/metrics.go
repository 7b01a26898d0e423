package travelclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "travel_gateway",
		Subsystem: "upstream",
		Name:      "token_refresh_total",
		Help:      "Client-credentials exchanges by result.",
	}, []string{"result"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "travel_gateway",
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Latency of calls to the travel provider.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "method", "status"})

	breakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "travel_gateway",
		Subsystem: "upstream",
		Name:      "breaker_state",
		Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
	})
)
