package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BreakerClosed indicates whether the breaker allows new executions.
	BreakerClosed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swapgate_breaker_closed",
		Help: "Whether the breaker allows new executions (1=closed/allowing, 0=open/blocking)",
	})

	// BreakerConsecutiveFailures tracks the current venue failure streak.
	BreakerConsecutiveFailures = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swapgate_breaker_consecutive_failures",
		Help: "Consecutive venue failures since the last settled execution",
	})

	// BreakerTripsTotal counts how many times the breaker has tripped.
	BreakerTripsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapgate_breaker_trips_total",
		Help: "Total number of times the breaker tripped open",
	})
)
