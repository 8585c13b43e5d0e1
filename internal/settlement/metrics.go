package settlement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExecutionsTotal tracks execution attempts by outcome.
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapgate_settlement_executions_total",
			Help: "Total number of settlement engine executions",
		},
		[]string{"outcome"},
	)

	// ExecutionDurationSeconds tracks end-to-end execution latency.
	ExecutionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapgate_settlement_execution_duration_seconds",
		Help:    "Duration of settlement engine executions",
		Buckets: prometheus.DefBuckets,
	})

	// CallbacksServicedTotal tracks serviced settlement callbacks.
	CallbacksServicedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapgate_settlement_callbacks_serviced_total",
		Help: "Total number of venue settlement callbacks serviced",
	})

	// RollbacksTotal tracks aborted executions that refunded custody.
	RollbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapgate_settlement_rollbacks_total",
		Help: "Total number of executions rolled back",
	})

	// HaltedRejectionsTotal tracks executions refused by an open breaker.
	HaltedRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapgate_settlement_halted_rejections_total",
		Help: "Total number of execution attempts refused while the breaker was open",
	})

	// ReentrancyRejectionsTotal tracks rejected nested execution attempts.
	ReentrancyRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapgate_settlement_reentrancy_rejections_total",
		Help: "Total number of execution attempts rejected by the reentrancy guard",
	})
)
