package gate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ApprovalsTotal tracks trades approved by the gate.
	ApprovalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapgate_gate_approvals_total",
		Help: "Total number of trades approved by the validation pipeline",
	})

	// RejectionsTotal tracks gate rejections by check and reason.
	RejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapgate_gate_rejections_total",
			Help: "Total number of trades rejected by the validation pipeline",
		},
		[]string{"check", "reason"},
	)

	// EvaluationDurationSeconds tracks full pipeline pass latency.
	EvaluationDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapgate_gate_evaluation_duration_seconds",
		Help:    "Duration of a full validation pipeline pass",
		Buckets: prometheus.DefBuckets,
	})
)
