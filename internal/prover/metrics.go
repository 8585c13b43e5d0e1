package prover

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VerdictsTotal tracks verification verdicts by outcome.
	VerdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapgate_prover_verdicts_total",
			Help: "Total number of proof verification verdicts",
		},
		[]string{"verdict"},
	)

	// VerifyErrorsTotal tracks transport and service errors.
	VerifyErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapgate_prover_verify_errors_total",
		Help: "Total number of proof verification call failures",
	})

	// VerifyDurationSeconds tracks verification call latency.
	VerifyDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapgate_prover_verify_duration_seconds",
		Help:    "Duration of proof verification calls",
		Buckets: prometheus.DefBuckets,
	})
)
