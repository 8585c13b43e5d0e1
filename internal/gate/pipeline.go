// Package gate implements the validation pipeline: four independent checks
// composed into one pass/fail decision the venue must obtain before any
// funds move. The pipeline is read-only; its only observable effect is the
// verdict.
package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/swapgate/internal/admin"
	"github.com/mselser95/swapgate/internal/oracle"
	"github.com/mselser95/swapgate/internal/prover"
	"github.com/mselser95/swapgate/pkg/types"
	"go.uber.org/zap"
)

// Input is everything one gate pass depends on. Thresholds are snapshotted by
// the caller so a pass never observes a mid-flight configuration change.
type Input struct {
	Request    *types.TradeRequest
	Pool       types.PoolState
	Now        time.Time
	Thresholds admin.Thresholds
}

// check is one named predicate in the pipeline.
type check struct {
	id types.Check
	fn func(ctx context.Context, in Input) error
}

// Pipeline composes the four checks in fixed order. The first failing check
// aborts the pass; later checks are never evaluated, so the proof service is
// not called when an earlier check already failed.
type Pipeline struct {
	oracleFeed oracle.PriceOracle
	verifier   prover.Verifier
	circuitID  common.Hash
	logger     *zap.Logger
	checks     []check
}

// Config holds pipeline configuration.
type Config struct {
	Oracle    oracle.PriceOracle
	Verifier  prover.Verifier
	CircuitID common.Hash
	Logger    *zap.Logger
}

// New creates a validation pipeline.
func New(cfg *Config) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Oracle == nil {
		return nil, fmt.Errorf("oracle cannot be nil")
	}
	if cfg.Verifier == nil {
		return nil, fmt.Errorf("verifier cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	p := &Pipeline{
		oracleFeed: cfg.Oracle,
		verifier:   cfg.Verifier,
		circuitID:  cfg.CircuitID,
		logger:     cfg.Logger,
	}

	p.checks = []check{
		{types.CheckTradingWindow, p.checkTradingWindow},
		{types.CheckLiquidityImpact, p.checkLiquidityImpact},
		{types.CheckPriceDeviation, p.checkPriceDeviation},
		{types.CheckProofCondition, p.checkProofCondition},
	}

	return p, nil
}

// Evaluate runs the checks in order and returns nil when the trade is
// approved. The returned error distinguishes which check rejected and why.
func (p *Pipeline) Evaluate(ctx context.Context, in Input) error {
	start := time.Now()
	defer func() {
		EvaluationDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	for _, c := range p.checks {
		err := c.fn(ctx, in)
		if err == nil {
			continue
		}

		reason := rejectReason(err)
		RejectionsTotal.WithLabelValues(string(c.id), reason).Inc()
		p.logger.Info("gate-rejected",
			zap.String("check", string(c.id)),
			zap.String("reason", reason),
			zap.Error(err))

		return err
	}

	ApprovalsTotal.Inc()
	p.logger.Debug("gate-approved",
		zap.String("input-asset", in.Request.InputAsset.Hex()),
		zap.String("output-asset", in.Request.OutputAsset.Hex()),
		zap.String("amount", in.Request.Amount.String()))

	return nil
}

func rejectReason(err error) string {
	switch e := err.(type) {
	case *types.GateRejectedError:
		return string(e.Reason)
	case *types.MalformedPayloadError:
		return "malformed_payload"
	default:
		return "error"
	}
}
