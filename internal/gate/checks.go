package gate

import (
	"context"
	"fmt"
	"math/big"

	"github.com/mselser95/swapgate/pkg/codec"
	"github.com/mselser95/swapgate/pkg/types"
)

// checkTradingWindow rejects trades outside the configured [start, end) hour
// window or on a day not flagged as a trading day. Hours and weekdays are
// taken in UTC. A full-day window (0, 24) makes the hour check a no-op.
func (p *Pipeline) checkTradingWindow(_ context.Context, in Input) error {
	now := in.Now.UTC()

	if !in.Thresholds.TradesOn(now.Weekday()) {
		return &types.GateRejectedError{
			Check:  types.CheckTradingWindow,
			Reason: types.RejectTradingDayClosed,
		}
	}

	if in.Thresholds.FullDayWindow() {
		return nil
	}

	hour := now.Hour()
	if hour < in.Thresholds.StartHour || hour >= in.Thresholds.EndHour {
		return &types.GateRejectedError{
			Check:  types.CheckTradingWindow,
			Reason: types.RejectTradingHourClosed,
			Value:  big.NewInt(int64(hour)),
			Limit:  big.NewInt(int64(in.Thresholds.EndHour)),
		}
	}

	return nil
}

// checkLiquidityImpact rejects exact-input trades whose input amount exceeds
// the configured fraction of the pool's liquidity.
//
// Exact-output trades skip this check entirely: the input amount is unknown
// until the venue prices the trade, so there is nothing to compare against
// the pool depth here. This is a known coverage asymmetry, kept as-is.
// A pool reporting zero liquidity also skips the check rather than locking
// every trade out.
func (p *Pipeline) checkLiquidityImpact(_ context.Context, in Input) error {
	input := in.Request.InputAmount()
	if input == nil {
		return nil
	}

	liquidity := in.Pool.Liquidity
	if liquidity == nil || liquidity.Sign() == 0 {
		return nil
	}

	allowed := new(big.Int).Mul(liquidity, big.NewInt(in.Thresholds.MaxImpactBps))
	allowed.Quo(allowed, big.NewInt(10000))

	if input.Cmp(allowed) > 0 {
		return &types.GateRejectedError{
			Check:  types.CheckLiquidityImpact,
			Reason: types.RejectLiquidityImpact,
			Value:  input,
			Limit:  allowed,
		}
	}

	return nil
}

// checkPriceDeviation compares the venue's instantaneous price against the
// oracle's, both normalized to an output-per-input ratio scaled by 1e18, and
// rejects when the absolute relative deviation in basis points exceeds the
// ceiling. A stale or non-positive oracle price rejects outright.
func (p *Pipeline) checkPriceDeviation(ctx context.Context, in Input) error {
	quote, err := p.oracleFeed.LatestPrice(ctx)
	if err != nil {
		return fmt.Errorf("fetch oracle price: %w", err)
	}

	if in.Now.Sub(quote.UpdatedAt) > in.Thresholds.OracleStaleness {
		return &types.GateRejectedError{
			Check:  types.CheckPriceDeviation,
			Reason: types.RejectOracleStale,
			Value:  big.NewInt(int64(in.Now.Sub(quote.UpdatedAt).Seconds())),
			Limit:  big.NewInt(int64(in.Thresholds.OracleStaleness.Seconds())),
		}
	}

	oracleRatio := quote.Ratio1e18()
	if oracleRatio == nil || oracleRatio.Sign() <= 0 {
		return &types.GateRejectedError{
			Check:  types.CheckPriceDeviation,
			Reason: types.RejectOracleInvalid,
		}
	}

	_, _, swapped := types.CanonicalPair(in.Request.InputAsset, in.Request.OutputAsset)
	venueRatio := in.Pool.PriceRatio1e18(!swapped)
	if venueRatio.Sign() <= 0 {
		return &types.GateRejectedError{
			Check:  types.CheckPriceDeviation,
			Reason: types.RejectPriceDeviation,
		}
	}

	// |venue - oracle| * 10000 / oracle, against the oracle as baseline.
	diff := new(big.Int).Sub(venueRatio, oracleRatio)
	diff.Abs(diff)
	deviationBps := diff.Mul(diff, big.NewInt(10000))
	deviationBps.Quo(deviationBps, oracleRatio)

	if deviationBps.Cmp(big.NewInt(in.Thresholds.MaxDeviationBps)) > 0 {
		return &types.GateRejectedError{
			Check:  types.CheckPriceDeviation,
			Reason: types.RejectPriceDeviation,
			Value:  deviationBps,
			Limit:  big.NewInt(in.Thresholds.MaxDeviationBps),
		}
	}

	return nil
}

// checkProofCondition decodes the auxiliary payload, verifies the proof
// against the configured circuit and bounds the attested volatility. Decode
// failures surface as MalformedPayload, distinct from an invalid proof.
func (p *Pipeline) checkProofCondition(ctx context.Context, in Input) error {
	proof, publicInputs, err := codec.DecodeAuxPayload(in.Request.AuxPayload)
	if err != nil {
		return err
	}

	valid, err := p.verifier.Verify(ctx, p.circuitID, proof, publicInputs)
	if err != nil {
		return fmt.Errorf("verify proof: %w", err)
	}
	if !valid {
		return &types.GateRejectedError{
			Check:  types.CheckProofCondition,
			Reason: types.RejectProofInvalid,
		}
	}

	facts, err := codec.DecodeAttestedFacts(publicInputs)
	if err != nil {
		return err
	}

	if facts.VolatilityBps > uint64(in.Thresholds.MaxVolatilityBps) {
		return &types.GateRejectedError{
			Check:  types.CheckProofCondition,
			Reason: types.RejectVolatilityCeiling,
			Value:  new(big.Int).SetUint64(facts.VolatilityBps),
			Limit:  big.NewInt(in.Thresholds.MaxVolatilityBps),
		}
	}

	return nil
}
