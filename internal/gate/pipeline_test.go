package gate_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/mselser95/swapgate/internal/gate"
	"github.com/mselser95/swapgate/internal/oracle"
	"github.com/mselser95/swapgate/internal/testutil"
	"github.com/mselser95/swapgate/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestPipeline(t *testing.T, quote oracle.Quote, verifier *testutil.MockVerifier) *gate.Pipeline {
	t.Helper()

	p, err := gate.New(&gate.Config{
		Oracle:    oracle.NewFixed(quote),
		Verifier:  verifier,
		CircuitID: testutil.CircuitID,
		Logger:    zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	return p
}

func freshQuote(price *big.Int, now time.Time) oracle.Quote {
	return oracle.Quote{
		Price:     price,
		Decimals:  18,
		UpdatedAt: now,
	}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := gate.New(nil)
	require.Error(t, err)

	_, err = gate.New(&gate.Config{
		Verifier: &testutil.MockVerifier{Valid: true},
		Logger:   zaptest.NewLogger(t),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestEvaluateApproves(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC) // Wednesday
	verifier := &testutil.MockVerifier{Valid: true}
	p := newTestPipeline(t, freshQuote(big.NewInt(1e18), now), verifier)

	err := p.Evaluate(context.Background(), gate.Input{
		Request:    testutil.ExactInputRequest(t, 1_000, 500),
		Pool:       testutil.Pool(testutil.SqrtPriceOne, big.NewInt(1_000_000)),
		Now:        now,
		Thresholds: testutil.OpenThresholds(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, verifier.CallCount())
	assert.Equal(t, testutil.CircuitID, verifier.LastCID)
}

func TestEvaluateTradingWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		now        time.Time
		startHour  int
		endHour    int
		days       []time.Weekday
		wantReason types.RejectReason
	}{
		{
			name:       "closed day rejects",
			now:        time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC), // Saturday
			startHour:  0,
			endHour:    24,
			days:       []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
			wantReason: types.RejectTradingDayClosed,
		},
		{
			name:       "before open rejects",
			now:        time.Date(2026, 3, 4, 7, 59, 0, 0, time.UTC),
			startHour:  8,
			endHour:    17,
			days:       []time.Weekday{time.Wednesday},
			wantReason: types.RejectTradingHourClosed,
		},
		{
			name:       "end hour is exclusive",
			now:        time.Date(2026, 3, 4, 17, 0, 0, 0, time.UTC),
			startHour:  8,
			endHour:    17,
			days:       []time.Weekday{time.Wednesday},
			wantReason: types.RejectTradingHourClosed,
		},
		{
			name:      "inside window passes",
			now:       time.Date(2026, 3, 4, 16, 59, 0, 0, time.UTC),
			startHour: 8,
			endHour:   17,
			days:      []time.Weekday{time.Wednesday},
		},
		{
			name:      "full day window ignores hour",
			now:       time.Date(2026, 3, 4, 3, 0, 0, 0, time.UTC),
			startHour: 0,
			endHour:   24,
			days:      []time.Weekday{time.Wednesday},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verifier := &testutil.MockVerifier{Valid: true}
			p := newTestPipeline(t, freshQuote(big.NewInt(1e18), tt.now), verifier)

			thresholds := testutil.OpenThresholds()
			thresholds.StartHour = tt.startHour
			thresholds.EndHour = tt.endHour
			thresholds.TradingDays = map[time.Weekday]bool{}
			for _, d := range tt.days {
				thresholds.TradingDays[d] = true
			}

			err := p.Evaluate(context.Background(), gate.Input{
				Request:    testutil.ExactInputRequest(t, 1_000, 500),
				Pool:       testutil.Pool(testutil.SqrtPriceOne, big.NewInt(1_000_000)),
				Now:        tt.now,
				Thresholds: thresholds,
			})

			if tt.wantReason == "" {
				require.NoError(t, err)
				return
			}

			var rejected *types.GateRejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, types.CheckTradingWindow, rejected.Check)
			assert.Equal(t, tt.wantReason, rejected.Reason)
			assert.Zero(t, verifier.CallCount(), "rejected trade must not reach the prover")
		})
	}
}

func TestEvaluateLiquidityImpact(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		request    *types.TradeRequest
		liquidity  int64
		wantReject bool
	}{
		{
			name:      "at the ceiling passes",
			request:   testutil.ExactInputRequest(t, 50_000, 500), // exactly 5% of 1M
			liquidity: 1_000_000,
		},
		{
			name:       "over the ceiling rejects",
			request:    testutil.ExactInputRequest(t, 50_001, 500),
			liquidity:  1_000_000,
			wantReject: true,
		},
		{
			name:      "exact output skips the check",
			request:   testutil.ExactOutputRequest(t, 900_000, 2_000_000, 500),
			liquidity: 1_000_000,
		},
		{
			name:      "zero liquidity skips the check",
			request:   testutil.ExactInputRequest(t, 900_000, 500),
			liquidity: 0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verifier := &testutil.MockVerifier{Valid: true}
			p := newTestPipeline(t, freshQuote(big.NewInt(1e18), now), verifier)

			err := p.Evaluate(context.Background(), gate.Input{
				Request:    tt.request,
				Pool:       testutil.Pool(testutil.SqrtPriceOne, big.NewInt(tt.liquidity)),
				Now:        now,
				Thresholds: testutil.OpenThresholds(),
			})

			if !tt.wantReject {
				require.NoError(t, err)
				return
			}

			var rejected *types.GateRejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, types.CheckLiquidityImpact, rejected.Check)
			assert.Equal(t, types.RejectLiquidityImpact, rejected.Reason)
			assert.Equal(t, int64(50_000), rejected.Limit.Int64())
			assert.Zero(t, verifier.CallCount())
		})
	}
}

func TestEvaluatePriceDeviation(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		quote      oracle.Quote
		wantReason types.RejectReason
	}{
		{
			name:  "small deviation passes",
			quote: freshQuote(big.NewInt(1_010_000_000_000_000_000), now), // 99 bps off
		},
		{
			name:       "large deviation rejects",
			quote:      freshQuote(big.NewInt(1_030_000_000_000_000_000), now), // 291 bps off
			wantReason: types.RejectPriceDeviation,
		},
		{
			name:       "stale quote rejects",
			quote:      freshQuote(big.NewInt(1e18), now.Add(-2*time.Hour)),
			wantReason: types.RejectOracleStale,
		},
		{
			name:       "zero price rejects",
			quote:      freshQuote(big.NewInt(0), now),
			wantReason: types.RejectOracleInvalid,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verifier := &testutil.MockVerifier{Valid: true}
			p := newTestPipeline(t, tt.quote, verifier)

			err := p.Evaluate(context.Background(), gate.Input{
				Request:    testutil.ExactInputRequest(t, 1_000, 500),
				Pool:       testutil.Pool(testutil.SqrtPriceOne, big.NewInt(1_000_000)),
				Now:        now,
				Thresholds: testutil.OpenThresholds(),
			})

			if tt.wantReason == "" {
				require.NoError(t, err)
				return
			}

			var rejected *types.GateRejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, types.CheckPriceDeviation, rejected.Check)
			assert.Equal(t, tt.wantReason, rejected.Reason)
			assert.Zero(t, verifier.CallCount(), "price rejection must not reach the prover")
		})
	}
}

func TestEvaluateInvertedOracle(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	verifier := &testutil.MockVerifier{Valid: true}

	// A 1:1 inverted quote still normalizes to an output-per-input ratio
	// of 1e18, so the pass succeeds against a 1:1 pool.
	quote := freshQuote(big.NewInt(1e18), now)
	quote.Inverted = true
	p := newTestPipeline(t, quote, verifier)

	err := p.Evaluate(context.Background(), gate.Input{
		Request:    testutil.ExactInputRequest(t, 1_000, 500),
		Pool:       testutil.Pool(testutil.SqrtPriceOne, big.NewInt(1_000_000)),
		Now:        now,
		Thresholds: testutil.OpenThresholds(),
	})
	require.NoError(t, err)
}

func TestEvaluateProofCondition(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	t.Run("invalid proof rejects", func(t *testing.T) {
		t.Parallel()

		verifier := &testutil.MockVerifier{Valid: false}
		p := newTestPipeline(t, freshQuote(big.NewInt(1e18), now), verifier)

		err := p.Evaluate(context.Background(), gate.Input{
			Request:    testutil.ExactInputRequest(t, 1_000, 500),
			Pool:       testutil.Pool(testutil.SqrtPriceOne, big.NewInt(1_000_000)),
			Now:        now,
			Thresholds: testutil.OpenThresholds(),
		})

		var rejected *types.GateRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, types.RejectProofInvalid, rejected.Reason)
	})

	t.Run("verifier error propagates", func(t *testing.T) {
		t.Parallel()

		verifier := &testutil.MockVerifier{Err: errors.New("prover down")}
		p := newTestPipeline(t, freshQuote(big.NewInt(1e18), now), verifier)

		err := p.Evaluate(context.Background(), gate.Input{
			Request:    testutil.ExactInputRequest(t, 1_000, 500),
			Pool:       testutil.Pool(testutil.SqrtPriceOne, big.NewInt(1_000_000)),
			Now:        now,
			Thresholds: testutil.OpenThresholds(),
		})
		require.Error(t, err)

		var rejected *types.GateRejectedError
		assert.False(t, errors.As(err, &rejected), "transport failure is not a gate verdict")
	})

	t.Run("volatility over ceiling rejects", func(t *testing.T) {
		t.Parallel()

		verifier := &testutil.MockVerifier{Valid: true}
		p := newTestPipeline(t, freshQuote(big.NewInt(1e18), now), verifier)

		err := p.Evaluate(context.Background(), gate.Input{
			Request:    testutil.ExactInputRequest(t, 1_000, 1_001),
			Pool:       testutil.Pool(testutil.SqrtPriceOne, big.NewInt(1_000_000)),
			Now:        now,
			Thresholds: testutil.OpenThresholds(),
		})

		var rejected *types.GateRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, types.CheckProofCondition, rejected.Check)
		assert.Equal(t, types.RejectVolatilityCeiling, rejected.Reason)
		assert.Equal(t, uint64(1_001), rejected.Value.Uint64())
	})

	t.Run("malformed payload rejects before verification", func(t *testing.T) {
		t.Parallel()

		verifier := &testutil.MockVerifier{Valid: true}
		p := newTestPipeline(t, freshQuote(big.NewInt(1e18), now), verifier)

		req := testutil.ExactInputRequest(t, 1_000, 500)
		req.AuxPayload = []byte{0x01, 0x02, 0x03}

		err := p.Evaluate(context.Background(), gate.Input{
			Request:    req,
			Pool:       testutil.Pool(testutil.SqrtPriceOne, big.NewInt(1_000_000)),
			Now:        now,
			Thresholds: testutil.OpenThresholds(),
		})

		var malformed *types.MalformedPayloadError
		require.ErrorAs(t, err, &malformed)
		assert.Zero(t, verifier.CallCount())
	})
}

func TestEvaluateRepeatable(t *testing.T) {
	t.Parallel()

	// A rejected pass leaves no state behind; re-evaluating the same input
	// yields the same verdict.
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	verifier := &testutil.MockVerifier{Valid: true}
	p := newTestPipeline(t, freshQuote(big.NewInt(1e18), now.Add(-2*time.Hour)), verifier)

	in := gate.Input{
		Request:    testutil.ExactInputRequest(t, 1_000, 500),
		Pool:       testutil.Pool(testutil.SqrtPriceOne, big.NewInt(1_000_000)),
		Now:        now,
		Thresholds: testutil.OpenThresholds(),
	}

	for i := 0; i < 3; i++ {
		err := p.Evaluate(context.Background(), in)
		var rejected *types.GateRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, types.RejectOracleStale, rejected.Reason)
	}
	assert.Zero(t, verifier.CallCount())
}
