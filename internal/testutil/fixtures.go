// Package testutil provides shared fixtures and mocks for tests.
package testutil

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/swapgate/internal/admin"
	"github.com/mselser95/swapgate/pkg/codec"
	"github.com/mselser95/swapgate/pkg/types"
)

// Well-known test identities.
var (
	Operator = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	Admin    = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	VenueID  = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	Stranger = common.HexToAddress("0x00000000000000000000000000000000000000ff")

	AssetIn  = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	AssetOut = common.HexToAddress("0x0000000000000000000000000000000000000b22")

	CircuitID = common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000000c1")
)

// SqrtPriceOne is the Q64.96 sqrt price of a 1:1 pool (2^96).
var SqrtPriceOne = new(big.Int).Lsh(big.NewInt(1), 96)

// OpenThresholds returns thresholds that pass every check for reasonable
// trades: full-day window on all days, permissive ceilings.
func OpenThresholds() admin.Thresholds {
	return admin.Thresholds{
		StartHour: 0,
		EndHour:   24,
		TradingDays: map[time.Weekday]bool{
			time.Sunday:    true,
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
			time.Saturday:  true,
		},
		MaxImpactBps:     500,
		MaxDeviationBps:  200,
		MaxVolatilityBps: 1000,
		OracleStaleness:  time.Hour,
	}
}

// Pool returns a pool at the given sqrt price with the given liquidity.
func Pool(sqrtPrice, liquidity *big.Int) types.PoolState {
	return types.PoolState{
		SqrtPriceX96: new(big.Int).Set(sqrtPrice),
		Liquidity:    new(big.Int).Set(liquidity),
	}
}

// ExactInputRequest builds a payload-carrying exact-input trade request.
func ExactInputRequest(t *testing.T, amount int64, volatilityBps uint64) *types.TradeRequest {
	t.Helper()
	return &types.TradeRequest{
		InputAsset:  AssetIn,
		OutputAsset: AssetOut,
		Amount:      big.NewInt(amount),
		FeeBps:      30,
		TickSpacing: 60,
		AuxPayload:  Payload(t, volatilityBps),
	}
}

// ExactOutputRequest builds an exact-output trade request bounded by maxInput.
func ExactOutputRequest(t *testing.T, amount, maxInput int64, volatilityBps uint64) *types.TradeRequest {
	t.Helper()
	return &types.TradeRequest{
		InputAsset:  AssetIn,
		OutputAsset: AssetOut,
		Amount:      big.NewInt(-amount),
		MaxInput:    big.NewInt(maxInput),
		FeeBps:      30,
		TickSpacing: 60,
		AuxPayload:  Payload(t, volatilityBps),
	}
}

// Payload encodes a canonical aux payload attesting the given volatility.
func Payload(t *testing.T, volatilityBps uint64) []byte {
	t.Helper()

	facts, err := codec.EncodeAttestedFacts(types.AttestedFacts{
		VolatilityBps: volatilityBps,
		ObservedAt:    uint64(time.Now().Unix()),
	})
	if err != nil {
		t.Fatalf("encode attested facts: %v", err)
	}

	payload, err := codec.EncodeAuxPayload([]byte{0xde, 0xad}, facts)
	if err != nil {
		t.Fatalf("encode aux payload: %v", err)
	}

	return payload
}
