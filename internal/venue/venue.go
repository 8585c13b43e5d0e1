// Package venue defines the liquidity-venue boundary. The venue owns pool
// state and swap pricing; it must obtain the gate's approval before pricing
// a trade and must invoke the settlement callback exactly once per execution
// to collect what it is owed.
package venue

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/swapgate/pkg/types"
)

// Settler is the settlement engine surface the venue calls back into
// mid-execution to collect negative deltas.
type Settler interface {
	SettleCallback(executionID string, caller common.Address, deltas types.SettlementDeltas) error
}

// Venue executes trades against pool state.
type Venue interface {
	// Identity is the address the settlement callback authenticates against.
	Identity() common.Address

	// State returns the pool state for a market.
	State(market types.MarketKey) (types.PoolState, bool)

	// ExecuteAndSettle gates, prices and settles one trade. It invokes the
	// settlement callback to collect owed input before returning, and
	// delivers owed output to the engine as part of returning.
	ExecuteAndSettle(ctx context.Context, executionID string, req *types.TradeRequest) (types.SettlementDeltas, error)
}
