package venue

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/swapgate/internal/admin"
	"github.com/mselser95/swapgate/internal/bank"
	"github.com/mselser95/swapgate/internal/gate"
	"github.com/mselser95/swapgate/pkg/types"
	"go.uber.org/zap"
)

// SimVenue is an in-memory liquidity venue used in paper mode and tests. It
// quotes trades at the pool's instantaneous price with a flat fee, runs the
// validation pipeline as a mandatory precondition, and settles through the
// shared bank.
type SimVenue struct {
	identity   common.Address
	pipeline   *gate.Pipeline
	thresholds *admin.Store
	ledger     *bank.Bank
	logger     *zap.Logger
	clock      func() time.Time

	mu    sync.RWMutex
	pools map[types.MarketKey]types.PoolState

	settler       Settler
	engineAccount common.Address
}

// SimConfig holds simulated venue configuration.
type SimConfig struct {
	Identity   common.Address
	Pipeline   *gate.Pipeline
	Thresholds *admin.Store
	Bank       *bank.Bank
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewSim creates a simulated venue.
func NewSim(cfg *SimConfig) (*SimVenue, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("pipeline cannot be nil")
	}
	if cfg.Thresholds == nil {
		return nil, fmt.Errorf("thresholds cannot be nil")
	}
	if cfg.Bank == nil {
		return nil, fmt.Errorf("bank cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &SimVenue{
		identity:   cfg.Identity,
		pipeline:   cfg.Pipeline,
		thresholds: cfg.Thresholds,
		ledger:     cfg.Bank,
		logger:     cfg.Logger,
		clock:      clock,
		pools:      make(map[types.MarketKey]types.PoolState),
	}, nil
}

// Bind wires the settlement engine in after construction. The venue pays
// positive deltas into engineAccount and collects negative deltas through
// the settler callback.
func (v *SimVenue) Bind(settler Settler, engineAccount common.Address) {
	v.settler = settler
	v.engineAccount = engineAccount
}

// Identity returns the venue's address.
func (v *SimVenue) Identity() common.Address { return v.identity }

// SetPool installs or replaces pool state for a market.
func (v *SimVenue) SetPool(market types.MarketKey, state types.PoolState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pools[market] = state
}

// State returns the pool state for a market.
func (v *SimVenue) State(market types.MarketKey) (types.PoolState, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	state, ok := v.pools[market]
	return state, ok
}

// ExecuteAndSettle gates and executes one trade. Any gate rejection aborts
// before deltas are computed; the settlement callback fires exactly once and
// only after approval.
func (v *SimVenue) ExecuteAndSettle(ctx context.Context, executionID string, req *types.TradeRequest) (types.SettlementDeltas, error) {
	if v.settler == nil {
		return types.SettlementDeltas{}, fmt.Errorf("venue not bound to a settler")
	}

	market := req.MarketKeyOf()
	pool, ok := v.State(market)
	if !ok {
		return types.SettlementDeltas{}, fmt.Errorf("unknown market %s", market.Hex())
	}

	// Mandatory precondition: the gate must approve before anything moves.
	err := v.pipeline.Evaluate(ctx, gate.Input{
		Request:    req,
		Pool:       pool,
		Now:        v.clock(),
		Thresholds: v.thresholds.Snapshot(),
	})
	if err != nil {
		return types.SettlementDeltas{}, err
	}

	deltas, err := v.price(req, pool)
	if err != nil {
		return types.SettlementDeltas{}, err
	}

	// Collect the owed input mid-execution.
	err = v.settler.SettleCallback(executionID, v.identity, deltas)
	if err != nil {
		return types.SettlementDeltas{}, fmt.Errorf("settlement callback: %w", err)
	}

	// Deliver the owed output as part of returning.
	if deltas.Output.Sign() > 0 {
		err = v.ledger.Transfer(v.identity, v.engineAccount, req.OutputAsset, deltas.Output)
		if err != nil {
			return types.SettlementDeltas{}, fmt.Errorf("deliver output: %w", err)
		}
	}

	v.logger.Info("venue-executed",
		zap.String("execution-id", executionID),
		zap.String("market", market.Hex()),
		zap.String("input-delta", deltas.Input.String()),
		zap.String("output-delta", deltas.Output.String()))

	return deltas, nil
}

// price computes the settlement deltas for the request at the pool's
// instantaneous price with the market's fee applied, enforcing the request's
// price limit.
func (v *SimVenue) price(req *types.TradeRequest, pool types.PoolState) (types.SettlementDeltas, error) {
	_, _, swapped := types.CanonicalPair(req.InputAsset, req.OutputAsset)
	ratio := pool.PriceRatio1e18(!swapped)
	if ratio.Sign() <= 0 {
		return types.SettlementDeltas{}, fmt.Errorf("pool has no price")
	}

	feeNum := big.NewInt(10000 - int64(req.FeeBps))
	feeDen := big.NewInt(10000)

	var in, out *big.Int
	if req.ExactInput() {
		in = new(big.Int).Set(req.Amount)
		out = new(big.Int).Mul(in, ratio)
		out.Quo(out, big.NewInt(1e18))
		out.Mul(out, feeNum)
		out.Quo(out, feeDen)
	} else {
		out = new(big.Int).Neg(req.Amount)
		in = new(big.Int).Mul(out, big.NewInt(1e18))
		in.Quo(in, ratio)
		// Gross up for the fee, rounding against the trader.
		in.Mul(in, feeDen)
		in.Add(in, new(big.Int).Sub(feeNum, big.NewInt(1)))
		in.Quo(in, feeNum)

		if req.MaxInput != nil && in.Cmp(req.MaxInput) > 0 {
			return types.SettlementDeltas{}, fmt.Errorf("required input %s exceeds max input %s", in, req.MaxInput)
		}
	}

	if in.Sign() <= 0 || out.Sign() <= 0 {
		return types.SettlementDeltas{}, fmt.Errorf("trade too small to price")
	}

	// Effective output-per-input must not fall below the price limit.
	if req.PriceLimit1e18 != nil && req.PriceLimit1e18.Sign() > 0 {
		effective := new(big.Int).Mul(out, big.NewInt(1e18))
		effective.Quo(effective, in)
		if effective.Cmp(req.PriceLimit1e18) < 0 {
			return types.SettlementDeltas{}, fmt.Errorf("effective price %s below limit %s", effective, req.PriceLimit1e18)
		}
	}

	return types.SettlementDeltas{
		Input:  new(big.Int).Neg(in),
		Output: out,
	}, nil
}
