package types

import (
	"fmt"
	"math/big"
	"time"
)

// TradeRequest describes a trade the operator wants executed through the
// gated settlement path.
type TradeRequest struct {
	InputAsset  AssetID
	OutputAsset AssetID

	// Amount is signed: positive sells exactly Amount of the input asset,
	// negative buys exactly -Amount of the output asset.
	Amount *big.Int

	// MaxInput bounds how much input the operator is willing to spend on an
	// exact-output trade. Ignored for exact-input trades.
	MaxInput *big.Int

	// PriceLimit1e18 is the worst acceptable output-per-input ratio,
	// scaled by 1e18. Zero disables the limit.
	PriceLimit1e18 *big.Int

	FeeBps      uint32
	TickSpacing int32

	// AuxPayload carries the proof blob and public inputs through the gate.
	// Opaque here; decoded only by the proof-condition check.
	AuxPayload []byte
}

// Validate checks the structural invariants of the request.
func (r *TradeRequest) Validate() error {
	if r.InputAsset == r.OutputAsset {
		return fmt.Errorf("input and output assets must differ")
	}
	if r.Amount == nil || r.Amount.Sign() == 0 {
		return fmt.Errorf("amount must be non-zero")
	}
	if r.ExactOutput() && (r.MaxInput == nil || r.MaxInput.Sign() <= 0) {
		return fmt.Errorf("exact-output trade requires a positive max input")
	}
	return nil
}

// ExactInput reports whether the request sells an exact input amount.
func (r *TradeRequest) ExactInput() bool {
	return r.Amount != nil && r.Amount.Sign() > 0
}

// ExactOutput reports whether the request buys an exact output amount.
func (r *TradeRequest) ExactOutput() bool {
	return r.Amount != nil && r.Amount.Sign() < 0
}

// InputAmount returns the positive exact input amount, or nil for
// exact-output requests.
func (r *TradeRequest) InputAmount() *big.Int {
	if !r.ExactInput() {
		return nil
	}
	return new(big.Int).Set(r.Amount)
}

// MarketKeyOf derives the market key the request targets.
func (r *TradeRequest) MarketKeyOf() MarketKey {
	return ComputeMarketKey(r.InputAsset, r.OutputAsset, r.FeeBps, r.TickSpacing)
}

// SettlementDeltas are the net balance changes owed between the initiator and
// the venue after execution, oriented to the trade (not canonical ordering).
// Negative means owed to the venue, positive means owed by the venue.
type SettlementDeltas struct {
	Input  *big.Int
	Output *big.Int
}

// AttestedFacts is the fixed-shape record the caller claims is proven by the
// accompanying proof blob.
type AttestedFacts struct {
	// VolatilityBps is the attested historical volatility in basis points.
	VolatilityBps uint64

	// ObservedAt is the unix timestamp the attestation refers to.
	ObservedAt uint64
}

// ExecutionOutcome classifies how an execution attempt ended.
type ExecutionOutcome string

const (
	OutcomeSettled      ExecutionOutcome = "settled"
	OutcomeGateRejected ExecutionOutcome = "gate_rejected"
	OutcomeVenueFailed  ExecutionOutcome = "venue_failed"
	OutcomeRejected     ExecutionOutcome = "rejected"
)

// ExecutionRecord is the audit record persisted for every execution attempt.
type ExecutionRecord struct {
	ID          string
	MarketKey   MarketKey
	InputAsset  AssetID
	OutputAsset AssetID
	Amount      *big.Int
	Outcome     ExecutionOutcome
	Reason      string
	InputPaid   *big.Int
	OutputRecv  *big.Int
	StartedAt   time.Time
	FinishedAt  time.Time
}
