package types

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Check identifies one of the gate's validation checks.
type Check string

const (
	CheckTradingWindow   Check = "trading_window"
	CheckLiquidityImpact Check = "liquidity_impact"
	CheckPriceDeviation  Check = "price_deviation"
	CheckProofCondition  Check = "proof_condition"
)

// RejectReason distinguishes why a check rejected a trade.
type RejectReason string

const (
	RejectTradingHourClosed RejectReason = "trading_hour_closed"
	RejectTradingDayClosed  RejectReason = "trading_day_closed"
	RejectLiquidityImpact   RejectReason = "liquidity_impact"
	RejectOracleStale       RejectReason = "oracle_stale"
	RejectOracleInvalid     RejectReason = "oracle_invalid"
	RejectPriceDeviation    RejectReason = "price_deviation"
	RejectProofInvalid      RejectReason = "proof_invalid"
	RejectVolatilityCeiling RejectReason = "volatility_ceiling"
)

// GateRejectedError is returned when one of the four gate checks fails.
// Value and Limit carry the offending quantity and its configured ceiling
// when the rejection is threshold-based; both may be nil.
type GateRejectedError struct {
	Check  Check
	Reason RejectReason
	Value  *big.Int
	Limit  *big.Int
}

func (e *GateRejectedError) Error() string {
	if e.Value != nil && e.Limit != nil {
		return fmt.Sprintf("gate rejected: %s (%s): %s exceeds %s", e.Check, e.Reason, e.Value, e.Limit)
	}
	return fmt.Sprintf("gate rejected: %s (%s)", e.Check, e.Reason)
}

// MalformedPayloadError is returned when the auxiliary payload or the
// public-input blob cannot be decoded to its expected shape. Treated as a
// caller bug, never retried.
type MalformedPayloadError struct {
	Stage string // which decode boundary failed
	Err   error
}

func (e *MalformedPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed payload at %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("malformed payload at %s", e.Stage)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

// VenueExecutionError is returned when the venue rejected the trade after the
// gate passed (slippage limit, pricing failure). Triggers a full rollback.
type VenueExecutionError struct {
	Err error
}

func (e *VenueExecutionError) Error() string {
	return fmt.Sprintf("venue execution failed: %v", e.Err)
}

func (e *VenueExecutionError) Unwrap() error { return e.Err }

// AuthorizationError is returned when a caller is not the identity an
// operation requires. Fatal, no retry.
type AuthorizationError struct {
	Op       string
	Caller   common.Address
	Expected common.Address
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: caller %s is not %s", e.Op, e.Caller.Hex(), e.Expected.Hex())
}

// ErrReentrancy is returned for any attempt to begin an execution while one
// is already in flight, including the venue callback calling back in.
var ErrReentrancy = errors.New("execution already in flight")

// ErrNoCustodyEntry is returned by the settlement callback when no custody
// ledger entry exists for the execution it names.
var ErrNoCustodyEntry = errors.New("no custody entry for execution")

// RejectionKind maps an error from the execution path onto the coarse
// taxonomy automated callers branch on.
func RejectionKind(err error) string {
	var gate *GateRejectedError
	var payload *MalformedPayloadError
	var venue *VenueExecutionError
	var auth *AuthorizationError

	switch {
	case errors.As(err, &payload):
		return "malformed_payload"
	case errors.As(err, &gate):
		return "gate_rejected"
	case errors.As(err, &venue):
		return "venue_failed"
	case errors.As(err, &auth):
		return "authorization_failed"
	case errors.Is(err, ErrReentrancy):
		return "reentrancy_rejected"
	default:
		return "error"
	}
}
