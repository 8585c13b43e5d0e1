// Package settlement implements the engine that custodies funds around a
// single venue execution: it pulls the input asset, invokes the venue,
// services the venue's mid-execution funds callback, and reconciles balances
// afterwards, rolling everything back on failure.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/mselser95/swapgate/internal/bank"
	"github.com/mselser95/swapgate/internal/venue"
	"github.com/mselser95/swapgate/pkg/types"
	"go.uber.org/zap"
)

// State is the engine's per-execution state.
type State string

const (
	StateIdle             State = "idle"
	StateFundsPulled      State = "funds_pulled"
	StateVenueInvoked     State = "venue_invoked"
	StateCallbackServiced State = "callback_serviced"
	StateSettled          State = "settled"
	StateAborted          State = "aborted"
)

// Storage is the interface for persisting execution records.
type Storage interface {
	StoreExecution(ctx context.Context, record *types.ExecutionRecord) error
	Close() error
}

// Breaker gates new executions on recent venue health. A nil breaker
// allows everything.
type Breaker interface {
	Allow() bool
	RecordFailure()
	RecordSuccess()
}

// ErrHalted is returned when the breaker is open and refuses new work.
var ErrHalted = errors.New("execution halted: breaker open")

// custodyEntry records which party pays the venue for one in-flight
// execution. Created when the execution begins, consulted exactly once by
// the callback, and never survives the execution either way.
type custodyEntry struct {
	executionID string
	payer       common.Address
	inputAsset  types.AssetID
	outputAsset types.AssetID
	serviced    bool
}

// Engine orchestrates gated trade execution against the venue.
type Engine struct {
	account  common.Address // custody account in the bank
	operator common.Address
	market   venue.Venue
	ledger   *bank.Bank
	storage  Storage
	breaker  Breaker
	logger   *zap.Logger
	clock    func() time.Time

	// inFlight is the reentrancy guard. Held for the whole nested chain,
	// including the venue's callback.
	inFlight atomic.Bool

	mu    sync.Mutex
	state State
	entry *custodyEntry
}

// Config holds engine configuration.
type Config struct {
	Account  common.Address
	Operator common.Address
	Venue    venue.Venue
	Bank     *bank.Bank
	Storage  Storage
	Breaker  Breaker // optional
	Logger   *zap.Logger
	Clock    func() time.Time
}

// New creates a settlement engine.
func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Venue == nil {
		return nil, fmt.Errorf("venue cannot be nil")
	}
	if cfg.Bank == nil {
		return nil, fmt.Errorf("bank cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.Account == cfg.Operator {
		return nil, fmt.Errorf("engine account must differ from operator")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Engine{
		account:  cfg.Account,
		operator: cfg.Operator,
		market:   cfg.Venue,
		ledger:   cfg.Bank,
		storage:  cfg.Storage,
		breaker:  cfg.Breaker,
		logger:   cfg.Logger,
		clock:    clock,
		state:    StateIdle,
	}, nil
}

// Account returns the engine's custody account.
func (e *Engine) Account() common.Address { return e.account }

// CurrentState returns the engine's execution state for status reporting.
func (e *Engine) CurrentState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Execute runs one gated trade end to end. Only the authorized operator may
// call it, and only while no other execution is in flight. On any failure the
// operator's pulled funds are returned in full.
func (e *Engine) Execute(ctx context.Context, caller common.Address, req *types.TradeRequest) (*types.ExecutionRecord, error) {
	if caller != e.operator {
		return nil, &types.AuthorizationError{Op: "execute", Caller: caller, Expected: e.operator}
	}

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trade request: %w", err)
	}

	if e.breaker != nil && !e.breaker.Allow() {
		HaltedRejectionsTotal.Inc()
		return nil, ErrHalted
	}

	if !e.inFlight.CompareAndSwap(false, true) {
		ReentrancyRejectionsTotal.Inc()
		return nil, types.ErrReentrancy
	}
	defer e.inFlight.Store(false)

	start := e.clock()
	defer func() {
		ExecutionDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	executionID := uuid.NewString()
	record := &types.ExecutionRecord{
		ID:          executionID,
		MarketKey:   req.MarketKeyOf(),
		InputAsset:  req.InputAsset,
		OutputAsset: req.OutputAsset,
		Amount:      new(big.Int).Set(req.Amount),
		StartedAt:   start,
	}

	err := e.run(ctx, executionID, req, record)

	record.FinishedAt = e.clock()
	e.persist(ctx, record)
	ExecutionsTotal.WithLabelValues(string(record.Outcome)).Inc()
	e.reportOutcome(record.Outcome)

	if err != nil {
		return nil, err
	}
	return record, nil
}

// run performs the custody sequence. The caller holds the reentrancy guard.
func (e *Engine) run(ctx context.Context, executionID string, req *types.TradeRequest, record *types.ExecutionRecord) error {
	// Pull the input into custody: the exact input, or the operator's
	// spending bound for exact-output trades.
	pull := req.InputAmount()
	if pull == nil {
		pull = new(big.Int).Set(req.MaxInput)
	}

	err := e.ledger.Transfer(e.operator, e.account, req.InputAsset, pull)
	if err != nil {
		record.Outcome = types.OutcomeRejected
		record.Reason = err.Error()
		return fmt.Errorf("pull input funds: %w", err)
	}
	e.setState(StateFundsPulled)

	e.mu.Lock()
	e.entry = &custodyEntry{
		executionID: executionID,
		payer:       e.account,
		inputAsset:  req.InputAsset,
		outputAsset: req.OutputAsset,
	}
	e.mu.Unlock()

	e.setState(StateVenueInvoked)
	deltas, err := e.market.ExecuteAndSettle(ctx, executionID, req)
	if err != nil {
		e.abort(req, record, err)
		return classifyVenueError(err)
	}

	// Forward the output and refund any unspent input.
	outBal := e.ledger.BalanceOf(e.account, req.OutputAsset)
	if outBal.Sign() > 0 {
		err = e.ledger.Transfer(e.account, e.operator, req.OutputAsset, outBal)
		if err != nil {
			e.abort(req, record, err)
			return &types.VenueExecutionError{Err: fmt.Errorf("forward output: %w", err)}
		}
	}

	residual := e.ledger.BalanceOf(e.account, req.InputAsset)
	if residual.Sign() > 0 {
		err = e.ledger.Transfer(e.account, e.operator, req.InputAsset, residual)
		if err != nil {
			e.abort(req, record, err)
			return &types.VenueExecutionError{Err: fmt.Errorf("refund residual input: %w", err)}
		}
	}

	e.clearEntry()
	e.setState(StateSettled)
	defer e.setState(StateIdle)

	record.Outcome = types.OutcomeSettled
	record.InputPaid = new(big.Int).Neg(deltas.Input)
	record.OutputRecv = new(big.Int).Set(deltas.Output)

	e.logger.Info("execution-settled",
		zap.String("execution-id", executionID),
		zap.String("input-paid", record.InputPaid.String()),
		zap.String("output-received", record.OutputRecv.String()))

	return nil
}

// SettleCallback services the venue's mid-execution demand for owed funds.
// It may fire at most once per execution, only from the expected venue, and
// only while a matching custody entry exists.
func (e *Engine) SettleCallback(executionID string, caller common.Address, deltas types.SettlementDeltas) error {
	if caller != e.market.Identity() {
		return &types.AuthorizationError{Op: "settle callback", Caller: caller, Expected: e.market.Identity()}
	}

	e.mu.Lock()
	entry := e.entry
	if entry == nil || entry.executionID != executionID {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", types.ErrNoCustodyEntry, executionID)
	}
	if entry.serviced {
		e.mu.Unlock()
		return fmt.Errorf("callback already serviced for execution %s", executionID)
	}
	entry.serviced = true
	e.mu.Unlock()

	// Pay every negative delta from the recorded payer. Positive deltas are
	// delivered by the venue itself on return.
	if deltas.Input != nil && deltas.Input.Sign() < 0 {
		owed := new(big.Int).Neg(deltas.Input)
		err := e.ledger.Transfer(entry.payer, caller, entry.inputAsset, owed)
		if err != nil {
			return fmt.Errorf("pay input delta: %w", err)
		}
	}
	if deltas.Output != nil && deltas.Output.Sign() < 0 {
		owed := new(big.Int).Neg(deltas.Output)
		err := e.ledger.Transfer(entry.payer, caller, entry.outputAsset, owed)
		if err != nil {
			return fmt.Errorf("pay output delta: %w", err)
		}
	}

	e.setState(StateCallbackServiced)
	CallbacksServicedTotal.Inc()

	return nil
}

// abort refunds the entire input balance still in custody and purges the
// custody entry. Every failure path funnels through here so no partial
// custody survives a failed execution.
func (e *Engine) abort(req *types.TradeRequest, record *types.ExecutionRecord, cause error) {
	e.clearEntry()
	e.setState(StateAborted)
	defer e.setState(StateIdle)

	held := e.ledger.BalanceOf(e.account, req.InputAsset)
	if held.Sign() > 0 {
		err := e.ledger.Transfer(e.account, e.operator, req.InputAsset, held)
		if err != nil {
			// The bank is in-process; a refund can only fail if the engine
			// account was drained, which the custody invariants prevent.
			e.logger.Error("refund-failed",
				zap.String("execution-id", record.ID),
				zap.Error(err))
		}
	}

	RollbacksTotal.Inc()
	record.Reason = cause.Error()
	record.Outcome = outcomeFor(cause)

	e.logger.Warn("execution-aborted",
		zap.String("execution-id", record.ID),
		zap.String("outcome", string(record.Outcome)),
		zap.Error(cause))
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) clearEntry() {
	e.mu.Lock()
	e.entry = nil
	e.mu.Unlock()
}

// reportOutcome feeds the breaker, if any. Only venue failures count
// against it; gate rejections and bad requests say nothing about venue
// health.
func (e *Engine) reportOutcome(outcome types.ExecutionOutcome) {
	if e.breaker == nil {
		return
	}
	switch outcome {
	case types.OutcomeVenueFailed:
		e.breaker.RecordFailure()
	case types.OutcomeSettled:
		e.breaker.RecordSuccess()
	}
}

func (e *Engine) persist(ctx context.Context, record *types.ExecutionRecord) {
	if e.storage == nil {
		return
	}
	err := e.storage.StoreExecution(ctx, record)
	if err != nil {
		e.logger.Error("failed-to-store-execution",
			zap.String("execution-id", record.ID),
			zap.Error(err))
	}
}

// classifyVenueError keeps gate rejections and malformed payloads
// distinguishable while folding everything else the venue surfaced into the
// unified venue-failure signal.
func classifyVenueError(err error) error {
	var rejected *types.GateRejectedError
	var malformed *types.MalformedPayloadError
	if errors.As(err, &rejected) || errors.As(err, &malformed) {
		return err
	}
	return &types.VenueExecutionError{Err: err}
}

func outcomeFor(err error) types.ExecutionOutcome {
	var rejected *types.GateRejectedError
	if errors.As(err, &rejected) {
		return types.OutcomeGateRejected
	}
	var malformed *types.MalformedPayloadError
	if errors.As(err, &malformed) {
		return types.OutcomeRejected
	}
	return types.OutcomeVenueFailed
}
