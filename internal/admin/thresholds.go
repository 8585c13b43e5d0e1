// Package admin owns the mutable threshold configuration. Thresholds are
// mutated only through setters restricted to a single administrator identity
// and are read by the gate through immutable snapshots.
package admin

import (
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/swapgate/pkg/types"
	"go.uber.org/zap"
)

// Thresholds is an immutable snapshot of the gate's configured limits.
type Thresholds struct {
	StartHour        int
	EndHour          int
	TradingDays      map[time.Weekday]bool
	MaxImpactBps     int64
	MaxDeviationBps  int64
	MaxVolatilityBps int64
	OracleStaleness  time.Duration
}

// TradesOn reports whether the given weekday is flagged as a trading day.
func (t Thresholds) TradesOn(day time.Weekday) bool {
	return t.TradingDays[day]
}

// FullDayWindow reports whether the hour window covers the whole day, which
// disables the hour check.
func (t Thresholds) FullDayWindow() bool {
	return t.StartHour == 0 && t.EndHour == 24
}

// Store holds the live thresholds and guards mutation behind the admin
// identity. Reads during a trade go through Snapshot so a single gate pass
// never observes a mid-flight mutation.
type Store struct {
	admin  common.Address
	logger *zap.Logger

	mu      sync.RWMutex
	current Thresholds
}

// NewStore creates a threshold store owned by the given administrator.
func NewStore(admin common.Address, initial Thresholds, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if err := validate(initial); err != nil {
		return nil, fmt.Errorf("initial thresholds: %w", err)
	}

	return &Store{
		admin:   admin,
		logger:  logger,
		current: cloneThresholds(initial),
	}, nil
}

// Snapshot returns a copy of the current thresholds for use across one
// gate pass.
func (s *Store) Snapshot() Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneThresholds(s.current)
}

// SetTradingWindow replaces the hour window and day flags.
func (s *Store) SetTradingWindow(caller common.Address, startHour, endHour int, days map[time.Weekday]bool) error {
	return s.update(caller, func(t *Thresholds) {
		t.StartHour = startHour
		t.EndHour = endHour
		t.TradingDays = days
	})
}

// SetMaxImpactBps replaces the liquidity-impact ceiling.
func (s *Store) SetMaxImpactBps(caller common.Address, bps int64) error {
	return s.update(caller, func(t *Thresholds) { t.MaxImpactBps = bps })
}

// SetMaxDeviationBps replaces the price-deviation ceiling.
func (s *Store) SetMaxDeviationBps(caller common.Address, bps int64) error {
	return s.update(caller, func(t *Thresholds) { t.MaxDeviationBps = bps })
}

// SetMaxVolatilityBps replaces the attested-volatility ceiling.
func (s *Store) SetMaxVolatilityBps(caller common.Address, bps int64) error {
	return s.update(caller, func(t *Thresholds) { t.MaxVolatilityBps = bps })
}

// SetOracleStaleness replaces the oracle staleness bound.
func (s *Store) SetOracleStaleness(caller common.Address, bound time.Duration) error {
	return s.update(caller, func(t *Thresholds) { t.OracleStaleness = bound })
}

func (s *Store) update(caller common.Address, apply func(*Thresholds)) error {
	if caller != s.admin {
		return &types.AuthorizationError{Op: "set thresholds", Caller: caller, Expected: s.admin}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneThresholds(s.current)
	apply(&next)
	if err := validate(next); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}

	s.current = next
	s.logger.Info("thresholds-updated",
		zap.Int("start-hour", next.StartHour),
		zap.Int("end-hour", next.EndHour),
		zap.Int64("max-impact-bps", next.MaxImpactBps),
		zap.Int64("max-deviation-bps", next.MaxDeviationBps),
		zap.Int64("max-volatility-bps", next.MaxVolatilityBps),
		zap.Duration("oracle-staleness", next.OracleStaleness))

	return nil
}

func validate(t Thresholds) error {
	if t.StartHour < 0 || t.StartHour > 23 {
		return fmt.Errorf("start hour must be in [0,23], got %d", t.StartHour)
	}
	if t.EndHour < 1 || t.EndHour > 24 {
		return fmt.Errorf("end hour must be in [1,24], got %d", t.EndHour)
	}
	if t.StartHour >= t.EndHour {
		return fmt.Errorf("start hour must precede end hour, got [%d,%d)", t.StartHour, t.EndHour)
	}
	if len(t.TradingDays) == 0 {
		return fmt.Errorf("at least one trading day required")
	}
	if t.MaxImpactBps < 0 || t.MaxDeviationBps < 0 || t.MaxVolatilityBps < 0 {
		return fmt.Errorf("basis-point ceilings cannot be negative")
	}
	if t.OracleStaleness <= 0 {
		return fmt.Errorf("oracle staleness bound must be positive")
	}
	return nil
}

func cloneThresholds(t Thresholds) Thresholds {
	days := make(map[time.Weekday]bool, len(t.TradingDays))
	for day, on := range t.TradingDays {
		days[day] = on
	}
	t.TradingDays = days
	return t
}
