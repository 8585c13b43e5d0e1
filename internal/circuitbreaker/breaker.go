// Package circuitbreaker halts trade execution after repeated venue
// failures. The breaker trips once a configured number of consecutive
// venue failures accumulate and re-closes after a cooldown, so a
// misbehaving venue cannot burn the operator's funds on retry loops.
package circuitbreaker

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Breaker tracks consecutive venue failures and controls whether the
// settlement engine may start new executions.
type Breaker struct {
	closed atomic.Bool // Atomic for lock-free reads on the hot path

	failureLimit int
	cooldown     time.Duration
	logger       *zap.Logger
	clock        func() time.Time

	// Protected by mutex
	mu          sync.Mutex
	streak      int       // Consecutive venue failures since last success
	openedAt    time.Time // When the breaker last tripped
	lastFailure time.Time
	trips       uint64
}

// Config holds circuit breaker configuration.
type Config struct {
	FailureLimit int           // Consecutive venue failures before tripping
	Cooldown     time.Duration // How long the breaker stays open
	Logger       *zap.Logger
	Clock        func() time.Time
}

// Status holds current breaker status for debugging and HTTP endpoints.
type Status struct {
	Open                bool
	ConsecutiveFailures int
	Trips               uint64
	OpenedAt            time.Time
	LastFailure         time.Time
}

// New creates a breaker with the given configuration. It starts closed.
func New(cfg *Config) (*Breaker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.FailureLimit <= 0 {
		return nil, fmt.Errorf("failure limit must be positive")
	}
	if cfg.Cooldown <= 0 {
		return nil, fmt.Errorf("cooldown must be positive")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	b := &Breaker{
		failureLimit: cfg.FailureLimit,
		cooldown:     cfg.Cooldown,
		logger:       cfg.Logger,
		clock:        clock,
	}
	b.closed.Store(true)

	BreakerClosed.Set(1)
	BreakerConsecutiveFailures.Set(0)

	return b, nil
}

// Allow reports whether a new execution may start. While open, the breaker
// re-closes once the cooldown has elapsed; the streak is left one short of
// the limit so a single failed probe trips it again immediately.
func (b *Breaker) Allow() bool {
	if b.closed.Load() {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed.Load() {
		return true
	}
	if b.clock().Sub(b.openedAt) < b.cooldown {
		return false
	}

	b.streak = b.failureLimit - 1
	b.closed.Store(true)
	BreakerClosed.Set(1)
	BreakerConsecutiveFailures.Set(float64(b.streak))

	b.logger.Info("breaker-closed",
		zap.Duration("cooldown", b.cooldown),
		zap.Uint64("trips", b.trips))

	return true
}

// RecordFailure counts a venue failure and trips the breaker when the
// consecutive-failure limit is reached.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.streak++
	b.lastFailure = b.clock()
	BreakerConsecutiveFailures.Set(float64(b.streak))

	if b.streak < b.failureLimit || !b.closed.Load() {
		return
	}

	b.openedAt = b.clock()
	b.trips++
	b.closed.Store(false)
	BreakerClosed.Set(0)
	BreakerTripsTotal.Inc()

	b.logger.Warn("breaker-tripped",
		zap.Int("consecutive_failures", b.streak),
		zap.Int("failure_limit", b.failureLimit),
		zap.Duration("cooldown", b.cooldown))
}

// RecordSuccess resets the failure streak after a settled execution.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.streak != 0 {
		b.logger.Debug("failure-streak-reset",
			zap.Int("previous_streak", b.streak))
	}
	b.streak = 0
	BreakerConsecutiveFailures.Set(0)
}

// GetStatus returns current breaker status.
func (b *Breaker) GetStatus() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Status{
		Open:                !b.closed.Load(),
		ConsecutiveFailures: b.streak,
		Trips:               b.trips,
		OpenedAt:            b.openedAt,
		LastFailure:         b.lastFailure,
	}
}
