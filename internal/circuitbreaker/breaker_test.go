package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestBreaker(t *testing.T, limit int, cooldown time.Duration, clock func() time.Time) *Breaker {
	t.Helper()

	b, err := New(&Config{
		FailureLimit: limit,
		Cooldown:     cooldown,
		Logger:       zaptest.NewLogger(t),
		Clock:        clock,
	})
	require.NoError(t, err)
	return b
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.Error(t, err)

	_, err = New(&Config{FailureLimit: 3, Cooldown: time.Minute})
	require.ErrorContains(t, err, "logger")

	_, err = New(&Config{FailureLimit: 0, Cooldown: time.Minute, Logger: zaptest.NewLogger(t)})
	require.ErrorContains(t, err, "failure limit")

	_, err = New(&Config{FailureLimit: 3, Cooldown: 0, Logger: zaptest.NewLogger(t)})
	require.ErrorContains(t, err, "cooldown")
}

func TestBreakerTripsAtLimit(t *testing.T) {
	t.Parallel()

	b := newTestBreaker(t, 3, time.Minute, nil)

	b.RecordFailure()
	b.RecordFailure()
	assert.True(t, b.Allow())

	b.RecordFailure()
	assert.False(t, b.Allow())

	status := b.GetStatus()
	assert.True(t, status.Open)
	assert.Equal(t, 3, status.ConsecutiveFailures)
	assert.Equal(t, uint64(1), status.Trips)
}

func TestSuccessResetsStreak(t *testing.T) {
	t.Parallel()

	b := newTestBreaker(t, 2, time.Minute, nil)

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.True(t, b.Allow())

	assert.Equal(t, 1, b.GetStatus().ConsecutiveFailures)
}

func TestBreakerReclosesAfterCooldown(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	b := newTestBreaker(t, 2, time.Minute, clock)

	b.RecordFailure()
	b.RecordFailure()
	require.False(t, b.Allow())

	// Still open inside the cooldown window.
	now = now.Add(30 * time.Second)
	assert.False(t, b.Allow())

	now = now.Add(31 * time.Second)
	assert.True(t, b.Allow())
	assert.False(t, b.GetStatus().Open)
}

func TestProbeFailureRetrips(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	b := newTestBreaker(t, 3, time.Minute, clock)

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	require.False(t, b.Allow())

	// After cooldown the streak sits one short of the limit: a single
	// failure trips the breaker again, a success clears it.
	now = now.Add(2 * time.Minute)
	require.True(t, b.Allow())

	b.RecordFailure()
	assert.False(t, b.Allow())
	assert.Equal(t, uint64(2), b.GetStatus().Trips)

	now = now.Add(2 * time.Minute)
	require.True(t, b.Allow())
	b.RecordSuccess()
	b.RecordFailure()
	assert.True(t, b.Allow())
}
