package admin

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/swapgate/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	adminAddr = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	otherAddr = common.HexToAddress("0x00000000000000000000000000000000000000ff")
)

func defaultThresholds() Thresholds {
	return Thresholds{
		StartHour:        0,
		EndHour:          24,
		TradingDays:      map[time.Weekday]bool{time.Monday: true, time.Tuesday: true},
		MaxImpactBps:     500,
		MaxDeviationBps:  200,
		MaxVolatilityBps: 1000,
		OracleStaleness:  time.Hour,
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(adminAddr, defaultThresholds(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return s
}

func TestNewStoreRejectsInvalidInitial(t *testing.T) {
	t.Parallel()

	initial := defaultThresholds()
	initial.TradingDays = nil

	_, err := NewStore(adminAddr, initial, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trading day")
}

func TestSettersRequireAdmin(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	err := s.SetMaxImpactBps(otherAddr, 300)

	var authErr *types.AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, otherAddr, authErr.Caller)
	assert.Equal(t, adminAddr, authErr.Expected)

	// Nothing changed.
	assert.Equal(t, int64(500), s.Snapshot().MaxImpactBps)
}

func TestSetters(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	require.NoError(t, s.SetMaxImpactBps(adminAddr, 300))
	require.NoError(t, s.SetMaxDeviationBps(adminAddr, 150))
	require.NoError(t, s.SetMaxVolatilityBps(adminAddr, 800))
	require.NoError(t, s.SetOracleStaleness(adminAddr, 30*time.Minute))
	require.NoError(t, s.SetTradingWindow(adminAddr, 9, 17, map[time.Weekday]bool{time.Friday: true}))

	got := s.Snapshot()
	assert.Equal(t, int64(300), got.MaxImpactBps)
	assert.Equal(t, int64(150), got.MaxDeviationBps)
	assert.Equal(t, int64(800), got.MaxVolatilityBps)
	assert.Equal(t, 30*time.Minute, got.OracleStaleness)
	assert.Equal(t, 9, got.StartHour)
	assert.Equal(t, 17, got.EndHour)
	assert.True(t, got.TradesOn(time.Friday))
	assert.False(t, got.TradesOn(time.Monday))
}

func TestUpdateValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(s *Store) error
		wantErr string
	}{
		{
			name:    "negative impact ceiling",
			mutate:  func(s *Store) error { return s.SetMaxImpactBps(adminAddr, -1) },
			wantErr: "negative",
		},
		{
			name:    "zero staleness bound",
			mutate:  func(s *Store) error { return s.SetOracleStaleness(adminAddr, 0) },
			wantErr: "positive",
		},
		{
			name: "inverted hour window",
			mutate: func(s *Store) error {
				return s.SetTradingWindow(adminAddr, 17, 9, map[time.Weekday]bool{time.Monday: true})
			},
			wantErr: "precede",
		},
		{
			name: "no trading days",
			mutate: func(s *Store) error {
				return s.SetTradingWindow(adminAddr, 9, 17, nil)
			},
			wantErr: "trading day",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestStore(t)
			before := s.Snapshot()

			err := tt.mutate(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			// A rejected update leaves the thresholds untouched.
			assert.Equal(t, before, s.Snapshot())
		})
	}
}

func TestSnapshotIsolation(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	snap := s.Snapshot()

	// Mutating a snapshot's day map must not leak into the store.
	snap.TradingDays[time.Sunday] = true
	assert.False(t, s.Snapshot().TradesOn(time.Sunday))

	// And a later update must not alter an existing snapshot.
	require.NoError(t, s.SetMaxImpactBps(adminAddr, 50))
	assert.Equal(t, int64(500), snap.MaxImpactBps)
}

func TestFullDayWindow(t *testing.T) {
	t.Parallel()

	assert.True(t, Thresholds{StartHour: 0, EndHour: 24}.FullDayWindow())
	assert.False(t, Thresholds{StartHour: 0, EndHour: 23}.FullDayWindow())
	assert.False(t, Thresholds{StartHour: 1, EndHour: 24}.FullDayWindow())
}
