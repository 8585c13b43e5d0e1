package storage

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mselser95/swapgate/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ethereum/go-ethereum/common"
)

func testRecord() *types.ExecutionRecord {
	return &types.ExecutionRecord{
		ID:          "11111111-2222-3333-4444-555555555555",
		MarketKey:   common.HexToHash("0xabc1"),
		InputAsset:  common.HexToAddress("0x0a11"),
		OutputAsset: common.HexToAddress("0x0b22"),
		Amount:      big.NewInt(10_000),
		Outcome:     types.OutcomeSettled,
		InputPaid:   big.NewInt(10_000),
		OutputRecv:  big.NewInt(9_970),
		StartedAt:   time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC),
		FinishedAt:  time.Date(2026, 3, 4, 12, 0, 1, 0, time.UTC),
	}
}

func TestStoreExecution(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	storage := &PostgresStorage{db: db, logger: zaptest.NewLogger(t)}
	record := testRecord()

	mock.ExpectExec("INSERT INTO executions").
		WithArgs(
			record.ID,
			record.MarketKey.Hex(),
			record.InputAsset.Hex(),
			record.OutputAsset.Hex(),
			"10000",
			"settled",
			"",
			"10000",
			"9970",
			record.StartedAt,
			record.FinishedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, storage.StoreExecution(context.Background(), record))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreExecutionNilAmounts(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	storage := &PostgresStorage{db: db, logger: zaptest.NewLogger(t)}

	record := testRecord()
	record.Outcome = types.OutcomeGateRejected
	record.Reason = "gate rejected: trading_window (trading_day_closed)"
	record.InputPaid = nil
	record.OutputRecv = nil

	// Unset amounts persist as "0" rather than NULL.
	mock.ExpectExec("INSERT INTO executions").
		WithArgs(
			record.ID,
			record.MarketKey.Hex(),
			record.InputAsset.Hex(),
			record.OutputAsset.Hex(),
			"10000",
			"gate_rejected",
			record.Reason,
			"0",
			"0",
			record.StartedAt,
			record.FinishedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, storage.StoreExecution(context.Background(), record))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreExecutionError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	storage := &PostgresStorage{db: db, logger: zaptest.NewLogger(t)}

	mock.ExpectExec("INSERT INTO executions").
		WillReturnError(errors.New("connection reset"))

	err = storage.StoreExecution(context.Background(), testRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert execution")
}

func TestConsoleStorage(t *testing.T) {
	t.Parallel()

	storage := NewConsoleStorage(zaptest.NewLogger(t))
	require.NoError(t, storage.StoreExecution(context.Background(), testRecord()))
	require.NoError(t, storage.Close())
}
