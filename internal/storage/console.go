package storage

import (
	"context"
	"fmt"

	"github.com/mselser95/swapgate/pkg/types"
	"go.uber.org/zap"
)

// ConsoleStorage implements Storage by pretty-printing to console.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

// StoreExecution pretty-prints an execution record to console.
func (c *ConsoleStorage) StoreExecution(ctx context.Context, record *types.ExecutionRecord) error {
	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("EXECUTION %s\n", record.ID[:8])
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Market:   %s\n", record.MarketKey.Hex())
	fmt.Printf("Input:    %s\n", record.InputAsset.Hex())
	fmt.Printf("Output:   %s\n", record.OutputAsset.Hex())
	fmt.Printf("Amount:   %s\n", record.Amount)
	fmt.Printf("Outcome:  %s\n", record.Outcome)
	if record.Reason != "" {
		fmt.Printf("Reason:   %s\n", record.Reason)
	}
	if record.Outcome == types.OutcomeSettled {
		fmt.Printf("Paid:     %s\n", record.InputPaid)
		fmt.Printf("Received: %s\n", record.OutputRecv)
	}
	fmt.Printf("Time:     %s\n", record.FinishedAt.Format("2006-01-02 15:04:05"))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
