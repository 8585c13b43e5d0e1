package storage

import (
	"context"

	"github.com/mselser95/swapgate/pkg/types"
)

// Storage is the interface for persisting execution records.
type Storage interface {
	// StoreExecution stores one execution attempt, settled or not.
	StoreExecution(ctx context.Context, record *types.ExecutionRecord) error

	// Close closes the storage connection.
	Close() error
}
