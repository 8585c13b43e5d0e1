// Package bank keeps the in-process asset ledger: per-account balances for
// each asset, with the transfers the settlement engine's custody moves run
// through.
package bank

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/swapgate/pkg/types"
	"go.uber.org/zap"
)

// ErrInsufficientFunds is returned when a transfer exceeds the payer's balance.
var ErrInsufficientFunds = fmt.Errorf("insufficient funds")

type balanceKey struct {
	account common.Address
	asset   types.AssetID
}

// Bank is an in-memory asset ledger.
type Bank struct {
	logger *zap.Logger

	mu       sync.Mutex
	balances map[balanceKey]*big.Int
}

// New creates an empty ledger.
func New(logger *zap.Logger) *Bank {
	return &Bank{
		logger:   logger,
		balances: make(map[balanceKey]*big.Int),
	}
}

// BalanceOf returns the account's balance of the asset.
func (b *Bank) BalanceOf(account common.Address, asset types.AssetID) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	bal, ok := b.balances[balanceKey{account, asset}]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(bal)
}

// Mint credits an account. Used to fund accounts in paper mode and tests.
func (b *Bank) Mint(account common.Address, asset types.AssetID, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("mint amount must be positive")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.credit(account, asset, amount)
	return nil
}

// Transfer moves amount of asset from one account to another.
func (b *Bank) Transfer(from, to common.Address, asset types.AssetID, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("transfer amount must be positive")
	}
	if from == to {
		return fmt.Errorf("transfer to self")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := balanceKey{from, asset}
	bal, ok := b.balances[key]
	if !ok || bal.Cmp(amount) < 0 {
		have := new(big.Int)
		if ok {
			have.Set(bal)
		}
		return fmt.Errorf("%w: account %s has %s of %s, need %s",
			ErrInsufficientFunds, from.Hex(), have, asset.Hex(), amount)
	}

	bal.Sub(bal, amount)
	b.credit(to, asset, amount)

	b.logger.Debug("transfer",
		zap.String("from", from.Hex()),
		zap.String("to", to.Hex()),
		zap.String("asset", asset.Hex()),
		zap.String("amount", amount.String()))

	return nil
}

// credit must be called with the mutex held.
func (b *Bank) credit(account common.Address, asset types.AssetID, amount *big.Int) {
	key := balanceKey{account, asset}
	if bal, ok := b.balances[key]; ok {
		bal.Add(bal, amount)
		return
	}
	b.balances[key] = new(big.Int).Set(amount)
}
