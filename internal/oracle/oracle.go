// Package oracle provides the external price-feed boundary. The core only
// consumes quotes; staleness and positivity are enforced by the gate.
package oracle

import (
	"context"
	"math/big"
	"sync"
	"time"
)

// Quote is one timestamped price observation.
type Quote struct {
	// Price is the reported price scaled by 10^Decimals.
	Price    *big.Int
	Decimals int32

	// UpdatedAt is the feed's self-reported last update time.
	UpdatedAt time.Time

	// Inverted marks that the feed reports input-per-output rather than
	// output-per-input for the pair it is bound to.
	Inverted bool
}

// Ratio1e18 normalizes the quote to an output-per-input ratio scaled by 1e18.
// Returns nil for a non-positive price.
func (q Quote) Ratio1e18() *big.Int {
	if q.Price == nil || q.Price.Sign() <= 0 {
		return nil
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(q.Decimals)), nil)
	if q.Inverted {
		// input-per-output reported: ratio = 1e18 * 10^decimals / price
		num := new(big.Int).Mul(big.NewInt(1e18), scale)
		return num.Quo(num, q.Price)
	}

	num := new(big.Int).Mul(q.Price, big.NewInt(1e18))
	return num.Quo(num, scale)
}

// PriceOracle supplies the latest quote for the pair it is bound to.
type PriceOracle interface {
	LatestPrice(ctx context.Context) (Quote, error)
}

// Fixed is an oracle returning a settable quote. Used in paper mode and tests.
type Fixed struct {
	mu    sync.RWMutex
	quote Quote
}

// NewFixed creates a fixed oracle with an initial quote.
func NewFixed(quote Quote) *Fixed {
	return &Fixed{quote: quote}
}

// Set replaces the quote.
func (f *Fixed) Set(quote Quote) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quote = quote
}

// LatestPrice returns the current quote.
func (f *Fixed) LatestPrice(_ context.Context) (Quote, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.quote, nil
}
