package prover

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mselser95/swapgate/pkg/cache"
)

// Cached wraps a Verifier with a verdict cache keyed by the digest of
// (circuit, proof, public inputs). Only positive verdicts are cached: a proof
// that verified once verifies forever, while failures may be transient.
type Cached struct {
	inner Verifier
	cache cache.Cache
	ttl   time.Duration
}

// NewCached creates a caching verifier.
func NewCached(inner Verifier, c cache.Cache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &Cached{
		inner: inner,
		cache: c,
		ttl:   ttl,
	}
}

// Verify returns a cached verdict when available, otherwise delegates.
func (c *Cached) Verify(ctx context.Context, circuitID common.Hash, proof, publicInputs []byte) (bool, error) {
	key := verdictKey(circuitID, proof, publicInputs)

	if v, found := c.cache.Get(key); found {
		if valid, ok := v.(bool); ok && valid {
			return true, nil
		}
	}

	valid, err := c.inner.Verify(ctx, circuitID, proof, publicInputs)
	if err != nil {
		return false, err
	}

	if valid {
		c.cache.Set(key, true, c.ttl)
	}

	return valid, nil
}

func verdictKey(circuitID common.Hash, proof, publicInputs []byte) string {
	digest := crypto.Keccak256(circuitID.Bytes(), proof, publicInputs)
	return "verdict:" + common.Bytes2Hex(digest)
}
