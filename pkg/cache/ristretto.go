package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

// RistrettoCache backs the Cache interface with a Ristretto store. It holds
// proof verdicts between repeated submissions of the same attested payload,
// so the prover is consulted once per proof rather than once per trade.
type RistrettoCache struct {
	store  *ristretto.Cache
	logger *zap.Logger
}

// RistrettoConfig holds Ristretto sizing. Costs count items, not bytes.
type RistrettoConfig struct {
	NumCounters int64 // keys tracked for admission frequency (10x max items)
	MaxCost     int64 // maximum number of cached items
	BufferItems int64 // keys per Get buffer
	Logger      *zap.Logger
}

// NewRistrettoCache creates a Ristretto-backed cache.
func NewRistrettoCache(cfg *RistrettoConfig) (Cache, error) {
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	return &RistrettoCache{store: store, logger: cfg.Logger}, nil
}

// Get retrieves a value from the cache.
func (r *RistrettoCache) Get(key string) (interface{}, bool) {
	value, found := r.store.Get(key)
	if found {
		CacheHitsTotal.Inc()
	} else {
		CacheMissesTotal.Inc()
	}
	return value, found
}

// Set stores a value with a TTL. Writes are buffered: a subsequent Get may
// miss until Ristretto applies the write.
func (r *RistrettoCache) Set(key string, value interface{}, ttl time.Duration) bool {
	admitted := r.store.SetWithTTL(key, value, 1, ttl)
	if admitted {
		CacheSetsTotal.Inc()
		r.logger.Debug("cache-set",
			zap.String("key", key),
			zap.Duration("ttl", ttl))
	}
	return admitted
}

// Delete removes a value from the cache.
func (r *RistrettoCache) Delete(key string) {
	r.store.Del(key)
	CacheDeletesTotal.Inc()
}

// Clear removes all values from the cache.
func (r *RistrettoCache) Clear() {
	r.store.Clear()
	r.logger.Info("cache-cleared")
}

// Close releases the cache's resources.
func (r *RistrettoCache) Close() {
	r.store.Close()
}

// Wait blocks until buffered writes have been applied.
func (r *RistrettoCache) Wait() {
	r.store.Wait()
}
