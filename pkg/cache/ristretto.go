package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ickb/orderbot/pkg/types"
	"go.uber.org/zap"
)

// OutputCache is a Ristretto-backed Cache.
type OutputCache struct {
	cache  *ristretto.Cache
	logger *zap.Logger
}

// RistrettoConfig holds configuration for the output cache.
type RistrettoConfig struct {
	NumCounters int64 // Number of keys to track frequency (10x max items)
	MaxCost     int64 // Maximum number of transactions, each costs 1
	BufferItems int64 // Number of keys per Get buffer
	Logger      *zap.Logger
}

// NewRistrettoCache creates an output cache.
func NewRistrettoCache(cfg *RistrettoConfig) (*OutputCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	return &OutputCache{cache: c, logger: cfg.Logger}, nil
}

// Get returns the cached outputs of hash.
func (o *OutputCache) Get(hash common.Hash) (types.TxOutputs, bool) {
	start := time.Now()
	value, found := o.cache.Get(hash[:])
	CacheOperationDuration.WithLabelValues("get").Observe(time.Since(start).Seconds())

	outputs, ok := value.(types.TxOutputs)
	if found && ok {
		CacheHitsTotal.Inc()
		o.logger.Debug("cache-hit", zap.Stringer("tx-hash", hash))
	} else {
		CacheMissesTotal.Inc()
		o.logger.Debug("cache-miss", zap.Stringer("tx-hash", hash))
	}
	CacheHitRate.Set(o.cache.Metrics.Ratio())

	return outputs, found && ok
}

// Set stores the outputs of hash without expiry.
func (o *OutputCache) Set(hash common.Hash, outputs types.TxOutputs) bool {
	start := time.Now()
	admitted := o.cache.Set(hash[:], outputs, 1)
	CacheOperationDuration.WithLabelValues("set").Observe(time.Since(start).Seconds())

	if admitted {
		CacheSetsTotal.Inc()
		o.logger.Debug("cache-set",
			zap.Stringer("tx-hash", hash),
			zap.Int("outputs", len(outputs.Outputs)))
	}
	return admitted
}

// Delete evicts hash.
func (o *OutputCache) Delete(hash common.Hash) {
	o.cache.Del(hash[:])
	CacheDeletesTotal.Inc()
	o.logger.Debug("cache-delete", zap.Stringer("tx-hash", hash))
}

// Clear evicts everything.
func (o *OutputCache) Clear() {
	o.cache.Clear()
	o.logger.Info("cache-cleared")
}

// Close stops the cache.
func (o *OutputCache) Close() {
	o.cache.Close()
	o.logger.Info("cache-closed")
}

// Wait blocks until pending writes are applied.
func (o *OutputCache) Wait() {
	o.cache.Wait()
}
