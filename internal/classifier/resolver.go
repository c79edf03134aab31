package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ickb/orderbot/pkg/cache"
	"github.com/ickb/orderbot/pkg/types"
	"go.uber.org/zap"
)

// OutputFetcher loads transaction outputs from the ledger in one batch.
type OutputFetcher interface {
	GetTransactions(ctx context.Context, hashes []common.Hash) (map[common.Hash]types.TxOutputs, error)
}

// OutputResolver maps transaction hashes to their outputs, cache first.
type OutputResolver struct {
	fetcher OutputFetcher
	cache   cache.Cache
	logger  *zap.Logger
}

// NewOutputResolver creates a resolver over the given cache.
func NewOutputResolver(fetcher OutputFetcher, c cache.Cache, logger *zap.Logger) (*OutputResolver, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher cannot be nil")
	}
	if c == nil {
		return nil, errors.New("cache cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &OutputResolver{fetcher: fetcher, cache: c, logger: logger}, nil
}

// Resolve returns the outputs of every distinct hash.
// Misses are fetched with a single batched call and stored back.
func (r *OutputResolver) Resolve(ctx context.Context, hashes []common.Hash) (map[common.Hash]types.TxOutputs, error) {
	out := make(map[common.Hash]types.TxOutputs, len(hashes))
	seen := make(map[common.Hash]struct{}, len(hashes))
	var misses []common.Hash

	for _, h := range hashes {
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}

		if outputs, ok := r.cache.Get(h); ok {
			out[h] = outputs
			continue
		}
		misses = append(misses, h)
	}

	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := r.fetcher.GetTransactions(ctx, misses)
	if err != nil {
		return nil, err
	}

	for _, h := range misses {
		outputs, ok := fetched[h]
		if !ok {
			return nil, fmt.Errorf("transaction %s missing from batch", h.Hex())
		}
		out[h] = outputs
		r.cache.Set(h, outputs)
	}

	r.logger.Debug("origins-resolved",
		zap.Int("requested", len(hashes)),
		zap.Int("fetched", len(misses)))

	return out, nil
}
