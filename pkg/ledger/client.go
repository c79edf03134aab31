// Package ledger is a JSON-RPC client for a CKB full node or light client.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ickb/orderbot/pkg/types"
	"go.uber.org/zap"
)

// DefaultFeeRate is used when the node cannot estimate, in shannons per 1000 bytes.
const DefaultFeeRate uint64 = 1000

// Mode selects which node flavour the client talks to.
type Mode string

// Supported client modes.
const (
	ModeFull  Mode = "full"
	ModeLight Mode = "light"
)

// ScriptType selects whether a search script matches the lock or the type of a cell.
type ScriptType string

// Script types.
const (
	ScriptTypeLock ScriptType = "lock"
)

// SearchMode selects how the search script args are matched.
type SearchMode string

// Search modes.
const (
	SearchExact  SearchMode = "exact"
	SearchPrefix SearchMode = "prefix"
)

// Order is the indexer sort order.
type Order string

// Sort orders.
const (
	OrderAsc Order = "asc"
)

// Query describes a get_cells search.
type Query struct {
	Script     types.Script
	ScriptType ScriptType
	SearchMode SearchMode
	Order      Order
	Limit      uint64
}

// Client talks to the ledger over JSON-RPC.
type Client struct {
	rpc    *rpc.Client
	mode   Mode
	logger *zap.Logger
}

// Dial connects to the node at url.
func Dial(ctx context.Context, url string, mode Mode, logger *zap.Logger) (*Client, error) {
	if url == "" {
		return nil, errors.New("rpc url cannot be empty")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	rc, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	return NewClient(rc, mode, logger), nil
}

// NewClient wraps an existing rpc client.
func NewClient(rc *rpc.Client, mode Mode, logger *zap.Logger) *Client {
	return &Client{
		rpc:    rc,
		mode:   mode,
		logger: logger,
	}
}

// Mode returns the configured client mode.
func (c *Client) Mode() Mode {
	return c.mode
}

type searchKey struct {
	Script           types.Script `json:"script"`
	ScriptType       ScriptType   `json:"script_type"`
	ScriptSearchMode SearchMode   `json:"script_search_mode,omitempty"`
	WithData         bool         `json:"with_data"`
}

type cellsPage struct {
	Objects    []types.Cell `json:"objects"`
	LastCursor string       `json:"last_cursor"`
}

// GetCells returns every live cell matching q, walking all pages of size q.Limit.
func (c *Client) GetCells(ctx context.Context, q Query) ([]types.Cell, error) {
	if q.Limit == 0 {
		return nil, errors.New("limit must be positive")
	}

	key := searchKey{
		Script:           q.Script,
		ScriptType:       q.ScriptType,
		ScriptSearchMode: q.SearchMode,
		WithData:         true,
	}

	var (
		cells  []types.Cell
		cursor interface{}
	)
	for {
		var page cellsPage
		err := c.call(ctx, &page, "get_cells", key, q.Order, hexutil.Uint64(q.Limit), cursor)
		if err != nil {
			return nil, err
		}

		cells = append(cells, page.Objects...)
		if uint64(len(page.Objects)) < q.Limit || page.LastCursor == "" {
			break
		}
		cursor = page.LastCursor
	}

	c.logger.Debug("cells-fetched",
		zap.String("script-type", string(q.ScriptType)),
		zap.String("code-hash", q.Script.CodeHash.Hex()),
		zap.Int("count", len(cells)))

	return cells, nil
}

// GetTipHeader returns the current chain tip.
func (c *Client) GetTipHeader(ctx context.Context) (types.Header, error) {
	var header types.Header
	err := c.call(ctx, &header, "get_tip_header")
	if err != nil {
		return types.Header{}, err
	}
	return header, nil
}

type feeRateStatistics struct {
	Mean   hexutil.Uint64 `json:"mean"`
	Median hexutil.Uint64 `json:"median"`
}

// GetFeeRate estimates the fee rate for confirmation within target blocks.
// Light clients cannot estimate and always get DefaultFeeRate.
func (c *Client) GetFeeRate(ctx context.Context, target uint64) (uint64, error) {
	if c.mode == ModeLight {
		return DefaultFeeRate, nil
	}

	var stats *feeRateStatistics
	err := c.call(ctx, &stats, "get_fee_rate_statistics", hexutil.Uint64(target))
	if err != nil {
		return 0, err
	}

	if stats == nil || uint64(stats.Median) < DefaultFeeRate {
		return DefaultFeeRate, nil
	}
	return uint64(stats.Median), nil
}

// SendTransaction submits a signed transaction and returns its hash.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	var hash common.Hash
	err := c.call(ctx, &hash, "send_transaction", tx, "passthrough")
	if err != nil {
		return common.Hash{}, err
	}

	c.logger.Info("transaction-sent", zap.String("tx-hash", hash.Hex()))
	return hash, nil
}

type transactionWithStatus struct {
	Transaction *types.TxOutputs `json:"transaction"`
}

// GetTransactions fetches the outputs of several transactions in one batch.
func (c *Client) GetTransactions(ctx context.Context, hashes []common.Hash) (map[common.Hash]types.TxOutputs, error) {
	out := make(map[common.Hash]types.TxOutputs, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}

	results := make([]*transactionWithStatus, len(hashes))
	batch := make([]rpc.BatchElem, len(hashes))
	for i, h := range hashes {
		batch[i] = rpc.BatchElem{
			Method: "get_transaction",
			Args:   []interface{}{h},
			Result: &results[i],
		}
	}

	start := time.Now()
	err := c.rpc.BatchCallContext(ctx, batch)
	RPCDurationSeconds.WithLabelValues("get_transaction_batch").Observe(time.Since(start).Seconds())
	if err != nil {
		RPCErrorsTotal.WithLabelValues("get_transaction_batch").Inc()
		return nil, fmt.Errorf("get_transaction batch: %w", err)
	}

	for i, elem := range batch {
		if elem.Error != nil {
			RPCErrorsTotal.WithLabelValues("get_transaction").Inc()
			return nil, fmt.Errorf("get_transaction %s: %w", hashes[i].Hex(), elem.Error)
		}
		if results[i] == nil || results[i].Transaction == nil {
			return nil, fmt.Errorf("transaction %s not found", hashes[i].Hex())
		}
		out[hashes[i]] = *results[i].Transaction
	}

	return out, nil
}

// Close releases the underlying connection.
func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	start := time.Now()
	err := c.rpc.CallContext(ctx, result, method, args...)
	RPCDurationSeconds.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		RPCErrorsTotal.WithLabelValues(method).Inc()
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}
