// Package engine is a JSON-RPC client for the order and funding engine sidecar.
//
// The sidecar owns the binary encodings of order cells and the coin selection.
// It only ever sees the wire part of a skeleton, so every call restores the
// local bookkeeping of the skeleton it was given.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ickb/orderbot/pkg/types"
	"go.uber.org/zap"
)

// CodeInsufficientFunds is the RPC error code the sidecar uses when strict funding fails.
const CodeInsufficientFunds = -32010

// Client talks to the engine sidecar.
type Client struct {
	rpc    *rpc.Client
	logger *zap.Logger
}

// Dial connects to the sidecar at url.
func Dial(ctx context.Context, url string, logger *zap.Logger) (*Client, error) {
	if url == "" {
		return nil, errors.New("engine url cannot be empty")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	rc, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	return NewClient(rc, logger), nil
}

// NewClient wraps an existing rpc client.
func NewClient(rc *rpc.Client, logger *zap.Logger) *Client {
	return &Client{rpc: rc, logger: logger}
}

// Sift splits candidate cells into decoded orders and the cells that are not orders.
// origins maps a transaction hash to its outputs, for every order cell's creating transaction.
func (c *Client) Sift(
	ctx context.Context,
	cells []types.Cell,
	origins map[common.Hash]types.TxOutputs,
) ([]types.Order, []types.Cell, error) {
	var res siftResult
	err := c.call(ctx, &res, "engine_sift", cells, origins)
	if err != nil {
		return nil, nil, err
	}

	orders := make([]types.Order, 0, len(res.Orders))
	for _, w := range res.Orders {
		order, err := decodeOrder(w)
		if err != nil {
			return nil, nil, fmt.Errorf("decode order %s: %w", w.Cell.OutPoint, err)
		}
		orders = append(orders, order)
	}

	return orders, res.Remainder, nil
}

// Create adds a new limit order to tx.
func (c *Client) Create(ctx context.Context, tx *types.TxSkeleton, intent types.OrderIntent) (*types.TxSkeleton, error) {
	return c.transform(ctx, tx, "engine_create", encodeIntent(intent))
}

// Cancel adds the cancellation of order to tx, returning its funds to the owner.
func (c *Client) Cancel(ctx context.Context, tx *types.TxSkeleton, order types.Order) (*types.TxSkeleton, error) {
	return c.transform(ctx, tx, "engine_cancel", encodeOrder(order))
}

// Melt adds the destruction of completed orders to tx.
func (c *Client) Melt(ctx context.Context, tx *types.TxSkeleton, orders []types.Order) (*types.TxSkeleton, error) {
	wire := make([]wireOrder, len(orders))
	for i, o := range orders {
		wire[i] = encodeOrder(o)
	}
	return c.transform(ctx, tx, "engine_melt", wire)
}

// Fund balances tx against the given pools and fills in fee and signing data.
// In strict mode a shortfall is reported as types.ErrInsufficientFunds.
func (c *Client) Fund(ctx context.Context, tx *types.TxSkeleton, pools types.AssetPools, strict bool) (*types.TxSkeleton, error) {
	funded, err := c.transform(ctx, tx, "engine_fund", encodePools(pools), strict)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("skeleton-funded",
		zap.Uint64("fee", uint64(funded.Fee)),
		zap.Uint64("fee-rate", uint64(funded.FeeRate)),
		zap.Int("inputs", len(funded.Inputs)),
		zap.Int("outputs", len(funded.Outputs)))

	return funded, nil
}

// Close releases the underlying connection.
func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) transform(ctx context.Context, tx *types.TxSkeleton, method string, args ...interface{}) (*types.TxSkeleton, error) {
	var out types.TxSkeleton
	err := c.call(ctx, &out, method, append([]interface{}{tx}, args...)...)
	if err != nil {
		return nil, err
	}
	return out.CarryBookkeeping(tx), nil
}

func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	start := time.Now()
	err := c.rpc.CallContext(ctx, result, method, args...)
	CallDurationSeconds.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err == nil {
		return nil
	}

	CallErrorsTotal.WithLabelValues(method).Inc()

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == CodeInsufficientFunds {
		return fmt.Errorf("%s: %w: %s", method, types.ErrInsufficientFunds, rpcErr.Error())
	}
	return fmt.Errorf("%s: %w", method, err)
}
