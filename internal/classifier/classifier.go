// Package classifier partitions the bot's cells into capacity cells, token cells and orders.
package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ickb/orderbot/pkg/types"
	"go.uber.org/zap"
)

// OrderSifter decodes order cells. Every candidate comes back exactly once,
// either as an order or in the remainder.
type OrderSifter interface {
	Sift(ctx context.Context, cells []types.Cell, origins map[common.Hash]types.TxOutputs) ([]types.Order, []types.Cell, error)
}

// Config identifies the bot's own cells.
type Config struct {
	Lock      types.Script
	TokenType types.Script
}

// Validate checks the configured scripts.
func (c Config) Validate() error {
	if !c.Lock.HashType.Valid() {
		return fmt.Errorf("invalid lock hash type %q", c.Lock.HashType)
	}
	if !c.TokenType.HashType.Valid() {
		return fmt.Errorf("invalid token type hash type %q", c.TokenType.HashType)
	}
	return nil
}

// Result is a partition of the classified input.
type Result struct {
	Capacities []types.Cell
	Tokens     []types.Cell
	Orders     []types.Order
	// Unknowns holds cells that are none of the above, such as foreign orders.
	Unknowns []types.Cell
}

// Size returns the number of cells across all sets.
func (r *Result) Size() int {
	return len(r.Capacities) + len(r.Tokens) + len(r.Orders) + len(r.Unknowns)
}

// Classifier sorts cells by role.
type Classifier struct {
	cfg      Config
	sifter   OrderSifter
	resolver *OutputResolver
	logger   *zap.Logger
}

// New creates a classifier.
func New(cfg Config, sifter OrderSifter, resolver *OutputResolver, logger *zap.Logger) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sifter == nil {
		return nil, errors.New("sifter cannot be nil")
	}
	if resolver == nil {
		return nil, errors.New("resolver cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Classifier{
		cfg:      cfg,
		sifter:   sifter,
		resolver: resolver,
		logger:   logger,
	}, nil
}

// Classify partitions the bot's account cells and the order-book cells.
func (c *Classifier) Classify(ctx context.Context, accountCells, orderCells []types.Cell) (*Result, error) {
	seen := make(map[types.OutPoint]struct{}, len(accountCells)+len(orderCells))
	fresh := func(cell types.Cell) bool {
		if _, ok := seen[cell.OutPoint]; ok {
			return false
		}
		seen[cell.OutPoint] = struct{}{}
		return true
	}

	res := &Result{}
	var candidates []types.Cell

	for _, cell := range accountCells {
		if !fresh(cell) {
			continue
		}
		switch {
		case c.isCapacity(cell):
			res.Capacities = append(res.Capacities, cell)
		case c.isToken(cell):
			res.Tokens = append(res.Tokens, cell)
		default:
			candidates = append(candidates, cell)
		}
	}

	var originHashes []common.Hash
	for _, cell := range orderCells {
		if !fresh(cell) {
			continue
		}
		candidates = append(candidates, cell)
		originHashes = append(originHashes, cell.OutPoint.TxHash)
	}

	if len(candidates) > 0 {
		origins, err := c.resolver.Resolve(ctx, originHashes)
		if err != nil {
			return nil, fmt.Errorf("resolve order origins: %w", err)
		}

		orders, remainder, err := c.sifter.Sift(ctx, candidates, origins)
		if err != nil {
			return nil, fmt.Errorf("sift orders: %w", err)
		}
		if err := checkSift(candidates, orders, remainder); err != nil {
			return nil, err
		}

		types.SortOrders(orders)
		res.Orders = orders
		res.Unknowns = remainder
	}

	ClassifiedCells.WithLabelValues("capacity").Set(float64(len(res.Capacities)))
	ClassifiedCells.WithLabelValues("token").Set(float64(len(res.Tokens)))
	ClassifiedCells.WithLabelValues("order").Set(float64(len(res.Orders)))
	ClassifiedCells.WithLabelValues("unknown").Set(float64(len(res.Unknowns)))

	c.logger.Debug("cells-classified",
		zap.Int("capacities", len(res.Capacities)),
		zap.Int("tokens", len(res.Tokens)),
		zap.Int("orders", len(res.Orders)),
		zap.Int("unknowns", len(res.Unknowns)))

	return res, nil
}

func (c *Classifier) isCapacity(cell types.Cell) bool {
	return cell.Output.Lock.Equal(c.cfg.Lock) && cell.Output.Type == nil && len(cell.Data) == 0
}

func (c *Classifier) isToken(cell types.Cell) bool {
	return cell.Output.Lock.Equal(c.cfg.Lock) && cell.Output.Type != nil && cell.Output.Type.Equal(c.cfg.TokenType)
}

// checkSift verifies the sifter returned every candidate exactly once.
func checkSift(candidates []types.Cell, orders []types.Order, remainder []types.Cell) error {
	pending := make(map[types.OutPoint]struct{}, len(candidates))
	for _, cell := range candidates {
		pending[cell.OutPoint] = struct{}{}
	}

	claim := func(op types.OutPoint) error {
		if _, ok := pending[op]; !ok {
			return fmt.Errorf("sifter returned unexpected or duplicate cell %s", op)
		}
		delete(pending, op)
		return nil
	}

	for _, o := range orders {
		if err := claim(o.OutPoint); err != nil {
			return err
		}
	}
	for _, cell := range remainder {
		if err := claim(cell.OutPoint); err != nil {
			return err
		}
	}

	if len(pending) > 0 {
		return fmt.Errorf("sifter dropped %d cells", len(pending))
	}
	return nil
}
