package execution

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ickb/orderbot/pkg/types"
)

// Composer sequences order engine calls into a draft transaction.
// It never funds or submits.
type Composer struct {
	orders OrderEngine
}

// NewComposer creates a composer.
func NewComposer(orders OrderEngine) (*Composer, error) {
	if orders == nil {
		return nil, errors.New("order engine cannot be nil")
	}
	return &Composer{orders: orders}, nil
}

// Base returns the skeleton every draft starts from: completed orders melted
// and stale orders cancelled. Balances are computed against it, so the funds
// those orders release count as available.
func (c *Composer) Base(ctx context.Context, completed, stale []types.Order) (*types.TxSkeleton, error) {
	tx := types.NewTxSkeleton()

	if len(completed) > 0 {
		melted, err := c.orders.Melt(ctx, tx, completed)
		if err != nil {
			return nil, fmt.Errorf("melt %d completed orders: %w", len(completed), err)
		}
		for _, o := range completed {
			melted.Melted = append(melted.Melted, o.OutPoint)
		}
		tx = melted
	}

	for _, o := range stale {
		next, err := c.orders.Cancel(ctx, tx, o)
		if err != nil {
			return nil, fmt.Errorf("cancel order %s: %w", o.OutPoint, err)
		}
		next.Cancelled = append(next.Cancelled, o.OutPoint)
		tx = next
	}
	return tx, nil
}

// Compose mints the intended order on top of base and appends the
// consolidation output. Either may be nil. base is not modified.
func (c *Composer) Compose(
	ctx context.Context,
	base *types.TxSkeleton,
	intent *types.OrderIntent,
	consolidation *types.CellOutput,
) (*types.TxSkeleton, error) {
	tx := base.Clone()

	if intent != nil {
		next, err := c.orders.Create(ctx, tx, *intent)
		if err != nil {
			return nil, fmt.Errorf("create %s order: %w", intent.Direction, err)
		}
		recorded := *intent
		next.NewOrder = &recorded
		tx = next
	}

	if consolidation != nil {
		tx.Outputs = append(tx.Outputs, *consolidation)
		tx.OutputsData = append(tx.OutputsData, hexutil.Bytes{})
		tx.Consolidated = true
	}
	return tx, nil
}
