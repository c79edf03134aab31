package execution

import (
	"context"

	"github.com/ickb/orderbot/pkg/types"
)

// OrderEngine encodes order cells into a skeleton.
type OrderEngine interface {
	Create(ctx context.Context, tx *types.TxSkeleton, intent types.OrderIntent) (*types.TxSkeleton, error)
	Cancel(ctx context.Context, tx *types.TxSkeleton, order types.Order) (*types.TxSkeleton, error)
	Melt(ctx context.Context, tx *types.TxSkeleton, orders []types.Order) (*types.TxSkeleton, error)
}

// FundingEngine adds inputs, change and fees to a skeleton.
// In strict mode a shortfall must wrap types.ErrInsufficientFunds.
// Non-strict mode may spend every pooled cell and shrink outputs locked to
// the bot to cover the fee; it is used when consolidating.
type FundingEngine interface {
	Fund(ctx context.Context, tx *types.TxSkeleton, pools types.AssetPools, strict bool) (*types.TxSkeleton, error)
}
