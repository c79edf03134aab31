// Package balance derives per-asset totals from classified cells.
package balance

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/ickb/orderbot/internal/classifier"
	"github.com/ickb/orderbot/pkg/types"
)

// Balances holds both asset balances.
type Balances struct {
	Base  types.AssetBalance
	Quote types.AssetBalance
}

// Compute totals the classified cells. Orders consumed by planned (melted,
// cancelled or spent) count toward the totals but not toward the locked amounts.
func Compute(cells *classifier.Result, planned *types.TxSkeleton) (Balances, error) {
	base := types.AssetBalance{Asset: types.AssetBase}
	quote := types.AssetBalance{Asset: types.AssetQuote}

	for _, c := range cells.Capacities {
		if err := add(&base.Total, uint256.NewInt(c.Capacity()), types.AssetBase); err != nil {
			return Balances{}, err
		}
	}

	for _, c := range cells.Tokens {
		if err := add(&base.Total, uint256.NewInt(c.Capacity()), types.AssetBase); err != nil {
			return Balances{}, err
		}
		amount, err := types.TokenAmount(c.Data)
		if err != nil {
			return Balances{}, fmt.Errorf("token cell %s: %w", c.OutPoint, err)
		}
		if err := add(&quote.Total, &amount, types.AssetQuote); err != nil {
			return Balances{}, err
		}
	}

	for _, o := range cells.Orders {
		if err := add(&base.Total, &o.Info.BaseAmount, types.AssetBase); err != nil {
			return Balances{}, err
		}
		if err := add(&quote.Total, &o.Info.QuoteAmount, types.AssetQuote); err != nil {
			return Balances{}, err
		}

		if planned != nil && planned.Consumes(o.OutPoint) {
			continue
		}
		if err := add(&base.Locked, &o.Info.BaseAmount, types.AssetBase); err != nil {
			return Balances{}, err
		}
		if err := add(&quote.Locked, &o.Info.QuoteAmount, types.AssetQuote); err != nil {
			return Balances{}, err
		}
	}

	if err := settle(&base); err != nil {
		return Balances{}, err
	}
	if err := settle(&quote); err != nil {
		return Balances{}, err
	}

	return Balances{Base: base, Quote: quote}, nil
}

// BaseEquivalent values the combined totals in base units at ratio.
func (b Balances) BaseEquivalent(ratio types.ExchangeRatio) (uint256.Int, error) {
	quoteInBase, err := ratio.ToBase(&b.Quote.Total)
	if err != nil {
		return uint256.Int{}, err
	}

	var total uint256.Int
	if _, overflow := total.AddOverflow(&b.Base.Total, &quoteInBase); overflow {
		return uint256.Int{}, errors.New("base equivalent overflows")
	}
	return total, nil
}

func add(sum, x *uint256.Int, asset types.Asset) error {
	if _, overflow := sum.AddOverflow(sum, x); overflow {
		return &types.InvariantError{Asset: asset, Detail: "total overflows 256 bits"}
	}
	return nil
}

// settle sets Available = Total - Locked, refusing to clamp an underflow.
func settle(b *types.AssetBalance) error {
	if _, underflow := b.Available.SubOverflow(&b.Total, &b.Locked); underflow {
		return &types.InvariantError{
			Asset:  b.Asset,
			Detail: fmt.Sprintf("locked %s exceeds total %s", b.Locked.Dec(), b.Total.Dec()),
		}
	}
	return nil
}
