package types

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// ExchangeRatio defines the rate base·BaseMultiplier = quote·QuoteMultiplier.
type ExchangeRatio struct {
	BaseMultiplier  uint256.Int
	QuoteMultiplier uint256.Int
}

// NewExchangeRatio builds a ratio from two u64 multipliers.
func NewExchangeRatio(base, quote uint64) ExchangeRatio {
	return ExchangeRatio{
		BaseMultiplier:  *uint256.NewInt(base),
		QuoteMultiplier: *uint256.NewInt(quote),
	}
}

// Validate rejects ratios with a zero multiplier.
func (r ExchangeRatio) Validate() error {
	if r.BaseMultiplier.IsZero() || r.QuoteMultiplier.IsZero() {
		return errors.New("exchange ratio multipliers must be positive")
	}
	return nil
}

// ToBase converts a quote amount into base units, truncating.
func (r ExchangeRatio) ToBase(quote *uint256.Int) (uint256.Int, error) {
	return convert(quote, &r.QuoteMultiplier, &r.BaseMultiplier)
}

// ToQuote converts a base amount into quote units, truncating.
func (r ExchangeRatio) ToQuote(base *uint256.Int) (uint256.Int, error) {
	return convert(base, &r.BaseMultiplier, &r.QuoteMultiplier)
}

func (r ExchangeRatio) String() string {
	return fmt.Sprintf("%s:%s", r.BaseMultiplier.Dec(), r.QuoteMultiplier.Dec())
}

func convert(amount, from, to *uint256.Int) (uint256.Int, error) {
	var out uint256.Int
	if to.IsZero() {
		return out, errors.New("division by zero multiplier")
	}
	if _, overflow := out.MulOverflow(amount, from); overflow {
		return out, fmt.Errorf("amount %s overflows at multiplier %s", amount.Dec(), from.Dec())
	}
	out.Div(&out, to)
	return out, nil
}
