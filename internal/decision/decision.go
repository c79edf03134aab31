// Package decision picks the direction, size and price of the next order.
//
// Direction is drawn with probability proportional to the value held on each
// side, so the bot drifts back toward an even split. Size is a random fraction
// of a per-order soft cap, bounded by what is available above a reserve. The
// price is the oracle ratio shifted 0.1% in the bot's favour.
package decision

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/ickb/orderbot/pkg/types"
	"github.com/shopspring/decimal"
)

// SpreadDivisor sets the bot spread: the receive-side multiplier shrinks by 1/SpreadDivisor.
const SpreadDivisor = 1000

// Rand is a source of uniform draws in [0, 1).
type Rand interface {
	Float64() float64
}

// Action is the outcome kind of a decision.
type Action string

// Actions.
const (
	ActionNone       Action = "none"
	ActionPlaceOrder Action = "place-order"
)

// Config bounds order sizes per asset. A zero BaseSoftCap is derived from
// QuoteSoftCap at the current oracle ratio.
type Config struct {
	BaseSoftCap  uint256.Int
	QuoteSoftCap uint256.Int
	BaseReserve  uint256.Int
	QuoteReserve uint256.Int
}

// Validate checks that at least the quote soft cap is set.
func (c Config) Validate() error {
	if c.QuoteSoftCap.IsZero() {
		return errors.New("quote soft cap must be positive")
	}
	return nil
}

// Decision is the order to place, if any.
type Decision struct {
	Action    Action
	Direction types.Direction
	// Amount is in units of the asset given away.
	Amount uint256.Int
	// Ratio is the bot-adjusted ratio.
	Ratio types.ExchangeRatio
}

// Intent converts a place-order decision into an order intent paying out to lock.
func (d Decision) Intent(lock types.Script) *types.OrderIntent {
	if d.Action != ActionPlaceOrder {
		return nil
	}
	return &types.OrderIntent{
		Direction:    d.Direction,
		Amount:       d.Amount,
		Ratio:        d.Ratio,
		TerminalLock: lock,
	}
}

// Engine makes decisions. It holds no state besides its random source.
type Engine struct {
	cfg  Config
	rand Rand
}

// New creates an engine.
func New(cfg Config, rand Rand) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rand == nil {
		return nil, errors.New("rand cannot be nil")
	}
	return &Engine{cfg: cfg, rand: rand}, nil
}

// Decide draws twice from the random source, once for direction and once for size.
func (e *Engine) Decide(base, quote types.AssetBalance, oracle types.ExchangeRatio) (Decision, error) {
	if err := oracle.Validate(); err != nil {
		return Decision{}, err
	}

	baseValue := base.Available
	quoteValue, err := oracle.ToBase(&quote.Available)
	if err != nil {
		return Decision{}, fmt.Errorf("value quote balance: %w", err)
	}

	var sum uint256.Int
	if _, overflow := sum.AddOverflow(&baseValue, &quoteValue); overflow {
		return Decision{}, errors.New("combined balance overflows")
	}

	threshold := scale(&sum, e.rand.Float64())
	dir := types.QuoteToBase
	if threshold.Cmp(&baseValue) <= 0 {
		dir = types.BaseToQuote
	}

	baseCap, err := e.baseSoftCap(oracle)
	if err != nil {
		return Decision{}, err
	}

	r2 := e.rand.Float64()
	sizes := map[types.Direction]uint256.Int{
		types.BaseToQuote: size(r2, &baseCap, &base.Available, &e.cfg.BaseReserve),
		types.QuoteToBase: size(r2, &e.cfg.QuoteSoftCap, &quote.Available, &e.cfg.QuoteReserve),
	}

	amount := sizes[dir]
	if amount.IsZero() {
		dir = dir.Opposite()
		amount = sizes[dir]
	}
	if amount.IsZero() {
		return Decision{Action: ActionNone, Ratio: oracle}, nil
	}

	return Decision{
		Action:    ActionPlaceOrder,
		Direction: dir,
		Amount:    amount,
		Ratio:     Adjust(oracle, dir),
	}, nil
}

func (e *Engine) baseSoftCap(oracle types.ExchangeRatio) (uint256.Int, error) {
	if !e.cfg.BaseSoftCap.IsZero() {
		return e.cfg.BaseSoftCap, nil
	}
	derived, err := oracle.ToBase(&e.cfg.QuoteSoftCap)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("derive base soft cap: %w", err)
	}
	return derived, nil
}

// Adjust shrinks the multiplier of the side the bot receives by ⌊m/SpreadDivisor⌋.
func Adjust(oracle types.ExchangeRatio, dir types.Direction) types.ExchangeRatio {
	out := oracle
	m := &out.QuoteMultiplier
	if dir == types.QuoteToBase {
		m = &out.BaseMultiplier
	}

	var spread uint256.Int
	spread.Div(m, uint256.NewInt(SpreadDivisor))
	m.Sub(m, &spread)
	return out
}

// size is round(r·softCap) capped at softCap, then at available - reserve (floored at zero).
func size(r float64, softCap, available, reserve *uint256.Int) uint256.Int {
	amount := scale(softCap, r)
	if amount.Gt(softCap) {
		amount = *softCap
	}

	var spendable uint256.Int
	if available.Gt(reserve) {
		spendable.Sub(available, reserve)
	}
	if amount.Gt(&spendable) {
		amount = spendable
	}
	return amount
}

// scale rounds x·r half away from zero.
func scale(x *uint256.Int, r float64) uint256.Int {
	d := decimal.NewFromBigInt(x.ToBig(), 0).Mul(decimal.NewFromFloat(r)).Round(0)

	var out uint256.Int
	if d.Sign() <= 0 {
		return out
	}
	if out.SetFromBig(d.BigInt()) {
		return *x
	}
	return out
}
