package engine

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/ickb/orderbot/pkg/types"
)

// The sidecar speaks hex quantities; amounts cross the wire as hexutil.Big.

type wireRatio struct {
	BaseMultiplier  *hexutil.Big `json:"base_multiplier"`
	QuoteMultiplier *hexutil.Big `json:"quote_multiplier"`
}

type wireOrderInfo struct {
	Direction   string       `json:"direction"`
	Ratio       wireRatio    `json:"ratio"`
	IsMatchable bool         `json:"is_matchable"`
	BaseAmount  *hexutil.Big `json:"base_amount"`
	QuoteAmount *hexutil.Big `json:"quote_amount"`
}

type wireOrder struct {
	Cell types.Cell    `json:"cell"`
	Info wireOrderInfo `json:"info"`
}

type wireIntent struct {
	Direction    string       `json:"direction"`
	Amount       *hexutil.Big `json:"amount"`
	Ratio        wireRatio    `json:"ratio"`
	TerminalLock types.Script `json:"terminal_lock"`
}

type wireBalance struct {
	Total     *hexutil.Big `json:"total"`
	Available *hexutil.Big `json:"available"`
}

type wirePools struct {
	Lock       types.Script   `json:"lock"`
	TokenType  types.Script   `json:"token_type"`
	Capacities []types.Cell   `json:"capacities"`
	Tokens     []types.Cell   `json:"tokens"`
	FeeRate    hexutil.Uint64 `json:"fee_rate"`
	Base       wireBalance    `json:"base"`
	Quote      wireBalance    `json:"quote"`
}

type siftResult struct {
	Orders    []wireOrder  `json:"orders"`
	Remainder []types.Cell `json:"remainder"`
}

func toBig(x *uint256.Int) *hexutil.Big {
	return (*hexutil.Big)(x.ToBig())
}

func fromBig(b *hexutil.Big, field string) (uint256.Int, error) {
	var out uint256.Int
	if b == nil {
		return out, fmt.Errorf("%s missing", field)
	}
	if (*big.Int)(b).Sign() < 0 {
		return out, fmt.Errorf("%s is negative", field)
	}
	if out.SetFromBig((*big.Int)(b)) {
		return out, fmt.Errorf("%s overflows 256 bits", field)
	}
	return out, nil
}

func encodeDirection(d types.Direction) string {
	return d.String()
}

func decodeDirection(s string) (types.Direction, error) {
	switch s {
	case types.BaseToQuote.String():
		return types.BaseToQuote, nil
	case types.QuoteToBase.String():
		return types.QuoteToBase, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func encodeRatio(r types.ExchangeRatio) wireRatio {
	return wireRatio{
		BaseMultiplier:  toBig(&r.BaseMultiplier),
		QuoteMultiplier: toBig(&r.QuoteMultiplier),
	}
}

func decodeRatio(w wireRatio) (types.ExchangeRatio, error) {
	var (
		r   types.ExchangeRatio
		err error
	)
	if r.BaseMultiplier, err = fromBig(w.BaseMultiplier, "base_multiplier"); err != nil {
		return r, err
	}
	if r.QuoteMultiplier, err = fromBig(w.QuoteMultiplier, "quote_multiplier"); err != nil {
		return r, err
	}
	return r, nil
}

func encodeOrder(o types.Order) wireOrder {
	return wireOrder{
		Cell: o.Cell,
		Info: wireOrderInfo{
			Direction:   encodeDirection(o.Info.Direction),
			Ratio:       encodeRatio(o.Info.Ratio),
			IsMatchable: o.Info.IsMatchable,
			BaseAmount:  toBig(&o.Info.BaseAmount),
			QuoteAmount: toBig(&o.Info.QuoteAmount),
		},
	}
}

func decodeOrder(w wireOrder) (types.Order, error) {
	order := types.Order{Cell: w.Cell}
	info := &order.Info
	var err error

	if info.Direction, err = decodeDirection(w.Info.Direction); err != nil {
		return order, err
	}
	if info.Ratio, err = decodeRatio(w.Info.Ratio); err != nil {
		return order, err
	}
	if info.BaseAmount, err = fromBig(w.Info.BaseAmount, "base_amount"); err != nil {
		return order, err
	}
	if info.QuoteAmount, err = fromBig(w.Info.QuoteAmount, "quote_amount"); err != nil {
		return order, err
	}
	info.IsMatchable = w.Info.IsMatchable
	return order, nil
}

func encodeIntent(i types.OrderIntent) wireIntent {
	return wireIntent{
		Direction:    encodeDirection(i.Direction),
		Amount:       toBig(&i.Amount),
		Ratio:        encodeRatio(i.Ratio),
		TerminalLock: i.TerminalLock,
	}
}

func encodePools(p types.AssetPools) wirePools {
	return wirePools{
		Lock:       p.Lock,
		TokenType:  p.TokenType,
		Capacities: p.Capacities,
		Tokens:     p.Tokens,
		FeeRate:    hexutil.Uint64(p.FeeRate),
		Base: wireBalance{
			Total:     toBig(&p.Base.Total),
			Available: toBig(&p.Base.Available),
		},
		Quote: wireBalance{
			Total:     toBig(&p.Quote.Total),
			Available: toBig(&p.Quote.Available),
		},
	}
}
