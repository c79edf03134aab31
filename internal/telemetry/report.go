// Package telemetry builds the per-iteration execution report.
package telemetry

import (
	"time"

	"github.com/ickb/orderbot/internal/balance"
	"github.com/ickb/orderbot/internal/decision"
	"github.com/ickb/orderbot/pkg/types"
)

// Report is the write-once record of one iteration.
type Report struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"startTime"`

	Balances *Balances `json:"balances,omitempty"`
	Ratio    *Ratio    `json:"ratio,omitempty"`
	TipBlock uint64    `json:"tipBlock,omitempty"`

	Decision *Order `json:"decision,omitempty"`

	Outcome         string `json:"outcome,omitempty"`
	NewOrder        *Order `json:"newOrder,omitempty"`
	CancelledOrders int    `json:"cancelledOrders"`
	MeltedOrders    int    `json:"meltedOrders"`
	Fallback        bool   `json:"fallback,omitempty"`
	Consolidated    bool   `json:"consolidated,omitempty"`
	Fee             uint64 `json:"fee,omitempty"`
	FeeRate         uint64 `json:"feeRate,omitempty"`
	TxHash          string `json:"txHash,omitempty"`
	DryRun          bool   `json:"dryRun,omitempty"`

	Error string `json:"error,omitempty"`

	Shutdown       bool   `json:"shutdown,omitempty"`
	ShutdownReason string `json:"shutdownReason,omitempty"`

	ElapsedSeconds float64 `json:"elapsedSeconds"`
}

// Balance is an asset balance in smallest units.
type Balance struct {
	Total     string `json:"total"`
	Available string `json:"available"`
	Locked    string `json:"locked"`
	Display   string `json:"display"`
}

// Balances holds both assets.
type Balances struct {
	Base  Balance `json:"base"`
	Quote Balance `json:"quote"`
}

// Ratio is an exchange ratio snapshot.
type Ratio struct {
	BaseMultiplier  string `json:"baseMultiplier"`
	QuoteMultiplier string `json:"quoteMultiplier"`
}

// Order describes a new order.
type Order struct {
	Direction string `json:"direction"`
	Amount    string `json:"amount"`
	Ratio     Ratio  `json:"ratio"`
}

func newBalance(b types.AssetBalance) Balance {
	return Balance{
		Total:     b.Total.Dec(),
		Available: b.Available.Dec(),
		Locked:    b.Locked.Dec(),
		Display:   types.FormatAmount(&b.Total),
	}
}

func newBalances(b balance.Balances) *Balances {
	return &Balances{Base: newBalance(b.Base), Quote: newBalance(b.Quote)}
}

func newRatio(r types.ExchangeRatio) Ratio {
	return Ratio{
		BaseMultiplier:  r.BaseMultiplier.Dec(),
		QuoteMultiplier: r.QuoteMultiplier.Dec(),
	}
}

func newOrder(i types.OrderIntent) *Order {
	return &Order{
		Direction: i.Direction.String(),
		Amount:    i.Amount.Dec(),
		Ratio:     newRatio(i.Ratio),
	}
}

func newDecision(d decision.Decision) *Order {
	if d.Action != decision.ActionPlaceOrder {
		return nil
	}
	return newOrder(*d.Intent(types.Script{}))
}
