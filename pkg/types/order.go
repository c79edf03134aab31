package types

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"
)

// Direction is the side of a limit order.
type Direction int

// Trade directions. BaseToQuote gives the coin and receives the token.
const (
	BaseToQuote Direction = iota
	QuoteToBase
)

func (d Direction) String() string {
	switch d {
	case BaseToQuote:
		return "base-to-quote"
	case QuoteToBase:
		return "quote-to-base"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	if d == BaseToQuote {
		return QuoteToBase
	}
	return BaseToQuote
}

// OrderInfo is the decoded state of a limit order cell.
type OrderInfo struct {
	Direction   Direction
	Ratio       ExchangeRatio
	IsMatchable bool
	// BaseAmount is the coin held by the order cell, capacity included.
	BaseAmount uint256.Int
	// QuoteAmount is the token held by the order cell.
	QuoteAmount uint256.Int
}

// Order is a limit order cell owned by the bot.
type Order struct {
	Cell
	Info OrderInfo
}

// SortOrders orders by block number ascending (oldest first), then outpoint.
func SortOrders(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].BlockNumber != orders[j].BlockNumber {
			return orders[i].BlockNumber < orders[j].BlockNumber
		}
		return orders[i].OutPoint.Less(orders[j].OutPoint)
	})
}

// OrderIntent describes a new order the bot wants to mint.
type OrderIntent struct {
	Direction    Direction
	Amount       uint256.Int
	Ratio        ExchangeRatio
	TerminalLock Script
}
