package testutil

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/ickb/orderbot/pkg/types"
)

//nolint:gochecknoglobals // test fixtures
var (
	// BotLock is the lock of the bot's own cells.
	BotLock = types.Script{CodeHash: common.Hash{0xb0}, HashType: types.HashTypeType, Args: hexutil.Bytes{0x01, 0x02, 0x03}}

	// OrderLock is the lock shared by all limit order cells.
	OrderLock = types.Script{CodeHash: common.Hash{0x0d}, HashType: types.HashTypeData1}

	// TokenType is the type script of the quote token.
	TokenType = types.Script{CodeHash: common.Hash{0x70}, HashType: types.HashTypeData1, Args: hexutil.Bytes{0x09}}

	// OtherLock belongs to somebody else.
	OtherLock = types.Script{CodeHash: common.Hash{0xee}, HashType: types.HashTypeType, Args: hexutil.Bytes{0x04}}
)

// Units converts whole units into base units (10^8).
func Units(whole uint64) uint256.Int {
	var out uint256.Int
	out.Mul(uint256.NewInt(whole), uint256.NewInt(100_000_000))
	return out
}

// OutPoint returns a distinct outpoint for n.
func OutPoint(n int) types.OutPoint {
	var h common.Hash
	binary.BigEndian.PutUint64(h[24:], uint64(n)+1)
	return types.OutPoint{TxHash: h}
}

// CapacityCell is a plain coin cell of the bot.
func CapacityCell(n int, capacity uint64) types.Cell {
	return types.Cell{
		OutPoint:    OutPoint(n),
		Output:      types.CellOutput{Capacity: hexutil.Uint64(capacity), Lock: BotLock},
		BlockNumber: 1,
	}
}

// TokenCell is a token cell of the bot holding amount tokens.
func TokenCell(n int, capacity, amount uint64) types.Cell {
	tokenType := TokenType
	return types.Cell{
		OutPoint: OutPoint(n),
		Output: types.CellOutput{
			Capacity: hexutil.Uint64(capacity),
			Lock:     BotLock,
			Type:     &tokenType,
		},
		Data:        types.EncodeTokenAmount(uint256.NewInt(amount)),
		BlockNumber: 1,
	}
}

// OrderCell is a cell under the order lock created at block.
func OrderCell(n int, block uint64) types.Cell {
	tokenType := TokenType
	return types.Cell{
		OutPoint:    OutPoint(n),
		Output:      types.CellOutput{Capacity: 100, Lock: OrderLock, Type: &tokenType},
		Data:        make(hexutil.Bytes, 16),
		BlockNumber: hexutil.Uint64(block),
	}
}

// Order is a decoded order of the bot holding the given amounts.
func Order(n int, block uint64, dir types.Direction, matchable bool, base, quote uint64) types.Order {
	return types.Order{
		Cell: OrderCell(n, block),
		Info: types.OrderInfo{
			Direction:   dir,
			Ratio:       types.NewExchangeRatio(1, 1),
			IsMatchable: matchable,
			BaseAmount:  *uint256.NewInt(base),
			QuoteAmount: *uint256.NewInt(quote),
		},
	}
}

// Balance builds an AssetBalance with no locked funds.
func Balance(asset types.Asset, available uint64) types.AssetBalance {
	return types.AssetBalance{
		Asset:     asset,
		Total:     *uint256.NewInt(available),
		Available: *uint256.NewInt(available),
	}
}

// Header is a tip header at number with the given accumulated rate.
func Header(number, accumulatedRate uint64) types.Header {
	dao := make(hexutil.Bytes, 32)
	binary.LittleEndian.PutUint64(dao[8:16], accumulatedRate)
	return types.Header{Number: hexutil.Uint64(number), DAO: dao}
}
