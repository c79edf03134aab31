package bot

import (
	"context"
	"math/rand"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ickb/orderbot/pkg/ledger"
	"github.com/ickb/orderbot/pkg/types"
)

// Ledger is the chain access the bot needs.
type Ledger interface {
	GetCells(ctx context.Context, q ledger.Query) ([]types.Cell, error)
	GetTipHeader(ctx context.Context) (types.Header, error)
	GetFeeRate(ctx context.Context, target uint64) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error)
	GetTransactions(ctx context.Context, hashes []common.Hash) (map[common.Hash]types.TxOutputs, error)
}

// Signer owns the bot's key.
type Signer interface {
	Lock() types.Script
	Sign(tx *types.TxSkeleton) (*types.Transaction, error)
}

// Oracle prices the token in coins at a given header.
type Oracle interface {
	Ratio(header types.Header) (types.ExchangeRatio, error)
}

// SystemRand draws from the math/rand global source.
type SystemRand struct{}

// Float64 returns a uniform draw in [0, 1).
func (SystemRand) Float64() float64 {
	return rand.Float64()
}
