// Package oracle derives the coin/token exchange ratio from the chain tip.
//
// The token is backed by coins deposited in the NervosDAO, so its value grows with
// the accumulated rate (AR) recorded in every block header: one token is worth
// AR/AR0 coins, where AR0 is the genesis accumulated rate.
package oracle

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/ickb/orderbot/pkg/types"
)

// GenesisAccumulatedRate is AR0, the accumulated rate at genesis.
const GenesisAccumulatedRate uint64 = 10_000_000_000_000_000

const daoFieldSize = 32

// DAO reads the exchange ratio from the header DAO field.
type DAO struct{}

// NewDAO returns a header-based oracle.
func NewDAO() *DAO {
	return &DAO{}
}

// Ratio returns {BaseMultiplier: AR0, QuoteMultiplier: AR} for the given header.
func (d *DAO) Ratio(header types.Header) (types.ExchangeRatio, error) {
	ar, err := AccumulatedRate(header)
	if err != nil {
		return types.ExchangeRatio{}, err
	}

	return types.ExchangeRatio{
		BaseMultiplier:  *uint256.NewInt(GenesisAccumulatedRate),
		QuoteMultiplier: *uint256.NewInt(ar),
	}, nil
}

// AccumulatedRate extracts AR, the little-endian u64 at bytes 8..16 of the DAO field.
func AccumulatedRate(header types.Header) (uint64, error) {
	if len(header.DAO) != daoFieldSize {
		return 0, fmt.Errorf("header %d: dao field is %d bytes, want %d",
			uint64(header.Number), len(header.DAO), daoFieldSize)
	}

	ar := binary.LittleEndian.Uint64(header.DAO[8:16])
	if ar == 0 {
		return 0, fmt.Errorf("header %d: zero accumulated rate", uint64(header.Number))
	}
	return ar, nil
}
