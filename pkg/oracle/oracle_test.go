package oracle

import (
	"encoding/binary"
	"testing"

	"github.com/holiman/uint256"
	"github.com/ickb/orderbot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headerWithAR(ar uint64) types.Header {
	dao := make([]byte, 32)
	binary.LittleEndian.PutUint64(dao[8:16], ar)
	return types.Header{Number: 42, DAO: dao}
}

func TestDAO_Ratio(t *testing.T) {
	ar := GenesisAccumulatedRate + GenesisAccumulatedRate/20 // 5% accrued

	ratio, err := NewDAO().Ratio(headerWithAR(ar))

	require.NoError(t, err)
	assert.Equal(t, GenesisAccumulatedRate, ratio.BaseMultiplier.Uint64())
	assert.Equal(t, ar, ratio.QuoteMultiplier.Uint64())

	// 100 tokens are worth 105 coins
	coins, err := ratio.ToBase(uint256.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, uint64(105), coins.Uint64())
}

func TestDAO_Ratio_InvalidHeader(t *testing.T) {
	tests := []struct {
		name   string
		header types.Header
	}{
		{name: "missing-dao", header: types.Header{Number: 1}},
		{name: "short-dao", header: types.Header{Number: 1, DAO: make([]byte, 16)}},
		{name: "zero-rate", header: headerWithAR(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDAO().Ratio(tt.header)
			assert.Error(t, err)
		})
	}
}
