package cache

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ickb/orderbot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestCache(t *testing.T) *OutputCache {
	t.Helper()

	c, err := NewRistrettoCache(&RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func outputs(capacity uint64) types.TxOutputs {
	return types.TxOutputs{
		Outputs:     []types.CellOutput{{Capacity: hexutil.Uint64(capacity)}},
		OutputsData: []hexutil.Bytes{{0x01}},
	}
}

func TestOutputCache(t *testing.T) {
	var _ Cache = (*OutputCache)(nil)
	cache := newTestCache(t)

	t.Run("set-and-get", func(t *testing.T) {
		want := outputs(61)

		require.True(t, cache.Set(common.Hash{0xaa}, want))
		cache.Wait()

		got, found := cache.Get(common.Hash{0xaa})
		require.True(t, found)
		assert.Equal(t, want, got)
	})

	t.Run("get-missing-hash", func(t *testing.T) {
		got, found := cache.Get(common.Hash{0x01})
		assert.False(t, found)
		assert.Empty(t, got.Outputs)
	})

	t.Run("delete", func(t *testing.T) {
		cache.Set(common.Hash{0xbb}, outputs(1))
		cache.Wait()

		_, found := cache.Get(common.Hash{0xbb})
		require.True(t, found, "expected hash to exist before delete")

		cache.Delete(common.Hash{0xbb})

		_, found = cache.Get(common.Hash{0xbb})
		assert.False(t, found)
	})

	t.Run("clear", func(t *testing.T) {
		cache.Set(common.Hash{0xc1}, outputs(1))
		cache.Set(common.Hash{0xc2}, outputs(2))
		cache.Wait()

		_, found1 := cache.Get(common.Hash{0xc1})
		_, found2 := cache.Get(common.Hash{0xc2})
		if !found1 || !found2 {
			t.Skip("Ristretto probabilistic admission - some keys not admitted")
		}

		cache.Clear()

		_, found1 = cache.Get(common.Hash{0xc1})
		_, found2 = cache.Get(common.Hash{0xc2})
		assert.False(t, found1 || found2, "expected all hashes to be cleared")
	})
}
