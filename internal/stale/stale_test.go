package stale

import (
	"math/rand"
	"testing"

	"github.com/ickb/orderbot/internal/testutil"
	"github.com/ickb/orderbot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func order(n int, block uint64, matchable bool) types.Order {
	return testutil.Order(n, block, types.BaseToQuote, matchable, 1, 0)
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name   string
		orders []types.Order
		tip    uint64
		want   int
	}{
		{
			name: "empty",
			tip:  1000,
			want: 0,
		},
		{
			name:   "all-stale",
			orders: []types.Order{order(1, 10, true), order(2, 20, true), order(3, 900, true)},
			tip:    1000,
			want:   3,
		},
		{
			name:   "exact-threshold",
			orders: []types.Order{order(1, 900, true), order(2, 901, true)},
			tip:    1000,
			want:   1,
		},
		{
			name:   "stops-at-fresh-order",
			orders: []types.Order{order(1, 10, true), order(2, 950, true), order(3, 11, true)},
			tip:    1000,
			want:   1,
		},
		{
			name:   "stops-at-unmatchable-order",
			orders: []types.Order{order(1, 10, true), order(2, 11, false), order(3, 12, true)},
			tip:    1000,
			want:   1,
		},
		{
			name:   "future-block-is-age-zero",
			orders: []types.Order{order(1, 2000, true)},
			tip:    1000,
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.orders, tt.tip, 100)

			require.Len(t, got, tt.want)
			for i := range got {
				assert.Equal(t, tt.orders[i].OutPoint, got[i].OutPoint)
			}
		})
	}
}

func TestSelect_MaximalPrefix(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for round := 0; round < 200; round++ {
		var orders []types.Order
		n := rng.Intn(12)
		for i := 0; i < n; i++ {
			orders = append(orders, order(i, uint64(rng.Int63n(1000)), rng.Intn(5) != 0))
		}
		types.SortOrders(orders)
		tip := uint64(1000)
		threshold := uint64(rng.Int63n(300))

		got := Select(orders, tip, threshold)

		qualifies := func(o types.Order) bool {
			return o.Info.IsMatchable && tip-uint64(o.BlockNumber) >= threshold
		}
		for _, o := range got {
			assert.True(t, qualifies(o))
		}
		if len(got) < len(orders) {
			assert.False(t, qualifies(orders[len(got)]), "prefix is maximal")
		}
	}
}

func TestSelect_DoesNotAliasInput(t *testing.T) {
	orders := []types.Order{order(1, 1, true), order(2, 999, true)}

	got := Select(orders, 1000, 100)
	got = append(got, order(3, 1, true))

	assert.Len(t, got, 2)
	assert.Equal(t, testutil.OutPoint(2), orders[1].OutPoint)
}

func TestCompletedAndOpen(t *testing.T) {
	orders := []types.Order{order(1, 1, true), order(2, 2, false), order(3, 3, true), order(4, 4, false)}

	completed := Completed(orders)
	open := Open(orders)

	require.Len(t, completed, 2)
	assert.Equal(t, testutil.OutPoint(2), completed[0].OutPoint)
	assert.Equal(t, testutil.OutPoint(4), completed[1].OutPoint)
	require.Len(t, open, 2)
	assert.Equal(t, testutil.OutPoint(1), open[0].OutPoint)
	assert.Empty(t, Completed(nil))
}

func TestAge(t *testing.T) {
	assert.Equal(t, uint64(100), Age(order(1, 900, true), 1000))
	assert.Zero(t, Age(order(1, 1000, true), 1000))
	assert.Zero(t, Age(order(1, 1001, true), 1000), "ahead of tip")
}
