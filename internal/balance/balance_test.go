package balance

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/ickb/orderbot/internal/classifier"
	"github.com/ickb/orderbot/internal/testutil"
	"github.com/ickb/orderbot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_Totals(t *testing.T) {
	open := testutil.Order(3, 1, types.BaseToQuote, true, 400, 7)
	done := testutil.Order(4, 1, types.QuoteToBase, false, 50, 3)

	cells := &classifier.Result{
		Capacities: []types.Cell{testutil.CapacityCell(1, 1000)},
		Tokens:     []types.Cell{testutil.TokenCell(2, 200, 90)},
		Orders:     []types.Order{open, done},
	}
	planned := types.NewTxSkeleton()
	planned.Melted = []types.OutPoint{done.OutPoint}

	got, err := Compute(cells, planned)
	require.NoError(t, err)

	assert.Equal(t, uint64(1000+200+400+50), got.Base.Total.Uint64())
	assert.Equal(t, uint64(400), got.Base.Locked.Uint64())
	assert.Equal(t, uint64(1250), got.Base.Available.Uint64())

	assert.Equal(t, uint64(90+7+3), got.Quote.Total.Uint64())
	assert.Equal(t, uint64(7), got.Quote.Locked.Uint64())
	assert.Equal(t, uint64(93), got.Quote.Available.Uint64())

	assert.Equal(t, types.AssetBase, got.Base.Asset)
	assert.Equal(t, types.AssetQuote, got.Quote.Asset)
}

func TestCompute_NilPlanLocksEveryOrder(t *testing.T) {
	cells := &classifier.Result{
		Orders: []types.Order{testutil.Order(1, 1, types.BaseToQuote, true, 10, 5)},
	}

	got, err := Compute(cells, nil)
	require.NoError(t, err)

	assert.True(t, got.Base.Available.IsZero())
	assert.True(t, got.Quote.Available.IsZero())
	assert.Equal(t, uint64(10), got.Base.Locked.Uint64())
}

func TestCompute_AvailableNeverExceedsTotal(t *testing.T) {
	for n := 0; n < 20; n++ {
		var orders []types.Order
		planned := types.NewTxSkeleton()
		for i := 0; i < n; i++ {
			o := testutil.Order(i, uint64(i), types.BaseToQuote, i%3 != 0, uint64(i*100), uint64(i*7))
			orders = append(orders, o)
			if i%2 == 0 {
				planned.Cancelled = append(planned.Cancelled, o.OutPoint)
			}
		}

		got, err := Compute(&classifier.Result{Orders: orders}, planned)
		require.NoError(t, err)

		for _, b := range []types.AssetBalance{got.Base, got.Quote} {
			var sum uint256.Int
			sum.Add(&b.Available, &b.Locked)
			assert.True(t, sum.Eq(&b.Total))
			assert.True(t, b.Available.Cmp(&b.Total) <= 0)
		}
	}
}

func TestCompute_BadTokenData(t *testing.T) {
	token := testutil.TokenCell(1, 100, 1)
	token.Data = token.Data[:4]

	_, err := Compute(&classifier.Result{Tokens: []types.Cell{token}}, nil)
	assert.Error(t, err)
}

func TestCompute_OverflowIsInvariantViolation(t *testing.T) {
	huge := testutil.Order(1, 1, types.BaseToQuote, true, 0, 0)
	huge.Info.BaseAmount = *new(uint256.Int).SetAllOne()

	_, err := Compute(&classifier.Result{
		Capacities: []types.Cell{testutil.CapacityCell(2, 1)},
		Orders:     []types.Order{huge},
	}, nil)

	require.Error(t, err)
	assert.True(t, types.IsInvariantViolation(err))
}

func TestSettle_Underflow(t *testing.T) {
	b := types.AssetBalance{Asset: types.AssetQuote, Total: *uint256.NewInt(1), Locked: *uint256.NewInt(2)}

	err := settle(&b)

	require.Error(t, err)
	assert.True(t, types.IsInvariantViolation(err))
	assert.Contains(t, err.Error(), "quote")
}

func TestBaseEquivalent(t *testing.T) {
	b := Balances{
		Base:  testutil.Balance(types.AssetBase, 500),
		Quote: testutil.Balance(types.AssetQuote, 100),
	}

	got, err := b.BaseEquivalent(types.NewExchangeRatio(100, 105))
	require.NoError(t, err)
	assert.Equal(t, uint64(605), got.Uint64())
}
