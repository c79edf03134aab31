package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/ickb/orderbot/internal/testutil"
	"github.com/ickb/orderbot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intent() *types.OrderIntent {
	return &types.OrderIntent{
		Direction:    types.BaseToQuote,
		Amount:       *uint256.NewInt(500),
		Ratio:        types.NewExchangeRatio(1000, 999),
		TerminalLock: testutil.BotLock,
	}
}

func TestComposer_Base(t *testing.T) {
	engine := testutil.NewFakeOrderEngine()
	c, err := NewComposer(engine)
	require.NoError(t, err)

	empty, err := c.Base(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
	assert.Empty(t, engine.Melted)

	done := testutil.Order(1, 1, types.BaseToQuote, false, 10, 5)
	base, err := c.Base(context.Background(), []types.Order{done}, nil)
	require.NoError(t, err)
	assert.Equal(t, []types.OutPoint{done.OutPoint}, base.Melted)
	assert.True(t, base.Consumes(done.OutPoint))
	assert.Equal(t, 1, base.Cancellations())
}

func TestComposer_BaseCancelsStaleOrders(t *testing.T) {
	engine := testutil.NewFakeOrderEngine()
	c, err := NewComposer(engine)
	require.NoError(t, err)

	done := testutil.Order(9, 1, types.BaseToQuote, false, 10, 5)
	stale := []types.Order{
		testutil.Order(1, 1, types.BaseToQuote, true, 10, 0),
		testutil.Order(2, 2, types.QuoteToBase, true, 0, 10),
	}

	base, err := c.Base(context.Background(), []types.Order{done}, stale)

	require.NoError(t, err)
	assert.Equal(t, []types.OutPoint{done.OutPoint}, base.Melted)
	assert.Equal(t, []types.OutPoint{stale[0].OutPoint, stale[1].OutPoint}, base.Cancelled)
	assert.Equal(t, 3, base.Cancellations())
	assert.Len(t, base.Inputs, 3)
	assert.True(t, base.Consumes(stale[1].OutPoint))
	assert.Nil(t, base.NewOrder)
}

func TestComposer_Compose(t *testing.T) {
	engine := testutil.NewFakeOrderEngine()
	c, err := NewComposer(engine)
	require.NoError(t, err)

	base := types.NewTxSkeleton()
	base.Melted = []types.OutPoint{testutil.OutPoint(9)}
	base.Cancelled = []types.OutPoint{testutil.OutPoint(1)}

	tx, err := c.Compose(context.Background(), base, intent(), nil)

	require.NoError(t, err)
	assert.Equal(t, base.Cancelled, tx.Cancelled)
	assert.Equal(t, base.Melted, tx.Melted)
	require.NotNil(t, tx.NewOrder)
	assert.Equal(t, uint64(500), tx.NewOrder.Amount.Uint64())
	assert.Len(t, tx.Outputs, 1)
	assert.False(t, tx.Consolidated)
	assert.Len(t, engine.Created, 1)

	// base is untouched
	assert.Empty(t, base.Outputs)
	assert.Nil(t, base.NewOrder)
}

func TestComposer_ComposeConsolidation(t *testing.T) {
	engine := testutil.NewFakeOrderEngine()
	c, err := NewComposer(engine)
	require.NoError(t, err)

	merged := &types.CellOutput{Capacity: 12_000, Lock: testutil.BotLock}
	base := types.NewTxSkeleton()

	tx, err := c.Compose(context.Background(), base, intent(), merged)

	require.NoError(t, err)
	assert.True(t, tx.Consolidated)
	assert.False(t, tx.IsEmpty())
	require.Len(t, tx.Outputs, 2)
	assert.Equal(t, *merged, tx.Outputs[1])
	assert.Len(t, tx.OutputsData, len(tx.Outputs))
	assert.False(t, base.Consolidated)

	alone, err := c.Compose(context.Background(), base, nil, merged)
	require.NoError(t, err)
	assert.True(t, alone.Consolidated)
	assert.Nil(t, alone.NewOrder)
	assert.Len(t, alone.Outputs, 1)
	assert.Len(t, engine.Created, 1)
}

func TestComposer_ComposeNothing(t *testing.T) {
	c, err := NewComposer(testutil.NewFakeOrderEngine())
	require.NoError(t, err)

	tx, err := c.Compose(context.Background(), types.NewTxSkeleton(), nil, nil)

	require.NoError(t, err)
	assert.True(t, tx.IsEmpty())
}

func TestComposer_Errors(t *testing.T) {
	stale := []types.Order{testutil.Order(1, 1, types.BaseToQuote, true, 10, 0)}

	engine := testutil.NewFakeOrderEngine()
	engine.CancelErr = errors.New("bad order")
	c, err := NewComposer(engine)
	require.NoError(t, err)
	_, err = c.Base(context.Background(), nil, stale)
	assert.ErrorContains(t, err, "cancel order")

	engine = testutil.NewFakeOrderEngine()
	engine.CreateErr = errors.New("bad intent")
	c, err = NewComposer(engine)
	require.NoError(t, err)
	_, err = c.Compose(context.Background(), types.NewTxSkeleton(), intent(), nil)
	assert.ErrorContains(t, err, "create base-to-quote order")

	engine = testutil.NewFakeOrderEngine()
	engine.MeltErr = errors.New("bad melt")
	c, err = NewComposer(engine)
	require.NoError(t, err)
	_, err = c.Base(context.Background(), stale, nil)
	assert.ErrorContains(t, err, "melt 1 completed orders")

	_, err = NewComposer(nil)
	assert.Error(t, err)
}
