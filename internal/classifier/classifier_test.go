package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ickb/orderbot/internal/testutil"
	"github.com/ickb/orderbot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClassifier(t *testing.T, engine OrderSifter, fetcher OutputFetcher) (*Classifier, *testutil.MapCache) {
	t.Helper()

	logger := zaptest.NewLogger(t)
	c := testutil.NewMapCache()
	resolver, err := NewOutputResolver(fetcher, c, logger)
	require.NoError(t, err)

	cl, err := New(Config{Lock: testutil.BotLock, TokenType: testutil.TokenType}, engine, resolver, logger)
	require.NoError(t, err)
	return cl, c
}

func origins(cells ...types.Cell) map[common.Hash]types.TxOutputs {
	out := make(map[common.Hash]types.TxOutputs)
	for _, c := range cells {
		out[c.OutPoint.TxHash] = types.TxOutputs{Outputs: []types.CellOutput{c.Output}}
	}
	return out
}

func outpoints(cells []types.Cell) []types.OutPoint {
	out := make([]types.OutPoint, len(cells))
	for i, c := range cells {
		out[i] = c.OutPoint
	}
	return out
}

func TestClassify_PartitionsOwnCells(t *testing.T) {
	capacity := testutil.CapacityCell(1, 1000)
	token := testutil.TokenCell(2, 200, 50)
	order := testutil.Order(3, 10, types.BaseToQuote, true, 300, 0)
	older := testutil.Order(4, 5, types.QuoteToBase, true, 100, 20)

	engine := testutil.NewFakeOrderEngine(order, older)
	ledger := &testutil.FakeLedger{Txs: origins(order.Cell, older.Cell)}
	cl, _ := newTestClassifier(t, engine, ledger)

	input := []types.Cell{capacity, token}
	res, err := cl.Classify(context.Background(), input, []types.Cell{order.Cell, older.Cell})

	require.NoError(t, err)
	assert.Equal(t, []types.OutPoint{capacity.OutPoint}, outpoints(res.Capacities))
	assert.Equal(t, []types.OutPoint{token.OutPoint}, outpoints(res.Tokens))
	require.Len(t, res.Orders, 2)
	assert.Equal(t, older.OutPoint, res.Orders[0].OutPoint, "orders sorted oldest first")
	assert.Empty(t, res.Unknowns)
	assert.Equal(t, 4, res.Size())
}

func TestClassify_UnknownsKeepPartition(t *testing.T) {
	foreignOrder := testutil.OrderCell(1, 3)

	typed := testutil.CapacityCell(2, 100)
	otherType := types.Script{CodeHash: common.Hash{0x99}, HashType: types.HashTypeData}
	typed.Output.Type = &otherType

	withData := testutil.CapacityCell(3, 100)
	withData.Data = hexutil.Bytes{0x01}

	engine := testutil.NewFakeOrderEngine()
	ledger := &testutil.FakeLedger{Txs: origins(foreignOrder)}
	cl, _ := newTestClassifier(t, engine, ledger)

	res, err := cl.Classify(context.Background(), []types.Cell{typed, withData}, []types.Cell{foreignOrder})

	require.NoError(t, err)
	assert.Empty(t, res.Capacities)
	assert.Empty(t, res.Tokens)
	assert.Empty(t, res.Orders)
	assert.ElementsMatch(t,
		[]types.OutPoint{typed.OutPoint, withData.OutPoint, foreignOrder.OutPoint},
		outpoints(res.Unknowns))
}

func TestClassify_TokenCellWithOtherLockIsNotOwned(t *testing.T) {
	token := testutil.TokenCell(1, 100, 5)
	token.Output.Lock = testutil.OtherLock

	cl, _ := newTestClassifier(t, testutil.NewFakeOrderEngine(), &testutil.FakeLedger{})

	res, err := cl.Classify(context.Background(), []types.Cell{token}, nil)

	require.NoError(t, err)
	assert.Empty(t, res.Tokens)
	assert.Len(t, res.Unknowns, 1)
}

func TestClassify_DeduplicatesInput(t *testing.T) {
	capacity := testutil.CapacityCell(1, 1000)
	cl, _ := newTestClassifier(t, testutil.NewFakeOrderEngine(), &testutil.FakeLedger{})

	res, err := cl.Classify(context.Background(), []types.Cell{capacity, capacity}, nil)

	require.NoError(t, err)
	assert.Len(t, res.Capacities, 1)
}

func TestClassify_NoCandidatesSkipsSift(t *testing.T) {
	engine := testutil.NewFakeOrderEngine()
	ledger := &testutil.FakeLedger{}
	cl, _ := newTestClassifier(t, engine, ledger)

	_, err := cl.Classify(context.Background(), []types.Cell{testutil.CapacityCell(1, 10)}, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, engine.SiftCalls)
	assert.Empty(t, ledger.FetchedBatches)
}

func TestClassify_OriginsBatchedAndCached(t *testing.T) {
	a := testutil.Order(1, 1, types.BaseToQuote, true, 10, 0)
	b := testutil.Order(2, 1, types.BaseToQuote, true, 10, 0)
	// a second output of the same transaction as a
	sibling := testutil.Order(3, 1, types.BaseToQuote, true, 10, 0)
	sibling.OutPoint = types.OutPoint{TxHash: a.OutPoint.TxHash, Index: 1}

	engine := testutil.NewFakeOrderEngine(a, b, sibling)
	ledger := &testutil.FakeLedger{Txs: origins(a.Cell, b.Cell)}
	cl, c := newTestClassifier(t, engine, ledger)
	orderCells := []types.Cell{a.Cell, b.Cell, sibling.Cell}

	_, err := cl.Classify(context.Background(), nil, orderCells)
	require.NoError(t, err)

	require.Len(t, ledger.FetchedBatches, 1)
	assert.Len(t, ledger.FetchedBatches[0], 2, "distinct hashes only")
	assert.Equal(t, 2, c.Sets)
	assert.Len(t, engine.LastOrigins, 2)

	_, err = cl.Classify(context.Background(), nil, orderCells)
	require.NoError(t, err)
	assert.Len(t, ledger.FetchedBatches, 1, "second pass served from cache")
	assert.Len(t, engine.LastOrigins, 2)
}

func TestClassify_SiftMustReturnEveryCandidateOnce(t *testing.T) {
	order := testutil.Order(1, 1, types.BaseToQuote, true, 10, 0)

	tests := []struct {
		name   string
		sifter OrderSifter
		errMsg string
	}{
		{
			name:   "dropped",
			sifter: sifterFunc(func([]types.Cell) ([]types.Order, []types.Cell) { return nil, nil }),
			errMsg: "dropped",
		},
		{
			name: "duplicated",
			sifter: sifterFunc(func(cells []types.Cell) ([]types.Order, []types.Cell) {
				return []types.Order{order}, cells
			}),
			errMsg: "duplicate",
		},
		{
			name: "invented",
			sifter: sifterFunc(func(cells []types.Cell) ([]types.Order, []types.Cell) {
				return nil, append(cells, testutil.CapacityCell(9, 1))
			}),
			errMsg: "unexpected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &testutil.FakeLedger{Txs: origins(order.Cell)}
			cl, _ := newTestClassifier(t, tt.sifter, ledger)

			_, err := cl.Classify(context.Background(), nil, []types.Cell{order.Cell})

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestClassify_PropagatesErrors(t *testing.T) {
	order := testutil.OrderCell(1, 1)

	t.Run("fetch", func(t *testing.T) {
		cl, _ := newTestClassifier(t, testutil.NewFakeOrderEngine(), &testutil.FakeLedger{})
		_, err := cl.Classify(context.Background(), nil, []types.Cell{order})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resolve order origins")
	})

	t.Run("sift", func(t *testing.T) {
		engine := testutil.NewFakeOrderEngine()
		engine.SiftErr = errors.New("boom")
		cl, _ := newTestClassifier(t, engine, &testutil.FakeLedger{Txs: origins(order)})
		_, err := cl.Classify(context.Background(), nil, []types.Cell{order})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sift orders")
	})
}

func TestNew_Validation(t *testing.T) {
	logger := zaptest.NewLogger(t)
	resolver, err := NewOutputResolver(&testutil.FakeLedger{}, testutil.NewMapCache(), logger)
	require.NoError(t, err)

	_, err = New(Config{Lock: types.Script{HashType: "bogus"}, TokenType: testutil.TokenType}, testutil.NewFakeOrderEngine(), resolver, logger)
	assert.Error(t, err)

	_, err = New(Config{Lock: testutil.BotLock, TokenType: testutil.TokenType}, nil, resolver, logger)
	assert.Error(t, err)

	_, err = NewOutputResolver(&testutil.FakeLedger{}, nil, logger)
	assert.Error(t, err)
}

type sifterFunc func(cells []types.Cell) ([]types.Order, []types.Cell)

func (f sifterFunc) Sift(_ context.Context, cells []types.Cell, _ map[common.Hash]types.TxOutputs) ([]types.Order, []types.Cell, error) {
	orders, remainder := f(cells)
	return orders, remainder, nil
}

func TestResolve_ServesCachedOutputs(t *testing.T) {
	hash := common.Hash{0x42}
	cached := types.TxOutputs{Outputs: []types.CellOutput{{Capacity: 61, Lock: testutil.BotLock}}}
	c := testutil.NewMapCache()
	c.Set(hash, cached)
	ledger := &testutil.FakeLedger{}

	resolver, err := NewOutputResolver(ledger, c, zaptest.NewLogger(t))
	require.NoError(t, err)

	got, err := resolver.Resolve(context.Background(), []common.Hash{hash, hash})
	require.NoError(t, err)

	assert.Equal(t, map[common.Hash]types.TxOutputs{hash: cached}, got)
	assert.Empty(t, ledger.FetchedBatches)
	assert.Equal(t, 1, c.Sets)
}
