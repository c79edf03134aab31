package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ickb/orderbot/pkg/ledger"
	"github.com/ickb/orderbot/pkg/types"
)

// FakeLedger serves a fixed set of live cells.
type FakeLedger struct {
	mu sync.Mutex

	Cells   []types.Cell
	Tip     types.Header
	FeeRate uint64
	Txs     map[common.Hash]types.TxOutputs

	CellsErr error
	TipErr   error
	SendErr  error

	Sent            []*types.Transaction
	FetchedBatches  [][]common.Hash
	GetCellsQueries []ledger.Query
}

// GetCells returns the cells whose lock matches the query script.
func (l *FakeLedger) GetCells(_ context.Context, q ledger.Query) ([]types.Cell, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.GetCellsQueries = append(l.GetCellsQueries, q)
	if l.CellsErr != nil {
		return nil, l.CellsErr
	}

	var out []types.Cell
	for _, c := range l.Cells {
		lock := c.Output.Lock
		if (q.SearchMode == ledger.SearchPrefix && lock.HasPrefix(q.Script)) || lock.Equal(q.Script) {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetTipHeader returns Tip.
func (l *FakeLedger) GetTipHeader(context.Context) (types.Header, error) {
	if l.TipErr != nil {
		return types.Header{}, l.TipErr
	}
	return l.Tip, nil
}

// GetFeeRate returns FeeRate, or 1000 when unset.
func (l *FakeLedger) GetFeeRate(context.Context, uint64) (uint64, error) {
	if l.FeeRate == 0 {
		return ledger.DefaultFeeRate, nil
	}
	return l.FeeRate, nil
}

// SendTransaction records tx and returns a hash derived from the submission count.
func (l *FakeLedger) SendTransaction(_ context.Context, tx *types.Transaction) (common.Hash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.SendErr != nil {
		return common.Hash{}, l.SendErr
	}
	l.Sent = append(l.Sent, tx)
	return common.Hash{0xfe, byte(len(l.Sent))}, nil
}

// GetTransactions returns entries of Txs, failing for unknown hashes.
func (l *FakeLedger) GetTransactions(_ context.Context, hashes []common.Hash) (map[common.Hash]types.TxOutputs, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.FetchedBatches = append(l.FetchedBatches, append([]common.Hash(nil), hashes...))

	out := make(map[common.Hash]types.TxOutputs, len(hashes))
	for _, h := range hashes {
		outputs, ok := l.Txs[h]
		if !ok {
			return nil, errors.New("transaction not found: " + h.Hex())
		}
		out[h] = outputs
	}
	return out, nil
}

// FakeOrderEngine treats the cells listed in Orders as the bot's orders.
type FakeOrderEngine struct {
	mu sync.Mutex

	Orders map[types.OutPoint]types.Order

	SiftErr   error
	CreateErr error
	CancelErr error
	MeltErr   error

	SiftCalls   int
	LastOrigins map[common.Hash]types.TxOutputs
	Created     []types.OrderIntent
	Cancelled   []types.OutPoint
	Melted      []types.OutPoint
}

// NewFakeOrderEngine registers the given orders.
func NewFakeOrderEngine(orders ...types.Order) *FakeOrderEngine {
	e := &FakeOrderEngine{Orders: make(map[types.OutPoint]types.Order, len(orders))}
	for _, o := range orders {
		e.Orders[o.OutPoint] = o
	}
	return e
}

// Sift splits cells into registered orders and the rest.
func (e *FakeOrderEngine) Sift(_ context.Context, cells []types.Cell, origins map[common.Hash]types.TxOutputs) ([]types.Order, []types.Cell, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.SiftCalls++
	e.LastOrigins = origins
	if e.SiftErr != nil {
		return nil, nil, e.SiftErr
	}

	var (
		orders    []types.Order
		remainder []types.Cell
	)
	for _, c := range cells {
		if o, ok := e.Orders[c.OutPoint]; ok {
			orders = append(orders, o)
			continue
		}
		remainder = append(remainder, c)
	}
	return orders, remainder, nil
}

// Create appends an order output.
func (e *FakeOrderEngine) Create(_ context.Context, tx *types.TxSkeleton, intent types.OrderIntent) (*types.TxSkeleton, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.CreateErr != nil {
		return nil, e.CreateErr
	}
	e.Created = append(e.Created, intent)

	out := tx.Clone()
	out.Outputs = append(out.Outputs, types.CellOutput{Lock: OrderLock})
	out.OutputsData = append(out.OutputsData, hexutil.Bytes{})
	return out, nil
}

// Cancel spends the order cell.
func (e *FakeOrderEngine) Cancel(_ context.Context, tx *types.TxSkeleton, order types.Order) (*types.TxSkeleton, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.CancelErr != nil {
		return nil, e.CancelErr
	}
	e.Cancelled = append(e.Cancelled, order.OutPoint)

	out := tx.Clone()
	out.Inputs = append(out.Inputs, order.Cell)
	return out, nil
}

// Melt spends every given order cell.
func (e *FakeOrderEngine) Melt(_ context.Context, tx *types.TxSkeleton, orders []types.Order) (*types.TxSkeleton, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.MeltErr != nil {
		return nil, e.MeltErr
	}

	out := tx.Clone()
	for _, o := range orders {
		e.Melted = append(e.Melted, o.OutPoint)
		out.Inputs = append(out.Inputs, o.Cell)
	}
	return out, nil
}

// FundCall records one Fund invocation.
type FundCall struct {
	Tx     *types.TxSkeleton
	Pools  types.AssetPools
	Strict bool
}

// FakeFundingEngine answers Fund calls from Errors in order; nil or exhausted means success.
type FakeFundingEngine struct {
	mu sync.Mutex

	Errors []error
	Fee    uint64
	Calls  []FundCall
}

// Fund records the call and returns a funded copy of tx or the next queued error.
func (f *FakeFundingEngine) Fund(_ context.Context, tx *types.TxSkeleton, pools types.AssetPools, strict bool) (*types.TxSkeleton, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := len(f.Calls)
	f.Calls = append(f.Calls, FundCall{Tx: tx.Clone(), Pools: pools, Strict: strict})
	if idx < len(f.Errors) && f.Errors[idx] != nil {
		return nil, f.Errors[idx]
	}

	out := tx.Clone()
	out.Fee = hexutil.Uint64(f.Fee)
	if f.Fee == 0 {
		out.Fee = 1000
	}
	out.FeeRate = hexutil.Uint64(pools.FeeRate)
	out.SigningMessage = common.Hash{0x51}
	out.SigningWitness = 0
	if len(out.Witnesses) == 0 {
		out.Witnesses = []hexutil.Bytes{{}}
	}
	return out, nil
}

// FakeSigner returns the skeleton unsigned.
type FakeSigner struct {
	Err    error
	Signed int
}

// Lock returns BotLock.
func (s *FakeSigner) Lock() types.Script {
	return BotLock
}

// Sign converts tx to its wire form.
func (s *FakeSigner) Sign(tx *types.TxSkeleton) (*types.Transaction, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.Signed++
	return tx.Transaction(tx.Witnesses), nil
}

// StaticOracle always returns Value.
type StaticOracle struct {
	Value types.ExchangeRatio
	Err   error
}

// Ratio returns Value.
func (o *StaticOracle) Ratio(types.Header) (types.ExchangeRatio, error) {
	return o.Value, o.Err
}

// SeqRand replays Values in a loop.
type SeqRand struct {
	Values []float64
	next   int
}

// Float64 returns the next value.
func (r *SeqRand) Float64() float64 {
	v := r.Values[r.next%len(r.Values)]
	r.next++
	return v
}

// MapCache is a synchronous in-memory output cache.
type MapCache struct {
	mu   sync.Mutex
	data map[common.Hash]types.TxOutputs
	Sets int
}

// NewMapCache returns an empty cache.
func NewMapCache() *MapCache {
	return &MapCache{data: make(map[common.Hash]types.TxOutputs)}
}

// Get returns the stored outputs.
func (c *MapCache) Get(hash common.Hash) (types.TxOutputs, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[hash]
	return v, ok
}

// Set stores outputs.
func (c *MapCache) Set(hash common.Hash, outputs types.TxOutputs) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[hash] = outputs
	c.Sets++
	return true
}

// Delete removes hash.
func (c *MapCache) Delete(hash common.Hash) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, hash)
}

// Clear removes everything.
func (c *MapCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[common.Hash]types.TxOutputs)
}

// Close is a no-op.
func (c *MapCache) Close() {}
