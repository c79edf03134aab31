package telemetry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/ickb/orderbot/internal/balance"
	"github.com/ickb/orderbot/internal/decision"
	"github.com/ickb/orderbot/pkg/types"
)

// ErrSealed is returned when recording into an emitted report.
var ErrSealed = errors.New("report already sealed")

type group string

const (
	groupState       group = "state"
	groupDecision    group = "decision"
	groupTransaction group = "transaction"
	groupError       group = "error"
	groupShutdown    group = "shutdown"
)

// Transaction summarises the outcome of the funding cascade.
type Transaction struct {
	Outcome  string
	Tx       *types.TxSkeleton
	Fallback bool
	Hash     common.Hash
	DryRun   bool
}

// Recorder fills a Report one field group at a time. Each group can be
// written once; after Seal nothing can be written.
type Recorder struct {
	mu      sync.Mutex
	report  Report
	written map[group]bool
	sealed  bool
	now     func() time.Time
}

// NewRecorder starts a report stamped with now().
func NewRecorder(now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{
		report: Report{
			ID:        uuid.NewString(),
			StartTime: now().UTC(),
		},
		written: make(map[group]bool),
		now:     now,
	}
}

// ID returns the iteration id.
func (r *Recorder) ID() string {
	return r.report.ID
}

// RecordState stores the balances, oracle ratio and tip.
func (r *Recorder) RecordState(b balance.Balances, ratio types.ExchangeRatio, tip uint64) error {
	return r.write(groupState, func(rep *Report) {
		rep.Balances = newBalances(b)
		ratioSnapshot := newRatio(ratio)
		rep.Ratio = &ratioSnapshot
		rep.TipBlock = tip
	})
}

// RecordDecision stores what the decision engine chose.
func (r *Recorder) RecordDecision(d decision.Decision) error {
	return r.write(groupDecision, func(rep *Report) {
		rep.Decision = newDecision(d)
	})
}

// RecordTransaction stores the cascade outcome and, if any, the transaction.
func (r *Recorder) RecordTransaction(t Transaction) error {
	return r.write(groupTransaction, func(rep *Report) {
		rep.Outcome = t.Outcome
		rep.Fallback = t.Fallback
		rep.DryRun = t.DryRun
		if t.Hash != (common.Hash{}) {
			rep.TxHash = t.Hash.Hex()
		}
		if t.Tx == nil {
			return
		}
		rep.CancelledOrders = len(t.Tx.Cancelled)
		rep.MeltedOrders = len(t.Tx.Melted)
		rep.Consolidated = t.Tx.Consolidated
		rep.Fee = uint64(t.Tx.Fee)
		rep.FeeRate = uint64(t.Tx.FeeRate)
		if t.Tx.NewOrder != nil {
			rep.NewOrder = newOrder(*t.Tx.NewOrder)
		}
	})
}

// RecordError stores the error that ended the iteration.
func (r *Recorder) RecordError(err error) error {
	if err == nil {
		return nil
	}
	return r.write(groupError, func(rep *Report) {
		rep.Error = err.Error()
	})
}

// RecordShutdown marks the report as the last one.
func (r *Recorder) RecordShutdown(reason string) error {
	return r.write(groupShutdown, func(rep *Report) {
		rep.Shutdown = true
		rep.ShutdownReason = reason
	})
}

// Seal stamps the elapsed time and returns the final report.
// Sealing twice returns the same report.
func (r *Recorder) Seal() Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.sealed {
		r.report.ElapsedSeconds = r.now().Sub(r.report.StartTime).Seconds()
		r.sealed = true
	}
	return r.report
}

func (r *Recorder) write(g group, fn func(*Report)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}
	if r.written[g] {
		return fmt.Errorf("%s already recorded", g)
	}
	r.written[g] = true
	fn(&r.report)
	return nil
}
