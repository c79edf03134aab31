// Package bot runs the rebalancing iteration: read the account, decide,
// compose, fund and submit, then report.
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/ickb/orderbot/internal/balance"
	"github.com/ickb/orderbot/internal/circuitbreaker"
	"github.com/ickb/orderbot/internal/classifier"
	"github.com/ickb/orderbot/internal/decision"
	"github.com/ickb/orderbot/internal/execution"
	"github.com/ickb/orderbot/internal/stale"
	"github.com/ickb/orderbot/internal/storage"
	"github.com/ickb/orderbot/internal/telemetry"
	"github.com/ickb/orderbot/pkg/ledger"
	"github.com/ickb/orderbot/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ShutdownDepleted is the shutdown reason when capital runs out.
const ShutdownDepleted = "capital-depleted"

// Defaults for the ledger queries.
const (
	DefaultPageSize      uint64 = 400
	DefaultFeeRateTarget uint64 = 21
)

// Config wires the bot's collaborators.
type Config struct {
	Ledger     Ledger
	Signer     Signer
	Oracle     Oracle
	Classifier *classifier.Classifier
	Decision   *decision.Engine
	Composer   *execution.Composer
	Controller *execution.Controller
	Executor   *execution.Executor
	Breaker    *circuitbreaker.DepletionBreaker
	Storage    storage.Storage
	Logger     *zap.Logger

	// OrderLock is the lock shared by every limit order cell, searched by prefix.
	OrderLock types.Script
	// TokenType is the type script of the quote token.
	TokenType types.Script
	// StaleBlocks is the age in blocks after which an open order is cancelled.
	StaleBlocks uint64
	// ConsolidateMinCells merges the plain capacity cells once there are
	// more than this many. Zero disables consolidation.
	ConsolidateMinCells int

	PageSize      uint64
	FeeRateTarget uint64
	Now           func() time.Time
}

// Bot executes iterations. It keeps no state between them.
type Bot struct {
	ledger     Ledger
	signer     Signer
	oracle     Oracle
	classifier *classifier.Classifier
	decider    *decision.Engine
	composer   *execution.Composer
	controller *execution.Controller
	executor   *execution.Executor
	breaker    *circuitbreaker.DepletionBreaker
	storage    storage.Storage
	logger     *zap.Logger

	orderLock     types.Script
	tokenType     types.Script
	staleBlocks   uint64
	consolidateAt int
	pageSize      uint64
	feeRateTarget uint64
	now           func() time.Time
}

// New creates a bot.
func New(cfg *Config) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	switch {
	case cfg.Ledger == nil:
		return nil, errors.New("ledger cannot be nil")
	case cfg.Signer == nil:
		return nil, errors.New("signer cannot be nil")
	case cfg.Oracle == nil:
		return nil, errors.New("oracle cannot be nil")
	case cfg.Classifier == nil:
		return nil, errors.New("classifier cannot be nil")
	case cfg.Decision == nil:
		return nil, errors.New("decision engine cannot be nil")
	case cfg.Composer == nil:
		return nil, errors.New("composer cannot be nil")
	case cfg.Controller == nil:
		return nil, errors.New("controller cannot be nil")
	case cfg.Executor == nil:
		return nil, errors.New("executor cannot be nil")
	case cfg.Breaker == nil:
		return nil, errors.New("breaker cannot be nil")
	case cfg.Storage == nil:
		return nil, errors.New("storage cannot be nil")
	case cfg.Logger == nil:
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.StaleBlocks == 0 {
		return nil, errors.New("stale blocks must be positive")
	}
	if cfg.ConsolidateMinCells < 0 {
		return nil, errors.New("consolidate min cells cannot be negative")
	}

	b := &Bot{
		ledger:        cfg.Ledger,
		signer:        cfg.Signer,
		oracle:        cfg.Oracle,
		classifier:    cfg.Classifier,
		decider:       cfg.Decision,
		composer:      cfg.Composer,
		controller:    cfg.Controller,
		executor:      cfg.Executor,
		breaker:       cfg.Breaker,
		storage:       cfg.Storage,
		logger:        cfg.Logger,
		orderLock:     cfg.OrderLock,
		tokenType:     cfg.TokenType,
		staleBlocks:   cfg.StaleBlocks,
		consolidateAt: cfg.ConsolidateMinCells,
		pageSize:      cfg.PageSize,
		feeRateTarget: cfg.FeeRateTarget,
		now:           cfg.Now,
	}
	if b.pageSize == 0 {
		b.pageSize = DefaultPageSize
	}
	if b.feeRateTarget == 0 {
		b.feeRateTarget = DefaultFeeRateTarget
	}
	if b.now == nil {
		b.now = time.Now
	}

	return b, nil
}

// Snapshot is the account state read at the start of an iteration.
type Snapshot struct {
	Cells    *classifier.Result
	Tip      types.Header
	FeeRate  uint64
	Ratio    types.ExchangeRatio
	Balances balance.Balances
	// Capital is the base-equivalent value of both totals at Ratio.
	Capital uint256.Int
	// Stale are the open orders Base cancels.
	Stale []types.Order
	// Base melts the completed orders, cancels Stale and underlies every
	// transaction this iteration. Balances are computed against it.
	Base *types.TxSkeleton
}

// Pools is what the funding engine may spend.
func (s *Snapshot) Pools(lock, tokenType types.Script) types.AssetPools {
	return types.AssetPools{
		Lock:       lock,
		TokenType:  tokenType,
		Capacities: s.Cells.Capacities,
		Tokens:     s.Cells.Tokens,
		FeeRate:    s.FeeRate,
		Base:       s.Balances.Base,
		Quote:      s.Balances.Quote,
	}
}

type fetched struct {
	account []types.Cell
	orders  []types.Cell
	tip     types.Header
	feeRate uint64
}

func (b *Bot) fetch(ctx context.Context) (*fetched, error) {
	var out fetched
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cells, err := b.ledger.GetCells(gctx, b.query(b.signer.Lock(), ledger.SearchExact))
		if err != nil {
			return fmt.Errorf("get account cells: %w", err)
		}
		out.account = cells
		return nil
	})
	g.Go(func() error {
		cells, err := b.ledger.GetCells(gctx, b.query(b.orderLock, ledger.SearchPrefix))
		if err != nil {
			return fmt.Errorf("get order cells: %w", err)
		}
		out.orders = cells
		return nil
	})
	g.Go(func() error {
		tip, err := b.ledger.GetTipHeader(gctx)
		if err != nil {
			return fmt.Errorf("get tip header: %w", err)
		}
		out.tip = tip
		return nil
	})
	g.Go(func() error {
		rate, err := b.ledger.GetFeeRate(gctx, b.feeRateTarget)
		if err != nil {
			return fmt.Errorf("get fee rate: %w", err)
		}
		out.feeRate = rate
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Bot) query(script types.Script, mode ledger.SearchMode) ledger.Query {
	return ledger.Query{
		Script:     script,
		ScriptType: ledger.ScriptTypeLock,
		SearchMode: mode,
		Order:      ledger.OrderAsc,
		Limit:      b.pageSize,
	}
}

// Snapshot reads and classifies the account and values it at the tip,
// counting the funds of orders older than the stale threshold as available.
func (b *Bot) Snapshot(ctx context.Context) (*Snapshot, error) {
	return b.snapshot(ctx, func(orders []types.Order, tip uint64) []types.Order {
		return stale.Select(orders, tip, b.staleBlocks)
	})
}

// snapshot builds the iteration state; pick chooses the open orders to cancel.
func (b *Bot) snapshot(ctx context.Context, pick func(orders []types.Order, tip uint64) []types.Order) (*Snapshot, error) {
	state, err := b.fetch(ctx)
	if err != nil {
		return nil, err
	}

	cells, err := b.classifier.Classify(ctx, state.account, state.orders)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	ratio, err := b.oracle.Ratio(state.tip)
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}

	cancel := pick(cells.Orders, uint64(state.tip.Number))
	base, err := b.composer.Base(ctx, stale.Completed(cells.Orders), cancel)
	if err != nil {
		return nil, err
	}

	balances, err := balance.Compute(cells, base)
	if err != nil {
		return nil, err
	}

	capital, err := balances.BaseEquivalent(ratio)
	if err != nil {
		return nil, fmt.Errorf("value capital: %w", err)
	}

	return &Snapshot{
		Cells:    cells,
		Tip:      state.tip,
		FeeRate:  state.feeRate,
		Ratio:    ratio,
		Balances: balances,
		Capital:  capital,
		Stale:    cancel,
		Base:     base,
	}, nil
}

// consolidation returns the output merging every plain capacity cell, or nil
// while there are not more than the configured number of them.
func (b *Bot) consolidation(snap *Snapshot, lock types.Script) *types.CellOutput {
	if b.consolidateAt == 0 || len(snap.Cells.Capacities) <= b.consolidateAt {
		return nil
	}
	var total uint64
	for _, c := range snap.Cells.Capacities {
		total += c.Capacity()
	}
	return &types.CellOutput{Capacity: hexutil.Uint64(total), Lock: lock}
}

// Iterate runs one full iteration and returns its sealed report. Errors and
// panics end up in the report, never in the caller.
func (b *Bot) Iterate(ctx context.Context) telemetry.Report {
	return b.run(ctx, "iteration", b.iterate)
}

// CancelAll cancels every open order and melts the completed ones, placing nothing.
func (b *Bot) CancelAll(ctx context.Context) telemetry.Report {
	return b.run(ctx, "cancel-all", b.cancelAll)
}

type step func(ctx context.Context, rec *telemetry.Recorder, logger *zap.Logger) error

func (b *Bot) run(ctx context.Context, kind string, fn step) telemetry.Report {
	start := time.Now()
	rec := telemetry.NewRecorder(b.now)
	logger := b.logger.With(zap.String("iteration-id", rec.ID()), zap.String("kind", kind))

	func() {
		defer func() {
			if r := recover(); r != nil {
				IterationPanicsTotal.Inc()
				logger.Error("iteration-panic", zap.Any("panic", r), zap.Stack("stack"))
				_ = rec.RecordError(fmt.Errorf("panic: %v", r))
			}
		}()

		if err := fn(ctx, rec, logger); err != nil {
			if recErr := rec.RecordError(err); recErr != nil {
				logger.Error("record-error-failed", zap.Error(recErr))
			}
		}
	}()

	report := rec.Seal()
	b.finish(ctx, &report, logger, time.Since(start))
	return report
}

func (b *Bot) iterate(ctx context.Context, rec *telemetry.Recorder, logger *zap.Logger) error {
	snap, err := b.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := rec.RecordState(snap.Balances, snap.Ratio, uint64(snap.Tip.Number)); err != nil {
		return err
	}

	if b.breaker.Check(snap.Capital) {
		logger.Warn("planned-shutdown",
			zap.String("reason", ShutdownDepleted),
			zap.String("capital", types.FormatAmount(&snap.Capital)))
		return rec.RecordShutdown(ShutdownDepleted)
	}

	d, err := b.decider.Decide(snap.Balances.Base, snap.Balances.Quote, snap.Ratio)
	if err != nil {
		return fmt.Errorf("decide: %w", err)
	}
	if err := rec.RecordDecision(d); err != nil {
		return err
	}

	lock := b.signer.Lock()
	outcome := b.controller.Run(ctx, execution.Plan{
		Base:          snap.Base,
		Intent:        d.Intent(lock),
		Consolidation: b.consolidation(snap, lock),
		Pools:         snap.Pools(lock, b.tokenType),
	})
	return b.settle(ctx, rec, outcome)
}

func (b *Bot) cancelAll(ctx context.Context, rec *telemetry.Recorder, _ *zap.Logger) error {
	snap, err := b.snapshot(ctx, func(orders []types.Order, _ uint64) []types.Order {
		return stale.Open(orders)
	})
	if err != nil {
		return err
	}
	if err := rec.RecordState(snap.Balances, snap.Ratio, uint64(snap.Tip.Number)); err != nil {
		return err
	}

	outcome := b.controller.Run(ctx, execution.Plan{
		Base:  snap.Base,
		Pools: snap.Pools(b.signer.Lock(), b.tokenType),
	})
	return b.settle(ctx, rec, outcome)
}

// settle submits a successful outcome and records whatever happened.
func (b *Bot) settle(ctx context.Context, rec *telemetry.Recorder, outcome execution.Outcome) error {
	t := telemetry.Transaction{
		Outcome:  string(outcome.State),
		Tx:       outcome.Tx,
		Fallback: outcome.Fallback,
		DryRun:   b.executor.Mode() == execution.ModeDryRun,
	}

	if outcome.State != execution.StateSuccess {
		if err := rec.RecordTransaction(t); err != nil {
			return err
		}
		return outcome.Err
	}

	hash, err := b.executor.Submit(ctx, outcome.Tx)
	if err != nil {
		t.Outcome = "submit-failed"
	}
	t.Hash = hash
	if recErr := rec.RecordTransaction(t); recErr != nil {
		return recErr
	}
	return err
}

func (b *Bot) finish(ctx context.Context, report *telemetry.Report, logger *zap.Logger, elapsed time.Duration) {
	result := resultOf(report)
	IterationsTotal.WithLabelValues(result).Inc()
	IterationDurationSeconds.Observe(elapsed.Seconds())
	LastIterationTimestamp.SetToCurrentTime()

	fields := []zap.Field{
		zap.String("result", result),
		zap.String("outcome", report.Outcome),
		zap.Int("cancelled", report.CancelledOrders),
		zap.Int("melted", report.MeltedOrders),
		zap.Bool("consolidated", report.Consolidated),
		zap.Uint64("fee", report.Fee),
		zap.Duration("elapsed", elapsed),
	}
	if report.TxHash != "" {
		fields = append(fields, zap.String("tx-hash", report.TxHash))
	}
	if report.Error != "" {
		logger.Error("iteration-failed", append(fields, zap.String("error", report.Error))...)
	} else {
		logger.Info("iteration-complete", fields...)
	}

	// Storing uses its own context so a cancelled run still leaves its report.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := b.storage.StoreReport(storeCtx, report); err != nil {
		logger.Error("store-report-failed", zap.Error(err))
	}
}

func resultOf(r *telemetry.Report) string {
	switch {
	case r.Shutdown:
		return "shutdown"
	case r.Error != "":
		return "error"
	case r.TxHash != "" || (r.DryRun && r.Outcome == string(execution.StateSuccess)):
		return "submitted"
	default:
		return "idle"
	}
}
