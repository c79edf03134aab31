package execution

import (
	"context"
	"errors"
	"fmt"

	"github.com/ickb/orderbot/pkg/types"
	"go.uber.org/zap"
)

// State is a step of the funding cascade.
type State string

// Funding states. Idle means there was nothing to do.
const (
	StateCompose            State = "compose"
	StateFundStrict         State = "fund-strict"
	StateFundConsolidate    State = "fund-consolidate"
	StateInsufficientFunds  State = "insufficient-funds"
	StateFallbackCancelOnly State = "fallback-cancel-only"
	StateSuccess            State = "success"
	StateFatal              State = "fatal"
	StateIdle               State = "idle"
)

// Plan is what the iteration wants in its transaction.
// Base already melts and cancels; Intent and Consolidation are optional.
type Plan struct {
	Base          *types.TxSkeleton
	Intent        *types.OrderIntent
	Consolidation *types.CellOutput
	Pools         types.AssetPools
}

// Outcome is the terminal state of one cascade. Tx is set only on success.
type Outcome struct {
	State    State
	Tx       *types.TxSkeleton
	Fallback bool
	Err      error
}

// Controller runs the compose, fund and fallback cascade.
// At most one funded transaction comes out of a Run, and the
// cancel-only fallback is tried at most once.
type Controller struct {
	composer *Composer
	funding  FundingEngine
	logger   *zap.Logger
}

// NewController creates a controller.
func NewController(composer *Composer, funding FundingEngine, logger *zap.Logger) (*Controller, error) {
	if composer == nil {
		return nil, errors.New("composer cannot be nil")
	}
	if funding == nil {
		return nil, errors.New("funding engine cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Controller{composer: composer, funding: funding, logger: logger}, nil
}

// Run drives the cascade to a terminal state.
// A draft that consolidates is funded non-strictly; the fallback is always strict.
func (c *Controller) Run(ctx context.Context, plan Plan) Outcome {
	base := plan.Base
	if base == nil {
		base = types.NewTxSkeleton()
	}

	c.enter(StateCompose)
	draft, err := c.composer.Compose(ctx, base, plan.Intent, plan.Consolidation)
	if err != nil {
		return c.fatal(fmt.Errorf("compose: %w", err))
	}
	if draft.IsEmpty() {
		c.enter(StateIdle)
		return Outcome{State: StateIdle}
	}

	strict := !draft.Consolidated
	if strict {
		c.enter(StateFundStrict)
	} else {
		c.enter(StateFundConsolidate)
	}
	funded, err := c.fund(ctx, draft, plan.Pools, strict)
	if err == nil {
		return c.success(funded, false)
	}
	if !errors.Is(err, types.ErrInsufficientFunds) {
		return c.fatal(err)
	}

	c.enter(StateInsufficientFunds)
	if base.Cancellations() == 0 {
		return c.fatal(fmt.Errorf("no cancellations to fall back to: %w", err))
	}
	if draft.NewOrder == nil && !draft.Consolidated {
		return c.fatal(fmt.Errorf("cancel-only draft already failed: %w", err))
	}

	c.enter(StateFallbackCancelOnly)
	FallbacksTotal.Inc()
	c.logger.Warn("funding-fallback",
		zap.Int("cancelled", len(base.Cancelled)),
		zap.Int("melted", len(base.Melted)),
		zap.Bool("dropped-new-order", draft.NewOrder != nil),
		zap.Bool("dropped-consolidation", draft.Consolidated),
		zap.Error(err))

	funded, err = c.fund(ctx, base.Clone(), plan.Pools, true)
	if err != nil {
		return c.fatal(fmt.Errorf("fund cancel-only: %w", err))
	}
	return c.success(funded, true)
}

func (c *Controller) fund(ctx context.Context, tx *types.TxSkeleton, pools types.AssetPools, strict bool) (*types.TxSkeleton, error) {
	funded, err := c.funding.Fund(ctx, tx, pools, strict)
	switch {
	case err == nil:
		FundingAttemptsTotal.WithLabelValues("funded").Inc()
	case errors.Is(err, types.ErrInsufficientFunds):
		FundingAttemptsTotal.WithLabelValues("insufficient-funds").Inc()
	default:
		FundingAttemptsTotal.WithLabelValues("error").Inc()
	}
	if err != nil {
		return nil, err
	}
	return funded.CarryBookkeeping(tx), nil
}

func (c *Controller) enter(s State) {
	StateTransitionsTotal.WithLabelValues(string(s)).Inc()
	c.logger.Debug("funding-state", zap.String("state", string(s)))
}

func (c *Controller) success(tx *types.TxSkeleton, fallback bool) Outcome {
	c.enter(StateSuccess)
	return Outcome{State: StateSuccess, Tx: tx, Fallback: fallback}
}

func (c *Controller) fatal(err error) Outcome {
	c.enter(StateFatal)
	c.logger.Error("funding-failed", zap.Error(err))
	return Outcome{State: StateFatal, Err: err}
}
