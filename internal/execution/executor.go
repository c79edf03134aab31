package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ickb/orderbot/pkg/types"
	"go.uber.org/zap"
)

// Mode selects whether funded transactions reach the ledger.
type Mode string

// Execution modes.
const (
	ModeLive   Mode = "live"
	ModeDryRun Mode = "dry-run"
)

// Signer turns a funded skeleton into a signed transaction.
type Signer interface {
	Sign(tx *types.TxSkeleton) (*types.Transaction, error)
}

// Sender submits signed transactions.
type Sender interface {
	SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error)
}

// Executor signs and submits funded transactions.
type Executor struct {
	mode   Mode
	signer Signer
	sender Sender
	logger *zap.Logger
}

// Config holds executor configuration.
type Config struct {
	Mode   Mode
	Signer Signer
	Sender Sender
	Logger *zap.Logger
}

// New creates an executor.
func New(cfg *Config) (*Executor, error) {
	switch cfg.Mode {
	case ModeLive, ModeDryRun:
	default:
		return nil, fmt.Errorf("unknown execution mode: %s", cfg.Mode)
	}
	if cfg.Mode == ModeLive && (cfg.Signer == nil || cfg.Sender == nil) {
		return nil, errors.New("live mode needs a signer and a sender")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Executor{
		mode:   cfg.Mode,
		signer: cfg.Signer,
		sender: cfg.Sender,
		logger: cfg.Logger,
	}, nil
}

// Mode returns the configured mode.
func (e *Executor) Mode() Mode {
	return e.mode
}

// Submit signs and sends tx. In dry-run mode nothing is sent and the zero hash is returned.
func (e *Executor) Submit(ctx context.Context, tx *types.TxSkeleton) (common.Hash, error) {
	start := time.Now()
	defer func() {
		SubmitDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	if e.mode == ModeDryRun {
		TransactionsTotal.WithLabelValues(string(e.mode)).Inc()
		e.logger.Info("dry-run-transaction",
			zap.Int("inputs", len(tx.Inputs)),
			zap.Int("outputs", len(tx.Outputs)),
			zap.Uint64("fee", uint64(tx.Fee)),
			zap.Int("cancelled", len(tx.Cancelled)),
			zap.Int("melted", len(tx.Melted)),
			zap.Bool("new-order", tx.NewOrder != nil))
		return common.Hash{}, nil
	}

	signed, err := e.signer.Sign(tx)
	if err != nil {
		SubmitErrorsTotal.Inc()
		return common.Hash{}, fmt.Errorf("sign: %w", err)
	}

	hash, err := e.sender.SendTransaction(ctx, signed)
	if err != nil {
		SubmitErrorsTotal.Inc()
		return common.Hash{}, fmt.Errorf("submit: %w", err)
	}

	TransactionsTotal.WithLabelValues(string(e.mode)).Inc()
	FeesPaidShannons.Add(float64(tx.Fee))
	return hash, nil
}
