package circuitbreaker

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"
	"github.com/ickb/orderbot/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DepletionBreaker stops the bot once its capital, valued in base units,
// falls below a minimum. Tripping is permanent for the life of the process.
type DepletionBreaker struct {
	tripped atomic.Bool // Atomic for lock-free reads

	minCapital    uint256.Int
	warnThreshold uint256.Int
	logger        *zap.Logger

	mu          sync.RWMutex
	lastCapital uint256.Int
	lastCheck   time.Time
}

// Config holds breaker configuration.
type Config struct {
	// MinOperatingCapital is the base-equivalent total below which the bot stops.
	MinOperatingCapital uint256.Int
	// WarnRatio scales MinOperatingCapital into an early warning level, >= 1.0.
	WarnRatio float64
	Logger    *zap.Logger
}

// Status holds current breaker status for the status endpoint.
type Status struct {
	Tripped       bool      `json:"tripped"`
	LastCapital   string    `json:"lastCapital"`
	LastCheck     time.Time `json:"lastCheck"`
	MinCapital    string    `json:"minCapital"`
	WarnThreshold string    `json:"warnThreshold"`
}

// New creates a new depletion breaker with the given configuration.
func New(cfg *Config) (*DepletionBreaker, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.WarnRatio < 1.0 {
		return nil, errors.New("warn ratio must be >= 1.0")
	}

	warn := decimal.NewFromBigInt(cfg.MinOperatingCapital.ToBig(), 0).
		Mul(decimal.NewFromFloat(cfg.WarnRatio)).
		Ceil()
	var warnThreshold uint256.Int
	if warnThreshold.SetFromBig(warn.BigInt()) {
		return nil, fmt.Errorf("warn threshold overflows: %s", warn)
	}

	b := &DepletionBreaker{
		minCapital:    cfg.MinOperatingCapital,
		warnThreshold: warnThreshold,
		logger:        cfg.Logger,
	}

	DepletionBreakerTripped.Set(0)
	DepletionBreakerMinCapital.Set(toFloat(&b.minCapital))

	return b, nil
}

// IsTripped reports whether the bot must stop. Lock-free.
func (b *DepletionBreaker) IsTripped() bool {
	return b.tripped.Load()
}

// Check records the current capital and trips the breaker if it is below the minimum.
// It returns true once tripped.
func (b *DepletionBreaker) Check(capital uint256.Int) bool {
	b.mu.Lock()
	b.lastCapital = capital
	b.lastCheck = time.Now()
	b.mu.Unlock()

	DepletionBreakerCapital.Set(toFloat(&capital))

	if b.tripped.Load() {
		return true
	}

	switch {
	case capital.Lt(&b.minCapital):
		b.tripped.Store(true)
		DepletionBreakerTripped.Set(1)
		b.logger.Warn("depletion-breaker-tripped",
			zap.String("capital", types.FormatAmount(&capital)),
			zap.String("min-capital", types.FormatAmount(&b.minCapital)))
		return true
	case capital.Lt(&b.warnThreshold):
		b.logger.Warn("capital-low",
			zap.String("capital", types.FormatAmount(&capital)),
			zap.String("warn-threshold", types.FormatAmount(&b.warnThreshold)))
	default:
		b.logger.Debug("capital-checked",
			zap.String("capital", types.FormatAmount(&capital)))
	}
	return false
}

// GetStatus returns the current breaker status.
func (b *DepletionBreaker) GetStatus() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return Status{
		Tripped:       b.tripped.Load(),
		LastCapital:   b.lastCapital.Dec(),
		LastCheck:     b.lastCheck,
		MinCapital:    b.minCapital.Dec(),
		WarnThreshold: b.warnThreshold.Dec(),
	}
}

func toFloat(x *uint256.Int) float64 {
	f, _ := decimal.NewFromBigInt(x.ToBig(), -types.Decimals).Float64()
	return f
}
