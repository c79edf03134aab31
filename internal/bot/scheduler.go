package bot

import (
	"context"
	"errors"
	"time"

	"github.com/ickb/orderbot/internal/decision"
	"github.com/ickb/orderbot/internal/telemetry"
	"go.uber.org/zap"
)

// Iterator runs one iteration.
type Iterator interface {
	Iterate(ctx context.Context) telemetry.Report
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	Bot Iterator
	// Interval is the mean delay between iterations.
	Interval time.Duration
	Rand     decision.Rand
	Logger   *zap.Logger
	// MaxIterations stops the loop after that many iterations, 0 means unbounded.
	MaxIterations int
}

// Scheduler repeats iterations with a randomized delay in [0, 2·Interval).
type Scheduler struct {
	bot           Iterator
	interval      time.Duration
	rand          decision.Rand
	logger        *zap.Logger
	maxIterations int
}

// NewScheduler creates a scheduler.
func NewScheduler(cfg *SchedulerConfig) (*Scheduler, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Bot == nil {
		return nil, errors.New("bot cannot be nil")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	rnd := cfg.Rand
	if rnd == nil {
		rnd = SystemRand{}
	}

	return &Scheduler{
		bot:           cfg.Bot,
		interval:      cfg.Interval,
		rand:          rnd,
		logger:        cfg.Logger,
		maxIterations: cfg.MaxIterations,
	}, nil
}

// Run loops until ctx is cancelled, an iteration reports a planned shutdown,
// or MaxIterations is reached. All three are clean exits.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler-started",
		zap.Duration("interval", s.interval),
		zap.Int("max-iterations", s.maxIterations))

	for n := 1; ; n++ {
		report := s.bot.Iterate(ctx)

		if report.Shutdown {
			s.logger.Info("scheduler-stopped",
				zap.String("reason", report.ShutdownReason),
				zap.Int("iterations", n))
			return nil
		}
		if s.maxIterations > 0 && n >= s.maxIterations {
			s.logger.Info("scheduler-stopped",
				zap.String("reason", "max-iterations"),
				zap.Int("iterations", n))
			return nil
		}

		delay := s.Delay()
		SleepSeconds.Observe(delay.Seconds())
		s.logger.Debug("scheduler-sleeping", zap.Duration("delay", delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler-stopped",
				zap.String("reason", "context-cancelled"),
				zap.Int("iterations", n))
			return nil
		case <-timer.C:
		}
	}
}

// Delay draws the next sleep duration.
func (s *Scheduler) Delay() time.Duration {
	return time.Duration(s.rand.Float64() * 2 * float64(s.interval))
}
