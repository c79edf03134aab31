package app

import (
	"context"
	"fmt"

	"github.com/ickb/orderbot/internal/bot"
	"github.com/ickb/orderbot/internal/circuitbreaker"
	"github.com/ickb/orderbot/internal/classifier"
	"github.com/ickb/orderbot/internal/decision"
	"github.com/ickb/orderbot/internal/execution"
	"github.com/ickb/orderbot/internal/storage"
	"github.com/ickb/orderbot/pkg/cache"
	"github.com/ickb/orderbot/pkg/config"
	"github.com/ickb/orderbot/pkg/engine"
	"github.com/ickb/orderbot/pkg/healthprobe"
	"github.com/ickb/orderbot/pkg/httpserver"
	"github.com/ickb/orderbot/pkg/ledger"
	"github.com/ickb/orderbot/pkg/oracle"
	"github.com/ickb/orderbot/pkg/signer"
	"github.com/ickb/orderbot/pkg/types"
	"go.uber.org/zap"
)

// New creates a new application instance. Nothing runs until Run.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	err := a.setup(opts)
	if err != nil {
		a.Close()
		cancel()
		return nil, err
	}

	return a, nil
}

func (a *App) setup(opts *Options) error {
	cfg, logger := a.cfg, a.logger

	a.healthChecker = setupHealthChecker(cfg)

	key, err := signer.New(cfg.BotPrivateKey, signer.Secp256k1Blake160CodeHash, types.HashTypeType)
	if err != nil {
		return fmt.Errorf("setup signer: %w", err)
	}

	a.ledger, err = ledger.Dial(a.ctx, cfg.RPCURL, ledger.Mode(cfg.ClientType), logger)
	if err != nil {
		return fmt.Errorf("setup ledger: %w", err)
	}

	a.engine, err = engine.Dial(a.ctx, cfg.EngineURL, logger)
	if err != nil {
		return fmt.Errorf("setup engine: %w", err)
	}

	a.outputCache, err = setupCache(cfg, logger)
	if err != nil {
		return fmt.Errorf("setup cache: %w", err)
	}

	a.storage, a.reports, err = setupStorage(cfg, logger, a.healthChecker, opts)
	if err != nil {
		return fmt.Errorf("setup storage: %w", err)
	}

	a.breaker, err = circuitbreaker.New(&circuitbreaker.Config{
		MinOperatingCapital: cfg.MinOperatingCapital,
		WarnRatio:           cfg.CapitalWarnRatio,
		Logger:              logger,
	})
	if err != nil {
		return fmt.Errorf("setup depletion breaker: %w", err)
	}

	a.bot, err = setupBot(cfg, logger, opts, key, a.ledger, a.engine, a.outputCache, a.breaker, a.storage)
	if err != nil {
		return fmt.Errorf("setup bot: %w", err)
	}

	a.scheduler, err = bot.NewScheduler(&bot.SchedulerConfig{
		Bot:           a.bot,
		Interval:      cfg.SleepInterval,
		Logger:        logger,
		MaxIterations: opts.MaxIterations,
	})
	if err != nil {
		return fmt.Errorf("setup scheduler: %w", err)
	}

	a.httpServer = httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: a.healthChecker,
		Reports:       a.reports,
		Breaker:       a.breaker,
	})

	logger.Info("application-configured",
		zap.String("chain", cfg.Chain),
		zap.String("client-type", cfg.ClientType),
		zap.String("lock-args", key.Lock().Args.String()),
		zap.Bool("dry-run", opts.DryRun || cfg.ExecutionMode == string(execution.ModeDryRun)),
		zap.Uint64("stale-blocks", cfg.OrderStaleBlocks),
		zap.Int("consolidate-min-cells", cfg.ConsolidateMinCells))

	return nil
}

// setupHealthChecker allows the longest possible sleep, 2x the interval, plus one interval of slack.
func setupHealthChecker(cfg *config.Config) *healthprobe.HealthChecker {
	return healthprobe.New(3 * cfg.SleepInterval)
}

func setupCache(cfg *config.Config, logger *zap.Logger) (cache.Cache, error) {
	c, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10 * cfg.OutputCacheMaxEntries, // 10x max items
		MaxCost:     cfg.OutputCacheMaxEntries,
		BufferItems: 64, // Buffer size for Get operations
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create output cache: %w", err)
	}
	return c, nil
}

func setupStorage(
	cfg *config.Config,
	logger *zap.Logger,
	hc *healthprobe.HealthChecker,
	opts *Options,
) (storage.Storage, *storage.MemoryStorage, error) {
	reports := storage.NewMemoryStorage()

	var primary storage.Storage
	switch {
	case cfg.StorageMode == "postgres":
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create postgres storage: %w", err)
		}
		primary = pgStorage
	case !opts.Quiet:
		primary = storage.NewConsoleStorage(nil, logger)
	}

	sinks := []storage.Storage{reports, heartbeat{hc: hc}}
	if primary != nil {
		sinks = append(sinks, primary)
	}
	return storage.NewMultiStorage(sinks...), reports, nil
}

func setupBot(
	cfg *config.Config,
	logger *zap.Logger,
	opts *Options,
	key *signer.Secp256k1,
	ledgerClient *ledger.Client,
	engineClient *engine.Client,
	outputCache cache.Cache,
	breaker *circuitbreaker.DepletionBreaker,
	store storage.Storage,
) (*bot.Bot, error) {
	resolver, err := classifier.NewOutputResolver(ledgerClient, outputCache, logger)
	if err != nil {
		return nil, err
	}

	cls, err := classifier.New(classifier.Config{Lock: key.Lock(), TokenType: cfg.TokenType}, engineClient, resolver, logger)
	if err != nil {
		return nil, err
	}

	decider, err := decision.New(decision.Config{
		BaseSoftCap:  cfg.BaseSoftCap,
		QuoteSoftCap: cfg.QuoteSoftCap,
		BaseReserve:  cfg.BaseReserve,
		QuoteReserve: cfg.QuoteReserve,
	}, bot.SystemRand{})
	if err != nil {
		return nil, err
	}

	composer, err := execution.NewComposer(engineClient)
	if err != nil {
		return nil, err
	}

	controller, err := execution.NewController(composer, engineClient, logger)
	if err != nil {
		return nil, err
	}

	mode := execution.Mode(cfg.ExecutionMode)
	if opts.DryRun {
		mode = execution.ModeDryRun
	}
	executor, err := execution.New(&execution.Config{
		Mode:   mode,
		Signer: key,
		Sender: ledgerClient,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	return bot.New(&bot.Config{
		Ledger:        ledgerClient,
		Signer:        key,
		Oracle:        oracle.NewDAO(),
		Classifier:    cls,
		Decision:      decider,
		Composer:      composer,
		Controller:    controller,
		Executor:      executor,
		Breaker:       breaker,
		Storage:       store,
		Logger:        logger,
		OrderLock:     cfg.OrderLock,
		TokenType:     cfg.TokenType,
		StaleBlocks:   cfg.OrderStaleBlocks,
		FeeRateTarget: cfg.FeeRateTarget,

		ConsolidateMinCells: cfg.ConsolidateMinCells,
	})
}
