// Package app wires the bot's components and owns their lifecycle.
package app

import (
	"context"
	"sync"

	"github.com/ickb/orderbot/internal/bot"
	"github.com/ickb/orderbot/internal/circuitbreaker"
	"github.com/ickb/orderbot/internal/storage"
	"github.com/ickb/orderbot/pkg/cache"
	"github.com/ickb/orderbot/pkg/config"
	"github.com/ickb/orderbot/pkg/engine"
	"github.com/ickb/orderbot/pkg/healthprobe"
	"github.com/ickb/orderbot/pkg/httpserver"
	"github.com/ickb/orderbot/pkg/ledger"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	ledger        *ledger.Client
	engine        *engine.Client
	outputCache   cache.Cache
	breaker       *circuitbreaker.DepletionBreaker
	storage       storage.Storage
	reports       *storage.MemoryStorage
	bot           *bot.Bot
	scheduler     *bot.Scheduler
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	closeOnce     sync.Once
}

// Options holds application options.
type Options struct {
	DryRun        bool // Compose and fund, but never sign or submit
	MaxIterations int  // Stop after this many iterations, 0 means run until stopped
	Quiet         bool // Skip the console report sink, for one-shot commands
}

// Bot returns the iteration pipeline, for one-shot commands.
func (a *App) Bot() *bot.Bot {
	return a.bot
}
