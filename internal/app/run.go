package app

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ickb/orderbot/internal/bot"
	"go.uber.org/zap"
)

// Run starts the application and blocks until the loop ends or a signal arrives.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("chain", a.cfg.Chain),
		zap.String("mode", a.cfg.ExecutionMode),
		zap.Duration("sleep-interval", a.cfg.SleepInterval),
		zap.String("log-level", a.cfg.LogLevel))

	// Start HTTP server
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)

	// Start the iteration loop
	loopDone := make(chan error, 1)
	a.wg.Add(1)
	go a.runScheduler(loopDone)

	// Mark as ready
	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.String("rpc-url", a.cfg.RPCURL))

	return a.waitForShutdown(loopDone)
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runScheduler(done chan<- error) {
	defer a.wg.Done()
	done <- a.scheduler.Run(a.ctx)
}

func (a *App) waitForShutdown(loopDone <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var loopErr error
	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case loopErr = <-loopDone:
		if a.breaker.IsTripped() {
			a.logger.Warn("shutdown-capital-depleted", zap.String("reason", bot.ShutdownDepleted))
		} else {
			a.logger.Info("scheduler-finished", zap.Error(loopErr))
		}
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	err := a.Shutdown()
	if loopErr != nil {
		return loopErr
	}
	return err
}
