package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)

	// Cancel context to stop the scheduler, interrupting its sleep
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server
	err := a.shutdownHTTPServer(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	// Wait for the in-flight iteration and the server goroutine
	a.wg.Wait()

	a.Close()

	a.logger.Info("application-shutdown-complete")

	return nil
}

// Close releases clients, cache and storage. Safe to call more than once and
// on a partially built application.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		err := a.shutdownStorage()
		if err != nil {
			a.logger.Error("storage-close-error", zap.Error(err))
		}

		if a.outputCache != nil {
			a.outputCache.Close()
		}
		if a.engine != nil {
			a.engine.Close()
		}
		if a.ledger != nil {
			a.ledger.Close()
		}
		a.cancel()
	})
}

func (a *App) shutdownHTTPServer(ctx context.Context) error {
	return a.httpServer.Shutdown(ctx)
}

func (a *App) shutdownStorage() error {
	if a.storage == nil {
		return nil
	}
	return a.storage.Close()
}
