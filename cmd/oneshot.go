package cmd

import (
	"fmt"

	"github.com/ickb/orderbot/internal/app"
	"github.com/ickb/orderbot/pkg/config"
	"go.uber.org/zap"
)

// openApp builds a quiet application for commands that do a single pass.
// The caller must Close it and Sync the logger.
func openApp(dryRun bool) (*app.App, *zap.Logger, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	// One-shot commands keep the terminal for their own output.
	level := cfg.LogLevel
	if level == "info" || level == "debug" {
		level = "warn"
	}
	logger, err := config.NewLogger(level)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	application, err := app.New(cfg, logger, &app.Options{DryRun: dryRun, Quiet: true})
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("create app: %w", err)
	}

	return application, logger, nil
}
