package cmd

import (
	"fmt"

	"github.com/ickb/orderbot/internal/app"
	"github.com/ickb/orderbot/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the rebalancing loop",
	Long: `Starts the order bot, which will:
1. Read the wallet's cells, open orders, tip header and fee rate
2. Stop for good once capital falls below MIN_OPERATING_CAPITAL
3. Melt completed orders and cancel orders older than ORDER_STALE_BLOCKS
4. Place at most one rebalancing order, then sign and submit
5. Sleep a random time up to twice BOT_SLEEP_INTERVAL and repeat

Use --dry-run to build every transaction without signing or submitting it.`,
	Args: cobra.NoArgs,
	RunE: runBot,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("dry-run", false, "Build transactions but never sign or submit them")
	runCmd.Flags().IntP("iterations", "n", 0, "Stop after this many iterations (0 runs until stopped)")
}

func runBot(cmd *cobra.Command, args []string) error {
	// Load config
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create logger
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Get flags
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	iterations, _ := cmd.Flags().GetInt("iterations")
	if iterations < 0 {
		return fmt.Errorf("--iterations must not be negative, got %d", iterations)
	}

	// Create app with options
	opts := &app.Options{
		DryRun:        dryRun,
		MaxIterations: iterations,
	}

	application, err := app.New(cfg, logger, opts)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	// Run app
	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
