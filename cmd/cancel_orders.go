package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var cancelOrdersCmd = &cobra.Command{
	Use:   "cancel-orders",
	Short: "Cancel every open order of the bot",
	Long: `Cancel all open orders in a single transaction and melt completed ones.

No new order is placed. Use --dry-run to build the transaction without
signing or submitting it.

Examples:
  # Preview the cancellation
  orderbot cancel-orders --dry-run

  # Cancel all orders immediately
  orderbot cancel-orders`,
	Args: cobra.NoArgs,
	RunE: runCancelOrders,
}

//nolint:gochecknoglobals // Cobra boilerplate
var dryRunFlag bool

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(cancelOrdersCmd)
	cancelOrdersCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Preview the transaction without submitting")
}

func runCancelOrders(cmd *cobra.Command, args []string) error {
	application, logger, err := openApp(dryRunFlag)
	if err != nil {
		return err
	}
	defer func() {
		application.Close()
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	report := application.Bot().CancelAll(ctx)

	fmt.Printf("Outcome:   %s\n", report.Outcome)
	fmt.Printf("Cancelled: %d\n", report.CancelledOrders)
	fmt.Printf("Melted:    %d\n", report.MeltedOrders)
	if report.TxHash != "" {
		fmt.Printf("Tx hash:   %s\n", report.TxHash)
	}
	if report.DryRun {
		fmt.Println("Dry run, nothing was submitted.")
	}

	if report.Error != "" {
		return errors.New(report.Error)
	}
	return nil
}
