package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/ickb/orderbot/internal/stale"
	"github.com/ickb/orderbot/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the bot's balances and open orders",
	Long: `Display the wallet's current holdings including:
- CKB and token totals, split into available and locked in orders
- Base-equivalent capital at the current DAO exchange ratio
- Open orders, with how many blocks old they are

Nothing is signed or submitted.`,
	Args: cobra.NoArgs,
	RunE: runBalance,
}

//nolint:gochecknoglobals // Cobra boilerplate
var showOrders bool

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().BoolVarP(&showOrders, "orders", "o", true, "Show open orders")
}

func runBalance(cmd *cobra.Command, args []string) error {
	application, logger, err := openApp(true)
	if err != nil {
		return err
	}
	defer func() {
		application.Close()
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	snap, err := application.Bot().Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	fmt.Printf("Tip block:  %d\n", uint64(snap.Tip.Number))
	fmt.Printf("Ratio:      %s / %s\n",
		snap.Ratio.BaseMultiplier.Dec(), snap.Ratio.QuoteMultiplier.Dec())
	fmt.Printf("Fee rate:   %d shannons/KB\n\n", snap.FeeRate)

	printAsset("CKB", &snap.Balances.Base)
	printAsset("Token", &snap.Balances.Quote)
	fmt.Printf("Capital:    %s CKB equivalent\n", types.FormatAmount(&snap.Capital))
	fmt.Printf("Stale:      %d orders due for cancellation\n", len(snap.Stale))

	if !showOrders {
		return nil
	}

	fmt.Printf("\nOpen orders: %d\n", len(snap.Cells.Orders))
	for _, o := range snap.Cells.Orders {
		fmt.Printf("  %s  base=%s quote=%s age=%d blocks matchable=%t\n",
			o.OutPoint,
			types.FormatAmount(&o.Info.BaseAmount),
			types.FormatAmount(&o.Info.QuoteAmount),
			stale.Age(o, uint64(snap.Tip.Number)),
			o.Info.IsMatchable)
	}

	return nil
}

func printAsset(name string, b *types.AssetBalance) {
	fmt.Printf("%-6s total=%s available=%s locked=%s\n",
		name+":",
		types.FormatAmount(&b.Total),
		types.FormatAmount(&b.Available),
		types.FormatAmount(&b.Locked))
}
