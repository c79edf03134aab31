package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "orderbot",
	Short: "Limit order rebalancing bot for a CKB token pair",
	Long: `Limit order rebalancing bot that keeps a wallet's holdings of CKB and
an xUDT token near a target allocation.

Every iteration the bot reads the wallet's cells and its open limit orders,
melts completed orders, cancels stale ones and places at most one new order
priced at the DAO exchange ratio minus a small spread.

Configuration is read from the environment. A .env file in the working
directory is loaded first when present.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine, the environment may already be set.
		_ = godotenv.Load()
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
