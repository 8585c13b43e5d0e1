package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "swapgate",
	Short: "Gated swap settlement service",
	Long: `Swapgate runs a simulated swap venue behind a four-stage validation
pipeline. Every trade is checked against the trading window, a liquidity
impact ceiling, an oracle price deviation ceiling, and a proof-attested
volatility ceiling before the settlement engine moves any funds.

The service exposes an HTTP API for health, status, and threshold
administration, and records every execution attempt to storage.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
