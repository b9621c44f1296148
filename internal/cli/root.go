// Package cli implements the sparks command-line interface using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sparks",
	Short: "Sparks: daily tasks for couples",
	Long: `Sparks serves the Mini App API and the Telegram bot for daily couple tasks.

Configuration comes from the environment (and an optional .env file);
economy numbers may be overridden by the TOML file named in SPARKS_CONFIG.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
