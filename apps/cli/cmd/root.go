package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "attest",
	Short: "Assertion engine tooling: render, inspect and validate test runs.",
	Long: `attest is the companion CLI for the attest assertion engine. Test
suites link the library and write JSON report documents; this tool renders
those reports, validates configuration files, and queries the run-history
database for flaky units.`,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitUsageError)
	}
}

func init() {
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(flakyCmd)
	rootCmd.AddCommand(versionCmd)
}
