package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/attest/packages/history"
)

var (
	flakyDBFlag     string
	flakyWindowFlag int
)

var flakyCmd = &cobra.Command{
	Use:   "flaky",
	Short: "List units that both passed and failed across recent runs",
	Long: `Query the run-history database for flaky units: units that both
passed and failed within the most recent runs. A unit that fails every
run is broken, not flaky, and is not listed.

Examples:
  attest flaky --db .attest-history.db
  attest flaky --db .attest-history.db --window 50`,
	RunE: flakyCommand,
}

func init() {
	flakyCmd.Flags().StringVar(&flakyDBFlag, "db", ".attest-history.db", "Path to the run-history database")
	flakyCmd.Flags().IntVar(&flakyWindowFlag, "window", 20, "Number of recent runs to consider")
}

func flakyCommand(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(flakyDBFlag); err != nil {
		return fmt.Errorf("history database %s not found", flakyDBFlag)
	}

	store, err := history.Open(flakyDBFlag)
	if err != nil {
		return err
	}
	defer store.Close()

	flaky, err := store.FlakyUnits(flakyWindowFlag)
	if err != nil {
		return err
	}

	if len(flaky) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No flaky units in the last %d runs.\n", flakyWindowFlag)
		return nil
	}

	yellow := color.New(color.FgYellow).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", bold(fmt.Sprintf("Flaky units (last %d runs):", flakyWindowFlag)))
	for _, f := range flaky {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s %s: failed %d of %d runs (%.0f%%)\n",
			yellow("~"), f.Name, f.Failures, f.Runs, f.FailRate()*100)
	}
	return nil
}
