package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/attest/packages/core/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate an attest configuration file against its schema",
	Long: `Validate an attest configuration file against its schema without
loading it. With no argument, the current directory is searched for the
usual config file names.

Examples:
  attest validate
  attest validate .attest.config.json
  attest validate attest.config.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		for _, name := range config.ConfigFilenames {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
		if path == "" {
			return fmt.Errorf("no config file found (looked for %v)", config.ConfigFilenames)
		}
	}

	problems, err := config.ValidateFile(path)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStderr(), "Error: %v\n", err)
		os.Exit(ExitConfigError)
	}

	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(cmd.OutOrStderr(), "Invalid: %s: %s\n", path, p)
		}
		os.Exit(ExitConfigError)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", path)
	return nil
}
