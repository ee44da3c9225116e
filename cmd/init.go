package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runbookops/runbook-agent/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the agent configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the agent and writes a .runbook.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard()
		if err != nil {
			return err
		}
		if err := cfg.Save(cfgFile); err != nil {
			return err
		}
		fmt.Printf("Wrote %s. Run `runbook ingest` to build the index.\n", cfgFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
