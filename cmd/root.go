// Package cmd implements the runbook CLI.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/runbookops/runbook-agent/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "runbook",
	Short: "AI-assisted incident runbook retrieval, analysis and response",
	Long: `Runbook Agent ingests your operational runbooks into a semantic index,
scores their health across completeness, structure, safety and clarity,
and answers incident alerts by walking the matching runbook's remediation
steps. Destructive commands always require explicit confirmation.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultFileName, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
