package cmd

import (
	"context"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/runbookops/runbook-agent/internal/session"
)

var alertCmd = &cobra.Command{
	Use:   "alert [message]",
	Short: "Run an alert through the incident workflow",
	Long: `Retrieves the runbook matching the alert and walks through its
remediation steps. When a step is destructive you are asked to confirm it
before the walkthrough continues; declining closes the incident session.`,
	Args: cobra.ExactArgs(1),
	RunE: runAlert,
}

func init() {
	rootCmd.AddCommand(alertCmd)
}

func runAlert(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	bot, _, store, err := buildChatbot(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	turn, err := bot.Process(ctx, "", args[0])
	if err != nil {
		return err
	}
	fmt.Println(turn.Response)

	// Destructive steps gate the walkthrough until the operator answers.
	for turn.State == session.StateAwaitingConfirmation {
		reply, err := promptConfirmation()
		if err != nil {
			return err
		}
		turn, err = bot.Process(ctx, turn.SessionID, reply)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(turn.Response)
	}
	return nil
}

func promptConfirmation() (string, error) {
	prompt := promptui.Prompt{
		Label: "Proceed? (yes/no, optionally with key=value for placeholders)",
	}
	reply, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("reading confirmation: %w", err)
	}
	return reply, nil
}
