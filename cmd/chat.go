package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/runbookops/runbook-agent/internal/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session with the agent",
	Long: `Starts a REPL that routes each message to the right workflow: incident
alerts retrieve runbooks, analysis requests score them, and anything else
is answered as a support question. Type "exit" or press Ctrl+D to quit.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
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

	fmt.Println("Runbook agent ready. Describe an alert, ask for an analysis, or ask a question.")

	sessionID := ""
	for {
		label := "you"
		if sessionID != "" {
			label = "you (confirming)"
		}
		prompt := promptui.Prompt{Label: label}
		line, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		if line == "" {
			continue
		}

		turn, err := bot.Process(ctx, sessionID, line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}

		fmt.Println()
		fmt.Println(turn.Response)
		fmt.Println()

		// Keep the session only while a confirmation is pending; any
		// other state starts the next turn fresh.
		if turn.State == session.StateAwaitingConfirmation {
			sessionID = turn.SessionID
		} else {
			sessionID = ""
		}
	}
}
