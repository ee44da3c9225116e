package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/runbookops/runbook-agent/internal/chatbot"
	"github.com/runbookops/runbook-agent/internal/mcp"
	"github.com/runbookops/runbook-agent/internal/router"
	"github.com/runbookops/runbook-agent/internal/score"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve runbook tools over the Model Context Protocol on stdio",
	Long: `Exposes search_runbooks, analyze_runbook and handle_alert as MCP tools
so AI agents and chat clients can drive the runbook workflows directly.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	index, err := loadIndex(ctx, cfg)
	if err != nil {
		return err
	}
	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	store, err := buildSessionStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	catalog := buildCatalog(cfg)
	scorer := score.New(score.DefaultRubric())

	botCfg := chatbot.DefaultConfig()
	botCfg.TopK = cfg.TopK
	botCfg.Model = cfg.Model
	bot := chatbot.New(router.Default(), index, scorer, catalog, store, provider, botCfg)

	return mcp.NewServer(index, catalog, scorer, bot).Serve()
}
