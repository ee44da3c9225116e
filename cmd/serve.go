package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/runbookops/runbook-agent/internal/chatbot"
	"github.com/runbookops/runbook-agent/internal/ingest"
	"github.com/runbookops/runbook-agent/internal/llm"
	"github.com/runbookops/runbook-agent/internal/router"
	"github.com/runbookops/runbook-agent/internal/score"
	"github.com/runbookops/runbook-agent/internal/server"
	"github.com/runbookops/runbook-agent/internal/walker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the agent API over HTTP",
	Long: `Starts the HTTP server exposing query, ingestion, health-report and
WebSocket chat endpoints.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "override the configured port")
	serveCmd.Flags().Bool("allow-all-origins", false, "allow all CORS origins (dev mode)")
	serveCmd.Flags().Int("rpm", 60, "rate limit for LLM calls, requests per minute")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	port, _ := cmd.Flags().GetInt("port")
	allowAll, _ := cmd.Flags().GetBool("allow-all-origins")
	rpm, _ := cmd.Flags().GetInt("rpm")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	index, err := buildIndex(cfg)
	if err != nil {
		return err
	}
	// A fresh deployment has no index yet; the ingest endpoint builds it.
	if err := index.Load(ctx, cfg.DataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: no usable index at %s, starting empty: %v\n", cfg.DataDir, err)
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	// Shared server, many clients: cap the LLM call rate.
	if provider != nil && rpm > 0 {
		provider = llm.NewRateLimitedProvider(provider, rpm)
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

	pipeline := ingest.NewPipeline(index, cfg.DataDir)
	runIngest := func(ctx context.Context) (*ingest.Result, error) {
		files, err := walker.Walk(walker.Config{
			RootDir: cfg.RunbookDir,
			Include: cfg.Include,
			Exclude: cfg.Exclude,
		})
		if err != nil {
			return nil, err
		}
		return pipeline.Run(ctx, files)
	}

	srv := server.New(server.Config{
		Host:     cfg.Server.Host,
		Port:     cfg.Server.Port,
		AllowAll: allowAll,
	}, bot, catalog, scorer, runIngest)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		fmt.Fprintf(os.Stderr, "Received %s, shutting down.\n", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
