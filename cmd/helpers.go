package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/runbookops/runbook-agent/internal/chatbot"
	"github.com/runbookops/runbook-agent/internal/config"
	"github.com/runbookops/runbook-agent/internal/embeddings"
	"github.com/runbookops/runbook-agent/internal/ingest"
	"github.com/runbookops/runbook-agent/internal/llm"
	"github.com/runbookops/runbook-agent/internal/router"
	"github.com/runbookops/runbook-agent/internal/score"
	"github.com/runbookops/runbook-agent/internal/session"
	"github.com/runbookops/runbook-agent/internal/vectordb"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `runbook init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Using config %s (runbooks: %s, data: %s)\n", cfgFile, cfg.RunbookDir, cfg.DataDir)
	}
	return cfg, nil
}

// buildEmbedder creates the configured embedder, wrapped with retry and
// timeout handling.
func buildEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	var inner embeddings.Embedder
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		inner = embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel))
	case config.ProviderOllama:
		inner = embeddings.NewOllamaEmbedder(cfg.EmbeddingModel, 768, "")
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.EmbeddingProvider)
	}
	return embeddings.WithRetry(inner, requestTimeout(cfg)), nil
}

// buildProvider creates the configured LLM provider, wrapped with retry.
// Provider "none" yields nil: the agent composes answers offline.
func buildProvider(cfg *config.Config) (llm.Provider, error) {
	if cfg.Provider == config.ProviderNone {
		return nil, nil
	}
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	return llm.WithRetry(provider, requestTimeout(cfg)), nil
}

// requestTimeout converts the configured per-request timeout.
func requestTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.RequestTimeoutSeconds) * time.Second
}

// buildIndex creates the vector index over the configured embedder.
func buildIndex(cfg *config.Config) (vectordb.Index, error) {
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	index, err := vectordb.NewChromemIndex(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating vector index: %w", err)
	}
	return index, nil
}

// loadIndex creates the index and restores its persisted state. A missing
// or corrupt persisted index is reported with a pointer to `runbook ingest`.
func loadIndex(ctx context.Context, cfg *config.Config) (vectordb.Index, error) {
	index, err := buildIndex(cfg)
	if err != nil {
		return nil, err
	}
	if err := index.Load(ctx, cfg.DataDir); err != nil {
		return nil, fmt.Errorf("loading index from %s: %w\nRun `runbook ingest` to build the index", cfg.DataDir, err)
	}
	return index, nil
}

// buildSessionStore opens the configured session store.
func buildSessionStore(cfg *config.Config) (session.Store, error) {
	if cfg.SessionStore == "memory" {
		return session.NewMemoryStore(), nil
	}
	return session.OpenSQLite(filepath.Join(cfg.DataDir, "sessions.db"))
}

// buildCatalog creates the runbook source over the configured directory.
func buildCatalog(cfg *config.Config) *ingest.Catalog {
	return ingest.NewCatalog(cfg.RunbookDir, cfg.Include, cfg.Exclude)
}

// buildChatbot wires the full agent: router, index, scorer, catalog,
// session store and LLM provider.
func buildChatbot(ctx context.Context, cfg *config.Config) (*chatbot.Chatbot, vectordb.Index, session.Store, error) {
	index, err := loadIndex(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := buildSessionStore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	botCfg := chatbot.DefaultConfig()
	botCfg.TopK = cfg.TopK
	botCfg.Model = cfg.Model

	bot := chatbot.New(router.Default(), index, score.New(score.DefaultRubric()), buildCatalog(cfg), store, provider, botCfg)
	return bot, index, store, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
