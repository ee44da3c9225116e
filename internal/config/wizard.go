package config

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting config. It is used by the init command on first setup.
func RunWizard() (*Config, error) {
	cfg := DefaultConfig()

	providerPrompt := promptui.Select{
		Label: "LLM provider for answer composition",
		Items: []string{"openai", "ollama", "none (offline composition only)"},
	}
	idx, _, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	switch idx {
	case 0:
		cfg.Provider = ProviderOpenAI
	case 1:
		cfg.Provider = ProviderOllama
	case 2:
		cfg.Provider = ProviderNone
	}
	cfg.Model = DefaultModel(cfg.Provider)

	embedPrompt := promptui.Select{
		Label: "Embedding provider for retrieval",
		Items: []string{"openai", "ollama"},
	}
	idx, _, err = embedPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("embedding provider selection: %w", err)
	}
	if idx == 0 {
		cfg.EmbeddingProvider = ProviderOpenAI
	} else {
		cfg.EmbeddingProvider = ProviderOllama
	}
	cfg.EmbeddingModel = DefaultEmbeddingModel(cfg.EmbeddingProvider)

	dirPrompt := promptui.Prompt{
		Label:   "Runbook directory",
		Default: cfg.RunbookDir,
		Validate: func(input string) error {
			if input == "" {
				return fmt.Errorf("directory must not be empty")
			}
			return nil
		},
	}
	dir, err := dirPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("runbook directory: %w", err)
	}
	cfg.RunbookDir = dir

	if key := APIKeyEnvVar(cfg.Provider); key != "" && os.Getenv(key) == "" {
		fmt.Fprintf(os.Stderr, "Note: set %s before running queries.\n", key)
	}

	return cfg, nil
}
