package config

// DefaultFileName is the conventional config file in the working directory.
const DefaultFileName = ".runbook.yml"

// DefaultExcludes are glob patterns excluded from ingestion by default.
var DefaultExcludes = []string{
	"vendor/**",
	"node_modules/**",
	".git/**",
	"README.md",
	"CHANGELOG.md",
	"CONTRIBUTING.md",
}

// defaultModels maps each provider to its default chat and embedding models.
var defaultModels = map[ProviderType]struct {
	Model          string
	EmbeddingModel string
}{
	ProviderOpenAI: {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderOllama: {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:              ProviderOpenAI,
		Model:                 defaultModels[ProviderOpenAI].Model,
		EmbeddingProvider:     ProviderOpenAI,
		EmbeddingModel:        defaultModels[ProviderOpenAI].EmbeddingModel,
		RunbookDir:            "runbooks",
		DataDir:               ".runbook",
		Include:               []string{"**/*.md", "**/*.markdown"},
		Exclude:               DefaultExcludes,
		TopK:                  3,
		SessionStore:          "sqlite",
		RequestTimeoutSeconds: 60,
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8321,
		},
	}
}

// DefaultModel returns the default chat model for a provider.
func DefaultModel(provider ProviderType) string {
	if m, ok := defaultModels[provider]; ok {
		return m.Model
	}
	return ""
}

// DefaultEmbeddingModel returns the default embedding model for a provider.
func DefaultEmbeddingModel(provider ProviderType) string {
	if m, ok := defaultModels[provider]; ok {
		return m.EmbeddingModel
	}
	return ""
}
