// Package config loads and validates the agent configuration from
// .runbook.yml and RUNBOOK_* environment overrides.
package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
	ProviderNone   ProviderType = "none"
)

// Config is the top-level agent configuration, corresponding to .runbook.yml.
type Config struct {
	// Provider drives answer composition. "none" disables the LLM and the
	// agent falls back to deterministic composition from runbook content.
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`

	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`

	// RunbookDir is the directory holding the Markdown runbooks.
	RunbookDir string `yaml:"runbook_dir" koanf:"runbook_dir"`
	// DataDir holds the persisted index, ingestion state and session DB.
	DataDir string `yaml:"data_dir" koanf:"data_dir"`

	Include []string `yaml:"include" koanf:"include"`
	Exclude []string `yaml:"exclude" koanf:"exclude"`

	// TopK is the number of index entries retrieved per incident query.
	TopK int `yaml:"top_k" koanf:"top_k"`

	// SessionStore selects where incident sessions live: memory or sqlite.
	SessionStore string `yaml:"session_store" koanf:"session_store"`

	// RequestTimeoutSeconds bounds each embedding or completion request,
	// including the single retry.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" koanf:"request_timeout_seconds"`

	Server ServerConfig `yaml:"server" koanf:"server"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" koanf:"host"`
	Port int    `yaml:"port" koanf:"port"`
}
