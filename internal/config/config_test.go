package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("provider = %s, want openai default", cfg.Provider)
	}
	if cfg.TopK != 3 {
		t.Errorf("top_k = %d, want 3", cfg.TopK)
	}
	if cfg.RunbookDir != "runbooks" {
		t.Errorf("runbook_dir = %s, want runbooks", cfg.RunbookDir)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	content := `provider: ollama
model: llama3
embedding_provider: ollama
embedding_model: nomic-embed-text
runbook_dir: ops/runbooks
top_k: 5
session_store: memory
server:
  port: 9000
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderOllama {
		t.Errorf("provider = %s, want ollama", cfg.Provider)
	}
	if cfg.RunbookDir != "ops/runbooks" {
		t.Errorf("runbook_dir = %s", cfg.RunbookDir)
	}
	if cfg.TopK != 5 {
		t.Errorf("top_k = %d, want 5", cfg.TopK)
	}
	if cfg.SessionStore != "memory" {
		t.Errorf("session_store = %s, want memory", cfg.SessionStore)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("server.port = %d, want 9000", cfg.Server.Port)
	}
	// Unset fields keep their defaults.
	if cfg.DataDir != ".runbook" {
		t.Errorf("data_dir = %s, want .runbook default", cfg.DataDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate, got %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RUNBOOK_PROVIDER", "ollama")
	t.Setenv("RUNBOOK_MODEL", "llama3:70b")
	t.Setenv("RUNBOOK_SERVER__PORT", "9999")

	cfg, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderOllama {
		t.Errorf("provider = %s, want env override ollama", cfg.Provider)
	}
	if cfg.Model != "llama3:70b" {
		t.Errorf("model = %s, want env override", cfg.Model)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("server.port = %d, want env override 9999", cfg.Server.Port)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	cfg := DefaultConfig()
	cfg.RunbookDir = "ops/runbooks"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.RunbookDir != "ops/runbooks" {
		t.Errorf("runbook_dir = %s after round trip", loaded.RunbookDir)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty provider", func(c *Config) { c.Provider = "" }},
		{"unknown provider", func(c *Config) { c.Provider = "anthropic" }},
		{"missing model", func(c *Config) { c.Model = "" }},
		{"none embedding provider", func(c *Config) { c.EmbeddingProvider = ProviderNone }},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }},
		{"missing runbook dir", func(c *Config) { c.RunbookDir = "" }},
		{"missing data dir", func(c *Config) { c.DataDir = "" }},
		{"zero top_k", func(c *Config) { c.TopK = 0 }},
		{"zero request timeout", func(c *Config) { c.RequestTimeoutSeconds = 0 }},
		{"bad session store", func(c *Config) { c.SessionStore = "redis" }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestValidateAllowsProviderNoneWithoutModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderNone
	cfg.Model = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("provider none should not require a model, got %v", err)
	}
}
