package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.Server.Address(); got != "0.0.0.0:8080" {
		t.Errorf("address = %q", got)
	}
	if cfg.Storage.DatabasePath != "" {
		t.Errorf("resolution log should be disabled by default, got %q", cfg.Storage.DatabasePath)
	}
	if cfg.LLM.Gemini.Model != "gemini-2.0-flash" {
		t.Errorf("gemini model = %q", cfg.LLM.Gemini.Model)
	}
	if len(cfg.LLM.ProviderOrder) != 3 || cfg.LLM.ProviderOrder[0] != "gemini" {
		t.Errorf("provider order = %v", cfg.LLM.ProviderOrder)
	}
	if cfg.LLM.RatePerMinute != 30 {
		t.Errorf("rate per minute = %d", cfg.LLM.RatePerMinute)
	}
	if cfg.Card.Timeout() != 25*time.Second {
		t.Errorf("card timeout = %v", cfg.Card.Timeout())
	}
	if cfg.Website.Timeout() != 15*time.Second || cfg.Website.MaxChars != 2000 {
		t.Errorf("website config = %+v", cfg.Website)
	}
	if cfg.Resolver.EnrichWorkers != 4 {
		t.Errorf("enrich workers = %d", cfg.Resolver.EnrichWorkers)
	}
	if cfg.Directory.Bucket != "business-directory" {
		t.Errorf("bucket = %q", cfg.Directory.Bucket)
	}
}

func TestLoad_FromFile(t *testing.T) {
	content := `
server:
  host: 127.0.0.1
  port: 9000
llm:
  gemini:
    api_key: test-key
    model: gemini-custom
card:
  sibling_url: https://cards.internal.example
  timeout_seconds: 5
auth:
  card_tokens:
    - tok-a
    - tok-b
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.Server.Address(); got != "127.0.0.1:9000" {
		t.Errorf("address = %q", got)
	}
	if cfg.LLM.Gemini.APIKey != "test-key" || cfg.LLM.Gemini.Model != "gemini-custom" {
		t.Errorf("gemini config = %+v", cfg.LLM.Gemini)
	}
	if cfg.Card.SiblingURL != "https://cards.internal.example" || cfg.Card.Timeout() != 5*time.Second {
		t.Errorf("card config = %+v", cfg.Card)
	}
	if len(cfg.Auth.CardTokens) != 2 || cfg.Auth.CardTokens[1] != "tok-b" {
		t.Errorf("card tokens = %v", cfg.Auth.CardTokens)
	}
	// Unset keys keep their defaults.
	if cfg.Website.MaxChars != 2000 {
		t.Errorf("website max chars = %d", cfg.Website.MaxChars)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BIZMATCH_SERVER_PORT", "9090")
	t.Setenv("BIZMATCH_LLM_GEMINI_API_KEY", "env-key")
	t.Setenv("BIZMATCH_DIRECTORY_BUCKET", "env-bucket")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want env override 9090", cfg.Server.Port)
	}
	if cfg.LLM.Gemini.APIKey != "env-key" {
		t.Errorf("gemini api key = %q", cfg.LLM.Gemini.APIKey)
	}
	if cfg.Directory.Bucket != "env-bucket" {
		t.Errorf("bucket = %q", cfg.Directory.Bucket)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for an explicit config path that does not exist")
	}
}
