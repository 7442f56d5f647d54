// Package config handles application configuration using Viper.
// Viper supports YAML files, environment variables, and defaults — merged
// in priority order. Configuration is loaded once at process start and
// passed into each component; nothing reads ambient globals.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration struct. Nested structs organize related settings.
// `mapstructure` tags tell Viper how to map YAML/env keys to struct fields.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Directory DirectoryConfig `mapstructure:"directory"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Card      CardConfig      `mapstructure:"card"`
	Website   WebsiteConfig   `mapstructure:"website"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// StorageConfig points at the optional SQLite resolution log.
// An empty DatabasePath disables logging entirely.
type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// DirectoryConfig describes the S3-compatible bucket holding the system
// prompt and the business-directory documents.
type DirectoryConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	UseSSL         bool   `mapstructure:"use_ssl"`
	Bucket         string `mapstructure:"bucket"`
	PromptObject   string `mapstructure:"prompt_object"`
	ListingsObject string `mapstructure:"listings_object"`
	PagesObject    string `mapstructure:"pages_object"`
}

type LLMConfig struct {
	// ProviderOrder controls which model providers are used and in what
	// order. The first provider with credentials configured wins.
	// Example: ["gemini", "openai", "anthropic"]
	ProviderOrder []string        `mapstructure:"provider_order"`
	Gemini        GeminiConfig    `mapstructure:"gemini"`
	OpenAI        OpenAIConfig    `mapstructure:"openai"`
	Anthropic     AnthropicConfig `mapstructure:"anthropic"`
	RatePerMinute int             `mapstructure:"rate_per_minute"`
}

type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// CardConfig configures business-card extraction. When SiblingURL is set,
// extraction goes over HTTP to that endpoint with AuthToken as the bearer
// credential; otherwise the local vision-capable model client is used.
type CardConfig struct {
	SiblingURL     string `mapstructure:"sibling_url"`
	AuthToken      string `mapstructure:"auth_token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type WebsiteConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxChars       int `mapstructure:"max_chars"`
}

type ResolverConfig struct {
	// EnrichWorkers bounds the per-candidate enrichment fan-out.
	EnrichWorkers int `mapstructure:"enrich_workers"`
}

// AuthConfig lists the bearer tokens accepted by the card-extraction
// endpoint. The query endpoint is public.
type AuthConfig struct {
	CardTokens []string `mapstructure:"card_tokens"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults — these apply when neither file nor env provides a value
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.database_path", "")
	v.SetDefault("directory.endpoint", "localhost:9000")
	v.SetDefault("directory.use_ssl", false)
	v.SetDefault("directory.bucket", "business-directory")
	v.SetDefault("directory.prompt_object", "system_prompt.txt")
	v.SetDefault("directory.listings_object", "directory.json")
	v.SetDefault("directory.pages_object", "directory_pages.html")
	v.SetDefault("llm.provider_order", []string{"gemini", "openai", "anthropic"})
	v.SetDefault("llm.gemini.model", "gemini-2.0-flash")
	v.SetDefault("llm.openai.model", "gpt-4o")
	v.SetDefault("llm.anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("llm.rate_per_minute", 30)
	v.SetDefault("card.timeout_seconds", 25)
	v.SetDefault("website.timeout_seconds", 15)
	v.SetDefault("website.max_chars", 2000)
	v.SetDefault("resolver.enrich_workers", 4)
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("log.level", "info")

	// Read from YAML config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Read config file (ignore "not found" — defaults + env are enough)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Environment variables override everything.
	// BIZMATCH_ prefix + nested keys: BIZMATCH_SERVER_PORT=9090 → server.port=9090
	v.SetEnvPrefix("BIZMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Address returns the listen address string like "0.0.0.0:8080".
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Timeout returns the card-extraction budget as a time.Duration.
func (c CardConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Timeout returns the website-fetch budget as a time.Duration.
func (w WebsiteConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}
