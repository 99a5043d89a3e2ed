// Package config loads runtime configuration from the environment, with an
// optional .env file for local development. All variables carry the DOCENT_
// prefix; defaults reproduce the documented run limits.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/hupe1980/docent/cache"
)

// Prefix namespaces every environment variable read by Load.
const Prefix = "docent"

// Config aggregates all runtime settings.
type Config struct {
	// Provider selects the model backend: gemini, openai or anthropic.
	Provider string `split_words:"true" default:"gemini"`
	// ModelName overrides the provider's default model.
	ModelName string `split_words:"true"`

	GeminiAPIKey    string `envconfig:"GEMINI_API_KEY"`
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`

	// Run limits. The defaults are load-bearing for client behavior.
	MaxTurns      int `split_words:"true" default:"6"`
	MaxToolCalls  int `split_words:"true" default:"3"`
	ContextBudget int `split_words:"true" default:"12000"`

	// Streaming toggles token-level model streaming.
	Streaming bool `default:"true"`

	// CacheBackend selects memory or redis; CacheTTLSeconds bounds entry
	// lifetime; CacheSize bounds the memory backend.
	CacheBackend    string `split_words:"true" default:"memory"`
	CacheTTLSeconds int    `envconfig:"CACHE_TTL_SECONDS" default:"3600"`
	CacheSize       int    `split_words:"true" default:"1024"`
	Redis           cache.RedisConfig

	// IndexPath locates the bleve index; DocsDir the markdown sources.
	IndexPath string `split_words:"true" default:"docent.bleve"`
	DocsDir   string `split_words:"true" default:"docs"`

	// ServerAddr is the HTTP listen address for docent serve.
	ServerAddr string `split_words:"true" default:":8080"`

	LogLevel  string `split_words:"true" default:"info"`
	LogPretty bool   `split_words:"true" default:"false"`

	// MetricsEnabled switches the prometheus recorder on.
	MetricsEnabled bool `split_words:"true" default:"true"`
}

// Load reads a .env file when present, then the environment. A missing .env
// is not an error; a malformed environment value is.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field consistency beyond what envconfig covers.
func (c *Config) Validate() error {
	switch c.Provider {
	case "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	switch c.CacheBackend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("cache backend redis requires DOCENT_REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}

	if c.MaxTurns <= 0 || c.MaxToolCalls < 0 || c.ContextBudget <= 0 {
		return fmt.Errorf("run limits must be positive")
	}

	return nil
}
