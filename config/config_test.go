package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, 6, cfg.MaxTurns)
	assert.Equal(t, 3, cfg.MaxToolCalls)
	assert.Equal(t, 12000, cfg.ContextBudget)
	assert.Equal(t, 3600, cfg.CacheTTLSeconds)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.True(t, cfg.Streaming)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DOCENT_PROVIDER", "openai")
	t.Setenv("DOCENT_MAX_TURNS", "10")
	t.Setenv("DOCENT_CACHE_BACKEND", "redis")
	t.Setenv("DOCENT_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, 10, cfg.MaxTurns)
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MalformedValue(t *testing.T) {
	t.Setenv("DOCENT_MAX_TURNS", "plenty")

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults pass", mutate: func(c *Config) {}},
		{name: "unknown provider", mutate: func(c *Config) { c.Provider = "acme" }, wantErr: true},
		{name: "redis without url", mutate: func(c *Config) { c.CacheBackend = "redis" }, wantErr: true},
		{name: "unknown cache backend", mutate: func(c *Config) { c.CacheBackend = "tape" }, wantErr: true},
		{name: "zero turns", mutate: func(c *Config) { c.MaxTurns = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)

			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
