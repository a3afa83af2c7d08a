package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY",
		"GOOGLE_API_KEY", "OLLAMA_HOST", "BEADCHAT_PROVIDER", "BEADCHAT_MODEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 40, cfg.History.MessageLimit)
	assert.Equal(t, "recent", cfg.History.Strategy)
	assert.Equal(t, "http://localhost:11434", cfg.Providers.Ollama.BaseURL)
	assert.Len(t, cfg.Beads.Paths, 2)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearProviderEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().History, cfg.History)
}

func TestLoadParsesYAML(t *testing.T) {
	clearProviderEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: anthropic
model: claude-sonnet-4-20250514
history:
  message_limit: 12
  strategy: middle
providers:
  anthropic:
    api_key: file-key
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, 12, cfg.History.MessageLimit)
	assert.Equal(t, "middle", cfg.History.Strategy)
	assert.Equal(t, "file-key", cfg.Providers.Anthropic.APIKey)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesFileValues(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	t.Setenv("BEADCHAT_MODEL", "env-model")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model: file-model
providers:
  anthropic:
    api_key: file-key
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Providers.Anthropic.APIKey)
	assert.Equal(t, "env-model", cfg.Model)
}

func TestGeminiKeyFallsBackToGoogleKey(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "google-key", cfg.Providers.Gemini.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"zero limit", func(c *Config) { c.History.MessageLimit = 0 }, false},
		{"negative limit", func(c *Config) { c.History.MessageLimit = -3 }, false},
		{"bad strategy", func(c *Config) { c.History.Strategy = "newest" }, false},
		{"no bead paths", func(c *Config) { c.Beads.Paths = nil }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearProviderEnv(t)

	cfg := DefaultConfig()
	cfg.Provider = "ollama"
	cfg.Model = "llama3.2"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", loaded.Provider)
	assert.Equal(t, "llama3.2", loaded.Model)
}
