// Package config loads beadchat configuration from YAML with environment
// variable overrides for credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all beadchat configuration.
type Config struct {
	// Provider names the backend: ollama, openai, anthropic, gemini. Empty
	// means auto-detect from available credentials.
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	Providers ProvidersConfig `yaml:"providers"`

	History HistoryConfig `yaml:"history"`
	Beads   BeadsConfig   `yaml:"beads"`
	Files   FilesConfig   `yaml:"files"`
	Logging LoggingConfig `yaml:"logging"`

	// StateDir holds the session database and logs.
	StateDir string `yaml:"state_dir"`
}

// ProviderConfig configures one backend connection.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// ProvidersConfig carries per-backend connection settings.
type ProvidersConfig struct {
	Ollama    ProviderConfig `yaml:"ollama"`
	OpenAI    ProviderConfig `yaml:"openai"`
	Anthropic ProviderConfig `yaml:"anthropic"`
	Gemini    ProviderConfig `yaml:"gemini"`
}

// HistoryConfig controls history compaction.
type HistoryConfig struct {
	// MessageLimit is the maximum turns sent to the backend per request.
	MessageLimit int `yaml:"message_limit"`

	// Strategy is recent, first, or middle.
	Strategy string `yaml:"strategy"`
}

// BeadsConfig controls the personality bead library.
type BeadsConfig struct {
	// Paths are the library layers in load order; later layers shadow
	// earlier ones and the last is the writable user layer.
	Paths []string `yaml:"paths"`

	// Watch enables live reloading of the user layer.
	Watch bool `yaml:"watch"`
}

// FilesConfig controls @file reference expansion.
type FilesConfig struct {
	// MaxBytes caps the size of an expanded file. Zero means no cap.
	MaxBytes int64 `yaml:"max_bytes"`
}

// LoggingConfig controls the category file logger.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	stateDir := filepath.Join(home, ".beadchat")
	return &Config{
		Providers: ProvidersConfig{
			Ollama: ProviderConfig{BaseURL: "http://localhost:11434"},
		},
		History: HistoryConfig{
			MessageLimit: 40,
			Strategy:     "recent",
		},
		Beads: BeadsConfig{
			Paths: []string{
				filepath.Join(stateDir, "beads", "system"),
				filepath.Join(stateDir, "beads", "user"),
			},
			Watch: true,
		},
		Files: FilesConfig{
			MaxBytes: 256 * 1024,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Level:   "info",
		},
		StateDir: stateDir,
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".beadchat", "config.yaml")
}

// Load reads the config file at path, falling back to defaults when it does
// not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets environment variables supersede file values.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Providers.OpenAI.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.Providers.Anthropic.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Providers.Gemini.APIKey = key
	} else if key := os.Getenv("GOOGLE_API_KEY"); key != "" && c.Providers.Gemini.APIKey == "" {
		c.Providers.Gemini.APIKey = key
	}
	if url := os.Getenv("OLLAMA_HOST"); url != "" {
		c.Providers.Ollama.BaseURL = url
	}
	if provider := os.Getenv("BEADCHAT_PROVIDER"); provider != "" {
		c.Provider = provider
	}
	if model := os.Getenv("BEADCHAT_MODEL"); model != "" {
		c.Model = model
	}
}

// Validate checks values that would otherwise fail deep inside a chat turn.
func (c *Config) Validate() error {
	if c.History.MessageLimit <= 0 {
		return fmt.Errorf("history.message_limit must be positive, got %d", c.History.MessageLimit)
	}
	switch c.History.Strategy {
	case "recent", "first", "middle":
	default:
		return fmt.Errorf("history.strategy must be recent, first, or middle, got %q", c.History.Strategy)
	}
	if len(c.Beads.Paths) == 0 {
		return fmt.Errorf("beads.paths must name at least one directory")
	}
	return nil
}

// Save writes the config to path as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
