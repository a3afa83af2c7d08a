package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beadchat/internal/bead"
	"beadchat/internal/config"
	"beadchat/internal/provider"
)

func TestDescribeError(t *testing.T) {
	assert.Contains(t, describeError(provider.ErrUnavailable), "unreachable")
	assert.Contains(t, describeError(provider.ErrAuth), "Authentication")
	assert.Contains(t, describeError(provider.ErrRateLimited), "Rate limited")
	assert.Contains(t, describeError(provider.ErrTimeout), "timed out")
	assert.Equal(t, "boom", describeError(errors.New("boom")))

	wrapped := errors.Join(provider.ErrAuth, errors.New("status 401"))
	assert.Contains(t, describeError(wrapped), "Authentication")
}

func TestProviderOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Providers.OpenAI.APIKey = "k1"
	cfg.Providers.Anthropic.BaseURL = "http://proxy:9999"

	opts := providerOptions(cfg)
	assert.Equal(t, "k1", opts.OpenAIKey)
	assert.Equal(t, "http://proxy:9999", opts.AnthropicBaseURL)
	assert.Equal(t, "http://localhost:11434", opts.OllamaBaseURL)
}

func TestBeadPills(t *testing.T) {
	dir := t.TempDir()
	body := strings.Repeat("Stay focused on the question that was actually asked. ", 2)
	def := "id: helpful\nname: Helpful\ncategory: base\nbody: " + body + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helpful.yaml"), []byte(def), 0644))

	lib := bead.NewLibrary(dir)

	assert.Contains(t, beadPills(lib, nil), "no beads active")

	line := beadPills(lib, []string{"helpful", "ghost"})
	assert.Contains(t, line, "helpful")
	assert.Contains(t, line, "ghost?")
}
