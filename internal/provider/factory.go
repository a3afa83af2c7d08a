package provider

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"beadchat/internal/logging"
)

// Options carries the per-provider connection settings the factory needs.
// Empty base URLs fall back to each provider's public endpoint.
type Options struct {
	OllamaBaseURL    string
	OpenAIBaseURL    string
	OpenAIKey        string
	AnthropicBaseURL string
	AnthropicKey     string
	GeminiBaseURL    string
	GeminiKey        string
}

// OptionsFromEnv fills in any keys not already set from the conventional
// environment variables.
func (o Options) OptionsFromEnv() Options {
	if o.OpenAIKey == "" {
		o.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	if o.AnthropicKey == "" {
		o.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if o.GeminiKey == "" {
		o.GeminiKey = os.Getenv("GEMINI_API_KEY")
		if o.GeminiKey == "" {
			o.GeminiKey = os.Getenv("GOOGLE_API_KEY")
		}
	}
	return o
}

// New builds the adapter for the named provider and model.
func New(name, model string, opts Options) (Adapter, error) {
	switch name {
	case "ollama":
		return NewOllamaAdapter(opts.OllamaBaseURL, model), nil
	case "openai":
		if opts.OpenAIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY not set", ErrAuth)
		}
		return NewOpenAIAdapter(opts.OpenAIBaseURL, opts.OpenAIKey, model), nil
	case "anthropic":
		if opts.AnthropicKey == "" {
			return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY not set", ErrAuth)
		}
		return NewAnthropicAdapter(opts.AnthropicBaseURL, opts.AnthropicKey, model), nil
	case "gemini":
		if opts.GeminiKey == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY not set", ErrAuth)
		}
		return NewGeminiAdapter(opts.GeminiBaseURL, opts.GeminiKey, model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

// DetectProvider picks a provider from the available credentials, checking
// cloud keys in priority order and falling back to the local server.
func DetectProvider(opts Options) string {
	opts = opts.OptionsFromEnv()
	switch {
	case opts.AnthropicKey != "":
		return "anthropic"
	case opts.OpenAIKey != "":
		return "openai"
	case opts.GeminiKey != "":
		return "gemini"
	default:
		return "ollama"
	}
}

// DefaultModel returns the model used for a provider when the config names
// none.
func DefaultModel(providerName string) string {
	switch providerName {
	case "openai":
		return "gpt-4o-mini"
	case "anthropic":
		return "claude-sonnet-4-20250514"
	case "gemini":
		return "gemini-2.0-flash"
	default:
		return "llama3.2"
	}
}

// ListAllModels queries every provider with credentials concurrently and
// returns provider name to model list. Providers that fail are logged and
// skipped rather than failing the whole listing.
func ListAllModels(ctx context.Context, opts Options) map[string][]string {
	opts = opts.OptionsFromEnv()
	log := logging.Get(logging.CategoryAPI)

	candidates := []string{"ollama"}
	if opts.OpenAIKey != "" {
		candidates = append(candidates, "openai")
	}
	if opts.AnthropicKey != "" {
		candidates = append(candidates, "anthropic")
	}
	if opts.GeminiKey != "" {
		candidates = append(candidates, "gemini")
	}

	var mu sync.Mutex
	results := make(map[string][]string)

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range candidates {
		name := name
		g.Go(func() error {
			adapter, err := New(name, DefaultModel(name), opts)
			if err != nil {
				return nil
			}
			models, err := adapter.ListModels(gctx)
			if err != nil {
				log.Warn("listing %s models failed: %v", name, err)
				return nil
			}
			sort.Strings(models)
			mu.Lock()
			results[name] = models
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}
