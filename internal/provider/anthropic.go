package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"beadchat/internal/chat"
	"beadchat/internal/logging"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion        = "2023-06-01"
	anthropicMaxTokens      = 4096
)

// AnthropicAdapter talks to the Anthropic messages API. Unlike the other
// providers, the system prompt travels in a top-level field rather than as
// the first message.
type AnthropicAdapter struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	log        *logging.Logger

	maxRetries int
	retryDelay time.Duration
}

// NewAnthropicAdapter builds an adapter for the given key and model.
func NewAnthropicAdapter(baseURL, apiKey, model string) *AnthropicAdapter {
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	return &AnthropicAdapter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		log:        logging.Get(logging.CategoryAPI),
		maxRetries: 3,
		retryDelay: 2 * time.Second,
	}
}

func (a *AnthropicAdapter) Name() string { return "anthropic" }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Stream    bool               `json:"stream,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// splitSystem lifts the leading system message out of the sequence since
// the messages API rejects a system role inside the messages array.
func splitSystem(messages []chat.Message) (string, []anthropicMessage) {
	var system string
	out := make([]anthropicMessage, 0, len(messages))
	for i, m := range messages {
		if i == 0 && m.Role == "system" {
			system = m.Text
			continue
		}
		out = append(out, anthropicMessage{Role: string(m.Role), Content: m.Text})
	}
	return system, out
}

func (a *AnthropicAdapter) Send(ctx context.Context, messages []chat.Message) (string, error) {
	system, msgs := splitSystem(messages)
	body, err := json.Marshal(anthropicRequest{
		Model:     a.model,
		MaxTokens: anthropicMaxTokens,
		System:    system,
		Messages:  msgs,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	resp, err := a.postWithRetry(ctx, "/messages", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

type anthropicStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

func (a *AnthropicAdapter) Stream(ctx context.Context, messages []chat.Message) (<-chan string, <-chan error) {
	chunks := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		system, msgs := splitSystem(messages)
		body, err := json.Marshal(anthropicRequest{
			Model:     a.model,
			MaxTokens: anthropicMaxTokens,
			System:    system,
			Messages:  msgs,
			Stream:    true,
		})
		if err != nil {
			errs <- fmt.Errorf("marshaling request: %w", err)
			return
		}

		resp, err := a.postWithRetry(ctx, "/messages", body)
		if err != nil {
			errs <- err
			return
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var event anthropicStreamEvent
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
				a.log.Warn("skipping malformed stream event: %v", err)
				continue
			}
			switch event.Type {
			case "content_block_delta":
				if event.Delta.Text == "" {
					continue
				}
				select {
				case chunks <- event.Delta.Text:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			case "message_stop":
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- classifyTransport(err)
		}
	}()

	return chunks, errs
}

type anthropicModelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (a *AnthropicAdapter) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	a.setHeaders(req)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, classifyStatus(resp.StatusCode, truncateBody(raw))
	}

	var parsed anthropicModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding models: %w", err)
	}
	names := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		names = append(names, m.ID)
	}
	return names, nil
}

func (a *AnthropicAdapter) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
}

func (a *AnthropicAdapter) postWithRetry(ctx context.Context, path string, body []byte) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			delay := a.retryDelay * time.Duration(attempt)
			a.log.Warn("rate limited, retrying in %v (attempt %d/%d)", delay, attempt, a.maxRetries)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		a.setHeaders(req)

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return nil, classifyTransport(err)
		}
		if resp.StatusCode == http.StatusOK {
			return resp, nil
		}

		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		lastErr = classifyStatus(resp.StatusCode, truncateBody(raw))
		if resp.StatusCode != http.StatusTooManyRequests {
			return nil, lastErr
		}
	}
	return nil, lastErr
}
