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

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaAdapter talks to a local Ollama server over its native NDJSON API.
type OllamaAdapter struct {
	baseURL    string
	model      string
	httpClient *http.Client
	log        *logging.Logger
}

// NewOllamaAdapter builds an adapter bound to the given model. An empty
// baseURL falls back to the default local server address.
func NewOllamaAdapter(baseURL, model string) *OllamaAdapter {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &OllamaAdapter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		log:        logging.Get(logging.CategoryAPI),
	}
}

func (a *OllamaAdapter) Name() string { return "ollama" }

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

func ollamaMessages(messages []chat.Message) []ollamaMessage {
	out := make([]ollamaMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, ollamaMessage{Role: string(m.Role), Content: m.Text})
	}
	return out
}

func (a *OllamaAdapter) Send(ctx context.Context, messages []chat.Message) (string, error) {
	body, err := json.Marshal(ollamaChatRequest{
		Model:    a.model,
		Messages: ollamaMessages(messages),
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	resp, err := a.post(ctx, "/api/chat", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return parsed.Message.Content, nil
}

func (a *OllamaAdapter) Stream(ctx context.Context, messages []chat.Message) (<-chan string, <-chan error) {
	chunks := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		body, err := json.Marshal(ollamaChatRequest{
			Model:    a.model,
			Messages: ollamaMessages(messages),
			Stream:   true,
		})
		if err != nil {
			errs <- fmt.Errorf("marshaling request: %w", err)
			return
		}

		resp, err := a.post(ctx, "/api/chat", body)
		if err != nil {
			errs <- err
			return
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var event ollamaChatResponse
			if err := json.Unmarshal([]byte(line), &event); err != nil {
				a.log.Warn("skipping malformed stream line: %v", err)
				continue
			}
			if event.Message.Content != "" {
				select {
				case chunks <- event.Message.Content:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
			if event.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- classifyTransport(err)
		}
	}()

	return chunks, errs
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (a *OllamaAdapter) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, classifyStatus(resp.StatusCode, truncateBody(raw))
	}

	var parsed ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	names := make([]string, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (a *OllamaAdapter) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	a.log.Debug("POST %s completed in %v", path, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, classifyStatus(resp.StatusCode, truncateBody(raw))
	}
	return resp, nil
}
