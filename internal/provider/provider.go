// Package provider implements the backend adapters that talk to LLM
// providers: a local Ollama server plus the OpenAI, Anthropic, and Gemini
// cloud APIs. All adapters speak raw HTTP with SSE or NDJSON streaming.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"beadchat/internal/chat"
)

// Adapter is the capability consumed by the chat loop. Implementations are
// capability-polymorphic: the assembler and REPL never know which provider
// is bound.
type Adapter interface {
	// Name returns the provider identifier (ollama, openai, anthropic, gemini).
	Name() string

	// Send submits the full message sequence and returns the reply text.
	Send(ctx context.Context, messages []chat.Message) (string, error)

	// Stream submits the message sequence and returns a channel of
	// incremental text chunks plus an error channel. Both channels are
	// closed when the stream ends. The stream is finite and
	// non-restartable; the consumer stops pulling to cancel.
	Stream(ctx context.Context, messages []chat.Message) (<-chan string, <-chan error)

	// ListModels returns the model identifiers the provider offers.
	ListModels(ctx context.Context) ([]string, error)
}

// Failure taxonomy shared by all adapters. Callers match with errors.Is.
var (
	// ErrUnavailable means the backend could not be reached or returned a
	// server error.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrAuth means the request was rejected for missing or bad credentials.
	ErrAuth = errors.New("authentication failed")

	// ErrRateLimited means the backend throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout means the request exceeded its deadline.
	ErrTimeout = errors.New("request timed out")
)

// classifyStatus maps an HTTP status to the shared failure taxonomy.
func classifyStatus(status int, body string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", ErrAuth, status, body)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, status)
	case status >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, status, body)
	default:
		return fmt.Errorf("request failed with status %d: %s", status, body)
	}
}

// classifyTransport maps a transport-level error to the shared taxonomy.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// truncateBody shortens an error body for logs and messages.
func truncateBody(body []byte) string {
	const maxLen = 512
	if len(body) > maxLen {
		return string(body[:maxLen]) + "..."
	}
	return string(body)
}
