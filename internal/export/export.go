// Package export writes conversation transcripts to disk as Markdown or
// JSON, with a metadata header describing the session.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"beadchat/internal/chat"
	"beadchat/internal/history"
)

// Format selects the transcript encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat maps a user-supplied format name to a Format, defaulting to
// Markdown for anything unrecognized.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatMarkdown
	}
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	if f == FormatJSON {
		return "json"
	}
	return "md"
}

// transcript is the JSON export shape.
type transcript struct {
	ExportedAt time.Time      `json:"exported_at"`
	Provider   string         `json:"provider"`
	Model      string         `json:"model"`
	BeadIDs    []string       `json:"bead_ids,omitempty"`
	Turns      []history.Turn `json:"turns"`
}

// Render produces the transcript bytes for a conversation.
func Render(conv *chat.Conversation, format Format) ([]byte, error) {
	turns := conv.History.Snapshot()
	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(transcript{
			ExportedAt: time.Now(),
			Provider:   conv.Provider,
			Model:      conv.Model,
			BeadIDs:    conv.BeadIDs,
			Turns:      turns,
		}, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding transcript: %w", err)
		}
		return out, nil
	default:
		return renderMarkdown(conv, turns), nil
	}
}

func renderMarkdown(conv *chat.Conversation, turns []history.Turn) []byte {
	var sb strings.Builder
	sb.WriteString("# Conversation Transcript\n\n")
	sb.WriteString(fmt.Sprintf("- **Exported:** %s\n", time.Now().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("- **Provider:** %s\n", conv.Provider))
	sb.WriteString(fmt.Sprintf("- **Model:** %s\n", conv.Model))
	if len(conv.BeadIDs) > 0 {
		sb.WriteString(fmt.Sprintf("- **Beads:** %s\n", strings.Join(conv.BeadIDs, ", ")))
	}
	sb.WriteString(fmt.Sprintf("- **Turns:** %d\n\n", len(turns)))

	for _, turn := range turns {
		label := "Assistant"
		if turn.Role == history.RoleUser {
			label = "You"
		}
		sb.WriteString(fmt.Sprintf("## %s (%s)\n\n", label, turn.Timestamp.Format("15:04:05")))
		sb.WriteString(turn.Text)
		sb.WriteString("\n\n")
	}
	return []byte(sb.String())
}

// WriteFile renders the conversation and writes it to path, creating parent
// directories. An empty path gets a timestamped name in the working
// directory.
func WriteFile(conv *chat.Conversation, format Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("beadchat-%s.%s", time.Now().Format("20060102-150405"), format.Ext())
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating export directory: %w", err)
		}
	}

	out, err := Render(conv, format)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return "", fmt.Errorf("writing transcript: %w", err)
	}
	return path, nil
}
