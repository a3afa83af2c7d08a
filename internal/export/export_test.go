package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beadchat/internal/chat"
	"beadchat/internal/history"
)

func sampleConversation() *chat.Conversation {
	conv := chat.NewConversation("anthropic", "claude-sonnet-4-20250514")
	conv.SetBeads([]string{"helpful", "concise"})
	conv.History.Append(history.RoleUser, "What is Go?")
	conv.History.Append(history.RoleAssistant, "A programming language.")
	return conv
}

func TestRenderMarkdown(t *testing.T) {
	out, err := Render(sampleConversation(), FormatMarkdown)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "# Conversation Transcript")
	assert.Contains(t, text, "**Provider:** anthropic")
	assert.Contains(t, text, "**Beads:** helpful, concise")
	assert.Contains(t, text, "## You")
	assert.Contains(t, text, "What is Go?")
	assert.Contains(t, text, "## Assistant")
	assert.Contains(t, text, "A programming language.")

	// User turn appears before the assistant reply.
	assert.Less(t, strings.Index(text, "What is Go?"), strings.Index(text, "A programming language."))
}

func TestRenderJSON(t *testing.T) {
	out, err := Render(sampleConversation(), FormatJSON)
	require.NoError(t, err)

	var parsed transcript
	require.NoError(t, json.Unmarshal(out, &parsed))
	assert.Equal(t, "anthropic", parsed.Provider)
	require.Len(t, parsed.Turns, 2)
	assert.Equal(t, history.RoleUser, parsed.Turns[0].Role)
	assert.Equal(t, 1, parsed.Turns[0].Seq)
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "chat.md")
	written, err := WriteFile(sampleConversation(), FormatMarkdown, path)
	require.NoError(t, err)
	assert.Equal(t, path, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Conversation Transcript")
}

func TestWriteFileDefaultName(t *testing.T) {
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	written, err := WriteFile(sampleConversation(), FormatJSON, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(written, "beadchat-"))
	assert.True(t, strings.HasSuffix(written, ".json"))

	_, err = os.Stat(written)
	require.NoError(t, err)
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatJSON, ParseFormat(" JSON "))
	assert.Equal(t, FormatMarkdown, ParseFormat("markdown"))
	assert.Equal(t, FormatMarkdown, ParseFormat("anything"))
}
