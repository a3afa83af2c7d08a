package chat

import (
	"fmt"
	"regexp"
	"strings"

	"beadchat/internal/bead"
	"beadchat/internal/history"
	"beadchat/internal/logging"
)

// Message is one entry in the sequence handed to a backend adapter.
type Message struct {
	Role history.Role `json:"role"`
	Text string       `json:"text"`
}

// fileRefPattern matches @path references in user input. Paths may contain
// letters, digits, dots, slashes, tildes, underscores and hyphens.
var fileRefPattern = regexp.MustCompile(`@([~\w./-]+)`)

// Assembler builds the final message sequence for a turn. It is a pure
// read + transform over conversation state: the caller appends the eventual
// assistant reply back into the history store, and only on success, so a
// failed backend call leaves the conversation untouched.
type Assembler struct {
	composer *bead.Composer
	expander FileExpander

	// HistoryLimit is the maximum turn count sent to a backend. The full
	// history is always retained; compaction affects only what is sent.
	HistoryLimit int
}

// NewAssembler creates an assembler. The expander may be nil, in which case
// @references pass through unexpanded.
func NewAssembler(composer *bead.Composer, expander FileExpander, historyLimit int) *Assembler {
	return &Assembler{
		composer:     composer,
		expander:     expander,
		HistoryLimit: historyLimit,
	}
}

// Assemble produces the ordered message sequence for the next backend call:
// composed system prompt (omitted when empty), compacted history, then the
// user input with @file references expanded. Per-step failures degrade to
// inline notes; the only fatal condition is an invalid compaction limit.
func (a *Assembler) Assemble(input string, conv *Conversation) ([]Message, error) {
	timer := logging.StartTimer(logging.CategoryChat, "Assembler.Assemble")
	defer timer.Stop()

	expanded := a.expandFileRefs(input)

	turns := conv.History.Snapshot()
	if len(turns) > a.HistoryLimit {
		compacted, err := history.Compact(turns, a.HistoryLimit, conv.CompactionStrategy)
		if err != nil {
			return nil, fmt.Errorf("history compaction failed: %w", err)
		}
		turns = compacted
	}

	result := a.composer.ComposeDetailed(conv.BeadIDs)
	for _, id := range result.Missing {
		expanded += fmt.Sprintf("\n\n[Note: personality bead %q is not available and was skipped]", id)
	}

	messages := make([]Message, 0, len(turns)+2)
	if result.Prompt != "" {
		messages = append(messages, Message{Role: history.RoleSystem, Text: result.Prompt})
	}
	for _, t := range turns {
		messages = append(messages, Message{Role: t.Role, Text: t.Text})
	}
	messages = append(messages, Message{Role: history.RoleUser, Text: expanded})

	logging.Get(logging.CategoryChat).Debug("Assembled %d messages (~%d tokens)",
		len(messages), history.EstimateTokens(result.Prompt)+history.EstimateTurnTokens(turns))
	return messages, nil
}

// expandFileRefs appends the content of each @path reference after the
// original input. A failed read becomes an inline note rather than an
// error: one bad reference should not block the conversation.
func (a *Assembler) expandFileRefs(input string) string {
	if a.expander == nil {
		return input
	}

	refs := fileRefPattern.FindAllStringSubmatch(input, -1)
	if len(refs) == 0 {
		return input
	}

	var sb strings.Builder
	sb.WriteString(input)

	seen := make(map[string]bool)
	for _, ref := range refs {
		path := ref[1]
		if seen[path] {
			continue
		}
		seen[path] = true

		content, err := a.expander.Read(path)
		if err != nil {
			logging.Get(logging.CategoryChat).Warn("Failed to expand @%s: %v", path, err)
			sb.WriteString(fmt.Sprintf("\n\n[Note: could not read %s: %v]", path, err))
			continue
		}

		sb.WriteString(fmt.Sprintf("\n\n--- %s ---\n%s", path, content))
	}

	return sb.String()
}
