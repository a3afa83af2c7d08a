// Package history implements the append-only conversation turn store and
// the compaction strategies that reduce a turn sequence to fit a size limit
// before it is sent to a backend.
package history

import "time"

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one message in a conversation. Turns are never mutated; compaction
// only narrows which turns are sent, not what is kept.
type Turn struct {
	// Role of the author.
	Role Role `json:"role"`

	// Text content; may include expanded @file content and be large.
	Text string `json:"text"`

	// Seq is monotonic within a conversation, used for ordering and
	// compaction tie-breaks.
	Seq int `json:"seq"`

	Timestamp time.Time `json:"timestamp"`
}
