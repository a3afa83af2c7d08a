// Package chat implements conversation state and the context assembler: the
// logic that decides, on every turn, what goes into the prompt sent to a
// backend — composed bead prompt first, then compacted history, then the
// expanded user input.
package chat

import (
	"time"

	"github.com/google/uuid"

	"beadchat/internal/history"
)

// Conversation owns the active history store, the bound provider/model, and
// the ordered bead selection. It is mutated only from the single
// turn-processing path.
type Conversation struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Model    string `json:"model"`

	// BeadIDs is the ordered bead selection; order matters for
	// same-priority beads.
	BeadIDs []string `json:"bead_ids"`

	// CompactionStrategy selects which turns survive when history exceeds
	// the limit.
	CompactionStrategy history.Strategy `json:"compaction_strategy"`

	CreatedAt time.Time `json:"created_at"`

	History *history.Store `json:"-"`

	// Turns mirrors History for serialization; callers use Sync before
	// persisting and Restore rebuilds History from it.
	Turns []history.Turn `json:"turns"`
}

// NewConversation creates a fresh conversation bound to a provider/model.
func NewConversation(provider, model string) *Conversation {
	return &Conversation{
		ID:                 uuid.NewString(),
		Provider:           provider,
		Model:              model,
		CompactionStrategy: history.StrategyRecent,
		CreatedAt:          time.Now(),
		History:            history.NewStore(),
	}
}

// Sync copies the history store into the serializable Turns field.
func (c *Conversation) Sync() {
	c.Turns = c.History.Snapshot()
}

// RestoreHistory rebuilds the history store from serialized turns. Called
// after deserialization.
func (c *Conversation) RestoreHistory() {
	c.History = history.Restore(c.Turns)
	if c.CompactionStrategy == "" {
		c.CompactionStrategy = history.StrategyRecent
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
}

// SetBeads replaces the active bead selection.
func (c *Conversation) SetBeads(ids []string) {
	c.BeadIDs = make([]string, len(ids))
	copy(c.BeadIDs, ids)
}
