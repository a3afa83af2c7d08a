package history

import (
	"time"

	"beadchat/internal/logging"
)

// Store is the append-only ordered sequence of turns for one conversation.
// The full history is retained even when the prompt sent to a backend is
// compacted; export and logging always see every turn.
type Store struct {
	turns   []Turn
	nextSeq int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{nextSeq: 1}
}

// Restore creates a store seeded with previously persisted turns. The next
// sequence number continues after the highest restored one.
func Restore(turns []Turn) *Store {
	s := NewStore()
	s.turns = make([]Turn, len(turns))
	copy(s.turns, turns)
	for _, t := range turns {
		if t.Seq >= s.nextSeq {
			s.nextSeq = t.Seq + 1
		}
	}
	return s
}

// Append adds a turn, assigning its sequence number and timestamp if unset.
func (s *Store) Append(role Role, text string) Turn {
	t := Turn{
		Role:      role,
		Text:      text,
		Seq:       s.nextSeq,
		Timestamp: time.Now(),
	}
	s.nextSeq++
	s.turns = append(s.turns, t)

	logging.Get(logging.CategoryHistory).Debug("Appended turn %d (%s, %d chars)", t.Seq, t.Role, len(t.Text))
	return t
}

// Snapshot returns a defensive copy of all turns in order.
func (s *Store) Snapshot() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Size returns the turn count.
func (s *Store) Size() int {
	return len(s.turns)
}

// Clear removes all turns and resets sequence numbering.
func (s *Store) Clear() {
	s.turns = nil
	s.nextSeq = 1
	logging.Get(logging.CategoryHistory).Info("History cleared")
}
