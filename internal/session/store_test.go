package session

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beadchat/internal/chat"
	"beadchat/internal/history"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := openTestStore(t)

	conv := chat.NewConversation("ollama", "llama3.2")
	conv.SetBeads([]string{"helpful", "concise"})
	conv.History.Append(history.RoleUser, "hello")
	conv.History.Append(history.RoleAssistant, "hi")

	require.NoError(t, store.Save("session_123", conv))

	loaded, found, err := store.Load("session_123")
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, conv.ID, loaded.ID)
	assert.Equal(t, "ollama", loaded.Provider)
	assert.Equal(t, []string{"helpful", "concise"}, loaded.BeadIDs)
	assert.Equal(t, 2, loaded.History.Size())

	// History continues numbering past the restored turns.
	turn := loaded.History.Append(history.RoleUser, "again")
	assert.Equal(t, 3, turn.Seq)
}

func TestLoadMissingSession(t *testing.T) {
	store := openTestStore(t)

	_, found, err := store.Load("session_999")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSaveOverwritesExisting(t *testing.T) {
	store := openTestStore(t)

	conv := chat.NewConversation("ollama", "llama3.2")
	conv.History.Append(history.RoleUser, "first")
	require.NoError(t, store.Save("session_123", conv))

	conv.History.Append(history.RoleAssistant, "second")
	require.NoError(t, store.Save("session_123", conv))

	loaded, found, err := store.Load("session_123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, loaded.History.Size())

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].Turns)
}

func TestListAndDelete(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 3; i++ {
		conv := chat.NewConversation("ollama", "llama3.2")
		require.NoError(t, store.Save(fmt.Sprintf("session_%d", 100+i), conv))
	}

	records, err := store.List()
	require.NoError(t, err)
	assert.Len(t, records, 3)

	require.NoError(t, store.Delete("session_101"))
	records, err = store.List()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestPruneDeadRemovesOnlyDeadSessions(t *testing.T) {
	store := openTestStore(t)

	alive := fmt.Sprintf("session_%d", os.Getpid())
	require.NoError(t, store.Save(alive, chat.NewConversation("ollama", "llama3.2")))

	// PID 1 always exists; an absurdly large pid never does.
	require.NoError(t, store.Save("session_99999999", chat.NewConversation("ollama", "llama3.2")))
	require.NoError(t, store.Save("not-a-session-id", chat.NewConversation("ollama", "llama3.2")))

	pruned, err := store.PruneDead()
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	records, err := store.List()
	require.NoError(t, err)
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{alive, "not-a-session-id"}, ids)
}

func TestTerminalSessionID(t *testing.T) {
	id := TerminalSessionID()
	assert.Regexp(t, `^session_\d+$`, id)

	pid, ok := sessionPID(id)
	require.True(t, ok)
	assert.True(t, processAlive(pid))
}
