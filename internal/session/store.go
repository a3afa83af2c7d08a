package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"beadchat/internal/chat"
	"beadchat/internal/logging"
)

// Record describes a stored session without its full conversation payload.
type Record struct {
	ID        string
	Provider  string
	Model     string
	Turns     int
	UpdatedAt time.Time
}

// Store persists one conversation per terminal session in SQLite.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
	log  *logging.Logger
}

// Open initializes the session database at the given path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	log := logging.Get(logging.CategorySession)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			log.Debug("pragma failed: %s: %v", pragma, err)
		}
	}

	s := &Store{db: db, path: path, log: log}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id           TEXT PRIMARY KEY,
			provider     TEXT NOT NULL DEFAULT '',
			model        TEXT NOT NULL DEFAULT '',
			turns        INTEGER NOT NULL DEFAULT 0,
			conversation TEXT NOT NULL,
			created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("initializing session schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Save upserts the conversation for a session id. The conversation is
// synced first so the persisted turns match the in-memory history.
func (s *Store) Save(id string, conv *chat.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv.Sync()
	payload, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encoding conversation: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO sessions (id, provider, model, turns, conversation, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET
			provider = excluded.provider,
			model = excluded.model,
			turns = excluded.turns,
			conversation = excluded.conversation,
			updated_at = CURRENT_TIMESTAMP`,
		id, conv.Provider, conv.Model, len(conv.Turns), string(payload),
	)
	if err != nil {
		s.log.Error("saving session %s failed: %v", id, err)
		return fmt.Errorf("saving session: %w", err)
	}
	s.log.Debug("saved session %s with %d turns", id, len(conv.Turns))
	return nil
}

// Load retrieves the conversation for a session id. The second return is
// false when no session exists.
func (s *Store) Load(id string) (*chat.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload string
	err := s.db.QueryRow(`SELECT conversation FROM sessions WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading session: %w", err)
	}

	var conv chat.Conversation
	if err := json.Unmarshal([]byte(payload), &conv); err != nil {
		return nil, false, fmt.Errorf("decoding conversation: %w", err)
	}
	conv.RestoreHistory()
	return &conv, true, nil
}

// Delete removes a session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// List returns summaries of all stored sessions, newest first.
func (s *Store) List() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, provider, model, turns, updated_at FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Provider, &r.Model, &r.Turns, &r.UpdatedAt); err != nil {
			s.log.Warn("skipping unreadable session row: %v", err)
			continue
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// PruneDead deletes sessions whose terminal process no longer exists and
// returns how many were removed. Sessions with unparseable ids are kept.
func (s *Store) PruneDead() (int, error) {
	records, err := s.List()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, r := range records {
		pid, ok := sessionPID(r.ID)
		if !ok || processAlive(pid) {
			continue
		}
		if err := s.Delete(r.ID); err != nil {
			s.log.Warn("pruning session %s failed: %v", r.ID, err)
			continue
		}
		pruned++
	}
	if pruned > 0 {
		s.log.Info("pruned %d dead sessions", pruned)
	}
	return pruned, nil
}
