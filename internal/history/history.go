// Package history keeps an audit log of requests and the commands they produced.
// Entries are never fed back into prompts.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iishyfishyy/cmdpal/internal/interpreter"
	_ "modernc.org/sqlite"
)

// Entry represents a single turn
type Entry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
	Request   string    `json:"request"`
	Commands  []string  `json:"commands"`
	Executed  bool      `json:"executed"`
	Error     string    `json:"error,omitempty"`
}

// NewEntry creates an entry for a request and the response it produced
func NewEntry(request string, resp *interpreter.ParsedResponse, executed bool) Entry {
	entry := Entry{
		Timestamp: time.Now(),
		Request:   request,
		Commands:  []string{},
		Executed:  executed,
	}
	if resp != nil {
		entry.Commands = append(entry.Commands, resp.Commands...)
		entry.Error = resp.ErrorText()
	}
	return entry
}

// Store persists entries in SQLite
type Store struct {
	db        *sql.DB
	sessionID string
	mu        sync.Mutex
}

// Open opens or creates the history database at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{
		db:        db,
		sessionID: uuid.NewString(),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		request TEXT NOT NULL,
		commands_json TEXT NOT NULL,
		executed INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_created_at ON entries(created_at);
	CREATE INDEX IF NOT EXISTS idx_session ON entries(session_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SessionID identifies the process that opened the store
func (s *Store) SessionID() string {
	return s.sessionID
}

// Record appends an entry, filling in ID, SessionID and Timestamp when empty
func (s *Store) Record(ctx context.Context, entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.SessionID == "" {
		entry.SessionID = s.sessionID
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.Commands == nil {
		entry.Commands = []string{}
	}

	commandsJSON, err := json.Marshal(entry.Commands)
	if err != nil {
		return entry, fmt.Errorf("failed to encode commands: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entries (id, session_id, created_at, request, commands_json, executed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.SessionID, entry.Timestamp.UnixNano(), entry.Request, string(commandsJSON), entry.Executed, entry.Error)
	if err != nil {
		return entry, fmt.Errorf("failed to record history entry: %w", err)
	}

	return entry, nil
}

// Recent returns up to limit entries, newest first. A limit of 0 or less returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, session_id, created_at, request, commands_json, executed, error
		FROM entries ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			entry        Entry
			createdAt    int64
			commandsJSON string
		)
		if err := rows.Scan(&entry.ID, &entry.SessionID, &createdAt, &entry.Request, &commandsJSON, &entry.Executed, &entry.Error); err != nil {
			return nil, fmt.Errorf("failed to read history entry: %w", err)
		}
		entry.Timestamp = time.Unix(0, createdAt)
		if err := json.Unmarshal([]byte(commandsJSON), &entry.Commands); err != nil {
			return nil, fmt.Errorf("failed to decode commands of entry %s: %w", entry.ID, err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Clear removes every entry
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
