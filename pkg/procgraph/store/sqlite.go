package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists process definitions to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite process store.
// The path should be a file path (e.g., "./processes.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS saved_processes (
			id TEXT NOT NULL PRIMARY KEY,
			definition BLOB NOT NULL,
			updated TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(id string, definition []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO saved_processes (id, definition, updated)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			definition = excluded.definition,
			updated = excluded.updated
	`, id, definition, time.Now().UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("save process definition: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var definition []byte
	err := s.db.QueryRow(`
		SELECT definition FROM saved_processes WHERE id = ?
	`, id).Scan(&definition)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load process definition: %w", err)
	}
	return definition, nil
}

// List implements Store.
func (s *SQLiteStore) List() ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT id, updated, LENGTH(definition)
		FROM saved_processes
		ORDER BY updated DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list process definitions: %w", err)
	}
	defer rows.Close()

	infos := []Info{}
	for rows.Next() {
		var info Info
		var updated string
		if err := rows.Scan(&info.ID, &updated, &info.Size); err != nil {
			return nil, fmt.Errorf("scan process info: %w", err)
		}
		info.Updated, _ = time.Parse(time.RFC3339Nano, updated)
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate process definitions: %w", err)
	}

	return infos, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`DELETE FROM saved_processes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete process definition: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
