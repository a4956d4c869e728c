// Package sqlite provides the SQLite-backed document store, selectable
// via config for installations that prefer a single database file over
// loose JSON documents. The persisted unit stays the whole document; the
// write model is identical to the local backend.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/reflexlabs/reflex/internal/storage"
)

const schema = `CREATE TABLE IF NOT EXISTS documents (
	key        TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
)`

// Store persists documents in a single SQLite database file.
type Store struct {
	db *sql.DB
}

// Open creates the document store with WAL mode and a single-writer
// connection pool.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Single writer by construction.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Save serializes v and upserts it under key.
func (s *Store) Save(key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO documents (key, body, updated_at) VALUES (?, ?, datetime('now'))
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		key, string(body),
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

// Load reads the document under key into v.
func (s *Store) Load(key string, v any) error {
	var body string
	err := s.db.QueryRow("SELECT body FROM documents WHERE key = ?", key).Scan(&body)
	if err == sql.ErrNoRows {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("select document: %w", err)
	}

	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// Delete removes the document under key.
func (s *Store) Delete(key string) error {
	result, err := s.db.Exec("DELETE FROM documents WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Exists reports whether a document exists under key.
func (s *Store) Exists(key string) bool {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM documents WHERE key = ?", key).Scan(&one)
	return err == nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
