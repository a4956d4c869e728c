// Package storage defines the persistence boundary for the analytics
// engine. Documents are loaded and saved whole: there is exactly one
// writer, and every mutation rewrites the full structure.
package storage

import "errors"

var (
	// ErrNotFound is returned when no document exists under a key.
	ErrNotFound = errors.New("document not found")

	// ErrQuotaExceeded is returned when the backend refuses a write for
	// size reasons. The caller is expected to prune and retry once.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Store persists JSON-serializable documents by key.
type Store interface {
	// Save serializes v and writes it under key, replacing any previous
	// document.
	Save(key string, v any) error

	// Load reads the document under key into v. Returns ErrNotFound when
	// the key has never been written.
	Load(key string, v any) error

	// Delete removes the document under key. Deleting a missing key
	// returns ErrNotFound.
	Delete(key string) error

	// Exists reports whether a document exists under key.
	Exists(key string) bool
}
