// Package local provides the JSON file store, the default persistence
// backend. One document per file under a base directory.
package local

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/reflexlabs/reflex/internal/storage"
)

// Store provides thread-safe JSON file storage.
type Store struct {
	basePath string
	maxBytes int
	mu       sync.RWMutex
}

// Option configures a Store.
type Option func(*Store)

// WithMaxDocumentBytes caps the serialized size of any single document.
// Writes beyond the cap fail with storage.ErrQuotaExceeded, mirroring the
// quota behavior of browser local storage. Zero means unlimited.
func WithMaxDocumentBytes(n int) Option {
	return func(s *Store) { s.maxBytes = n }
}

// NewStore creates a local JSON store rooted at basePath.
func NewStore(basePath string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	s := &Store{basePath: basePath}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Save persists a document to a JSON file.
func (s *Store) Save(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	if s.maxBytes > 0 && buf.Len() > s.maxBytes {
		return fmt.Errorf("document %q is %d bytes: %w", key, buf.Len(), storage.ErrQuotaExceeded)
	}

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}

	return nil
}

// Load reads a document from its JSON file.
func (s *Store) Load(key string, v any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := os.Open(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	return nil
}

// Delete removes a document's JSON file.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil {
		if os.IsNotExist(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("remove file: %w", err)
	}

	return nil
}

// Exists checks if a document exists.
func (s *Store) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.path(key))
	return err == nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.basePath, key+".json")
}
