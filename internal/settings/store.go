package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/reflexlabs/reflex/internal/domain"
	"github.com/reflexlabs/reflex/internal/storage"
)

const storageKey = "settings"

// exportSource tags exported settings documents so imports can be
// validated.
const exportSource = "reflex-settings"

// Envelope is the persisted settings document.
type Envelope struct {
	Version     string   `json:"version"`
	Settings    Settings `json:"settings"`
	LastUpdated int64    `json:"last_updated"` // unix milliseconds
}

// exportDocument is the externally portable settings format.
type exportDocument struct {
	Version    string    `json:"version"`
	Source     string    `json:"source"`
	ExportedAt time.Time `json:"exported_at"`
	Settings   *Settings `json:"settings"`
}

// Store owns the settings document: it loads and migrates the persisted
// envelope, validates every change, and notifies subscribers. Construct
// one at application start and inject it into consumers.
type Store struct {
	store  storage.Store
	logger *slog.Logger

	mu          sync.RWMutex
	current     Settings
	subscribers map[int]func(Settings)
	nextSubID   int
}

// NewStore loads settings from storage, falling back to defaults when the
// document is missing or malformed. A version mismatch re-validates every
// field rather than failing.
func NewStore(store storage.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		store:       store,
		logger:      logger,
		subscribers: make(map[int]func(Settings)),
	}

	var env Envelope
	err := store.Load(storageKey, &env)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.current = Defaults()
		if saveErr := s.persist(); saveErr != nil {
			logger.Warn("persist default settings", "error", saveErr)
		}
	case err != nil:
		logger.Warn("load settings, using defaults", "error", err)
		s.current = Defaults()
	default:
		if env.Version != SchemaVersion {
			logger.Info("migrating settings document",
				"from", env.Version, "to", SchemaVersion)
		}
		// Never trust the raw persisted shape.
		s.current = Normalize(env.Settings)
	}

	return s
}

// Get returns the current settings document.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update replaces the whole document. The replacement is normalized
// before it is persisted and broadcast.
func (s *Store) Update(next Settings) error {
	s.mu.Lock()
	s.current = Normalize(next)
	err := s.persist()
	current := s.current
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("persist settings", "error", err)
	}
	s.notify(current)
	return nil
}

// UpdatePartial merges a partial JSON document over the current settings.
// Only the fields present in the patch change; every leaf then passes
// through the same normalization used at load time.
func (s *Store) UpdatePartial(patch []byte) error {
	s.mu.Lock()
	merged := s.current
	if err := json.Unmarshal(patch, &merged); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("merge settings patch: %w", err)
	}
	s.current = Normalize(merged)
	err := s.persist()
	current := s.current
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("persist settings", "error", err)
	}
	s.notify(current)
	return nil
}

// Reset restores the default document.
func (s *Store) Reset() error {
	return s.Update(Defaults())
}

// ApplyPreset replaces the document with a named preset.
func (s *Store) ApplyPreset(name string) error {
	preset, err := presetFor(name)
	if err != nil {
		return err
	}
	return s.Update(preset)
}

// Subscribe registers a change listener and returns its unsubscribe
// function. Listeners are invoked with the new document on every change.
func (s *Store) Subscribe(fn func(Settings)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(current Settings) {
	s.mu.RLock()
	fns := make([]func(Settings), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(current)
	}
}

// persist writes the envelope; callers hold the write lock.
func (s *Store) persist() error {
	env := Envelope{
		Version:     SchemaVersion,
		Settings:    s.current,
		LastUpdated: time.Now().UnixMilli(),
	}
	return s.store.Save(storageKey, env)
}

// Export produces the portable pretty-printed settings document.
func (s *Store) Export() ([]byte, error) {
	current := s.Get()
	doc := exportDocument{
		Version:    SchemaVersion,
		Source:     exportSource,
		ExportedAt: time.Now().UTC(),
		Settings:   &current,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal settings export: %w", err)
	}
	return data, nil
}

// Import replaces the document from an exported file. This is the one
// settings path allowed to surface an error: import is a deliberate user
// action and a malformed file should be reported, not papered over.
func (s *Store) Import(data []byte) error {
	var doc exportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidImport, err)
	}
	if doc.Version == "" || doc.Source != exportSource || doc.Settings == nil {
		return fmt.Errorf("%w: missing version, source, or settings payload", domain.ErrInvalidImport)
	}
	return s.Update(*doc.Settings)
}
