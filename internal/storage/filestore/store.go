// Package filestore provides the persistent-simple storage backend.
//
// Entries are kept in memory and mirrored to a single JSON file.
// Every mutation rewrites the file through a temp-file rename, so the
// on-disk state is always a complete, valid document. Suited to small
// data sets; the indexed backend handles anything larger.
//
// @req RQ-0301
// @design DS-0303
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/yndnr/strata-go/internal/core/domain"
	"github.com/yndnr/strata-go/internal/storage"
)

// BackendName is the name reported by this backend.
const BackendName = "file"

// DefaultMaxBytes caps the serialized size of the store. Writes that
// would exceed it fail with ErrQuotaExceeded, which triggers fallback.
const DefaultMaxBytes = 8 << 20 // 8MB

// Store is the persistent-simple backend.
type Store struct {
	path     string
	maxBytes int64
	clock    clock.Clock

	mu      sync.RWMutex
	entries map[string]*domain.Entry
	opened  bool
}

// Option configures the Store.
type Option func(*Store)

// WithMaxBytes overrides the serialized size cap.
func WithMaxBytes(n int64) Option {
	return func(s *Store) {
		s.maxBytes = n
	}
}

// WithClock injects a clock for tests.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// New creates a file store persisting to path. The store is not
// usable until Open loads the file.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:     path,
		maxBytes: DefaultMaxBytes,
		clock:    clock.New(),
		entries:  make(map[string]*domain.Entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Backend.
func (s *Store) Name() string { return BackendName }

// ProbeAvailable implements Backend: the parent directory must exist
// or be creatable, and the store file (if present) must be readable.
func (s *Store) ProbeAvailable() bool {
	dir := filepath.Dir(s.path)
	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return false
		}
	} else if !os.IsNotExist(err) {
		return false
	}

	if _, err := os.Stat(s.path); err != nil && !os.IsNotExist(err) {
		return false
	}
	return true
}

// Open loads the store file into memory, creating directories as
// needed.
func (s *Store) Open(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("filestore: create dir: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.opened = true
			return nil
		}
		return fmt.Errorf("filestore: read: %w", err)
	}

	var entries map[string]*domain.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("filestore: parse %s: %w", s.path, err)
	}

	s.entries = entries
	s.opened = true
	return nil
}

// Close flushes and releases the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return nil
	}
	s.opened = false
	return nil
}

// flushLocked rewrites the store file atomically. Callers hold mu.
func (s *Store) flushLocked() error {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("filestore: marshal: %w", err)
	}

	if int64(len(data)) > s.maxBytes {
		return domain.ErrQuotaExceeded.WithDetails(
			fmt.Sprintf("file store would grow to %d bytes (cap %d)", len(data), s.maxBytes))
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return domain.ErrBackendTransient.WithCause(err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return domain.ErrBackendTransient.WithCause(err)
	}
	return nil
}

// Write creates or renews the entry for key.
func (s *Store) Write(_ context.Context, key string, payload []byte, opts storage.WriteOptions) (*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, hadPrev := s.entries[key]
	entry := storage.Upsert(prev, key, payload, opts, s.clock.Now())
	s.entries[key] = entry

	if err := s.flushLocked(); err != nil {
		// Roll back the in-memory state so a fallback retry sees the
		// same picture as the disk.
		if hadPrev {
			s.entries[key] = prev
		} else {
			delete(s.entries, key)
		}
		return nil, err
	}
	return entry.Clone(), nil
}

// Read returns the live entry for key, lazily evicting expired ones.
func (s *Store) Read(_ context.Context, key string) (*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	if entry.IsExpired(s.clock.Now()) {
		delete(s.entries, key)
		// Eviction flush is best-effort; the entry is already
		// logically absent either way.
		_ = s.flushLocked()
		return nil, domain.ErrEntryNotFound
	}
	return entry.Clone(), nil
}

// Remove deletes the entry for key.
func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.entries[key]
	if !ok {
		return nil
	}
	delete(s.entries, key)
	if err := s.flushLocked(); err != nil {
		// Roll back the in-memory state so a fallback retry sees the
		// same picture as the disk.
		s.entries[key] = prev
		return err
	}
	return nil
}

// ClearAll removes every entry.
func (s *Store) ClearAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*domain.Entry)
	return s.flushLocked()
}

// ListKeys returns the keys of all live entries.
func (s *Store) ListKeys(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()
	keys := make([]string, 0, len(s.entries))
	for k, e := range s.entries {
		if !e.IsExpired(now) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Count returns the number of live entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	keys, err := s.ListKeys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// ExportAll returns a copy of every live entry.
func (s *Store) ExportAll(context.Context) (map[string]*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()
	out := make(map[string]*domain.Entry, len(s.entries))
	for k, e := range s.entries {
		if !e.IsExpired(now) {
			out[k] = e.Clone()
		}
	}
	return out, nil
}

// BulkImport stores entries verbatim, preserving their metadata.
func (s *Store) BulkImport(_ context.Context, entries map[string]*domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range entries {
		s.entries[k] = e.Clone()
	}
	return s.flushLocked()
}
