// Package memstore provides the volatile storage backend.
//
// Entries live in a sharded in-memory map with per-shard locking to
// reduce contention. The backend is defined to always be available and
// sits at the bottom of the fallback priority order.
//
// @req RQ-0301
// @design DS-0302
package memstore

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/spaolacci/murmur3"

	"github.com/yndnr/strata-go/internal/core/domain"
	"github.com/yndnr/strata-go/internal/storage"
)

// BackendName is the name reported by this backend.
const BackendName = "memory"

// DefaultShardCount is the number of shards (power of two).
const DefaultShardCount = 16

// Store is the volatile backend.
type Store struct {
	shards    []*shard
	shardMask uint32
	clock     clock.Clock
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*domain.Entry
}

// Option configures the Store.
type Option func(*Store)

// WithClock injects a clock, used by tests to control TTL expiry.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// New creates a volatile store with the default shard count.
func New(opts ...Option) *Store {
	s := &Store{
		shards:    make([]*shard, DefaultShardCount),
		shardMask: DefaultShardCount - 1,
		clock:     clock.New(),
	}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*domain.Entry)}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Backend.
func (s *Store) Name() string { return BackendName }

// ProbeAvailable implements Backend. The volatile backend is always
// available.
func (s *Store) ProbeAvailable() bool { return true }

// Open implements Backend. Nothing to prepare.
func (s *Store) Open(context.Context) error { return nil }

// Close implements Backend.
func (s *Store) Close() error { return nil }

func (s *Store) shardFor(key string) *shard {
	h := murmur3.Sum32([]byte(key))
	return s.shards[h&s.shardMask]
}

// Write creates or renews the entry for key.
func (s *Store) Write(_ context.Context, key string, payload []byte, opts storage.WriteOptions) (*domain.Entry, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry := storage.Upsert(sh.entries[key], key, payload, opts, s.clock.Now())
	sh.entries[key] = entry
	return entry.Clone(), nil
}

// Read returns the live entry for key, lazily evicting expired entries.
func (s *Store) Read(_ context.Context, key string) (*domain.Entry, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	entry, ok := sh.entries[key]
	sh.mu.RUnlock()

	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	if entry.IsExpired(s.clock.Now()) {
		sh.mu.Lock()
		// Re-check under the write lock before evicting.
		if cur, ok := sh.entries[key]; ok && cur.IsExpired(s.clock.Now()) {
			delete(sh.entries, key)
		}
		sh.mu.Unlock()
		return nil, domain.ErrEntryNotFound
	}

	return entry.Clone(), nil
}

// Remove deletes the entry for key.
func (s *Store) Remove(_ context.Context, key string) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	delete(sh.entries, key)
	sh.mu.Unlock()
	return nil
}

// ClearAll removes every entry.
func (s *Store) ClearAll(context.Context) error {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.entries = make(map[string]*domain.Entry)
		sh.mu.Unlock()
	}
	return nil
}

// ListKeys returns the keys of all live entries.
func (s *Store) ListKeys(context.Context) ([]string, error) {
	now := s.clock.Now()
	var keys []string
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, e := range sh.entries {
			if !e.IsExpired(now) {
				keys = append(keys, k)
			}
		}
		sh.mu.RUnlock()
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
	now := s.clock.Now()
	out := make(map[string]*domain.Entry)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, e := range sh.entries {
			if !e.IsExpired(now) {
				out[k] = e.Clone()
			}
		}
		sh.mu.RUnlock()
	}
	return out, nil
}

// BulkImport stores entries verbatim, preserving their metadata.
func (s *Store) BulkImport(_ context.Context, entries map[string]*domain.Entry) error {
	for k, e := range entries {
		sh := s.shardFor(k)
		sh.mu.Lock()
		sh.entries[k] = e.Clone()
		sh.mu.Unlock()
	}
	return nil
}
