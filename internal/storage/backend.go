package storage

import (
	"context"
	"time"

	"github.com/yndnr/strata-go/internal/core/domain"
)

// WriteOptions carries per-write settings through the backend contract.
type WriteOptions struct {
	// TTLSeconds is the relative time-to-live; zero means no expiry.
	// Converted to an absolute timestamp at write time.
	TTLSeconds int

	// Version tags the entry's model version. Zero preserves the
	// existing version (1 on first write).
	Version int
}

// Backend is the uniform storage contract.
//
// Entries are owned by the backend: Write creates the entry on first
// use of a key and renews it afterwards, keeping CreatedAt immutable.
// Expired entries are logically absent from Read, ListKeys, Count and
// ExportAll; eviction is lazy.
type Backend interface {
	// Name identifies the backend ("badger", "file", "memory").
	Name() string

	// ProbeAvailable reports whether the backend can be opened. It is
	// a pure predicate with no side effects.
	ProbeAvailable() bool

	// Open prepares the backend for use. Called once by the selector
	// on the chosen candidate.
	Open(ctx context.Context) error

	// Write creates or renews the entry for key with the given encoded
	// payload. Returns the committed entry.
	Write(ctx context.Context, key string, payload []byte, opts WriteOptions) (*domain.Entry, error)

	// Read returns the live entry for key, or ErrEntryNotFound when the
	// key is absent or expired.
	Read(ctx context.Context, key string) (*domain.Entry, error)

	// Remove deletes the entry for key. Removing an absent key is not
	// an error.
	Remove(ctx context.Context, key string) error

	// ClearAll removes every entry.
	ClearAll(ctx context.Context) error

	// ListKeys returns the keys of all live entries.
	ListKeys(ctx context.Context) ([]string, error)

	// Count returns the number of live entries.
	Count(ctx context.Context) (int, error)

	// ExportAll returns a copy of every live entry keyed by entry key.
	ExportAll(ctx context.Context) (map[string]*domain.Entry, error)

	// BulkImport stores the given entries verbatim, preserving their
	// metadata. Existing entries under the same keys are replaced.
	BulkImport(ctx context.Context, entries map[string]*domain.Entry) error

	// Close releases backend resources.
	Close() error
}

// Upsert implements the shared create-or-renew semantics of Write.
//
// existing may be nil or expired, in which case a fresh entry is
// created; otherwise the entry is renewed with CreatedAt preserved.
// The returned entry is always a copy the caller may store directly.
func Upsert(existing *domain.Entry, key string, payload []byte, opts WriteOptions, now time.Time) *domain.Entry {
	var entry *domain.Entry
	if existing != nil && !existing.IsExpired(now) {
		entry = existing.Clone()
		entry.Renew(payload, opts.TTLSeconds, now)
	} else {
		entry = domain.NewEntry(key, payload, opts.TTLSeconds, now)
	}
	if opts.Version != 0 {
		entry.Version = opts.Version
	}
	return entry
}
