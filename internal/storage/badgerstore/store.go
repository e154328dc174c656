// Package badgerstore provides the persistent-indexed storage backend
// on top of Badger v3.
//
// Entries are stored as JSON records under their key, carrying the
// full persisted layout (createdAt, updatedAt, version, ttl). Expiry
// is enforced lazily on read so semantics match the other backends
// exactly; Badger's native TTL is deliberately not used because it
// would drop the record metadata with the value.
//
// @req RQ-0301, RQ-0302
// @design DS-0304
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/benbjohnson/clock"
	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/strata-go/internal/core/domain"
	"github.com/yndnr/strata-go/internal/storage"
)

// BackendName is the name reported by this backend.
const BackendName = "badger"

// Store is the persistent-indexed backend.
type Store struct {
	dir    string
	db     *badger.DB
	clock  clock.Clock
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithClock injects a clock for tests.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New creates a badger store rooted at dir. The store is not usable
// until Open.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:    dir,
		clock:  clock.New(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Backend.
func (s *Store) Name() string { return BackendName }

// ProbeAvailable implements Backend: the data directory, or its
// nearest existing ancestor, must be a directory we could write into.
func (s *Store) ProbeAvailable() bool {
	dir := s.dir
	for {
		info, err := os.Stat(dir)
		if err == nil {
			return info.IsDir()
		}
		if !os.IsNotExist(err) {
			return false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
}

// Open opens the Badger database.
func (s *Store) Open(context.Context) error {
	if s.db != nil {
		return nil
	}

	opts := badger.DefaultOptions(s.dir)
	opts.Logger = &badgerLogger{logger: s.logger}

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("badgerstore: open db: %w", err)
	}
	s.db = db

	s.logger.Info("badger store opened", "dir", s.dir)
	return nil
}

// Close shuts down the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// classify maps Badger failures onto the recoverable error taxonomy
// so the selector knows what is worth a fallback retry.
func classify(err error) error {
	switch {
	case errors.Is(err, badger.ErrTxnTooBig):
		return domain.ErrQuotaExceeded.WithCause(err)
	case errors.Is(err, badger.ErrConflict):
		return domain.ErrBackendTransient.WithCause(err)
	default:
		return err
	}
}

func (s *Store) getEntry(txn *badger.Txn, key string) (*domain.Entry, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}

	var entry domain.Entry
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &entry)
	})
	if err != nil {
		return nil, fmt.Errorf("badgerstore: decode record %q: %w", key, err)
	}
	return &entry, nil
}

func putEntry(txn *badger.Txn, entry *domain.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("badgerstore: encode record %q: %w", entry.Key, err)
	}
	return txn.Set([]byte(entry.Key), data)
}

// Write creates or renews the entry for key.
func (s *Store) Write(_ context.Context, key string, payload []byte, opts storage.WriteOptions) (*domain.Entry, error) {
	var entry *domain.Entry

	err := s.db.Update(func(txn *badger.Txn) error {
		existing, err := s.getEntry(txn, key)
		if err != nil && !errors.Is(err, domain.ErrEntryNotFound) {
			return err
		}
		entry = storage.Upsert(existing, key, payload, opts, s.clock.Now())
		return putEntry(txn, entry)
	})
	if err != nil {
		return nil, classify(err)
	}
	return entry, nil
}

// Read returns the live entry for key, lazily evicting expired ones.
func (s *Store) Read(_ context.Context, key string) (*domain.Entry, error) {
	var entry *domain.Entry

	err := s.db.View(func(txn *badger.Txn) error {
		e, err := s.getEntry(txn, key)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	if entry.IsExpired(s.clock.Now()) {
		// Lazy eviction; failure is harmless, the entry stays
		// logically absent.
		_ = s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete([]byte(key))
		})
		return nil, domain.ErrEntryNotFound
	}
	return entry, nil
}

// Remove deletes the entry for key.
func (s *Store) Remove(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// ClearAll removes every entry.
func (s *Store) ClearAll(context.Context) error {
	return s.db.DropAll()
}

// ListKeys returns the keys of all live entries.
func (s *Store) ListKeys(ctx context.Context) ([]string, error) {
	var keys []string
	now := s.clock.Now()

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var entry domain.Entry
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return err
			}
			if !entry.IsExpired(now) {
				keys = append(keys, string(item.KeyCopy(nil)))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
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
	out := make(map[string]*domain.Entry)
	now := s.clock.Now()

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var entry domain.Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return err
			}
			if !entry.IsExpired(now) {
				out[entry.Key] = &entry
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BulkImport stores entries verbatim, preserving their metadata.
func (s *Store) BulkImport(_ context.Context, entries map[string]*domain.Entry) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("badgerstore: encode record %q: %w", e.Key, err)
		}
		if err := wb.Set([]byte(e.Key), data); err != nil {
			return classify(err)
		}
	}
	if err := wb.Flush(); err != nil {
		return classify(err)
	}
	return nil
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
