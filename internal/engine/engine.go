package engine

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/strata-go/internal/cache"
	"github.com/yndnr/strata-go/internal/codec"
	"github.com/yndnr/strata-go/internal/core/domain"
	"github.com/yndnr/strata-go/internal/migrate"
	"github.com/yndnr/strata-go/internal/peersync"
	"github.com/yndnr/strata-go/internal/query"
	"github.com/yndnr/strata-go/internal/snapshot"
	"github.com/yndnr/strata-go/internal/storage"
)

// namespaceSep joins the namespace prefix with the logical key in
// backend key space. The logical key may itself contain ':'.
const namespaceSep = "::"

// Options configures an Engine.
type Options struct {
	// Backends are the storage candidates in priority order. At least
	// one is required; the selector probes and opens the first
	// available one.
	Backends []storage.Backend

	// Codec selects the value pipeline strategies.
	Codec codec.Options

	// Namespace isolates this engine's keys from other engines sharing
	// a backend. Empty means the root namespace.
	Namespace string

	// CacheTTL bounds read-cache staleness. Zero uses cache.DefaultTTL;
	// negative disables the cache.
	CacheTTL time.Duration

	// SafeMode selects validation of values before writes.
	SafeMode SafeModeLevel

	// Validator overrides the default safe-mode validator.
	Validator Validator

	// Hooks are the lifecycle interception points.
	Hooks Hooks

	// Transport connects the engine to its peers. Nil disables sync.
	Transport peersync.Transport

	// Conflict decides whether an inbound peer write replaces local
	// state. Nil applies last-write-wins by message timestamp.
	Conflict ConflictResolver

	// RetryAttempts retries a whole operation after the selector has
	// exhausted its candidates with a recoverable error. Zero means no
	// extra attempts.
	RetryAttempts int

	Logger *slog.Logger
	Clock  clock.Clock
}

// Engine is the storage facade. All public operations serialize on one
// mutex: concurrent calls are safe and commit in some total order, the
// last commit for a key winning.
type Engine struct {
	mu     sync.Mutex
	closed bool

	originID  string
	namespace string

	selector   *storage.Selector
	pipeline   *codec.Pipeline
	cache      *cache.Cache
	snapshots  *snapshot.Manager
	migrations *migrate.Registry

	hooks     Hooks
	safeMode  SafeModeLevel
	validator Validator

	events  *dispatcher
	audit   *auditLog
	metrics *metrics

	transport   peersync.Transport
	unsubscribe func()
	// outbox holds messages queued under mu, sent by flushOutbox
	// after the lock is released.
	outbox []domain.SyncMessage
	conflict    ConflictResolver

	retryAttempts int

	logger *slog.Logger
	clock  clock.Clock
}

// New builds an engine, probes the backends and subscribes to the peer
// transport. The caller owns the engine and must Close it.
func New(ctx context.Context, opts Options) (*Engine, error) {
	if len(opts.Backends) == 0 {
		return nil, domain.ErrBackendUnavailable.WithDetails("no backend candidates configured")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	pipeline, err := codec.New(opts.Codec)
	if err != nil {
		return nil, err
	}

	selector, err := storage.NewSelector(ctx, logger, opts.Backends...)
	if err != nil {
		return nil, err
	}

	var readCache *cache.Cache
	if opts.CacheTTL >= 0 {
		ttl := opts.CacheTTL
		if ttl == 0 {
			ttl = cache.DefaultTTL
		}
		readCache = cache.New(cache.WithTTL(ttl), cache.WithClock(clk))
	}

	validator := opts.Validator
	if validator == nil {
		validator = defaultValidator
	}

	e := &Engine{
		originID:      ulid.Make().String(),
		namespace:     opts.Namespace,
		selector:      selector,
		pipeline:      pipeline,
		cache:         readCache,
		snapshots:     snapshot.NewManager(snapshot.WithClock(clk)),
		migrations:    migrate.NewRegistry(),
		hooks:         opts.Hooks,
		safeMode:      opts.SafeMode,
		validator:     validator,
		events:        newDispatcher(),
		audit:         newAuditLog(clk),
		metrics:       newMetrics(clk),
		transport:     opts.Transport,
		conflict:      opts.Conflict,
		retryAttempts: opts.RetryAttempts,
		logger:        logger.With("component", "engine"),
		clock:         clk,
	}

	if e.transport != nil {
		e.unsubscribe = e.transport.Subscribe(e.handleSync)
	}

	e.logger.Info("engine ready",
		"backend", selector.ActiveName(),
		"namespace", e.namespace,
		"serializer", pipeline.SerializerName(),
		"compressor", pipeline.CompressorName(),
		"encrypted", pipeline.Encrypted(),
	)
	return e, nil
}

// defaultValidator is the safe-mode baseline: the key must be non-empty
// and the value must be expressible by the codec.
func defaultValidator(key string, value any) error {
	if key == "" {
		return domain.ErrValidationFailed.WithDetails("empty key")
	}
	if _, err := codec.Normalize(value); err != nil {
		return domain.ErrValidationFailed.WithDetails("value not storable").WithCause(err)
	}
	return nil
}

// OriginID identifies this engine instance on the sync transport.
func (e *Engine) OriginID() string { return e.originID }

// ActiveBackend returns the name of the backend currently serving
// operations.
func (e *Engine) ActiveBackend() string { return e.selector.ActiveName() }

// On registers a listener for events of the given type and returns its
// unsubscribe function.
func (e *Engine) On(t domain.EventType, fn Listener) func() {
	return e.events.subscribe(t, fn)
}

// Audit returns a copy of the audit trail, oldest record first.
func (e *Engine) Audit() []AuditRecord { return e.audit.snapshot() }

// Metrics returns a point-in-time copy of the operation counters.
func (e *Engine) Metrics() MetricsState { return e.metrics.state() }

// Close unsubscribes from the transport and releases the backends.
// Operations after Close fail with ErrEngineClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
	return e.selector.Close()
}

// storageKey maps a logical key into backend key space.
func (e *Engine) storageKey(key string) string {
	if e.namespace == "" {
		return key
	}
	return e.namespace + namespaceSep + key
}

// logicalKey inverts storageKey; ok is false for keys outside this
// engine's namespace.
func (e *Engine) logicalKey(storeKey string) (string, bool) {
	if e.namespace == "" {
		return storeKey, true
	}
	prefix := e.namespace + namespaceSep
	if !strings.HasPrefix(storeKey, prefix) {
		return "", false
	}
	return storeKey[len(prefix):], true
}

// do runs op through the selector, retrying the whole operation a
// bounded number of times when every candidate failed recoverably.
func (e *Engine) do(ctx context.Context, op func(storage.Backend) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = e.selector.Do(ctx, op)
		if err == nil || !domain.IsRecoverable(err) || attempt >= e.retryAttempts {
			return err
		}
		e.logger.Warn("retrying operation", "attempt", attempt+1, "error", err)
	}
}

// fail is the single error boundary: every surfaced failure is counted,
// emitted as an error event and logged exactly once before returning to
// the caller.
func (e *Engine) fail(op, key string, err error) error {
	e.metrics.recordError(op, domain.ErrorCode(err), err)
	e.events.emit(domain.Event{Type: domain.EventError, Action: op, Key: key, Err: err})
	e.logger.Error("operation failed", "op", op, "key", key, "error", err)
	return err
}

// WriteOption adjusts a single write.
type WriteOption func(*writeConfig)

type writeConfig struct {
	ttlSeconds int
}

// WithTTL expires the entry ttlSeconds after this write. Zero removes
// any existing expiry.
func WithTTL(ttlSeconds int) WriteOption {
	return func(c *writeConfig) { c.ttlSeconds = ttlSeconds }
}

// Write stores value under key. The before-write hook may veto the
// write, which is a silent no-op, or substitute the stored value.
func (e *Engine) Write(ctx context.Context, key string, value any, opts ...WriteOption) error {
	var cfg writeConfig
	for _, o := range opts {
		o(&cfg)
	}

	start := e.clock.Now()
	e.mu.Lock()
	defer e.flushOutbox()
	defer e.mu.Unlock()
	if e.closed {
		return domain.ErrEngineClosed
	}

	committed, err := e.writeLocked(ctx, key, value, cfg.ttlSeconds, true, true)
	if err != nil {
		return e.fail("write", key, err)
	}
	if committed {
		e.metrics.recordWrite(e.clock.Since(start))
	}
	return nil
}

// writeLocked commits one write. committed is false when a hook vetoed
// the write. runHooks and broadcast are disabled on restore paths and
// for state applied from peers.
func (e *Engine) writeLocked(ctx context.Context, key string, value any, ttlSeconds int, runHooks, broadcast bool) (committed bool, err error) {
	if runHooks && e.hooks.BeforeWrite != nil {
		replacement, proceed := e.hooks.BeforeWrite(key, value)
		if !proceed {
			return false, nil
		}
		value = replacement
	}

	if e.safeMode != SafeModeOff {
		if verr := e.validator(key, value); verr != nil {
			if e.safeMode == SafeModeStrict {
				return false, verr
			}
			e.logger.Warn("validation failed, writing anyway", "key", key, "error", verr)
		}
	}

	canonical, err := codec.Canonicalize(value)
	if err != nil {
		return false, err
	}
	payload, err := e.pipeline.Encode(value)
	if err != nil {
		return false, err
	}

	model := migrate.ModelOf(key)
	version := e.migrations.LatestVersion(model)

	storeKey := e.storageKey(key)
	var entry *domain.Entry
	err = e.do(ctx, func(b storage.Backend) error {
		var werr error
		entry, werr = b.Write(ctx, storeKey, payload, storage.WriteOptions{TTLSeconds: ttlSeconds, Version: version})
		return werr
	})
	if err != nil {
		return false, err
	}

	if e.cache != nil {
		e.cache.PutUntil(key, canonical, entryDeadline(entry))
	}
	e.audit.append("write", key, len(payload))
	if runHooks && e.hooks.AfterWrite != nil {
		e.hooks.AfterWrite(key, canonical)
	}
	e.events.emit(domain.Event{Type: domain.EventChange, Action: "write", Key: key, Value: canonical})
	if broadcast {
		e.publish(domain.SyncMessage{
			Type:      domain.EventChange,
			Key:       key,
			Payload:   payload,
			TTL:       entry.TTL,
			Version:   entry.Version,
			Timestamp: entry.UpdatedAt,
		})
	}
	return true, nil
}

// Read returns the decoded value for key, serving it from the read
// cache when fresh. Absent and expired keys fail with ErrEntryNotFound.
func (e *Engine) Read(ctx context.Context, key string) (any, error) {
	start := e.clock.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, domain.ErrEngineClosed
	}

	if e.cache != nil {
		if v, ok := e.cache.Get(key); ok {
			e.metrics.recordRead(e.clock.Since(start), true)
			return v, nil
		}
	}

	value, err := e.readLocked(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return nil, err
		}
		return nil, e.fail("read", key, err)
	}
	e.metrics.recordRead(e.clock.Since(start), false)
	return value, nil
}

// readLocked loads, decodes and, when the entry's version lags the
// registry, migrates one entry, persisting the migrated form.
func (e *Engine) readLocked(ctx context.Context, key string) (any, error) {
	storeKey := e.storageKey(key)

	var entry *domain.Entry
	err := e.do(ctx, func(b storage.Backend) error {
		var rerr error
		entry, rerr = b.Read(ctx, storeKey)
		return rerr
	})
	if err != nil {
		return nil, err
	}

	value, err := e.pipeline.Decode(entry.Value)
	if err != nil {
		return nil, err
	}

	value, err = e.migrateOnRead(ctx, key, storeKey, entry, value)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.PutUntil(key, value, entryDeadline(entry))
	}
	return value, nil
}

// entryDeadline maps an entry's absolute TTL to a cache record
// deadline; entries without a TTL get no deadline.
func entryDeadline(entry *domain.Entry) time.Time {
	if entry.TTL == 0 {
		return time.Time{}
	}
	return time.UnixMilli(entry.TTL)
}

// migrateOnRead upgrades a lagging entry to the latest registered
// version and writes the upgraded form back, preserving the entry's
// timestamps and expiry. The in-progress guard makes the upgrade
// re-entrancy safe: a migration step that reads the same key gets the
// stored form unchanged.
func (e *Engine) migrateOnRead(ctx context.Context, key, storeKey string, entry *domain.Entry, value any) (any, error) {
	model := migrate.ModelOf(key)
	latest := e.migrations.LatestVersion(model)
	if latest <= entry.Version {
		return value, nil
	}
	if !e.migrations.Begin(model, key) {
		return value, nil
	}
	defer e.migrations.End(model, key)

	migrated, newVersion, err := e.migrations.Apply(model, value, entry.Version, latest)
	if err != nil {
		return nil, err
	}

	payload, err := e.pipeline.Encode(migrated)
	if err != nil {
		return nil, err
	}
	upgraded := entry.Clone()
	upgraded.Value = payload
	upgraded.Version = newVersion

	err = e.do(ctx, func(b storage.Backend) error {
		return b.BulkImport(ctx, map[string]*domain.Entry{storeKey: upgraded})
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("entry migrated", "key", key, "model", model, "from", entry.Version, "to", newVersion)
	return migrated, nil
}

// Has reports whether key holds a live entry.
func (e *Engine) Has(ctx context.Context, key string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false, domain.ErrEngineClosed
	}

	if e.cache != nil {
		if _, ok := e.cache.Get(key); ok {
			return true, nil
		}
	}

	storeKey := e.storageKey(key)
	err := e.do(ctx, func(b storage.Backend) error {
		_, rerr := b.Read(ctx, storeKey)
		return rerr
	})
	if errors.Is(err, domain.ErrEntryNotFound) {
		return false, nil
	}
	if err != nil {
		return false, e.fail("has", key, err)
	}
	return true, nil
}

// Delete removes key. Deleting an absent key commits trivially. The
// before-delete hook may veto, which is a silent no-op.
func (e *Engine) Delete(ctx context.Context, key string) error {
	e.mu.Lock()
	defer e.flushOutbox()
	defer e.mu.Unlock()
	if e.closed {
		return domain.ErrEngineClosed
	}
	committed, err := e.deleteLocked(ctx, key, true, true)
	if err != nil {
		return e.fail("delete", key, err)
	}
	if committed {
		e.metrics.recordDelete()
	}
	return nil
}

func (e *Engine) deleteLocked(ctx context.Context, key string, runHooks, broadcast bool) (bool, error) {
	if runHooks && e.hooks.BeforeDelete != nil && !e.hooks.BeforeDelete(key) {
		return false, nil
	}

	storeKey := e.storageKey(key)
	err := e.do(ctx, func(b storage.Backend) error {
		return b.Remove(ctx, storeKey)
	})
	if err != nil {
		return false, err
	}

	if e.cache != nil {
		e.cache.Invalidate(key)
	}
	e.audit.append("delete", key, 0)
	if runHooks && e.hooks.AfterDelete != nil {
		e.hooks.AfterDelete(key)
	}
	e.events.emit(domain.Event{Type: domain.EventDelete, Action: "delete", Key: key})
	if broadcast {
		e.publish(domain.SyncMessage{Type: domain.EventDelete, Key: key, Timestamp: e.clock.Now().UnixMilli()})
	}
	return true, nil
}

// Clear removes every entry in this engine's namespace. The
// before-clear hook may veto.
func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	defer e.flushOutbox()
	defer e.mu.Unlock()
	if e.closed {
		return domain.ErrEngineClosed
	}
	_, err := e.clearLocked(ctx, true, true, true)
	if err != nil {
		return e.fail("clear", "", err)
	}
	return nil
}

// clearLocked empties the namespace. Namespaced engines delete key by
// key so entries of other namespaces on a shared backend survive.
func (e *Engine) clearLocked(ctx context.Context, runHooks, broadcast, emit bool) (bool, error) {
	if runHooks && e.hooks.BeforeClear != nil && !e.hooks.BeforeClear() {
		return false, nil
	}

	var err error
	if e.namespace == "" {
		err = e.do(ctx, func(b storage.Backend) error {
			return b.ClearAll(ctx)
		})
	} else {
		err = e.do(ctx, func(b storage.Backend) error {
			keys, lerr := b.ListKeys(ctx)
			if lerr != nil {
				return lerr
			}
			for _, k := range keys {
				if _, ok := e.logicalKey(k); !ok {
					continue
				}
				if rerr := b.Remove(ctx, k); rerr != nil {
					return rerr
				}
			}
			return nil
		})
	}
	if err != nil {
		return false, err
	}

	if e.cache != nil {
		e.cache.Purge()
	}
	e.audit.append("clear", "", 0)
	if runHooks && e.hooks.AfterClear != nil {
		e.hooks.AfterClear()
	}
	if emit {
		e.events.emit(domain.Event{Type: domain.EventClear, Action: "clear"})
	}
	if broadcast {
		e.publish(domain.SyncMessage{Type: domain.EventClear, Timestamp: e.clock.Now().UnixMilli()})
	}
	return true, nil
}

// Keys returns the sorted live logical keys of this namespace.
func (e *Engine) Keys(ctx context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, domain.ErrEngineClosed
	}
	keys, err := e.keysLocked(ctx)
	if err != nil {
		return nil, e.fail("keys", "", err)
	}
	return keys, nil
}

func (e *Engine) keysLocked(ctx context.Context) ([]string, error) {
	var raw []string
	err := e.do(ctx, func(b storage.Backend) error {
		var lerr error
		raw, lerr = b.ListKeys(ctx)
		return lerr
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if logical, ok := e.logicalKey(k); ok {
			keys = append(keys, logical)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Count returns the number of live entries in this namespace.
func (e *Engine) Count(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, domain.ErrEngineClosed
	}

	if e.namespace == "" {
		var n int
		err := e.do(ctx, func(b storage.Backend) error {
			var cerr error
			n, cerr = b.Count(ctx)
			return cerr
		})
		if err != nil {
			return 0, e.fail("count", "", err)
		}
		return n, nil
	}

	keys, err := e.keysLocked(ctx)
	if err != nil {
		return 0, e.fail("count", "", err)
	}
	return len(keys), nil
}

// Item is one element of a bulk write.
type Item struct {
	Key        string
	Value      any
	TTLSeconds int
}

// WriteMany commits the items in order, stopping at the first failure.
// The returned error carries the number of items committed before it.
func (e *Engine) WriteMany(ctx context.Context, items []Item) error {
	e.mu.Lock()
	defer e.flushOutbox()
	defer e.mu.Unlock()
	if e.closed {
		return domain.ErrEngineClosed
	}

	done := 0
	for _, it := range items {
		committed, err := e.writeLocked(ctx, it.Key, it.Value, it.TTLSeconds, true, true)
		if err != nil {
			var serr *domain.StorageError
			if errors.As(err, &serr) {
				err = serr.WithProgress(done)
			}
			return e.fail("writeMany", it.Key, err)
		}
		if committed {
			done++
		}
	}
	return nil
}

// ReadMany returns the values of the given keys. Absent keys are
// omitted from the result; any other failure aborts.
func (e *Engine) ReadMany(ctx context.Context, keys []string) (map[string]any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, domain.ErrEngineClosed
	}

	out := make(map[string]any, len(keys))
	for _, key := range keys {
		if e.cache != nil {
			if v, ok := e.cache.Get(key); ok {
				out[key] = v
				continue
			}
		}
		v, err := e.readLocked(ctx, key)
		if errors.Is(err, domain.ErrEntryNotFound) {
			continue
		}
		if err != nil {
			return nil, e.fail("readMany", key, err)
		}
		out[key] = v
	}
	return out, nil
}

// DeleteMany removes the given keys in order, stopping at the first
// failure with the commit count attached.
func (e *Engine) DeleteMany(ctx context.Context, keys []string) error {
	e.mu.Lock()
	defer e.flushOutbox()
	defer e.mu.Unlock()
	if e.closed {
		return domain.ErrEngineClosed
	}

	done := 0
	for _, key := range keys {
		committed, err := e.deleteLocked(ctx, key, true, true)
		if err != nil {
			var serr *domain.StorageError
			if errors.As(err, &serr) {
				err = serr.WithProgress(done)
			}
			return e.fail("deleteMany", key, err)
		}
		if committed {
			done++
		}
	}
	return nil
}

// ExportAll returns every live decoded value in this namespace keyed by
// logical key. Lagging entries are not migrated on this path.
func (e *Engine) ExportAll(ctx context.Context) (map[string]any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, domain.ErrEngineClosed
	}
	data, err := e.exportLocked(ctx)
	if err != nil {
		return nil, e.fail("export", "", err)
	}
	return data, nil
}

func (e *Engine) exportLocked(ctx context.Context) (map[string]any, error) {
	var entries map[string]*domain.Entry
	err := e.do(ctx, func(b storage.Backend) error {
		var xerr error
		entries, xerr = b.ExportAll(ctx)
		return xerr
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(entries))
	for storeKey, entry := range entries {
		logical, ok := e.logicalKey(storeKey)
		if !ok {
			continue
		}
		v, derr := e.pipeline.Decode(entry.Value)
		if derr != nil {
			return nil, derr
		}
		out[logical] = v
	}
	return out, nil
}

// ImportAll writes every pair of data into the namespace, replacing
// existing values under the same keys. Hooks do not run; exactly one
// import event fires after the last pair commits, and peers receive the
// imported pairs as individual changes.
func (e *Engine) ImportAll(ctx context.Context, data map[string]any) error {
	e.mu.Lock()
	defer e.flushOutbox()
	defer e.mu.Unlock()
	if e.closed {
		return domain.ErrEngineClosed
	}
	if err := e.importLocked(ctx, data); err != nil {
		return e.fail("import", "", err)
	}
	return nil
}

// importLocked writes the pairs in key order so partial failures are
// deterministic, then records one import.
func (e *Engine) importLocked(ctx context.Context, data map[string]any) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	done := 0
	for _, key := range keys {
		if _, err := e.writeImported(ctx, key, data[key]); err != nil {
			var serr *domain.StorageError
			if errors.As(err, &serr) {
				return serr.WithProgress(done)
			}
			return err
		}
		done++
	}

	e.audit.append("import", "", len(data))
	e.events.emit(domain.Event{Type: domain.EventImport, Action: "import", Value: len(data)})
	return nil
}

// writeImported commits one imported pair without hooks and without a
// per-key change event; peers still receive the change.
func (e *Engine) writeImported(ctx context.Context, key string, value any) (*domain.Entry, error) {
	canonical, err := codec.Canonicalize(value)
	if err != nil {
		return nil, err
	}
	payload, err := e.pipeline.Encode(value)
	if err != nil {
		return nil, err
	}

	version := e.migrations.LatestVersion(migrate.ModelOf(key))
	storeKey := e.storageKey(key)

	var entry *domain.Entry
	err = e.do(ctx, func(b storage.Backend) error {
		var werr error
		entry, werr = b.Write(ctx, storeKey, payload, storage.WriteOptions{Version: version})
		return werr
	})
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.Put(key, canonical)
	}
	e.publish(domain.SyncMessage{
		Type:      domain.EventChange,
		Key:       key,
		Payload:   payload,
		TTL:       entry.TTL,
		Version:   entry.Version,
		Timestamp: entry.UpdatedAt,
	})
	return entry, nil
}

// Query starts a query over the live decoded values of this namespace.
// The snapshot is taken when Execute runs, not when the builder is
// created.
func (e *Engine) Query(ctx context.Context) *query.Builder {
	return query.New(func() ([]query.Row, error) {
		data, err := e.ExportAll(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]query.Row, 0, len(data))
		for k, v := range data {
			rows = append(rows, query.Row{Key: k, Value: v})
		}
		return rows, nil
	})
}
