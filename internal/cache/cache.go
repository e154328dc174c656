// Package cache provides the short-lived read cache in front of the
// active backend.
//
// The cache is TTL-only: no size bound, no eviction order. Records
// expire on their own clock, capped by the backing entry's deadline
// when it has one, and are invalidated by any write, delete or clear
// against the same key. Records hold decoded values and are never
// persisted.
//
// @req RQ-0501
// @design DS-0501
package cache

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultTTL is the record lifetime when none is configured.
const DefaultTTL = 5 * time.Second

// record pairs a decoded value with its insertion time and the
// backing entry's own expiry. A zero deadline means the entry does
// not expire.
type record struct {
	value      any
	insertedAt time.Time
	deadline   time.Time
}

// Cache is a TTL read-through cache keyed by entry key.
type Cache struct {
	mu      sync.RWMutex
	records map[string]record
	ttl     time.Duration
	clock   clock.Clock
}

// Option configures the Cache.
type Option func(*Cache)

// WithTTL sets the record lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects a clock for tests.
func WithClock(clk clock.Clock) Option {
	return func(c *Cache) {
		c.clock = clk
	}
}

// New creates a cache with the default TTL.
func New(opts ...Option) *Cache {
	c := &Cache{
		records: make(map[string]record),
		ttl:     DefaultTTL,
		clock:   clock.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached decoded value for key and whether a live
// record was found. A record is dead once the cache TTL passes or the
// backing entry's own deadline does, whichever comes first; dead
// records are removed on observation.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	rec, ok := c.records[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if c.dead(rec, c.clock.Now()) {
		c.mu.Lock()
		if cur, ok := c.records[key]; ok && c.dead(cur, c.clock.Now()) {
			delete(c.records, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return rec.value, true
}

func (c *Cache) dead(rec record, now time.Time) bool {
	if now.Sub(rec.insertedAt) >= c.ttl {
		return true
	}
	return !rec.deadline.IsZero() && !now.Before(rec.deadline)
}

// Put stores the decoded value for key, replacing any prior record.
// The record lives for the cache TTL.
func (c *Cache) Put(key string, value any) {
	c.PutUntil(key, value, time.Time{})
}

// PutUntil stores the decoded value for key with an upper bound on its
// life: the record dies at deadline even if the cache TTL has not
// passed, so an expiring entry is never served past its own TTL. A
// zero deadline bounds the record by the cache TTL alone.
func (c *Cache) PutUntil(key string, value any, deadline time.Time) {
	c.mu.Lock()
	c.records[key] = record{value: value, insertedAt: c.clock.Now(), deadline: deadline}
	c.mu.Unlock()
}

// Invalidate removes the record for key, if any.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.records, key)
	c.mu.Unlock()
}

// Purge removes every record.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.records = make(map[string]record)
	c.mu.Unlock()
}

// Len returns the number of records currently held, counting stale
// records that have not yet been observed.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
