package cache

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestCache_HitWithinTTL(t *testing.T) {
	mock := clock.NewMock()
	c := New(WithTTL(2*time.Second), WithClock(mock))

	c.Put("k", "v")

	mock.Add(1 * time.Second)
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Fatalf("Get = %v, %v; want v, true", got, ok)
	}
}

func TestCache_MissAfterTTL(t *testing.T) {
	mock := clock.NewMock()
	c := New(WithTTL(2*time.Second), WithClock(mock))

	c.Put("k", "v")
	mock.Add(2 * time.Second)

	if _, ok := c.Get("k"); ok {
		t.Fatal("record should be stale at exactly its TTL")
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0 after stale observation", c.Len())
	}
}

func TestCache_InvalidateAndPurge(t *testing.T) {
	c := New()

	c.Put("a", 1)
	c.Put("b", 2)

	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("invalidated record still served")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("unrelated record was dropped")
	}

	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0 after purge", c.Len())
	}
}

func TestCache_PutReplacesRecord(t *testing.T) {
	mock := clock.NewMock()
	c := New(WithTTL(2*time.Second), WithClock(mock))

	c.Put("k", "old")
	mock.Add(1 * time.Second)
	c.Put("k", "new")
	mock.Add(1 * time.Second)

	// The replacement reset the record's clock.
	got, ok := c.Get("k")
	if !ok || got != "new" {
		t.Fatalf("Get = %v, %v; want new, true", got, ok)
	}
}

func TestCache_DeadlineCapsRecordLife(t *testing.T) {
	mock := clock.NewMock()
	c := New(WithTTL(5*time.Second), WithClock(mock))

	// The backing entry expires in 2s, well inside the cache TTL.
	c.PutUntil("k", "v", mock.Now().Add(2*time.Second))

	mock.Add(1 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("record should be live before its deadline")
	}

	mock.Add(1 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("record should be dead at its deadline despite the cache TTL")
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0 after dead observation", c.Len())
	}
}

func TestCache_ZeroDeadlineUsesCacheTTL(t *testing.T) {
	mock := clock.NewMock()
	c := New(WithTTL(2*time.Second), WithClock(mock))

	c.PutUntil("k", "v", time.Time{})

	mock.Add(1 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("record should be live within the cache TTL")
	}
	mock.Add(1 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("record should be stale past the cache TTL")
	}
}
