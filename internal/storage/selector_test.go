package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yndnr/strata-go/internal/core/domain"
)

// fakeBackend is a scripted in-memory backend for selector tests.
type fakeBackend struct {
	name      string
	available bool
	openErr   error
	failWith  error // returned by Write until cleared
	entries   map[string]*domain.Entry
	opened    bool
}

func newFake(name string, available bool) *fakeBackend {
	return &fakeBackend{name: name, available: available, entries: map[string]*domain.Entry{}}
}

func (f *fakeBackend) Name() string         { return f.name }
func (f *fakeBackend) ProbeAvailable() bool { return f.available }
func (f *fakeBackend) Open(context.Context) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = true
	return nil
}
func (f *fakeBackend) Close() error { return nil }

func (f *fakeBackend) Write(_ context.Context, key string, payload []byte, opts WriteOptions) (*domain.Entry, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	e := Upsert(f.entries[key], key, payload, opts, time.Now())
	f.entries[key] = e
	return e.Clone(), nil
}

func (f *fakeBackend) Read(_ context.Context, key string) (*domain.Entry, error) {
	e, ok := f.entries[key]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return e.Clone(), nil
}

func (f *fakeBackend) Remove(_ context.Context, key string) error {
	delete(f.entries, key)
	return nil
}

func (f *fakeBackend) ClearAll(context.Context) error {
	f.entries = map[string]*domain.Entry{}
	return nil
}

func (f *fakeBackend) ListKeys(context.Context) ([]string, error) {
	keys := make([]string, 0, len(f.entries))
	for k := range f.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

func (f *fakeBackend) Count(context.Context) (int, error) { return len(f.entries), nil }

func (f *fakeBackend) ExportAll(context.Context) (map[string]*domain.Entry, error) {
	out := make(map[string]*domain.Entry, len(f.entries))
	for k, e := range f.entries {
		out[k] = e.Clone()
	}
	return out, nil
}

func (f *fakeBackend) BulkImport(_ context.Context, entries map[string]*domain.Entry) error {
	for k, e := range entries {
		f.entries[k] = e.Clone()
	}
	return nil
}

func TestSelector_PicksHighestPriorityAvailable(t *testing.T) {
	ctx := context.Background()
	high := newFake("high", true)
	low := newFake("low", true)

	sel, err := NewSelector(ctx, nil, high, low)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	if sel.ActiveName() != "high" {
		t.Fatalf("active = %s, want high", sel.ActiveName())
	}
	if !high.opened || low.opened {
		t.Fatal("only the selected backend should be opened")
	}
}

func TestSelector_SkipsUnavailableCandidates(t *testing.T) {
	ctx := context.Background()
	sel, err := NewSelector(ctx, nil, newFake("high", false), newFake("mid", false), newFake("low", true))
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	if sel.ActiveName() != "low" {
		t.Fatalf("active = %s, want low", sel.ActiveName())
	}
}

func TestSelector_OpenFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	broken := newFake("broken", true)
	broken.openErr = errors.New("corrupt dir")

	sel, err := NewSelector(ctx, nil, broken, newFake("low", true))
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	if sel.ActiveName() != "low" {
		t.Fatalf("active = %s, want low", sel.ActiveName())
	}
}

func TestSelector_AllUnavailable(t *testing.T) {
	_, err := NewSelector(context.Background(), nil, newFake("a", false), newFake("b", false))
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
}

func TestSelector_FallbackOnQuotaError(t *testing.T) {
	ctx := context.Background()
	primary := newFake("primary", true)
	secondary := newFake("secondary", true)

	sel, err := NewSelector(ctx, nil, primary, secondary)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}

	// Seed data that should be carried over on fallback.
	if err := sel.Do(ctx, func(b Backend) error {
		_, werr := b.Write(ctx, "seed", []byte("s"), WriteOptions{})
		return werr
	}); err != nil {
		t.Fatalf("seed write: %v", err)
	}

	primary.failWith = domain.ErrQuotaExceeded

	if err := sel.Do(ctx, func(b Backend) error {
		_, werr := b.Write(ctx, "k", []byte("v"), WriteOptions{})
		return werr
	}); err != nil {
		t.Fatalf("Do with fallback: %v", err)
	}

	if sel.ActiveName() != "secondary" {
		t.Fatalf("active = %s, want secondary", sel.ActiveName())
	}
	if _, err := secondary.Read(ctx, "k"); err != nil {
		t.Fatal("retried write did not land on fallback backend")
	}
	if _, err := secondary.Read(ctx, "seed"); err != nil {
		t.Fatal("existing data was not carried to fallback backend")
	}
	if _, err := primary.Read(ctx, "seed"); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatal("carried entry should be removed from the failed backend")
	}
}

func TestSelector_NonRecoverableErrorDoesNotFallBack(t *testing.T) {
	ctx := context.Background()
	primary := newFake("primary", true)
	secondary := newFake("secondary", true)

	sel, _ := NewSelector(ctx, nil, primary, secondary)

	boom := errors.New("boom")
	primary.failWith = boom

	err := sel.Do(ctx, func(b Backend) error {
		_, werr := b.Write(ctx, "k", []byte("v"), WriteOptions{})
		return werr
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if sel.ActiveName() != "primary" {
		t.Fatalf("active = %s, want primary", sel.ActiveName())
	}
}

func TestSelector_ExhaustionSurfacesError(t *testing.T) {
	ctx := context.Background()
	primary := newFake("primary", true)
	secondary := newFake("secondary", true)

	sel, _ := NewSelector(ctx, nil, primary, secondary)
	primary.failWith = domain.ErrQuotaExceeded
	secondary.failWith = domain.ErrQuotaExceeded

	err := sel.Do(ctx, func(b Backend) error {
		_, werr := b.Write(ctx, "k", []byte("v"), WriteOptions{})
		return werr
	})
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded after exhaustion", err)
	}
}
