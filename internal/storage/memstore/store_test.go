package memstore

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/yndnr/strata-go/internal/core/domain"
	"github.com/yndnr/strata-go/internal/storage"
)

func TestStore_WriteReadRemove(t *testing.T) {
	s := New()
	ctx := context.Background()

	entry, err := s.Write(ctx, "k1", []byte("p1"), storage.WriteOptions{})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if entry.Version != 1 {
		t.Fatalf("Version = %d, want 1", entry.Version)
	}

	got, err := s.Read(ctx, "k1")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got.Value) != "p1" {
		t.Fatalf("Value = %q, want p1", got.Value)
	}

	if err := s.Remove(ctx, "k1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Read(ctx, "k1"); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("Read after remove err = %v, want ErrEntryNotFound", err)
	}

	// Removing an absent key is not an error.
	if err := s.Remove(ctx, "ghost"); err != nil {
		t.Fatalf("Remove absent: %v", err)
	}
}

func TestStore_RenewPreservesCreatedAt(t *testing.T) {
	mock := clock.NewMock()
	s := New(WithClock(mock))
	ctx := context.Background()

	first, _ := s.Write(ctx, "k", []byte("v1"), storage.WriteOptions{})

	mock.Add(5 * time.Second)
	second, _ := s.Write(ctx, "k", []byte("v2"), storage.WriteOptions{})

	if second.CreatedAt != first.CreatedAt {
		t.Fatalf("CreatedAt changed: %d -> %d", first.CreatedAt, second.CreatedAt)
	}
	if second.UpdatedAt == first.UpdatedAt {
		t.Fatal("UpdatedAt not refreshed")
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	mock := clock.NewMock()
	s := New(WithClock(mock))
	ctx := context.Background()

	if _, err := s.Write(ctx, "k", []byte("v"), storage.WriteOptions{TTLSeconds: 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := s.Read(ctx, "k"); err != nil {
		t.Fatalf("Read before expiry: %v", err)
	}

	mock.Add(1100 * time.Millisecond)

	if _, err := s.Read(ctx, "k"); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("Read after expiry err = %v, want ErrEntryNotFound", err)
	}
	keys, _ := s.ListKeys(ctx)
	if len(keys) != 0 {
		t.Fatalf("ListKeys = %v, want empty", keys)
	}
	n, _ := s.Count(ctx)
	if n != 0 {
		t.Fatalf("Count = %d, want 0", n)
	}
}

func TestStore_ExpiredKeyRecreatedOnWrite(t *testing.T) {
	mock := clock.NewMock()
	s := New(WithClock(mock))
	ctx := context.Background()

	first, _ := s.Write(ctx, "k", []byte("v1"), storage.WriteOptions{TTLSeconds: 1})
	mock.Add(2 * time.Second)

	second, _ := s.Write(ctx, "k", []byte("v2"), storage.WriteOptions{})
	if second.CreatedAt == first.CreatedAt {
		t.Fatal("write after expiry should create a fresh entry")
	}
	if second.TTL != 0 {
		t.Fatalf("TTL = %d, want 0", second.TTL)
	}
}

func TestStore_ExportImportClear(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Write(ctx, "a", []byte("1"), storage.WriteOptions{})
	s.Write(ctx, "b", []byte("2"), storage.WriteOptions{})

	exported, err := s.ExportAll(ctx)
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if len(exported) != 2 {
		t.Fatalf("len(exported) = %d, want 2", len(exported))
	}

	dst := New()
	if err := dst.BulkImport(ctx, exported); err != nil {
		t.Fatalf("BulkImport: %v", err)
	}

	keys, _ := dst.ListKeys(ctx)
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("keys = %v, want [a b]", keys)
	}

	// Import preserves metadata verbatim.
	got, _ := dst.Read(ctx, "a")
	if got.CreatedAt != exported["a"].CreatedAt {
		t.Fatal("BulkImport did not preserve CreatedAt")
	}

	if err := dst.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	n, _ := dst.Count(ctx)
	if n != 0 {
		t.Fatalf("Count after clear = %d, want 0", n)
	}
}

func TestStore_AlwaysAvailable(t *testing.T) {
	s := New()
	if !s.ProbeAvailable() {
		t.Fatal("volatile backend must always probe available")
	}
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
}
