package badgerstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/yndnr/strata-go/internal/core/domain"
	"github.com/yndnr/strata-go/internal/storage"
)

func openStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s := New(t.TempDir(), opts...)
	if !s.ProbeAvailable() {
		t.Fatal("ProbeAvailable = false for temp dir")
	}
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_WriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	entry, err := s.Write(ctx, "k1", []byte("payload"), storage.WriteOptions{})
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
	if string(got.Value) != "payload" {
		t.Fatalf("Value = %q, want payload", got.Value)
	}
	if got.CreatedAt != entry.CreatedAt {
		t.Fatal("persisted CreatedAt differs from committed entry")
	}
}

func TestStore_TTLExpiryIsLazy(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	mock.Set(time.Now())
	s := openStore(t, WithClock(mock))

	s.Write(ctx, "k", []byte("v"), storage.WriteOptions{TTLSeconds: 1})
	mock.Add(2 * time.Second)

	if _, err := s.Read(ctx, "k"); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("Read err = %v, want ErrEntryNotFound", err)
	}
	keys, err := s.ListKeys(ctx)
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("keys = %v, want empty", keys)
	}
}

func TestStore_VersionTagging(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	s.Write(ctx, "k", []byte("v1"), storage.WriteOptions{})
	entry, err := s.Write(ctx, "k", []byte("v2"), storage.WriteOptions{Version: 3})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if entry.Version != 3 {
		t.Fatalf("Version = %d, want 3", entry.Version)
	}

	got, _ := s.Read(ctx, "k")
	if got.Version != 3 {
		t.Fatalf("persisted Version = %d, want 3", got.Version)
	}
}

func TestStore_ExportImport(t *testing.T) {
	ctx := context.Background()
	src := openStore(t)
	dst := openStore(t)

	src.Write(ctx, "a", []byte("1"), storage.WriteOptions{})
	src.Write(ctx, "b", []byte("2"), storage.WriteOptions{})

	exported, err := src.ExportAll(ctx)
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if err := dst.BulkImport(ctx, exported); err != nil {
		t.Fatalf("BulkImport: %v", err)
	}

	n, _ := dst.Count(ctx)
	if n != 2 {
		t.Fatalf("Count = %d, want 2", n)
	}
}

func TestStore_ClearAll(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	s.Write(ctx, "a", []byte("1"), storage.WriteOptions{})
	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	n, _ := s.Count(ctx)
	if n != 0 {
		t.Fatalf("Count = %d, want 0", n)
	}
}
