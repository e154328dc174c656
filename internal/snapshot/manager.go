// Package snapshot provides point-in-time copies of the decoded data
// set and structural comparison between them.
//
// Snapshots are deep copies: once captured they never alias live
// state, and later writes cannot mutate them. The table is
// process-lifetime only; persistence happens through the engine's
// export formats.
//
// @req RQ-0701
// @design DS-0701
package snapshot

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/mitchellh/copystructure"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/strata-go/internal/core/domain"
)

// FormatVersion tags captured snapshots for forward compatibility.
const FormatVersion = 1

// Snapshot is an immutable point-in-time copy of the decoded data set.
type Snapshot struct {
	ID        string
	Name      string
	Data      map[string]any
	Timestamp time.Time
	Version   int
}

// Diff is the structural comparison of two snapshots.
type Diff struct {
	// Added lists keys present in b but not a.
	Added []string
	// Removed lists keys present in a but not b.
	Removed []string
	// Changed lists keys present in both with deep-unequal values.
	Changed []string
}

// Manager owns the named snapshot table.
type Manager struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
	clock     clock.Clock
}

// Option configures the Manager.
type Option func(*Manager)

// WithClock injects a clock for tests.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// NewManager creates an empty snapshot table.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		snapshots: make(map[string]*Snapshot),
		clock:     clock.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Save captures a deep copy of data under name, replacing any prior
// snapshot of the same name.
func (m *Manager) Save(name string, data map[string]any) (*Snapshot, error) {
	copied, err := deepCopy(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: deep copy: %w", name, err)
	}

	snap := &Snapshot{
		ID:        ulid.Make().String(),
		Name:      name,
		Data:      copied,
		Timestamp: m.clock.Now(),
		Version:   FormatVersion,
	}

	m.mu.Lock()
	m.snapshots[name] = snap
	m.mu.Unlock()
	return snap, nil
}

// Get returns a deep copy of the named snapshot's data, so callers
// can feed it back into the engine without aliasing the stored copy.
func (m *Manager) Get(name string) (*Snapshot, error) {
	m.mu.RLock()
	snap, ok := m.snapshots[name]
	m.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSnapshotNotFound.WithDetails(name)
	}

	copied, err := deepCopy(snap.Data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: deep copy: %w", name, err)
	}
	clone := *snap
	clone.Data = copied
	return &clone, nil
}

// List returns snapshot names in lexical order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.snapshots))
	for name := range m.snapshots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Delete removes the named snapshot.
func (m *Manager) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.snapshots[name]; !ok {
		return domain.ErrSnapshotNotFound.WithDetails(name)
	}
	delete(m.snapshots, name)
	return nil
}

// Compare diffs snapshot a against snapshot b. The comparison is
// symmetric: Compare(a,b).Added always equals Compare(b,a).Removed.
func (m *Manager) Compare(a, b string) (*Diff, error) {
	m.mu.RLock()
	snapA, okA := m.snapshots[a]
	snapB, okB := m.snapshots[b]
	m.mu.RUnlock()

	if !okA {
		return nil, domain.ErrSnapshotNotFound.WithDetails(a)
	}
	if !okB {
		return nil, domain.ErrSnapshotNotFound.WithDetails(b)
	}
	return diffData(snapA.Data, snapB.Data), nil
}

func diffData(a, b map[string]any) *Diff {
	d := &Diff{}

	for key, valB := range b {
		valA, ok := a[key]
		if !ok {
			d.Added = append(d.Added, key)
			continue
		}
		if !reflect.DeepEqual(valA, valB) {
			d.Changed = append(d.Changed, key)
		}
	}
	for key := range a {
		if _, ok := b[key]; !ok {
			d.Removed = append(d.Removed, key)
		}
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Changed)
	return d
}

func deepCopy(data map[string]any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	copied, err := copystructure.Copy(data)
	if err != nil {
		return nil, err
	}
	return copied.(map[string]any), nil
}
