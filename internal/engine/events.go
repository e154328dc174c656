package engine

import (
	"sync"

	"github.com/yndnr/strata-go/internal/core/domain"
)

// Listener receives engine events.
type Listener func(ev domain.Event)

type listenerEntry struct {
	id int
	fn Listener
}

// dispatcher is the synchronous observer registry. Listeners for an
// event type run in registration order on the goroutine that performed
// the operation; a slow listener therefore slows the caller, which is
// the documented trade for predictable ordering.
type dispatcher struct {
	mu        sync.Mutex
	nextID    int
	listeners map[domain.EventType][]listenerEntry
}

func newDispatcher() *dispatcher {
	return &dispatcher{listeners: make(map[domain.EventType][]listenerEntry)}
}

// subscribe registers fn for events of type t and returns an
// unsubscribe function. Unsubscribing twice is a no-op.
func (d *dispatcher) subscribe(t domain.EventType, fn Listener) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	d.listeners[t] = append(d.listeners[t], listenerEntry{id: id, fn: fn})

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		entries := d.listeners[t]
		for i, e := range entries {
			if e.id == id {
				d.listeners[t] = append(entries[:i:i], entries[i+1:]...)
				return
			}
		}
	}
}

// emit dispatches ev to every listener registered for its type. The
// listener slice is snapshotted under the lock so listeners may
// unsubscribe themselves mid-dispatch.
func (d *dispatcher) emit(ev domain.Event) {
	d.mu.Lock()
	entries := make([]listenerEntry, len(d.listeners[ev.Type]))
	copy(entries, d.listeners[ev.Type])
	d.mu.Unlock()

	for _, e := range entries {
		e.fn(ev)
	}
}
