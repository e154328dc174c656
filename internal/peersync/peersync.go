// Package peersync provides best-effort mutation broadcasting between
// engine instances.
//
// Delivery is push-based and unordered across peers: no causal
// ordering, no acknowledgement, no durability. Conflicts resolve
// last-write-wins by message timestamp unless the engine installs a
// custom resolver. The Transport abstraction keeps the engine
// independent of how peers are actually connected; Bus is the
// in-process implementation used by tests and embedded setups.
//
// @req RQ-0901
// @design DS-0901
package peersync

import (
	"sync"

	"github.com/yndnr/strata-go/internal/core/domain"
)

// Handler consumes an inbound sync message.
type Handler func(msg domain.SyncMessage)

// Transport carries sync messages between engine instances.
type Transport interface {
	// Publish sends a message to every other subscriber. Best-effort:
	// there is no delivery guarantee.
	Publish(msg domain.SyncMessage) error

	// Subscribe registers a handler for inbound messages and returns
	// an unsubscribe function.
	Subscribe(h Handler) (unsubscribe func())
}

// Bus is an in-process Transport fanning messages out synchronously
// to every subscriber, including the publisher's own handler; origin
// filtering is the receiver's job.
type Bus struct {
	mu       sync.RWMutex
	handlers map[int]Handler
	nextID   int
}

// NewBus creates an empty in-process transport.
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Publish implements Transport.
func (b *Bus) Publish(msg domain.SyncMessage) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(msg)
	}
	return nil
}

// Subscribe implements Transport.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}
