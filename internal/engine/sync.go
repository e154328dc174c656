package engine

import (
	"context"

	"github.com/yndnr/strata-go/internal/core/domain"
	"github.com/yndnr/strata-go/internal/storage"
)

// ConflictResolver decides whether an inbound peer write replaces the
// local entry. local is nil when the key is absent locally. Returning
// true applies the incoming state.
type ConflictResolver func(local *domain.Entry, incoming domain.SyncMessage) bool

// publish queues a committed local mutation for broadcast. Callers
// hold e.mu; the queued messages go out through flushOutbox after the
// lock is released, so a synchronous transport delivering into another
// engine can never interlock two engine mutexes.
func (e *Engine) publish(msg domain.SyncMessage) {
	if e.transport == nil {
		return
	}
	msg.OriginID = e.originID
	e.outbox = append(e.outbox, msg)
}

// flushOutbox sends every queued message without holding e.mu. Each
// public mutating operation defers it to run after the unlock.
// Transport failures are logged and swallowed: sync is best-effort and
// never fails the local operation that already committed.
func (e *Engine) flushOutbox() {
	if e.transport == nil {
		return
	}
	e.mu.Lock()
	pending := e.outbox
	e.outbox = nil
	e.mu.Unlock()

	for _, msg := range pending {
		if err := e.transport.Publish(msg); err != nil {
			e.logger.Warn("sync publish failed", "type", msg.Type, "key", msg.Key, "error", err)
		}
	}
}

// handleSync applies one inbound peer message. Messages from this
// engine's own origin are discarded. Applied state runs no hooks and is
// never re-broadcast; local listeners still observe the resulting
// events.
func (e *Engine) handleSync(msg domain.SyncMessage) {
	if msg.OriginID == e.originID {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	ctx := context.Background()
	switch msg.Type {
	case domain.EventChange:
		e.applyPeerChange(ctx, msg)
	case domain.EventDelete:
		e.applyPeerDelete(ctx, msg)
	case domain.EventClear:
		if _, err := e.clearLocked(ctx, false, false, true); err != nil {
			e.fail("sync", "", err)
		}
	default:
		// Import markers carry no state; the sender follows up with
		// per-key changes.
	}
}

func (e *Engine) applyPeerChange(ctx context.Context, msg domain.SyncMessage) {
	storeKey := e.storageKey(msg.Key)

	var local *domain.Entry
	err := e.do(ctx, func(b storage.Backend) error {
		entry, rerr := b.Read(ctx, storeKey)
		if rerr != nil {
			return rerr
		}
		local = entry
		return nil
	})
	if err != nil && !isNotFound(err) {
		e.fail("sync", msg.Key, err)
		return
	}

	if !e.acceptPeer(local, msg) {
		return
	}

	version := msg.Version
	if version == 0 {
		version = 1
	}
	createdAt := msg.Timestamp
	if local != nil {
		createdAt = local.CreatedAt
	}
	incoming := &domain.Entry{
		Key:       storeKey,
		Value:     msg.Payload,
		CreatedAt: createdAt,
		UpdatedAt: msg.Timestamp,
		Version:   version,
		TTL:       msg.TTL,
	}

	err = e.do(ctx, func(b storage.Backend) error {
		return b.BulkImport(ctx, map[string]*domain.Entry{storeKey: incoming})
	})
	if err != nil {
		e.fail("sync", msg.Key, err)
		return
	}

	if e.cache != nil {
		e.cache.Invalidate(msg.Key)
	}
	e.audit.append("sync", msg.Key, len(msg.Payload))

	value, derr := e.pipeline.Decode(msg.Payload)
	if derr != nil {
		// State is applied; only the event payload is unavailable.
		e.logger.Warn("inbound payload not decodable under local codec", "key", msg.Key, "error", derr)
	}
	e.events.emit(domain.Event{Type: domain.EventChange, Action: "sync", Key: msg.Key, Value: value})
}

func (e *Engine) applyPeerDelete(ctx context.Context, msg domain.SyncMessage) {
	storeKey := e.storageKey(msg.Key)
	err := e.do(ctx, func(b storage.Backend) error {
		return b.Remove(ctx, storeKey)
	})
	if err != nil {
		e.fail("sync", msg.Key, err)
		return
	}
	if e.cache != nil {
		e.cache.Invalidate(msg.Key)
	}
	e.audit.append("sync", msg.Key, 0)
	e.events.emit(domain.Event{Type: domain.EventDelete, Action: "sync", Key: msg.Key})
}

// acceptPeer resolves a write conflict between the local entry and an
// inbound change. The default is last-write-wins on message timestamp;
// timestamp ties break on origin ID so all peers converge on the same
// winner.
func (e *Engine) acceptPeer(local *domain.Entry, msg domain.SyncMessage) bool {
	if e.conflict != nil {
		return e.conflict(local, msg)
	}
	if local == nil {
		return true
	}
	if msg.Timestamp != local.UpdatedAt {
		return msg.Timestamp > local.UpdatedAt
	}
	return msg.OriginID > e.originID
}

func isNotFound(err error) bool {
	return err != nil && domain.ErrorCode(err) == domain.ErrEntryNotFound.Code
}
