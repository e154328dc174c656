package peersync

import (
	"testing"

	"github.com/yndnr/strata-go/internal/core/domain"
)

func TestBus_FanOut(t *testing.T) {
	bus := NewBus()

	var got []string
	bus.Subscribe(func(msg domain.SyncMessage) { got = append(got, "a:"+msg.Key) })
	bus.Subscribe(func(msg domain.SyncMessage) { got = append(got, "b:"+msg.Key) })

	if err := bus.Publish(domain.SyncMessage{Type: domain.EventChange, Key: "k"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("deliveries = %v, want 2", got)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	calls := 0
	unsub := bus.Subscribe(func(domain.SyncMessage) { calls++ })

	bus.Publish(domain.SyncMessage{})
	unsub()
	bus.Publish(domain.SyncMessage{})

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
