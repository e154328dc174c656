package domain

// EventType identifies the kind of engine event.
type EventType string

const (
	EventChange EventType = "change"
	EventDelete EventType = "delete"
	EventClear  EventType = "clear"
	EventImport EventType = "import"
	EventError  EventType = "error"
)

// Event is dispatched synchronously after a completed engine call,
// exactly once per call, in listener registration order.
type Event struct {
	Type   EventType
	Action string // originating operation ("write", "delete", ...)
	Key    string // set for change/delete and keyed errors
	Value  any    // decoded value, set for change
	Err    error  // set for error events
}

// SyncMessage is the payload broadcast to peers after a local
// mutation commits. Inbound messages from a different OriginID are
// applied locally without re-broadcasting and without running local
// hooks.
type SyncMessage struct {
	Type      EventType `json:"type"`
	OriginID  string    `json:"originId"`
	Timestamp int64     `json:"timestamp"` // Unix milliseconds
	Key       string    `json:"key,omitempty"`
	Payload   []byte    `json:"payload,omitempty"` // encoded entry value
	TTL       int64     `json:"ttl,omitempty"`     // absolute expiry, Unix ms
	Version   int       `json:"version,omitempty"`
}
