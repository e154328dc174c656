package domain

import "time"

// Entry is a stored record as persisted by a backend.
//
// Value holds the fully encoded payload (normalized, serialized,
// compressed, optionally encrypted). Timestamps are Unix milliseconds.
// TTL is an absolute expiry timestamp in Unix milliseconds; zero means
// the entry never expires.
//
// @design DS-0101
type Entry struct {
	Key       string `json:"key" msgpack:"key"`
	Value     []byte `json:"value" msgpack:"value"`
	CreatedAt int64  `json:"createdAt" msgpack:"createdAt"`
	UpdatedAt int64  `json:"updatedAt" msgpack:"updatedAt"`
	Version   int    `json:"version" msgpack:"version"`
	TTL       int64  `json:"ttl,omitempty" msgpack:"ttl,omitempty"`
}

// NewEntry creates an entry for a first write of key.
//
// ttlSeconds is converted to an absolute expiry at creation time;
// zero or negative ttlSeconds means no expiry.
func NewEntry(key string, value []byte, ttlSeconds int, now time.Time) *Entry {
	e := &Entry{
		Key:       key,
		Value:     value,
		CreatedAt: now.UnixMilli(),
		UpdatedAt: now.UnixMilli(),
		Version:   1,
	}
	if ttlSeconds > 0 {
		e.TTL = now.Add(time.Duration(ttlSeconds) * time.Second).UnixMilli()
	}
	return e
}

// Renew updates an existing entry in place for a subsequent write.
//
// CreatedAt is immutable; UpdatedAt and TTL are refreshed and the
// version tag is preserved unless the caller retags it.
func (e *Entry) Renew(value []byte, ttlSeconds int, now time.Time) {
	e.Value = value
	e.UpdatedAt = now.UnixMilli()
	if ttlSeconds > 0 {
		e.TTL = now.Add(time.Duration(ttlSeconds) * time.Second).UnixMilli()
	} else {
		e.TTL = 0
	}
}

// IsExpired reports whether the entry's TTL has passed at the given time.
//
// Expired entries are logically absent on every read path; eviction is
// lazy and happens when an expired entry is observed.
func (e *Entry) IsExpired(now time.Time) bool {
	return e.TTL != 0 && e.TTL <= now.UnixMilli()
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	clone := *e
	clone.Value = make([]byte, len(e.Value))
	copy(clone.Value, e.Value)
	return &clone
}
