package domain

// Decoded values are plain Go values: nil, bool, float64, string,
// []any, map[string]any, plus the richer types below that JSON cannot
// represent natively. The codec package tags these as {kind, payload}
// structures on the wire and rebuilds them on read.

// ValueKind discriminates the non-native value variants on the wire.
//
// The set is closed: decoding switches over exactly these tags and
// rejects anything else as corrupt input.
type ValueKind string

const (
	// KindDict tags a Dict (map-like value with arbitrary keys).
	KindDict ValueKind = "dict"

	// KindSet tags a Set (ordered collection of unique members).
	KindSet ValueKind = "set"

	// KindTime tags a time.Time.
	KindTime ValueKind = "time"

	// KindBinary tags a []byte.
	KindBinary ValueKind = "binary"
)

// DictEntry is one key/value pair of a Dict.
type DictEntry struct {
	Key   any
	Value any
}

// Dict is a map-like value that, unlike map[string]any, permits
// arbitrary keys and preserves insertion order across a round trip.
type Dict []DictEntry

// Get returns the value for key and whether it was present.
// Keys are compared with ==, so only comparable keys match.
func (d Dict) Get(key any) (any, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Set appends or replaces the pair for key and returns the result.
func (d Dict) Set(key, value any) Dict {
	for i, e := range d {
		if e.Key == key {
			d[i].Value = value
			return d
		}
	}
	return append(d, DictEntry{Key: key, Value: value})
}

// Len returns the number of pairs.
func (d Dict) Len() int { return len(d) }

// Set is a set-like value: an ordered collection of unique members.
// Order is insertion order and survives a round trip.
type Set []any

// Has reports whether member is in the set.
func (s Set) Has(member any) bool {
	for _, m := range s {
		if m == member {
			return true
		}
	}
	return false
}

// Add returns the set with member appended if not already present.
func (s Set) Add(member any) Set {
	if s.Has(member) {
		return s
	}
	return append(s, member)
}

// Len returns the number of members.
func (s Set) Len() int { return len(s) }
