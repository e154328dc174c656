// Package query provides the filter/sort/limit builder over the
// decoded live data set.
//
// Builders are immutable: every call returns a new builder, so earlier
// builders stay reusable. Execution materializes the source at
// Execute time and applies filter, then sort, then truncate. There is
// no indexing; an O(N) scan is acceptable at the data volumes the
// engine targets.
//
// @req RQ-0601
// @design DS-0601
package query

import (
	"sort"
)

// Row is one decoded live entry.
type Row struct {
	Key   string
	Value any
}

// Filter reports whether a row passes. Multiple filters compose with
// logical AND, order-independent.
type Filter func(Row) bool

// Less orders two rows. At most one comparator is active; setting a
// new one replaces any prior.
type Less func(a, b Row) bool

// Source materializes the decoded, non-expired live entries.
type Source func() ([]Row, error)

// Result is a key-ordered mapping consistent with the active sort.
type Result struct {
	// Keys in result order.
	Keys []string
	// Values keyed by entry key.
	Values map[string]any
}

// Builder composes a query. The zero value is not usable; obtain
// builders from New.
type Builder struct {
	source  Source
	filters []Filter
	less    Less
	limit   int // 0 = unlimited
}

// New creates a builder over the given source.
func New(source Source) *Builder {
	return &Builder{source: source}
}

// clone copies the builder so mutation never leaks into prior builders.
func (b *Builder) clone() *Builder {
	next := &Builder{
		source:  b.source,
		filters: make([]Filter, len(b.filters)),
		less:    b.less,
		limit:   b.limit,
	}
	copy(next.filters, b.filters)
	return next
}

// Filter adds a predicate. Filters AND together.
func (b *Builder) Filter(f Filter) *Builder {
	next := b.clone()
	next.filters = append(next.filters, f)
	return next
}

// Sort sets the comparator, replacing any prior one.
func (b *Builder) Sort(less Less) *Builder {
	next := b.clone()
	next.less = less
	return next
}

// Limit caps the result size. The last Limit or Take call wins.
func (b *Builder) Limit(n int) *Builder {
	next := b.clone()
	next.limit = n
	return next
}

// Take is an alias for Limit; both set the same slot.
func (b *Builder) Take(n int) *Builder {
	return b.Limit(n)
}

// Execute applies filter, then sort, then truncate, in that order.
func (b *Builder) Execute() (*Result, error) {
	rows, err := b.source()
	if err != nil {
		return nil, err
	}

	filtered := rows[:0:0]
	for _, row := range rows {
		if b.accepts(row) {
			filtered = append(filtered, row)
		}
	}

	if b.less != nil {
		sort.SliceStable(filtered, func(i, j int) bool {
			return b.less(filtered[i], filtered[j])
		})
	} else {
		// Deterministic order in the absence of a comparator.
		sort.Slice(filtered, func(i, j int) bool {
			return filtered[i].Key < filtered[j].Key
		})
	}

	if b.limit > 0 && len(filtered) > b.limit {
		filtered = filtered[:b.limit]
	}

	result := &Result{
		Keys:   make([]string, 0, len(filtered)),
		Values: make(map[string]any, len(filtered)),
	}
	for _, row := range filtered {
		result.Keys = append(result.Keys, row.Key)
		result.Values[row.Key] = row.Value
	}
	return result, nil
}

func (b *Builder) accepts(row Row) bool {
	for _, f := range b.filters {
		if !f(row) {
			return false
		}
	}
	return true
}
