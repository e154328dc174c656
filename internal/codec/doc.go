// Package codec implements the value pipeline between decoded values
// and backend payloads.
//
// The write direction is fixed and order-sensitive:
//
//	normalize -> serialize -> compress -> seal
//
// and the read direction is its exact inverse:
//
//	open -> decompress -> deserialize -> hydrate
//
// Violating the order does not fail loudly, it silently corrupts
// output, so correctness is guarded by round-trip tests per value
// category and strategy combination rather than runtime checks.
//
// @req RQ-0201, RQ-0202, RQ-0203
// @design DS-0201
package codec
