// Package storage defines the uniform backend contract and the
// priority selector that owns backend fallback.
//
// Three backends implement the contract: badgerstore
// (persistent-indexed), filestore (persistent-simple), and memstore
// (volatile, always available). Exactly one backend is active at any
// time; capacity and transient failures against the active backend are
// retried against the next lower-priority candidate before surfacing.
//
// @req RQ-0301, RQ-0302
// @design DS-0301
package storage
