// Package engine is the orchestration layer of Strata. It composes the
// backend selector, the codec pipeline, the read cache, the migration
// registry, the snapshot manager and the peer-sync transport behind a
// single facade, and owns the cross-cutting concerns around every
// operation: lifecycle hooks, event dispatch, audit trail, metrics,
// safe-mode validation and conflict handling for inbound peer state.
//
// @req RQ-0401, RQ-0402, RQ-0404
// @design DS-0401
package engine
