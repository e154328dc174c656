// Package domain defines the core domain models for Strata.
//
// It contains the storage entry model, the decoded value types carried
// through the codec pipeline, the event model, and the structured error
// taxonomy shared by every layer.
//
// @req RQ-0101, RQ-0104
// @design DS-0101
package domain
