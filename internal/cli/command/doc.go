// Package command provides CLI command definitions for Strata.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: Root command, global flags, engine bootstrap
//   - inspect.go: Store content inspection
//   - archive.go: Export and import of store archives
//   - visualize.go: Key-space overview by model
//   - benchmark.go: Storage throughput measurement
//
// Commands follow a consistent pattern of parsing flags, opening the
// configured store, running one operation, and formatting output.
//
// @req RQ-0602
// @design DS-0601
package command
