// Package main provides the entry point for strata-cli.
//
// The CLI tool provides command-line access to a Strata store for:
//
//   - Content inspection (inspect, visualize)
//   - Archive export and import in text, lines and binary formats
//   - Storage benchmarking
//
// Usage:
//
//	strata-cli [command] [flags]
//	strata-cli inspect --data-dir /var/lib/strata/data
//	strata-cli export backup.json --format text
//	strata-cli import backup.json
//
// Every invocation exits 0 on success and 1 on any failure.
//
// @design DS-0601
package main
