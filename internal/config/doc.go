// Package config provides configuration for Strata.
//
// The package splits into:
//
//   - spec.go: Config struct definition
//   - default.go: default values and built-in profiles
//   - verify.go: business validation
//   - sanitize.go: log sanitization (hide the passphrase)
//   - loader.go: koanf-based loading (env > file > default)
//   - watcher.go: fsnotify-based hot reload
//
// @req RQ-0502
// @design DS-0501
package config
