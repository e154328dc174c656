package config

import (
	"errors"
	"fmt"
)

var knownBackends = map[string]bool{"badger": true, "file": true, "memory": true}
var knownSerializers = map[string]bool{"text": true, "binary": true}
var knownCompressors = map[string]bool{"none": true, "snappy": true}
var knownSafeModes = map[string]bool{"off": true, "advisory": true, "strict": true}

// Verify validates the configuration. It is called after ApplyProfile
// so presets are validated too.
func Verify(cfg *Config) error {
	if len(cfg.Storage.Backends) == 0 {
		return errors.New("storage.backends must list at least one backend")
	}
	needsDataDir := false
	for _, b := range cfg.Storage.Backends {
		if !knownBackends[b] {
			return fmt.Errorf("storage.backends: unknown backend %q", b)
		}
		if b == "badger" || b == "file" {
			needsDataDir = true
		}
	}
	if needsDataDir && cfg.Storage.DataDir == "" {
		return errors.New("storage.data_dir is required for persistent backends")
	}
	if cfg.Storage.FileMaxBytes < 0 {
		return errors.New("storage.file_max_bytes must not be negative")
	}

	if !knownSerializers[cfg.Codec.Serializer] {
		return fmt.Errorf("codec.serializer: unknown strategy %q", cfg.Codec.Serializer)
	}
	if !knownCompressors[cfg.Codec.Compressor] {
		return fmt.Errorf("codec.compressor: unknown strategy %q", cfg.Codec.Compressor)
	}

	if cfg.Cache.TTL < 0 {
		return errors.New("cache.ttl must not be negative")
	}

	if !knownSafeModes[cfg.Engine.SafeMode] {
		return fmt.Errorf("engine.safe_mode: must be off, advisory or strict, got %q", cfg.Engine.SafeMode)
	}
	if cfg.Engine.RetryAttempts < 0 {
		return errors.New("engine.retry_attempts must not be negative")
	}

	return nil
}
