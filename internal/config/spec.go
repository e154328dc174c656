package config

import "time"

// Config is the root configuration for Strata.
type Config struct {
	Storage StorageSection `koanf:"storage"`
	Codec   CodecSection   `koanf:"codec"`
	Cache   CacheSection   `koanf:"cache"`
	Engine  EngineSection  `koanf:"engine"`
	Log     LogSection     `koanf:"log"`

	// Profile selects a named preset overriding the codec, cache and
	// retry settings. Empty means no preset.
	Profile string `koanf:"profile"`

	// Profiles holds additional presets beyond the built-in ones.
	Profiles map[string]Profile `koanf:"profiles"`
}

// StorageSection configures the backend candidates.
type StorageSection struct {
	// DataDir is the root directory for persistent backends. The
	// indexed store lives in data_dir/index, the simple store in
	// data_dir/strata.json.
	DataDir string `koanf:"data_dir"`

	// Backends lists candidates in priority order. Known names are
	// "badger", "file" and "memory".
	Backends []string `koanf:"backends"`

	// FileMaxBytes caps the simple file store; zero keeps its default.
	FileMaxBytes int64 `koanf:"file_max_bytes"`
}

// CodecSection configures the value pipeline.
type CodecSection struct {
	// Serializer is "text" (JSON) or "binary" (MessagePack).
	Serializer string `koanf:"serializer"`

	// Compressor is "none" or "snappy".
	Compressor string `koanf:"compressor"`

	// Passphrase enables payload encryption when non-empty.
	Passphrase string `koanf:"passphrase"`
}

// CacheSection configures the read cache.
type CacheSection struct {
	// TTL bounds cache staleness; zero keeps the default window.
	TTL time.Duration `koanf:"ttl"`

	// Disabled turns the read cache off entirely.
	Disabled bool `koanf:"disabled"`
}

// EngineSection configures orchestration behavior.
type EngineSection struct {
	// Namespace isolates this instance's keys on a shared backend.
	Namespace string `koanf:"namespace"`

	// SafeMode is "off", "advisory" or "strict".
	SafeMode string `koanf:"safe_mode"`

	// RetryAttempts retries an operation after backend fallback has
	// been exhausted with a recoverable error.
	RetryAttempts int `koanf:"retry_attempts"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Profile is a named settings preset. Zero-valued fields leave the
// corresponding setting untouched.
type Profile struct {
	Serializer    string        `koanf:"serializer"`
	Compressor    string        `koanf:"compressor"`
	CacheTTL      time.Duration `koanf:"cache_ttl"`
	RetryAttempts int           `koanf:"retry_attempts"`
}
