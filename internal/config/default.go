package config

import "time"

// Default configuration values.
const (
	DefaultDataDir = "/var/lib/strata/data"

	DefaultSerializer = "text"
	DefaultCompressor = "none"

	DefaultCacheTTL = 5 * time.Second

	DefaultSafeMode      = "off"
	DefaultRetryAttempts = 1

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Storage: StorageSection{
			DataDir:  DefaultDataDir,
			Backends: []string{"badger", "file", "memory"},
		},
		Codec: CodecSection{
			Serializer: DefaultSerializer,
			Compressor: DefaultCompressor,
		},
		Cache: CacheSection{
			TTL: DefaultCacheTTL,
		},
		Engine: EngineSection{
			SafeMode:      DefaultSafeMode,
			RetryAttempts: DefaultRetryAttempts,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// builtinProfiles are always resolvable, regardless of the file.
var builtinProfiles = map[string]Profile{
	// compact trades CPU for payload size.
	"compact": {
		Serializer: "binary",
		Compressor: "snappy",
	},
	// throughput favors hot reads over freshness.
	"throughput": {
		Serializer: "binary",
		CacheTTL:   30 * time.Second,
	},
	// strictness favors convergence over speed.
	"strictness": {
		CacheTTL:      time.Millisecond,
		RetryAttempts: 3,
	},
}

// ResolveProfile finds a named profile among the built-ins and the
// configured extras, extras taking priority.
func (c *Config) ResolveProfile(name string) (Profile, bool) {
	if p, ok := c.Profiles[name]; ok {
		return p, true
	}
	p, ok := builtinProfiles[name]
	return p, ok
}

// ApplyProfile overlays the selected profile onto the config. A config
// without a profile is returned unchanged.
func (c *Config) ApplyProfile() error {
	if c.Profile == "" {
		return nil
	}
	p, ok := c.ResolveProfile(c.Profile)
	if !ok {
		return &UnknownProfileError{Name: c.Profile}
	}
	if p.Serializer != "" {
		c.Codec.Serializer = p.Serializer
	}
	if p.Compressor != "" {
		c.Codec.Compressor = p.Compressor
	}
	if p.CacheTTL != 0 {
		c.Cache.TTL = p.CacheTTL
	}
	if p.RetryAttempts != 0 {
		c.Engine.RetryAttempts = p.RetryAttempts
	}
	return nil
}

// UnknownProfileError reports a profile name with no definition.
type UnknownProfileError struct {
	Name string
}

func (e *UnknownProfileError) Error() string {
	return "unknown profile: " + e.Name
}
