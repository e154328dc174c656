package config

import "strings"

// Sanitize returns a copy of the config with sensitive fields masked,
// for logging the effective configuration at startup.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg
	if sanitized.Codec.Passphrase != "" {
		sanitized.Codec.Passphrase = maskSecret(sanitized.Codec.Passphrase)
	}
	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
