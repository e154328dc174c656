// Build metadata for strata binaries.
package buildinfo

import (
	"fmt"
	"runtime"
)

// Stamped at build time via ldflags; see the package doc.
var (
	// Version is the semantic version of the release.
	Version = "0.0.0-dev"

	// Commit is the short git hash the binary was built from.
	Commit = "unknown"

	// BuildTime is the RFC 3339 timestamp of the build.
	BuildTime = "unknown"
)

// Info is the version surface shown by strata-cli --version.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns the stamped build information. GoVersion comes from the
// running runtime rather than an ldflag, so it is always accurate.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// String renders the one-line form used for --version output.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime)
}
