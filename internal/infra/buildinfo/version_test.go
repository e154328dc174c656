package buildinfo

import (
	"fmt"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version == "" || info.Commit == "" || info.BuildTime == "" {
		t.Fatalf("build info has empty fields: %+v", info)
	}
	if !strings.HasPrefix(info.GoVersion, "go") {
		t.Fatalf("go version = %q, want a runtime version", info.GoVersion)
	}
}

func TestString(t *testing.T) {
	want := fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime)
	if got := String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
