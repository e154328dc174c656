// Package buildinfo exposes the version stamped into strata binaries.
//
// Release builds inject the values through ldflags:
//
//	go build -ldflags "\
//	  -X github.com/yndnr/strata-go/internal/infra/buildinfo.Version=1.2.0 \
//	  -X github.com/yndnr/strata-go/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/yndnr/strata-go/internal/infra/buildinfo.BuildTime=$(date -u +%FT%TZ)"
//
// Unstamped development builds report 0.0.0-dev.
//
// @design DS-0601
package buildinfo
