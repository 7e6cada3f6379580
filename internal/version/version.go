// Package version provides build-time version information for mcr.
package version

// These variables are set at build time via ldflags:
//
//	-X github.com/open-cli-collective/macro-cli/internal/version.Version=...
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
