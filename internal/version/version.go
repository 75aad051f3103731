// Package version holds build information stamped in with -ldflags.
package version

import "fmt"

// Set with -ldflags "-X smarter-scale/internal/version.Version=..."
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the build information for a -version flag.
func String(name string) string {
	return fmt.Sprintf("%s %s (%s, built %s)", name, Version, GitCommit, BuildTime)
}
