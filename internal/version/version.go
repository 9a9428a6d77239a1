// Package version carries build metadata set through -ldflags -X. Stored
// reports are stamped with Version.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata for the version command.
func String() string {
	return fmt.Sprintf("srt %s (git %s, built %s)", Version, GitSHA, BuildTime)
}
