// Package buildinfo provides build-time version information.
//
// Variables are set via ldflags during build:
//
//	go build -ldflags "-X github.com/matzehuels/pepedot/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/pepedot/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/pepedot/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	// Version is the semantic version (e.g., "v1.2.3").
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// ArchiveFormat is written into the version banner so users can tell which
// archive layout a binary produces. Kept in sync with archive.FormatVersion
// by TestArchiveFormat.
const ArchiveFormat = 3

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s\narchive format: %d", Version, Commit, Date, ArchiveFormat)
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\narchive format: %d\n", Version, Commit, Date, ArchiveFormat)
}
