package app

import (
	"fmt"
	"runtime"
)

// Version, Commit, and BuildTime are set via ldflags at build time.
// Example: go build -ldflags "-X github.com/heartmarshall/vocab-harvester/internal/app.Version=1.0.0"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildVersion returns a formatted version string for `harvester version`,
// startup logs and the /health endpoint.
func BuildVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, %s)", Version, Commit, BuildTime, runtime.Version())
}
