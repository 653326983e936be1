package buildinfo

import (
	"fmt"
	"time"
)

// Set via -ldflags at build time
var (
	Version    = "dev"
	BuildTime  string // when the binary was compiled
	CommitHash string // short git commit hash
)

// StartTime is recorded when the process starts
var StartTime = time.Now().UTC().Format(time.RFC3339)

// String describes the running binary
func String() string {
	if CommitHash == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s, built %s)", Version, CommitHash, BuildTime)
}
