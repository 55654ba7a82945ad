package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X github.com/MrSnakeDoc/pinmap/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

// String is the one-line build summary printed by "pinmap version".
func String() string {
	return fmt.Sprintf("pinmap %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
