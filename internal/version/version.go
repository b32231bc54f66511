package version

import "fmt"

// Version is set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/smartcart/internal/version.Version=v0.3.0".
var Version = "unknown"

// Build metadata, also injected through ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version and logged at daemon start.
func String() string {
	return fmt.Sprintf("smartcart %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
