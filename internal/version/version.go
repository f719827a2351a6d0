package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// String returns version information populated via -ldflags.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}
