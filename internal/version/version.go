// Package version holds build metadata injected with -ldflags.
package version

import "fmt"

// Set at build time:
//
//	go build -ldflags "-X github.com/ckiertz4887/website-roast/internal/version.Version=v1.2.0 ..."
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns a single human-readable line
func Info() string {
	return fmt.Sprintf("website-roast %s (commit: %s, built: %s)", Version, Commit, Date)
}

// UserAgent is sent on every upstream request.
func UserAgent() string {
	return "website-roast/" + Version
}
