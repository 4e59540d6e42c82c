// Package buildinfo holds version metadata stamped at link time:
//
//	go build -ldflags "-X github.com/ecompta-dev/ecompta/internal/buildinfo.Version=v0.3.0"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String is the version line shown by `ecompta --version`.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
