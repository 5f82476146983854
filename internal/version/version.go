// Package version holds build metadata injected with ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/manuscript/internal/version.Version=v0.3.0"
package version

import "fmt"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String renders the version line printed by `manuscript --version`.
func String() string {
	if GitCommit == "unknown" {
		return fmt.Sprintf("manuscript %s", Version)
	}
	commit := GitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("manuscript %s (%s, built %s)", Version, commit, BuildTime)
}
