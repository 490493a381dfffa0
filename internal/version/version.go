// Package version holds build-time metadata injected via -ldflags, e.g.
//
//	-X tweetdash/internal/version.Version=v0.3.0 -X tweetdash/internal/version.Commit=abc1234
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is a SemVer tag like v1.2.3 for releases. Empty for dev builds.
	Version = ""
	// Commit is the short git SHA for the build.
	Commit = ""
	// Date is the UTC build timestamp in RFC3339 format.
	Date = ""
	// Dirty is "dirty" when the working tree had uncommitted changes.
	Dirty = ""
)

// String returns a compact version: the release tag, "dev-<sha>" (with a
// trailing "*" when dirty) or "dev".
func String() string {
	if Version != "" {
		return Version
	}
	if Commit != "" {
		suffix := Commit
		if Dirty == "dirty" {
			suffix += "*"
		}
		return "dev-" + suffix
	}
	return "dev"
}

// Info is the metadata reported by `tweetdash version` and /healthz.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
	Go      string `json:"go"`
}

func Get() Info {
	return Info{Version: String(), Commit: Commit, Date: Date, Go: runtime.Version()}
}

// Long renders Info on one line.
func Long() string {
	info := Get()
	out := "tweetdash " + info.Version
	if info.Commit != "" {
		out += fmt.Sprintf(" (commit %s", info.Commit)
		if info.Date != "" {
			out += ", built " + info.Date
		}
		out += ")"
	}
	return out + " " + info.Go
}
