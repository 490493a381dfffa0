// Package utils contains utility types for logging and filesystem path
// management used throughout tweetdash.
package utils

import (
	"os"
	"path/filepath"
)

// Paths resolves filesystem locations used by tweetdash.
type Paths struct {
	RootPath string `json:"root_path"`
}

// NewPaths constructs Paths rooted at the specified directory.
func NewPaths(rootPath string) *Paths {
	return &Paths{RootPath: rootPath}
}

// ExecutablePaths roots Paths next to the running executable, falling back
// to a directory under the system temp dir.
func ExecutablePaths() *Paths {
	exe, err := os.Executable()
	if err == nil {
		if resolved, rerr := filepath.EvalSymlinks(exe); rerr == nil && resolved != "" {
			exe = resolved
		}
		return NewPaths(filepath.Dir(exe))
	}
	return NewPaths(filepath.Join(os.TempDir(), "tweetdash"))
}

// LogsDir returns the logs directory.
func (p *Paths) LogsDir() string {
	return filepath.Join(p.RootPath, "logs")
}

// LogFile returns the main log file path.
func (p *Paths) LogFile() string {
	return filepath.Join(p.LogsDir(), "tweetdash.log")
}
