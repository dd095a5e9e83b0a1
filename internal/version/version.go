// Package version provides application version and build info.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the release version, overridden via ldflags at build time.
var Version = "dev"

// GetInfo returns the version, with the short VCS revision appended when the
// binary carries build info.
func GetInfo() string {
	commit := ""
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				commit = setting.Value
			}
		}
	}
	if commit == "" {
		return Version
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("%s (%s)", Version, commit)
}
