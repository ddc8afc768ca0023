// Package version carries build metadata set through ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/sitemigrator/internal/version.Version=v0.3.0"
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	Version   = "unknown"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version. When no ldflags
// were given the module version from the build info is used.
func String() string {
	v := Version
	if v == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	return fmt.Sprintf("sitemigrator %s (commit %s, built %s)", v, GitCommit, BuildTime)
}
