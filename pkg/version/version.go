// Package version holds build metadata for repofilter.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	Version   string // Set via ldflags.
	Branch    string
	BuildUser string
	BuildDate string

	Revision  = getRevision()
	GoVersion = runtime.Version()
	GoOS      = runtime.GOOS
	GoArch    = runtime.GOARCH
)

// GetVersion returns the release version, or the VCS revision for
// development builds.
func GetVersion() string {
	if Version != "" {
		return Version
	}

	return Revision
}

// Summary describes the build, e.g. for `repofilter --version` output.
func Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (%s %s/%s", GetVersion(), GoVersion, GoOS, GoArch)

	if Branch != "" {
		fmt.Fprintf(&b, ", branch %s", Branch)
	}

	if BuildDate != "" {
		fmt.Fprintf(&b, ", built %s", BuildDate)

		if BuildUser != "" {
			fmt.Fprintf(&b, " by %s", BuildUser)
		}
	}

	b.WriteString(")")

	return b.String()
}

func getRevision() string {
	rev := "unknown"

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return rev
	}

	modified := false

	for _, v := range buildInfo.Settings {
		switch v.Key {
		case "vcs.revision":
			if len(v.Value) > 7 {
				rev = v.Value[:7]
			} else {
				rev = v.Value
			}

		case "vcs.modified":
			if v.Value == "true" {
				modified = true
			}
		}
	}

	if modified {
		return rev + "-dirty"
	}

	return rev
}
