// Package version holds build metadata for the gxpc CLI.
// The variables can be overridden at build time via -ldflags.
package version

import (
	"runtime/debug"
	"strings"

	"github.com/fatih/color"
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit and BuildDate are set by release builds. Other builds fall
	// back to the VCS stamp the go command embeds.
	GitCommit = ""
	BuildDate = ""
)

// Build describes the running binary.
type Build struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
	// Modified is set when the VCS stamp says the tree was dirty.
	Modified bool
}

// Current resolves build metadata for this binary.
func Current() Build {
	bi, _ := debug.ReadBuildInfo()
	return resolve(bi)
}

func resolve(bi *debug.BuildInfo) Build {
	b := Build{
		Version: strings.TrimSpace(Version),
		Commit:  strings.TrimSpace(GitCommit),
		Date:    strings.TrimSpace(BuildDate),
	}
	if b.Version == "" {
		b.Version = "dev"
	}
	if bi == nil {
		return b
	}
	b.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "" {
				b.Commit = s.Value
			}
		case "vcs.time":
			if b.Date == "" {
				b.Date = s.Value
			}
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}
	return b
}

// Colored renders Version with each numeric component in its own color.
// Color output follows fatih/color's global switch.
func Colored() string {
	v := strings.TrimSpace(Version)
	if v == "" {
		return "dev"
	}
	core, suffix := v, ""
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		core, suffix = v[:i], v[i:]
	}
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return v
	}
	return versionMajorColor.Sprint(parts[0]) + "." +
		versionMinorColor.Sprint(parts[1]) + "." +
		versionPatchColor.Sprint(parts[2]) + suffix
}
