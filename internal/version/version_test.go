package version

import (
	"os"
	"runtime/debug"
	"testing"

	"github.com/fatih/color"
)

func TestResolve(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate }()

	stamp := &debug.BuildInfo{
		GoVersion: "go1.25.1",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123abcd"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	tests := []struct {
		name            string
		version, commit string
		bi              *debug.BuildInfo
		want            Build
	}{
		{"no stamp", "", "", nil, Build{Version: "dev"}},
		{"vcs stamp", "0.2.0", "", stamp, Build{
			Version: "0.2.0", Commit: "0123abcd", Date: "2026-01-02T03:04:05Z",
			GoVersion: "go1.25.1", Modified: true,
		}},
		// ldflags win over the stamp
		{"ldflags", "1.2.3", "feedbeef", stamp, Build{
			Version: "1.2.3", Commit: "feedbeef", Date: "2026-01-02T03:04:05Z",
			GoVersion: "go1.25.1", Modified: true,
		}},
	}
	for _, tt := range tests {
		Version, GitCommit, BuildDate = tt.version, tt.commit, ""
		if got := resolve(tt.bi); got != tt.want {
			t.Errorf("%s: resolve = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestColoredWithoutColor(t *testing.T) {
	origVersion, origNoColor := Version, color.NoColor
	defer func() { Version, color.NoColor = origVersion, origNoColor }()
	color.NoColor = true

	tests := []struct {
		version, want string
	}{
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3-rc.1+build.123", "1.2.3-rc.1+build.123"},
		{"2.0.0", "2.0.0"},
		{"nightly", "nightly"},
		{"  ", "dev"},
	}
	for _, tt := range tests {
		Version = tt.version
		if got := Colored(); got != tt.want {
			t.Errorf("Colored(%q) = %q, want %q", tt.version, got, tt.want)
		}
	}
}

func TestColoredKeepsSuffix(t *testing.T) {
	if os.Getenv("NO_COLOR") != "" {
		t.Skip("NO_COLOR is set")
	}
	origVersion, origNoColor := Version, color.NoColor
	defer func() { Version, color.NoColor = origVersion, origNoColor }()
	color.NoColor = false

	Version = "1.2.3-beta"
	got := Colored()
	if got == "1.2.3-beta" {
		t.Fatalf("expected colored output")
	}
	if got[len(got)-5:] != "-beta" {
		t.Fatalf("Colored() = %q, suffix lost", got)
	}
}
