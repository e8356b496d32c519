package diagfmt

import (
	"path/filepath"

	"gxpc/internal/diag"
	"gxpc/internal/source"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto shows paths relative to BaseDir when they live below it.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// ParsePathMode converts a flag value to a PathMode.
func ParsePathMode(s string) (PathMode, bool) {
	switch s {
	case "", "auto":
		return PathModeAuto, true
	case "absolute":
		return PathModeAbsolute, true
	case "relative":
		return PathModeRelative, true
	case "basename":
		return PathModeBasename, true
	}
	return PathModeAuto, false
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color    bool
	PathMode PathMode
	BaseDir  string
	// Files supplies source lines for context; nil disables the excerpt.
	Files     *source.FileSet
	ShowNotes bool
	// Policy decides the displayed severity; nil shows the default one.
	Policy diag.Policy
	Max    int
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode     PathMode
	BaseDir      string
	Max          int // обрезка вывода, не Set
	IncludeNotes bool
	Policy       diag.Policy
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
}

func displayPath(path string, mode PathMode, baseDir string) string {
	if path == "" {
		return ""
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return filepath.ToSlash(abs)
		}
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeRelative, PathModeAuto:
		if baseDir != "" {
			if rel, err := source.RelativePath(path, baseDir); err == nil {
				return rel
			}
		}
	}
	return filepath.ToSlash(path)
}

func limit(items []diag.Diagnostic, maxItems int) []diag.Diagnostic {
	if maxItems > 0 && maxItems < len(items) {
		return items[:maxItems]
	}
	return items
}
