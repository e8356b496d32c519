// Package config reads the gxpc.toml project file.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"gxpc/internal/diag"
	"gxpc/internal/schema"
)

// FileName is the project file looked up by Find.
const FileName = "gxpc.toml"

// ErrNotFound is returned by Find when no project file exists up to the
// filesystem root.
var ErrNotFound = errors.New("no " + FileName + " found")

// Project is a loaded project file.
type Project struct {
	// Path is the project file; Root is its directory.
	Path string
	Root string

	Name    string
	Sources []string

	Diagnostics Diagnostics
	Schemas     []schema.Def
}

// Diagnostics holds the [diagnostics] table.
type Diagnostics struct {
	WarningsAsErrors bool
	Verbose          bool
	Max              int
	Severity         map[diag.Code]diag.Severity
}

type fileConfig struct {
	Project struct {
		Name    string   `toml:"name"`
		Sources []string `toml:"sources"`
	} `toml:"project"`
	Diagnostics struct {
		WarningsAsErrors bool              `toml:"warnings_as_errors"`
		Verbose          bool              `toml:"verbose"`
		Max              int               `toml:"max"`
		Severity         map[string]string `toml:"severity"`
	} `toml:"diagnostics"`
	Schemas []schema.Def `toml:"schema"`
}

// Find walks up from startDir to locate gxpc.toml.
func Find(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Discover finds and loads the project file above startDir.
func Discover(startDir string) (*Project, error) {
	path, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Load decodes the project file at path. Source directories are resolved
// against the file's directory; without "sources" the directory itself is
// scanned.
func Load(path string) (*Project, error) {
	var fc fileConfig
	meta, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if !meta.IsDefined("project") {
		return nil, fmt.Errorf("%s: missing [project]", path)
	}
	if !meta.IsDefined("project", "name") || strings.TrimSpace(fc.Project.Name) == "" {
		return nil, fmt.Errorf("%s: missing [project].name", path)
	}
	if fc.Diagnostics.Max < 0 {
		return nil, fmt.Errorf("%s: [diagnostics].max must not be negative", path)
	}

	root := filepath.Dir(path)
	p := &Project{
		Path: path,
		Root: root,
		Name: strings.TrimSpace(fc.Project.Name),
		Diagnostics: Diagnostics{
			WarningsAsErrors: fc.Diagnostics.WarningsAsErrors,
			Verbose:          fc.Diagnostics.Verbose,
			Max:              fc.Diagnostics.Max,
		},
		Schemas: fc.Schemas,
	}
	if !meta.IsDefined("project", "sources") {
		p.Sources = []string{root}
	}
	for _, src := range fc.Project.Sources {
		if strings.TrimSpace(src) == "" {
			return nil, fmt.Errorf("%s: empty entry in [project].sources", path)
		}
		p.Sources = append(p.Sources, filepath.Join(root, filepath.FromSlash(src)))
	}

	if len(fc.Diagnostics.Severity) > 0 {
		p.Diagnostics.Severity = make(map[diag.Code]diag.Severity, len(fc.Diagnostics.Severity))
		// ключи сортируем, чтобы ошибка была детерминированной
		for _, key := range slices.Sorted(maps.Keys(fc.Diagnostics.Severity)) {
			code, err := diag.ParseCode(key)
			if err != nil {
				return nil, fmt.Errorf("%s: [diagnostics.severity]: %w", path, err)
			}
			sev, err := diag.ParseSeverity(fc.Diagnostics.Severity[key])
			if err != nil {
				return nil, fmt.Errorf("%s: [diagnostics.severity].%s: %w", path, key, err)
			}
			p.Diagnostics.Severity[code] = sev
		}
	}
	return p, nil
}

// Policy builds the severity policy the project asks for.
func (p *Project) Policy() diag.DefaultPolicy {
	if p == nil {
		return diag.DefaultPolicy{}
	}
	return diag.DefaultPolicy{
		Overrides:        p.Diagnostics.Severity,
		WarningsAsErrors: p.Diagnostics.WarningsAsErrors,
	}
}

// Registry returns the built-in schemas plus the project's own.
func (p *Project) Registry() (*schema.Registry, error) {
	reg := schema.Builtin()
	if p == nil || len(p.Schemas) == 0 {
		return reg, nil
	}
	if err := reg.Register(p.Schemas...); err != nil {
		return nil, fmt.Errorf("%s: %w", p.Path, err)
	}
	return reg, nil
}
