package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gxpc/internal/diag"
	"gxpc/internal/source"
)

func write(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const full = `
[project]
name = "demo"
sources = ["templates", "shared/widgets"]

[diagnostics]
warnings_as_errors = true
max = 20
[diagnostics.severity]
VAL5010 = "warning"
BND1001 = "info"

[[schema]]
name = "xml"
content_type = "text/xml"
allows = ["html"]
`

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	want := write(t, root, full)
	deep := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := Find(deep)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got != want {
		t.Fatalf("Find = %q, want %q", got, want)
	}
}

func TestFindNotFound(t *testing.T) {
	// временный каталог может лежать под чужим gxpc.toml только в очень
	// странном окружении
	_, err := Find(t.TempDir())
	if err != nil && !errors.Is(err, ErrNotFound) {
		t.Fatalf("Find: %v", err)
	}
}

func TestLoadFull(t *testing.T) {
	root := t.TempDir()
	p, err := Load(write(t, root, full))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Name != "demo" || p.Root != root {
		t.Fatalf("project = %+v", p)
	}
	wantSources := []string{filepath.Join(root, "templates"), filepath.Join(root, "shared", "widgets")}
	if len(p.Sources) != 2 || p.Sources[0] != wantSources[0] || p.Sources[1] != wantSources[1] {
		t.Fatalf("sources = %v", p.Sources)
	}
	if !p.Diagnostics.WarningsAsErrors || p.Diagnostics.Max != 20 {
		t.Fatalf("diagnostics = %+v", p.Diagnostics)
	}
	if p.Diagnostics.Severity[diag.ValMissingAttribute] != diag.SevWarning ||
		p.Diagnostics.Severity[diag.BindCallableNotFound] != diag.SevInfo {
		t.Fatalf("severity = %v", p.Diagnostics.Severity)
	}

	pol := p.Policy()
	d := diag.NewWarning(diag.BindCallableNotFound, source.UnknownPos, "x")
	if got := pol.Severity(d); got != diag.SevInfo {
		t.Fatalf("override severity = %v", got)
	}

	reg, err := p.Registry()
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}
	if _, ok := reg.ByName("xml"); !ok {
		t.Fatalf("xml schema not registered")
	}
	if _, ok := reg.ByName("html"); !ok {
		t.Fatalf("built-ins missing")
	}
}

func TestLoadDefaultsSourcesToRoot(t *testing.T) {
	root := t.TempDir()
	p, err := Load(write(t, root, "[project]\nname = \"x\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.Sources) != 1 || p.Sources[0] != root {
		t.Fatalf("sources = %v", p.Sources)
	}
	if p.Policy().WarningsAsErrors {
		t.Fatalf("unexpected warnings_as_errors")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"no project", "[diagnostics]\nmax = 1\n", "missing [project]"},
		{"no name", "[project]\nsources = []\n", "missing [project].name"},
		{"bad toml", "[project\n", "failed to parse TOML"},
		{"unknown key", "[project]\nname = \"x\"\ncolour = \"red\"\n", "unknown key"},
		{"bad code", "[project]\nname = \"x\"\n[diagnostics.severity]\nXYZ = \"info\"\n", "[diagnostics.severity]"},
		{"bad severity", "[project]\nname = \"x\"\n[diagnostics.severity]\nVAL5010 = \"fatal\"\n", "invalid severity"},
		{"negative max", "[project]\nname = \"x\"\n[diagnostics]\nmax = -1\n", "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, t.TempDir(), tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestRegistryRejectsDuplicateSchema(t *testing.T) {
	body := "[project]\nname = \"x\"\n[[schema]]\nname = \"html\"\ncontent_type = \"text/other\"\n"
	p, err := Load(write(t, t.TempDir(), body))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := p.Registry(); err == nil {
		t.Fatalf("expected a duplicate schema error")
	}
}
