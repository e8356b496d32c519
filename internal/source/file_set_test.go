package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("unit.gxp.json", []byte("hello world"), 0)
	id2 := fs.Add("unit.gxp.json", []byte("hello universe"), 0)
	if id1 != 0 || id2 != 1 {
		t.Fatalf("unexpected ids: %d, %d", id1, id2)
	}

	// Индекс указывает на последнюю версию
	latest, ok := fs.GetLatest("unit.gxp.json")
	if !ok || latest != id2 {
		t.Fatalf("expected latest id %d, got %d (ok=%v)", id2, latest, ok)
	}
	if string(fs.Get(id1).Content) != "hello world" {
		t.Errorf("old version must stay readable")
	}
	if fs.Get(FileID(42)) != nil {
		t.Errorf("expected nil for unknown id")
	}
}

func TestFileSetPosAt(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("mem.json", []byte("ab\ncd\nef"))

	got := fs.PosAt(id, 4, 7)
	want := Pos{Path: "mem.json", Line: 2, Col: 2, EndLine: 3, EndCol: 2}
	if got != want {
		t.Fatalf("want %+v, got %+v", want, got)
	}
	if line := fs.Get(id).GetLine(2); line != "cd" {
		t.Fatalf("GetLine(2) = %q", line)
	}
}

func TestFileSetLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.json")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFa\r\nb"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a\nb" {
		t.Fatalf("unexpected content %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("expected BOM and CRLF flags, got %b", f.Flags)
	}
}

func TestGetLineEdges(t *testing.T) {
	fs := NewFileSetWithBase("/work")
	id := fs.AddVirtual("a.json", []byte("one\ntwo\n"))
	f := fs.Get(id)
	tests := []struct {
		n    uint32
		want string
	}{
		{0, ""},
		{1, "one"},
		{2, "two"},
		{3, ""},
		{9, ""},
	}
	for _, tt := range tests {
		if got := f.GetLine(tt.n); got != tt.want {
			t.Errorf("GetLine(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
	if line, ok := fs.Line("./a.json", 2); !ok || line != "two" {
		t.Errorf("Line = %q, %v", line, ok)
	}
	if _, ok := fs.Line("b.json", 1); ok {
		t.Error("unknown path should not resolve")
	}
	if fs.BaseDir() != "/work" || f.Flags&FileVirtual == 0 {
		t.Error("base dir or virtual flag lost")
	}
}

func TestFileSetConcurrentLoad(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileSet()
	var wg sync.WaitGroup
	for i := range 8 {
		path := filepath.Join(dir, fmt.Sprintf("u%d.json", i))
		if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := fs.Load(path); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if fs.Len() != 8 {
		t.Fatalf("Len = %d, want 8", fs.Len())
	}
}
