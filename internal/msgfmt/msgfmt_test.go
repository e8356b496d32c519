package msgfmt

import (
	"sync"
	"testing"

	"golang.org/x/text/language"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		pattern string
		args    []string
		want    string
	}{
		{"plain", nil, "plain"},
		{"100%% sure", nil, "100% sure"},
		{"Hi %1, bye %1", []string{"Ann"}, "Hi Ann, bye Ann"},
		{"%2 before %1", []string{"a", "b"}, "b before a"},
		{"50% off", nil, "50% off"},
		{"trailing %", nil, "trailing %"},
		{"%0 stays", nil, "%0 stays"},
		{"extra %1", []string{"x", "ignored"}, "extra x"},
	}
	for _, tt := range tests {
		got, err := Parse(tt.pattern).Expand(tt.args...)
		if err != nil {
			t.Errorf("%q: %v", tt.pattern, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: got %q, want %q", tt.pattern, got, tt.want)
		}
	}
}

func TestExpandMissingArgument(t *testing.T) {
	f := Parse("%1 and %3")
	if f.Args != 3 {
		t.Fatalf("Args = %d, want 3", f.Args)
	}
	if _, err := f.Expand("a", "b"); err == nil {
		t.Fatal("expected error for missing %3")
	}
}

func TestCacheIsPerLocale(t *testing.T) {
	c := NewCache()
	en := language.MustParse("en-US")
	fr := language.MustParse("fr")

	a := c.Get(en, "Hi %1")
	if b := c.Get(en, "Hi %1"); a != b {
		t.Error("same locale and pattern should hit the cache")
	}
	c.Get(fr, "Hi %1")
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	got, err := c.Expand(fr, "Salut %1", "Léa")
	if err != nil || got != "Salut Léa" {
		t.Errorf("Expand = %q, %v", got, err)
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := NewCache()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Get(language.English, "%1%%")
		}()
	}
	wg.Wait()
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}
