// Package msgfmt expands extracted message patterns at render time.
//
// A pattern is text in which "%1".."%9" stand for positional arguments and
// "%%" for a literal percent sign. Any other '%' is kept as is.
package msgfmt

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Fragment is a piece of a parsed pattern: literal text, or the 1-based
// index of an argument.
type Fragment struct {
	Text string
	Arg  int
}

// Format is a parsed pattern.
type Format struct {
	Pattern   string
	Fragments []Fragment
	// Args is the highest argument index referenced.
	Args int
}

// Parse splits pattern into fragments. It never fails: malformed escapes
// stay literal.
func Parse(pattern string) *Format {
	f := &Format{Pattern: pattern}
	var sb strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' || i+1 == len(pattern) {
			sb.WriteByte(c)
			continue
		}
		next := pattern[i+1]
		switch {
		case next == '%':
			sb.WriteByte('%')
			i++
		case next >= '1' && next <= '9':
			if sb.Len() > 0 {
				f.Fragments = append(f.Fragments, Fragment{Text: sb.String()})
				sb.Reset()
			}
			n := int(next - '0')
			f.Fragments = append(f.Fragments, Fragment{Arg: n})
			f.Args = max(f.Args, n)
			i++
		default:
			sb.WriteByte(c)
		}
	}
	if sb.Len() > 0 {
		f.Fragments = append(f.Fragments, Fragment{Text: sb.String()})
	}
	return f
}

// Expand substitutes args into the pattern. Extra arguments are ignored.
func (f *Format) Expand(args ...string) (string, error) {
	if len(args) < f.Args {
		return "", fmt.Errorf("parameter %%%d not supplied for %q", len(args)+1, f.Pattern)
	}
	var sb strings.Builder
	for _, fr := range f.Fragments {
		if fr.Arg > 0 {
			sb.WriteString(args[fr.Arg-1])
		} else {
			sb.WriteString(fr.Text)
		}
	}
	return sb.String(), nil
}

type key struct {
	locale  string
	pattern string
}

// Cache memoizes parsed patterns per locale. The zero value is not usable;
// create one with NewCache and pass it to whoever renders messages.
type Cache struct {
	mu sync.RWMutex
	m  map[key]*Format
}

func NewCache() *Cache {
	return &Cache{m: make(map[key]*Format)}
}

// Get returns the parsed form of pattern for the given locale, parsing it on
// first use.
func (c *Cache) Get(tag language.Tag, pattern string) *Format {
	k := key{locale: tag.String(), pattern: pattern}
	c.mu.RLock()
	f, ok := c.m[k]
	c.mu.RUnlock()
	if ok {
		return f
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.m[k]; ok {
		return f
	}
	f = Parse(pattern)
	c.m[k] = f
	return f
}

// Expand is Get followed by Format.Expand.
func (c *Cache) Expand(tag language.Tag, pattern string, args ...string) (string, error) {
	return c.Get(tag, pattern).Expand(args...)
}

// Len reports how many (locale, pattern) entries are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
