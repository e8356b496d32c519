// Package unitfile reads compilation units from their JSON form.
//
// A unit file holds one template or interface tree, as a parser would hand
// it to the compiler:
//
//	{
//	  "kind": "template",
//	  "name": "com.example.Page",
//	  "schema": "html",
//	  "source": "page.gxp",
//	  "imports": [{"class": "com.example.Card"}, {"package": "com.example.widgets"}],
//	  "params": [{"name": "user", "type": {"kind": "native", "name": "User"}}],
//	  "content": ["Hello ", {"kind": "expr", "code": "user.name"}]
//	}
//
// A JSON string is literal text and a JSON array is a concatenation. Every
// other node is an object with a "kind". Positions are "pos": [line, col]
// or [line, col, endLine, endCol] and default to the enclosing node's.
package unitfile

import (
	"errors"
	"fmt"
	"os"

	"gxpc/internal/schema"
	"gxpc/internal/source"
	"gxpc/internal/tree"
)

// Extension is the suffix unit files are discovered by.
const Extension = ".gxp.json"

// ErrUnknownKind is wrapped by errors about an unknown root, node, type or
// import kind.
var ErrUnknownKind = errors.New("unknown kind")

// Error locates a problem in a unit file.
type Error struct {
	Path string
	Pos  source.Pos
	Err  error
}

func (e *Error) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %v", e.Path, e.Pos.Line, e.Pos.Col, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Unit is a decoded unit file.
type Unit struct {
	// Path is the unit file itself.
	Path string
	// Source is the template source the positions refer to.
	Source string
	Root   tree.Root
}

// Load reads and decodes the unit file at path.
func Load(path string, reg *schema.Registry) (*Unit, error) {
	// #nosec G304 -- path is provided by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unit: %w", err)
	}
	return Decode(path, data, reg)
}

// Decode parses one unit. Source positions use the unit's "source" field
// as path, or path when it is absent.
func Decode(path string, data []byte, reg *schema.Registry) (*Unit, error) {
	var u unitJSON
	if err := strict(data, &u); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("malformed unit: %w", err)}
	}
	src := u.Source
	if src == "" {
		src = path
	}
	d := &decoder{path: path, src: src, reg: reg}
	root, err := d.root(&u)
	if err != nil {
		return nil, err
	}
	return &Unit{Path: path, Source: src, Root: root}, nil
}

type decoder struct {
	path string
	src  string
	reg  *schema.Registry
}

func (d *decoder) errorf(pos source.Pos, format string, args ...any) error {
	return &Error{Path: d.path, Pos: pos, Err: fmt.Errorf(format, args...)}
}

func (d *decoder) wrap(pos source.Pos, err error) error {
	return &Error{Path: d.path, Pos: pos, Err: err}
}

// pos converts a JSON position, falling back to parent.
func (d *decoder) pos(p []uint32, parent source.Pos) (source.Pos, error) {
	switch len(p) {
	case 0:
		return parent, nil
	case 2:
		return source.At(d.src, p[0], p[1]), nil
	case 4:
		return source.Range(d.src, source.LineCol{Line: p[0], Col: p[1]}, source.LineCol{Line: p[2], Col: p[3]}), nil
	}
	return parent, d.errorf(parent, "position must have 2 or 4 numbers, got %d", len(p))
}

// schema resolves a schema by name or by content type.
func (d *decoder) schema(name string, pos source.Pos) (*schema.Schema, error) {
	if s, ok := d.reg.ByName(name); ok {
		return s, nil
	}
	if s, ok := d.reg.Lookup(name); ok {
		return s, nil
	}
	return nil, d.errorf(pos, "unknown schema %q", name)
}

func (d *decoder) name(s string, pos source.Pos) (tree.TemplateName, error) {
	n, err := tree.ParseTemplateName(s)
	if err != nil {
		return n, d.wrap(pos, err)
	}
	return n, nil
}
