package source

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Pos tags a node or diagnostic with its place in a template source.
// Zero line/column values mean "unknown".
type Pos struct {
	Path    string
	Line    uint32
	Col     uint32
	EndLine uint32
	EndCol  uint32
}

// UnknownPos is used for synthesized nodes that have no source.
var UnknownPos = Pos{}

// At builds a point position.
func At(path string, line, col uint32) Pos {
	return Pos{Path: path, Line: line, Col: col, EndLine: line, EndCol: col}
}

// Range builds a position spanning two points of the same file.
func Range(path string, start, end LineCol) Pos {
	return Pos{Path: path, Line: start.Line, Col: start.Col, EndLine: end.Line, EndCol: end.Col}
}

// Known reports whether p refers to an actual file location.
func (p Pos) Known() bool {
	return p.Path != "" || p.Line != 0
}

// Start returns the first point of the position.
func (p Pos) Start() LineCol {
	return LineCol{Line: p.Line, Col: p.Col}
}

// Less orders positions by path, then start, then end.
func (p Pos) Less(o Pos) bool {
	if p.Path != o.Path {
		return p.Path < o.Path
	}
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	if p.Col != o.Col {
		return p.Col < o.Col
	}
	if p.EndLine != o.EndLine {
		return p.EndLine < o.EndLine
	}
	return p.EndCol < o.EndCol
}

// Format renders "<path>:<line>:<col>:<endLine>:<endCol>" with the path made
// relative to baseDir when possible.
func (p Pos) Format(baseDir string) string {
	path := p.Path
	if baseDir != "" && path != "" {
		if rel, err := RelativePath(path, baseDir); err == nil {
			path = rel
		}
	}
	return fmt.Sprintf("%s:%d:%d:%d:%d", path, p.Line, p.Col, p.EndLine, p.EndCol)
}

func (p Pos) String() string {
	return p.Format("")
}

// RelativePath returns target relative to baseDir. Targets outside of baseDir
// keep their cleaned absolute form.
func RelativePath(target, baseDir string) (string, error) {
	if !filepath.IsAbs(target) {
		return normalizePath(target), nil
	}
	rel, err := filepath.Rel(baseDir, target)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return normalizePath(target), nil
	}
	return normalizePath(rel), nil
}
