package tree

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	packageNamePattern = regexp.MustCompile(`^\p{L}\w*(\.\p{L}\w*)*$`)
	baseNamePattern    = regexp.MustCompile(`^\p{L}\w*$`)
)

// TemplateName is a possibly qualified template name. An empty Package
// means the name is unqualified and must be resolved through imports.
type TemplateName struct {
	Package string
	Base    string
}

// ParseTemplateName splits on the last dot and validates both halves.
func ParseTemplateName(s string) (TemplateName, error) {
	s = strings.TrimSpace(s)
	i := strings.LastIndexByte(s, '.')
	n := TemplateName{Base: s}
	if i >= 0 {
		n = TemplateName{Package: s[:i], Base: s[i+1:]}
	}
	if !n.Valid() {
		return TemplateName{}, fmt.Errorf("invalid template name %q", s)
	}
	return n, nil
}

// MustTemplateName is ParseTemplateName for literals known to be valid.
func MustTemplateName(s string) TemplateName {
	n, err := ParseTemplateName(s)
	if err != nil {
		panic(err)
	}
	return n
}

func (n TemplateName) Valid() bool {
	if !baseNamePattern.MatchString(n.Base) {
		return false
	}
	return n.Package == "" || packageNamePattern.MatchString(n.Package)
}

func (n TemplateName) IsQualified() bool { return n.Package != "" }

func (n TemplateName) IsZero() bool { return n.Package == "" && n.Base == "" }

// InPackage qualifies an unqualified name.
func (n TemplateName) InPackage(pkg string) TemplateName {
	return TemplateName{Package: pkg, Base: n.Base}
}

func (n TemplateName) String() string {
	if n.Package == "" {
		return n.Base
	}
	return n.Package + "." + n.Base
}

// Compare orders names by their dotted form.
func (n TemplateName) Compare(o TemplateName) int {
	return strings.Compare(n.String(), o.String())
}
