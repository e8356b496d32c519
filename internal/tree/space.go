package tree

import (
	"fmt"
	"strings"
)

// SpaceOperator transforms a run of whitespace.
type SpaceOperator uint8

const (
	// SpaceInherit marks an unset member of a SpaceOperatorSet.
	SpaceInherit SpaceOperator = iota
	SpacePreserve
	SpaceRemove
	SpaceNormalize
	SpaceCollapse
)

func (o SpaceOperator) String() string {
	switch o {
	case SpaceInherit:
		return "inherit"
	case SpacePreserve:
		return "preserve"
	case SpaceRemove:
		return "remove"
	case SpaceNormalize:
		return "normalize"
	case SpaceCollapse:
		return "collapse"
	}
	return fmt.Sprintf("SpaceOperator(%d)", uint8(o))
}

// ParseSpaceOperator accepts the names printed by String; "" means inherit.
func ParseSpaceOperator(s string) (SpaceOperator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inherit":
		return SpaceInherit, nil
	case "preserve":
		return SpacePreserve, nil
	case "remove":
		return SpaceRemove, nil
	case "normalize":
		return SpaceNormalize, nil
	case "collapse":
		return SpaceCollapse, nil
	}
	return SpaceInherit, fmt.Errorf("unknown space operator %q", s)
}

// IsSpace matches the whitespace class the collapser works with.
func IsSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// Apply transforms a run that must consist only of whitespace.
func (o SpaceOperator) Apply(run string) string {
	for _, r := range run {
		if !IsSpace(r) {
			panic(fmt.Sprintf("tree: space operator %s applied to non-space %q", o, run))
		}
	}
	switch o {
	case SpacePreserve:
		return run
	case SpaceRemove:
		return ""
	case SpaceNormalize:
		if run == "" {
			return ""
		}
		return " "
	case SpaceCollapse:
		if strings.ContainsAny(run, "\n\f") {
			return "\n"
		}
		return SpaceNormalize.Apply(run)
	}
	panic(fmt.Sprintf("tree: unresolved space operator %s", o))
}

// SpaceOperatorSet pairs the operator for whitespace inside a text run with
// the operator for whitespace at its outer edges.
type SpaceOperatorSet struct {
	Interior SpaceOperator
	Exterior SpaceOperator
}

var (
	DefaultSpaceOps    = SpaceOperatorSet{Interior: SpaceCollapse, Exterior: SpaceRemove}
	PreservingSpaceOps = SpaceOperatorSet{Interior: SpacePreserve, Exterior: SpacePreserve}
	AttrSpaceOps       = SpaceOperatorSet{Interior: SpaceNormalize, Exterior: SpaceRemove}
	MessageSpaceOps    = SpaceOperatorSet{Interior: SpaceNormalize, Exterior: SpaceRemove}
)

// InheritFrom fills unset members from parent.
func (s SpaceOperatorSet) InheritFrom(parent SpaceOperatorSet) SpaceOperatorSet {
	if s.Interior == SpaceInherit {
		s.Interior = parent.Interior
	}
	if s.Exterior == SpaceInherit {
		s.Exterior = parent.Exterior
	}
	return s
}

func (s SpaceOperatorSet) WithInterior(o SpaceOperator) SpaceOperatorSet {
	s.Interior = o
	return s
}

func (s SpaceOperatorSet) WithExterior(o SpaceOperator) SpaceOperatorSet {
	s.Exterior = o
	return s
}

// Complete reports whether both members are set.
func (s SpaceOperatorSet) Complete() bool {
	return s.Interior != SpaceInherit && s.Exterior != SpaceInherit
}

func (s SpaceOperatorSet) String() string {
	return fmt.Sprintf("(%s, %s)", s.Interior, s.Exterior)
}
