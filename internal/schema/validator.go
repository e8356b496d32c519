package schema

import (
	"maps"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/html/atom"
)

// ElementFlag describes how an element treats its body.
type ElementFlag uint8

const (
	ElemPreserveSpaces ElementFlag = 1 << iota
	ElemChildless
	ElemInvisibleBody
	ElemNoEndTag
)

// AttrFlag describes constraints on one attribute.
type AttrFlag uint8

const (
	AttrRequired AttrFlag = 1 << iota
	AttrBoolean
	AttrURL
	AttrNonStandard
	AttrDeprecated
	AttrInner
)

var elementFlagNames = map[string]ElementFlag{
	"preservespaces": ElemPreserveSpaces,
	"childless":      ElemChildless,
	"invisiblebody":  ElemInvisibleBody,
	"noendtag":       ElemNoEndTag,
}

var attrFlagNames = map[string]AttrFlag{
	"required":    AttrRequired,
	"boolean":     AttrBoolean,
	"url":         AttrURL,
	"nonstandard": AttrNonStandard,
	"deprecated":  AttrDeprecated,
	"inner":       AttrInner,
}

// AttributeValidator describes what values an attribute accepts.
type AttributeValidator struct {
	Name        string
	ContentType string
	Pattern     *regexp.Regexp
	Flags       AttrFlag
	Default     string
}

func (a *AttributeValidator) Has(f AttrFlag) bool {
	return a != nil && a.Flags&f != 0
}

// Accepts checks a literal value against the pattern, if any.
func (a *AttributeValidator) Accepts(value string) bool {
	if a == nil || a.Pattern == nil {
		return true
	}
	return a.Pattern.MatchString(value)
}

// Equal compares every field; patterns compare by source text.
func (a *AttributeValidator) Equal(b *AttributeValidator) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Name == b.Name &&
		a.ContentType == b.ContentType &&
		patternString(a.Pattern) == patternString(b.Pattern) &&
		a.Flags == b.Flags &&
		a.Default == b.Default
}

func patternString(re *regexp.Regexp) string {
	if re == nil {
		return ""
	}
	return re.String()
}

// ElementValidator describes one output element of a markup schema.
type ElementValidator struct {
	Tag              string
	Atom             atom.Atom
	Flags            ElementFlag
	InnerContentType string
	attrs            map[string]*AttributeValidator
}

// NewElementValidator builds a validator; the atom is looked up from the tag.
func NewElementValidator(tag string, flags ElementFlag, innerContentType string, attrs ...*AttributeValidator) *ElementValidator {
	lower := strings.ToLower(tag)
	v := &ElementValidator{
		Tag:              lower,
		Atom:             atom.Lookup([]byte(lower)),
		Flags:            flags,
		InnerContentType: innerContentType,
		attrs:            make(map[string]*AttributeValidator, len(attrs)),
	}
	for _, a := range attrs {
		v.attrs[a.Name] = a
	}
	return v
}

func (v *ElementValidator) Has(f ElementFlag) bool {
	return v != nil && v.Flags&f != 0
}

// Attr returns the validator for one attribute name.
func (v *ElementValidator) Attr(name string) (*AttributeValidator, bool) {
	if v == nil {
		return nil, false
	}
	a, ok := v.attrs[name]
	return a, ok
}

// AttrMap returns a fresh copy of the attribute validators keyed by name.
func (v *ElementValidator) AttrMap() map[string]*AttributeValidator {
	if v == nil {
		return map[string]*AttributeValidator{}
	}
	return maps.Clone(v.attrs)
}

// AttrNames lists attribute names in sorted order.
func (v *ElementValidator) AttrNames() []string {
	if v == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(v.attrs))
}

// IsStandard reports whether the tag is a known HTML element.
func (v *ElementValidator) IsStandard() bool {
	return v != nil && v.Atom != 0
}
