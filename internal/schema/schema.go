package schema

import (
	"maps"
	"slices"
)

// Backend names the code generators a schema carries native type names for.
type Backend string

const (
	BackendJava  Backend = "java"
	BackendCpp   Backend = "cpp"
	BackendJS    Backend = "js"
	BackendScala Backend = "scala"
)

// Schema is a content-type descriptor. Schemas are created by a Registry and
// compared by identity.
type Schema struct {
	Name        string
	ContentType string
	Family      ContentFamily
	// Allowed lists the names of schemas whose values may flow into this one
	// without conversion.
	Allowed     []string
	NativeTypes map[Backend]string

	msgSchema *Schema
	elements  map[string]*ElementValidator
}

// Allows reports whether a value of schema other may be used where s is expected.
func (s *Schema) Allows(other *Schema) bool {
	if s == nil || other == nil {
		return false
	}
	return s == other || slices.Contains(s.Allowed, other.Name)
}

// MsgSchema is the schema used for translatable message bodies.
func (s *Schema) MsgSchema() *Schema {
	if s.msgSchema != nil {
		return s.msgSchema
	}
	return s
}

// IsTranslatable reports whether message bodies may be written in this schema.
func (s *Schema) IsTranslatable() bool {
	return s.msgSchema == nil || s.msgSchema == s
}

// Element returns the validator for a tag.
func (s *Schema) Element(tag string) (*ElementValidator, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.elements[tag]
	return v, ok
}

// ElementTags lists the tags this schema validates, sorted.
func (s *Schema) ElementTags() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.elements))
}

// NativeType returns the backend type name for values of this schema.
func (s *Schema) NativeType(b Backend) string {
	return s.NativeTypes[b]
}

func (s *Schema) String() string {
	if s == nil {
		return "<no schema>"
	}
	return s.ContentType
}
