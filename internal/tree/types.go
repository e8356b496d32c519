package tree

import (
	"maps"
	"slices"
	"strings"

	"gxpc/internal/diag"
	"gxpc/internal/schema"
)

// TypeKind enumerates parameter types.
type TypeKind uint8

const (
	// TypeContent carries markup of a fixed schema.
	TypeContent TypeKind = iota
	// TypeBoolean is a flag attribute.
	TypeBoolean
	// TypeNative is an opaque host-language type.
	TypeNative
	// TypeBundle accepts an open set of element attributes.
	TypeBundle
)

// Type is the declared type of a parameter.
type Type struct {
	Kind   TypeKind
	Schema *schema.Schema
	// Native is the host type name for TypeNative.
	Native string
	// Attrs holds the accepted attributes of a TypeBundle, keyed by name.
	Attrs map[string]*schema.AttributeValidator
}

func ContentType(s *schema.Schema) *Type {
	return &Type{Kind: TypeContent, Schema: s}
}

func BooleanType() *Type {
	return &Type{Kind: TypeBoolean}
}

func NativeType(name string) *Type {
	return &Type{Kind: TypeNative, Native: name}
}

func BundleType(s *schema.Schema, attrs map[string]*schema.AttributeValidator) *Type {
	return &Type{Kind: TypeBundle, Schema: s, Attrs: maps.Clone(attrs)}
}

func (t *Type) IsContent() bool { return t != nil && t.Kind == TypeContent }

func (t *Type) IsBundle() bool { return t != nil && t.Kind == TypeBundle }

// Validator returns the bundle validator for attr.
func (t *Type) Validator(attr string) *schema.AttributeValidator {
	if !t.IsBundle() {
		return nil
	}
	return t.Attrs[attr]
}

// AttrNames returns the bundle's attribute names in sorted order.
func (t *Type) AttrNames() []string {
	if !t.IsBundle() {
		return nil
	}
	return slices.Sorted(maps.Keys(t.Attrs))
}

// Matches decides interface conformance. Native types match regardless of
// the host name, because the same host type may be spelled several ways.
func (t *Type) Matches(o *Type) bool {
	if t == nil || o == nil || t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TypeContent:
		return t.Schema == o.Schema
	case TypeBoolean, TypeNative:
		return true
	case TypeBundle:
		return t.Schema == o.Schema && maps.EqualFunc(t.Attrs, o.Attrs, func(a, b *schema.AttributeValidator) bool {
			return a.Equal(b)
		})
	}
	return false
}

// HasImplicitDefault is true for types that default without a declaration.
func (t *Type) HasImplicitDefault() bool {
	return t != nil && t.Kind == TypeBoolean
}

// TakesRegex reports whether a parameter of this type may declare a regex.
func (t *Type) TakesRegex() bool {
	return t != nil && t.Kind == TypeNative
}

// ParseObjectConstant turns a raw attribute literal into a value of this type.
func (t *Type) ParseObjectConstant(attr string, oc *Expr, r diag.Reporter) *Expr {
	d := oc.Data.(ObjectConstantData)
	switch t.Kind {
	case TypeContent:
		return NewString(oc.Pos, nil, d.Value)
	case TypeBoolean:
		return NewBoolean(oc.Pos, true)
	case TypeNative:
		return oc.WithData(ObjectConstantData{Value: d.Value, Type: t})
	case TypeBundle:
		v := t.Validator(attr)
		if !v.Accepts(d.Value) {
			diag.ReportError(r, diag.BindInvalidAttributeValue, oc.Pos,
				oc.DisplayName()+" value is invalid").Emit()
		}
		if v.Has(schema.AttrBoolean) {
			return NewBoolean(oc.Pos, true)
		}
		return NewString(oc.Pos, nil, d.Value)
	}
	panic("tree: unknown type kind")
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TypeContent:
		return t.Schema.String()
	case TypeBoolean:
		return "BooleanType"
	case TypeNative:
		return "NativeType"
	case TypeBundle:
		return "AttributeBundle(" + strings.Join(t.AttrNames(), ", ") + ")"
	}
	return "UnknownType"
}
