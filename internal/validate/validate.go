// Package validate checks the declarations and call sites of an escaped tree
// and promotes every bound call to a validated call.
package validate

import (
	"fmt"
	"maps"
	"slices"

	"gxpc/internal/diag"
	"gxpc/internal/schema"
	"gxpc/internal/source"
	"gxpc/internal/tree"
)

// Run validates root. Every check reports on its own; none stops the others.
func Run(root tree.Root, carried diag.Set) (tree.Root, diag.Set) {
	b := diag.NewBuilder(carried)
	v := &validator{r: b}
	v.Override = v.override

	switch r := root.(type) {
	case *tree.Template:
		v.template = r
		v.checkTemplate(r)
	case *tree.Interface:
		v.checkInterface(r)
	}
	root = tree.RewriteRoot(root, v.Rewrite, tree.RewriteDefaults(v.Rewrite))
	return root, b.BuildAndClear()
}

type validator struct {
	tree.Exhaustive
	r        diag.Reporter
	template *tree.Template
}

func (v *validator) report(code diag.Code, pos source.Pos, format string, args ...any) {
	diag.ReportError(v.r, code, pos, fmt.Sprintf(format, args...)).Emit()
}

func (v *validator) checkParams(params []*tree.Parameter) {
	seen := make(map[string]bool)
	content := false
	for _, p := range params {
		for _, n := range p.Names() {
			if seen[n] {
				v.report(diag.ValDuplicateParameterName, p.Pos, "Duplicate parameter name: %s", n)
			}
			seen[n] = true
		}
		if p.ConsumesContent {
			if content {
				v.report(diag.ValTooManyContentParameters, p.Pos, "Each template can only have 1 content parameter.")
			}
			content = true
		}
	}
}

func (v *validator) checkInterface(i *tree.Interface) {
	v.checkParams(i.Params)
	for _, p := range i.Params {
		if p.Default != nil {
			v.report(diag.ValInterfaceParamHasDefault, p.Pos,
				"Interface parameters cannot have default values. Use has-default='true'.")
		}
		if p.Constructor != nil {
			v.report(diag.ValInterfaceParamHasCtor, p.Pos,
				"Interface parameters cannot have constructors. Use has-constructor='true'.")
		}
	}
}

func (v *validator) checkTemplate(t *tree.Template) {
	params := slices.Concat(t.Constructor, t.Params)
	v.checkParams(params)
	for _, p := range params {
		if p.HasDefaultFlag {
			v.report(diag.ValTemplateParamWithHasDefault, p.Pos,
				"has-default is only allowed on interface parameters; use a default value")
		}
		if p.HasConstructorFlag {
			v.report(diag.ValTemplateParamWithHasCtor, p.Pos,
				"has-constructor is only allowed on interface parameters; use a constructor")
		}
	}
	for _, im := range t.Implements {
		if im.Bound != nil {
			v.checkImplements(t, im)
		}
	}
}

// checkImplements compares t's parameters with the interface's, position by
// position. The interface has one extra parameter, "this".
func (v *validator) checkImplements(t *tree.Template, im tree.Implements) {
	iface := im.Bound
	if t.Schema != iface.Schema {
		v.report(diag.ValSchemaMismatch, im.Pos,
			"%s is %s but the interface %s it implements is %s", t.Name, t.Schema, iface.Name, iface.Schema)
	}
	want := len(iface.Params) - 1
	if len(t.Params) != want {
		v.report(diag.ValNumParamsMismatch, im.Pos,
			"%s has %d parameters but %s requires %d", t.Name, len(t.Params), iface.Name, want)
		return
	}
	i := 0
	for _, ip := range iface.Params {
		if ip.Name == tree.InstanceParamName {
			continue
		}
		tp := t.Params[i]
		i++
		if ip.Name != tp.Name {
			v.report(diag.ValParamNameMismatch, im.Pos,
				"Interface parameter %s does not match the corresponding template parameter %s", ip.Name, tp.Name)
			continue
		}
		if !ip.Type.Matches(tp.Type) {
			v.report(diag.ValParamTypeMismatch, im.Pos,
				"Parameter type mismatch for %s: %s vs %s", ip.Name, ip.Type, tp.Type)
			continue
		}
		if ip.HasDefault() && tp.Default == nil {
			v.report(diag.ValParamDefaultMismatch, tp.Pos,
				"parameter %s requires a default and none was set in the template.", tp.Name)
		}
		if ip.HasConstructor() && tp.Constructor == nil {
			v.report(diag.ValParamConstructorMismatch, tp.Pos,
				"parameter %s requires a constructor and none was set in the template.", tp.Name)
		}
	}
}

func (v *validator) override(e *tree.Expr) (*tree.Expr, bool) {
	switch e.Kind {
	case tree.ExprOutputElement:
		v.element(e)
		return v.Post(v.RewriteChildren(e)), true
	case tree.ExprBoundCall:
		return v.call(e), true
	case tree.ExprUnboundCall:
		panic("validate: unbound call at " + e.Pos.String())
	}
	return nil, false
}

func (v *validator) element(e *tree.Expr) {
	d := e.Data.(tree.OutputElementData)
	validators := d.Validator.AttrMap()
	if validators == nil {
		validators = make(map[string]*schema.AttributeValidator)
	}
	allowed := keySet(validators)
	for _, a := range d.Attributes {
		val := validators[a.Name]
		delete(validators, a.Name)
		if a.Cond != nil && val.Has(schema.AttrRequired) {
			v.requiredHasCond(e, a)
		}
	}
	v.bundles(e, d.Bundles, validators, allowed)
}

func (v *validator) call(e *tree.Expr) *tree.Expr {
	d := e.Data.(tree.BoundCallData)
	validators := make(map[string]*schema.AttributeValidator)
	for _, p := range d.Callee.Params {
		if p.Type.IsBundle() {
			maps.Copy(validators, p.Type.Attrs)
		}
	}
	allowed := keySet(validators)

	present := make(map[string]*tree.Attribute, len(d.Attributes))
	attrs := make([]*tree.Attribute, len(d.Attributes))
	for i, a := range d.Attributes {
		if bp, ok := a.Value.Data.(tree.AttrBundleParamData); ok {
			for _, en := range bp.Entries {
				delete(validators, en.Validator.Name)
				if en.Attr.Cond != nil && en.Validator.Has(schema.AttrRequired) {
					v.requiredHasCond(e, en.Attr)
				}
			}
		}
		present[a.Name] = a
		attrs[i] = v.RewriteAttr(a)
	}
	v.bundles(e, d.Bundles, validators, allowed)

	for _, p := range d.Callee.Params {
		if p.HasDefault() {
			continue
		}
		a, ok := present[p.Name]
		switch {
		case !ok:
			v.missing(e, p.Name)
		case a.Cond != nil:
			v.requiredHasCond(e, a)
		}
	}
	return e.WithParams(attrs).Validated()
}

// bundles checks attribute bundles passed through by name. validators holds
// the attributes not given explicitly; allowed holds every attribute of the
// node.
func (v *validator) bundles(node *tree.Expr, names []string, validators map[string]*schema.AttributeValidator, allowed map[string]bool) {
	found := make(map[string]bool)
	for _, name := range names {
		var p *tree.Parameter
		if v.template != nil {
			p = v.template.BundleParam(name)
		}
		if p == nil {
			v.report(diag.ValInvalidAttrBundle, node.Pos, "%s is not an attribute bundle of %s", name, v.templateName())
			continue
		}
		for _, attr := range slices.Sorted(maps.Keys(p.Type.Attrs)) {
			val, ok := validators[attr]
			switch {
			case !ok && allowed[attr]:
				v.report(diag.ValDuplicateAttribute, node.Pos,
					"%s has duplicate attribute %s from bundle: %s", node.DisplayName(), attr, name)
			case !ok:
				v.report(diag.ValUnknownAttribute, node.Pos, "%s is unknown in %s.", attr, node.DisplayName())
			case !val.Equal(p.Type.Attrs[attr]):
				v.report(diag.ValMismatchedAttrValidators, node.Pos,
					"%s %s is different from the %s attribute contained within %s", node.DisplayName(), attr, attr, name)
			default:
				found[attr] = true
			}
		}
	}
	for _, attr := range slices.Sorted(maps.Keys(validators)) {
		if validators[attr].Has(schema.AttrRequired) && !found[attr] {
			v.missing(node, attr)
		}
	}
}

func (v *validator) templateName() string {
	if v.template == nil {
		return "this template"
	}
	return v.template.Name.String()
}

func (v *validator) missing(node *tree.Expr, attr string) {
	v.report(diag.ValMissingAttribute, node.Pos, "%s must have a '%s' attribute.", node.DisplayName(), attr)
}

func (v *validator) requiredHasCond(node *tree.Expr, a *tree.Attribute) {
	v.report(diag.ValRequiredAttributeHasCond, a.Pos,
		"The '%s' attribute is required for %s; it cannot be conditional.", a.Name, node.DisplayName())
}

func keySet(m map[string]*schema.AttributeValidator) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}
