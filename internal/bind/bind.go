// Package bind resolves call sites and implements declarations against the
// symbol directory and types the attribute values of each call.
package bind

import (
	"fmt"
	"slices"

	"gxpc/internal/diag"
	"gxpc/internal/schema"
	"gxpc/internal/servicedir"
	"gxpc/internal/source"
	"gxpc/internal/tree"
)

// Tree is the output of the binder.
type Tree struct {
	Root        tree.Root
	Diagnostics diag.Set
	// Requirements lists every callable and interface the unit depends on,
	// sorted by name.
	Requirements []*tree.Callable
	// Unresolved lists names that failed to resolve, qualified the way the
	// unit would have seen them, sorted.
	Unresolved []tree.TemplateName
	// Probed lists every qualified name resolution consulted, hits and
	// misses alike, sorted. A different answer for any of them may change
	// this unit's binding.
	Probed []tree.TemplateName
}

// RequiredNames merges resolved and unresolved dependencies.
func (t *Tree) RequiredNames() []tree.TemplateName {
	out := make([]tree.TemplateName, 0, len(t.Requirements)+len(t.Unresolved))
	for _, c := range t.Requirements {
		out = append(out, c.Name)
	}
	out = append(out, t.Unresolved...)
	slices.SortFunc(out, tree.TemplateName.Compare)
	return slices.Compact(out)
}

// requirements is the binder's only mutable state. It belongs to one Run.
type requirements struct {
	byName     map[tree.TemplateName]*tree.Callable
	unresolved map[tree.TemplateName]struct{}
}

func (r *requirements) add(c *tree.Callable) {
	r.byName[c.Name] = c
}

func (r *requirements) miss(n tree.TemplateName) {
	r.unresolved[n] = struct{}{}
}

// Run binds root. base answers fully qualified names; the unit's package and
// imports are layered on top of it here.
func Run(root tree.Root, base servicedir.Directory, reg *schema.Registry, carried diag.Set) *Tree {
	b := diag.NewBuilder(carried)
	reqs := &requirements{
		byName:     make(map[tree.TemplateName]*tree.Callable),
		unresolved: make(map[tree.TemplateName]struct{}),
	}
	dir := servicedir.NewScoped(b, base, root.RootName().Package, root.RootImports())
	v := newVisitor(b, reg, dir, reqs)

	if t, ok := root.(*tree.Template); ok {
		root = v.bindImplements(t)
	}
	root = tree.RewriteRoot(root, v.Rewrite, tree.RewriteDefaults(v.Rewrite))

	out := &Tree{Root: root, Diagnostics: b.BuildAndClear(), Probed: dir.Probed()}
	for _, c := range reqs.byName {
		out.Requirements = append(out.Requirements, c)
	}
	slices.SortFunc(out.Requirements, func(a, b *tree.Callable) int { return a.Name.Compare(b.Name) })
	for n := range reqs.unresolved {
		out.Unresolved = append(out.Unresolved, n)
	}
	slices.SortFunc(out.Unresolved, tree.TemplateName.Compare)
	return out
}

type visitor struct {
	tree.Exhaustive
	r    diag.Reporter
	reg  *schema.Registry
	dir  *servicedir.Scoped
	reqs *requirements
}

func newVisitor(r diag.Reporter, reg *schema.Registry, dir *servicedir.Scoped, reqs *requirements) *visitor {
	v := &visitor{r: r, reg: reg, dir: dir, reqs: reqs}
	v.Override = v.override
	return v
}

func (v *visitor) override(e *tree.Expr) (*tree.Expr, bool) {
	if e.Kind != tree.ExprUnboundCall {
		return nil, false
	}
	return v.bindCall(e), true
}

func (v *visitor) bindImplements(t *tree.Template) *tree.Template {
	if len(t.Implements) == 0 {
		return t
	}
	out := *t
	out.Implements = make([]tree.Implements, 0, len(t.Implements))
	for _, im := range t.Implements {
		if im.Bound == nil {
			c, ok := v.dir.Implementable(im.Name)
			if !ok {
				v.notFound(diag.BindImplementableNotFound, im.Pos, "Implementable not found: ", im.Name)
				continue
			}
			im.Bound = c
		}
		v.reqs.add(im.Bound)
		out.Implements = append(out.Implements, im)
	}
	return &out
}

func (v *visitor) notFound(code diag.Code, pos source.Pos, prefix string, n tree.TemplateName) {
	v.reqs.miss(v.dir.Qualify(n))
	rb := diag.ReportError(v.r, code, pos, prefix+n.String())
	names := servicedir.Names(v.dir)
	candidates := make([]string, 0, len(names))
	for _, c := range names {
		candidates = append(candidates, c.String())
	}
	if s := suggest(n.String(), candidates); s != "" {
		rb.WithNote(pos, "did you mean "+s+"?")
	}
	rb.Emit()
}

func hasAttr(attrs []*tree.Attribute, name string) bool {
	for _, a := range attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

func (v *visitor) bindCall(e *tree.Expr) *tree.Expr {
	d := e.Data.(tree.UnboundCallData)
	lookup := v.dir.Callable
	if hasAttr(d.Attributes, tree.InstanceParamName) {
		lookup = v.dir.InstanceCallable
	}
	callee, ok := lookup(d.Callee)
	if !ok {
		v.notFound(diag.BindCallableNotFound, e.Pos, "Callable not found: ", d.Callee)
		return tree.NewString(e.Pos, nil, "")
	}

	// one entry list per bundle parameter, in declaration order
	var bundleParams []*tree.Parameter
	bundles := make(map[string][]tree.BundleEntry)
	for _, p := range callee.Params {
		if p.Type.IsBundle() {
			bundleParams = append(bundleParams, p)
			bundles[p.Name] = nil
		}
	}

	attrs := make([]*tree.Attribute, 0, len(d.Attributes)+len(bundleParams)+1)
	for _, a := range d.Attributes {
		p := callee.Param(a.Name)
		if p == nil {
			rb := diag.ReportError(v.r, diag.BindBadParameter, a.Value.Pos,
				fmt.Sprintf("%s does not take parameter '%s'", callee.Name, a.Name))
			if s := suggest(a.Name, paramNames(callee)); s != "" {
				rb.WithNote(a.Pos, "did you mean '"+s+"'?")
			}
			rb.Emit()
			continue
		}
		if !p.Type.IsBundle() && a.Name != p.Name {
			// aliases are stored under the primary name
			renamed := *a
			renamed.Name = p.Name
			a = &renamed
		}
		a = v.typeValue(callee, p, a)
		a = a.WithValue(prepareParamValue(p, a.Value))
		a = v.RewriteAttr(a)

		if !p.Type.IsBundle() {
			attrs = append(attrs, a)
			continue
		}
		validator := p.Type.Validator(a.Name)
		if validator.ContentType != "" {
			if inner, ok := v.reg.Lookup(validator.ContentType); ok {
				a = a.WithInnerSchema(inner)
			}
		}
		bundles[p.Name] = append(bundles[p.Name], tree.BundleEntry{Validator: validator, Attr: a})
	}

	content := v.Rewrite(d.Content)
	if cp := callee.ContentParam(); cp != nil {
		attrs = append(attrs, tree.NewAttribute(content.Pos, cp.Name, prepareParamValue(cp, content)))
	} else if text, static := tree.StaticString(content); !static || !isBlank(text) {
		diag.ReportError(v.r, diag.BindBadParameter, content.Pos,
			fmt.Sprintf("%s does not take content", callee.Name)).Emit()
	}

	for _, p := range bundleParams {
		// with a single bundle parameter nothing has to be filtered out of
		// passed-through bundles
		var include []string
		if len(bundleParams) > 1 {
			include = p.Type.AttrNames()
		}
		bundle := tree.NewAttrBundleParam(e.Pos, callee.Schema, tree.AttrBundleParamData{
			Entries:    bundles[p.Name],
			Include:    include,
			SubBundles: d.Bundles,
		})
		attrs = append(attrs, tree.NewAttribute(e.Pos, p.Name, bundle))
	}

	v.reqs.add(callee)
	return tree.NewBoundCall(e.Pos, callee, attrs, d.Bundles)
}

// typeValue parses a raw literal against the parameter. A regex mismatch is
// reported and the value is kept.
func (v *visitor) typeValue(callee *tree.Callable, p *tree.Parameter, a *tree.Attribute) *tree.Attribute {
	if a.Value.Kind != tree.ExprObjectConstant {
		return a
	}
	oc := a.Value
	value := oc.Data.(tree.ObjectConstantData).Value
	if !p.RegexMatches(value) {
		diag.ReportError(v.r, diag.BindInvalidParamFailedRegex, oc.Pos,
			fmt.Sprintf("%q is not a valid value for parameter '%s' of %s; it must match /%s/",
				value, a.Name, callee.Name, p.Regex)).Emit()
	}
	if p.HasConstructor() {
		return a.WithValue(tree.NewConstructedConstant(oc.Pos, value, callee, p))
	}
	return a.WithValue(p.Type.ParseObjectConstant(a.Name, oc, v.r))
}

// prepareParamValue applies the parameter's space operators to collapsible
// values.
func prepareParamValue(p *tree.Parameter, e *tree.Expr) *tree.Expr {
	if p == nil || e.Kind != tree.ExprCollapse {
		return e
	}
	return tree.NewCollapse(e, p.SpaceOps)
}

func paramNames(c *tree.Callable) []string {
	var out []string
	for _, p := range c.Params {
		out = append(out, p.Names()...)
	}
	return out
}

func isBlank(s string) bool {
	for _, r := range s {
		if !tree.IsSpace(r) {
			return false
		}
	}
	return true
}
