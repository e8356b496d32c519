package unitfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"

	"gxpc/internal/schema"
	"gxpc/internal/source"
	"gxpc/internal/tree"
)

func strict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (d *decoder) root(u *unitJSON) (tree.Root, error) {
	pos, err := d.pos(u.Pos, source.At(d.src, 1, 1))
	if err != nil {
		return nil, err
	}
	name, err := d.name(u.Name, pos)
	if err != nil {
		return nil, err
	}
	if !name.IsQualified() {
		return nil, d.errorf(pos, "unit name %s must include a package", name)
	}
	schemaName := u.Schema
	if schemaName == "" {
		schemaName = "html"
	}
	s, err := d.schema(schemaName, pos)
	if err != nil {
		return nil, err
	}
	imports, err := d.imports(u.Imports, pos)
	if err != nil {
		return nil, err
	}
	params, err := d.params(u.Params, s, pos)
	if err != nil {
		return nil, err
	}

	switch u.Kind {
	case "", "template":
		ctor, err := d.params(u.Constructor, s, pos)
		if err != nil {
			return nil, err
		}
		impls := make([]tree.Implements, 0, len(u.Implements))
		for _, ij := range u.Implements {
			ipos, err := d.pos(ij.Pos, pos)
			if err != nil {
				return nil, err
			}
			n, err := d.name(ij.Name, ipos)
			if err != nil {
				return nil, err
			}
			impls = append(impls, tree.Implements{Name: n, Pos: ipos})
		}
		ops, err := d.space(u.Space, pos)
		if err != nil {
			return nil, err
		}
		content, err := d.node(u.Content, pos, s)
		if err != nil {
			return nil, err
		}
		return &tree.Template{
			Name:        name,
			Schema:      s,
			Imports:     imports,
			Constructor: ctor,
			Params:      params,
			Implements:  impls,
			Content:     tree.NewCollapse(content, ops),
			Pos:         pos,
		}, nil
	case "interface":
		if len(u.Content) > 0 || len(u.Implements) > 0 || len(u.Constructor) > 0 {
			return nil, d.errorf(pos, "interface %s may only declare parameters", name)
		}
		return tree.NewInterface(pos, name, s, imports, params), nil
	}
	return nil, d.wrap(pos, fmt.Errorf("%w: unit kind %q", ErrUnknownKind, u.Kind))
}

func (d *decoder) imports(in []importJSON, parent source.Pos) ([]tree.Import, error) {
	out := make([]tree.Import, 0, len(in))
	for _, ij := range in {
		pos, err := d.pos(ij.Pos, parent)
		if err != nil {
			return nil, err
		}
		switch {
		case ij.Class != "" && ij.Package == "":
			n, err := d.name(ij.Class, pos)
			if err != nil {
				return nil, err
			}
			if !n.IsQualified() {
				return nil, d.errorf(pos, "class import %s must be qualified", n)
			}
			out = append(out, tree.ClassImport(pos, n))
		case ij.Package != "" && ij.Class == "":
			out = append(out, tree.PackageImport(pos, ij.Package))
		default:
			return nil, d.wrap(pos, fmt.Errorf("%w: import needs exactly one of class or package", ErrUnknownKind))
		}
	}
	return out, nil
}

func (d *decoder) space(sj *spaceJSON, pos source.Pos) (tree.SpaceOperatorSet, error) {
	var ops tree.SpaceOperatorSet
	if sj == nil {
		return ops, nil
	}
	var err error
	if ops.Interior, err = tree.ParseSpaceOperator(sj.Interior); err != nil {
		return ops, d.wrap(pos, err)
	}
	if ops.Exterior, err = tree.ParseSpaceOperator(sj.Exterior); err != nil {
		return ops, d.wrap(pos, err)
	}
	return ops, nil
}

func (d *decoder) params(in []paramJSON, s *schema.Schema, parent source.Pos) ([]*tree.Parameter, error) {
	out := make([]*tree.Parameter, 0, len(in))
	for _, pj := range in {
		pos, err := d.pos(pj.Pos, parent)
		if err != nil {
			return nil, err
		}
		if pj.Name == "" {
			return nil, d.errorf(pos, "parameter without a name")
		}
		typ, err := d.typ(pj.Type, s, pos)
		if err != nil {
			return nil, err
		}
		ops, err := d.space(pj.Space, pos)
		if err != nil {
			return nil, err
		}
		p := &tree.Parameter{
			Name:               pj.Name,
			Aliases:            slices.Clone(pj.Aliases),
			Type:               typ,
			HasDefaultFlag:     pj.HasDefault,
			HasConstructorFlag: pj.HasConstructor,
			ConsumesContent:    pj.Content,
			SpaceOps:           ops,
			Pos:                pos,
		}
		if pj.Regex != "" {
			if !typ.TakesRegex() {
				return nil, d.errorf(pos, "parameter %s: regex is only allowed on native types", pj.Name)
			}
			re, err := regexp.Compile("^(?:" + pj.Regex + ")$")
			if err != nil {
				return nil, d.wrap(pos, fmt.Errorf("parameter %s: %w", pj.Name, err))
			}
			p.Regex = re
		}
		if len(pj.Default) > 0 {
			if p.Default, err = d.node(pj.Default, pos, s); err != nil {
				return nil, err
			}
			p.Default = tree.NewCollapse(p.Default, ops)
		}
		if len(pj.Constructor) > 0 {
			if p.Constructor, err = d.node(pj.Constructor, pos, s); err != nil {
				return nil, err
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// typ decodes a parameter type. Content types default to the unit schema.
func (d *decoder) typ(tj typeJSON, s *schema.Schema, pos source.Pos) (*tree.Type, error) {
	switch tj.Kind {
	case "", "content":
		if tj.Schema == "" {
			return tree.ContentType(s), nil
		}
		cs, err := d.schema(tj.Schema, pos)
		if err != nil {
			return nil, err
		}
		return tree.ContentType(cs), nil
	case "boolean":
		return tree.BooleanType(), nil
	case "native":
		if tj.Name == "" {
			return nil, d.errorf(pos, "native type without a name")
		}
		return tree.NativeType(tj.Name), nil
	case "bundle":
		ev, ok := s.Element(tj.From)
		if !ok {
			return nil, d.errorf(pos, "bundle from unknown element <%s>", tj.From)
		}
		attrs := ev.AttrMap()
		for _, x := range tj.Exclude {
			delete(attrs, x)
		}
		return tree.BundleType(s, attrs), nil
	}
	return nil, d.wrap(pos, fmt.Errorf("%w: type kind %q", ErrUnknownKind, tj.Kind))
}

// node decodes content. ambient is the schema the node is written into; it
// decides the inner schema of elements.
func (d *decoder) node(raw json.RawMessage, parent source.Pos, ambient *schema.Schema) (*tree.Expr, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return tree.NewString(parent, nil, ""), nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, d.wrap(parent, err)
		}
		return tree.NewString(parent, nil, s), nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, d.wrap(parent, err)
		}
		return d.concat(items, parent, ambient)
	}

	var n nodeJSON
	if err := strict(raw, &n); err != nil {
		return nil, d.wrap(parent, fmt.Errorf("malformed node: %w", err))
	}
	pos, err := d.pos(n.Pos, parent)
	if err != nil {
		return nil, err
	}
	switch n.Kind {
	case "text":
		return tree.NewString(pos, nil, n.Text), nil
	case "expr":
		return tree.NewNative(pos, n.Code), nil
	case "object":
		var v string
		if err := json.Unmarshal(n.Value, &v); err != nil {
			return nil, d.errorf(pos, "object value must be a string")
		}
		return tree.NewObjectConstant(pos, v), nil
	case "bool":
		var v bool
		if err := json.Unmarshal(n.Value, &v); err != nil {
			return nil, d.errorf(pos, "bool value must be true or false")
		}
		return tree.NewBoolean(pos, v), nil
	case "concat":
		return d.concat(n.Values, pos, ambient)
	case "if":
		return d.conditional(&n, pos, ambient)
	case "element":
		return d.element(&n, pos, ambient)
	case "call":
		return d.call(&n, pos, ambient)
	case "msg":
		return d.message(&n, pos, ambient)
	case "nomsg":
		sub, err := d.node(n.Content, pos, ambient)
		if err != nil {
			return nil, err
		}
		return tree.NewNoMessage(pos, sub), nil
	case "ph":
		if n.Name == "" {
			return nil, d.errorf(pos, "placeholder without a name")
		}
		return tree.NewPlaceholderStart(pos, n.Name, n.Example), nil
	case "eph":
		return tree.NewPlaceholderEnd(pos), nil
	case "space":
		ops, err := d.space(n.Space, pos)
		if err != nil {
			return nil, err
		}
		sub, err := d.node(n.Content, pos, ambient)
		if err != nil {
			return nil, err
		}
		return tree.NewCollapse(sub, ops), nil
	}
	return nil, d.wrap(pos, fmt.Errorf("%w: node kind %q", ErrUnknownKind, n.Kind))
}

func (d *decoder) concat(items []json.RawMessage, pos source.Pos, ambient *schema.Schema) (*tree.Expr, error) {
	values := make([]*tree.Expr, 0, len(items))
	for _, it := range items {
		v, err := d.node(it, pos, ambient)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return tree.NewConcatenation(pos, nil, values), nil
}

func (d *decoder) conditional(n *nodeJSON, pos source.Pos, ambient *schema.Schema) (*tree.Expr, error) {
	if len(n.Clauses) == 0 {
		return nil, d.errorf(pos, "conditional without clauses")
	}
	clauses := make([]tree.Clause, 0, len(n.Clauses))
	for _, cj := range n.Clauses {
		cond, err := d.node(cj.Cond, pos, ambient)
		if err != nil {
			return nil, err
		}
		then, err := d.node(cj.Then, pos, ambient)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, tree.Clause{Predicate: cond, Expr: then})
	}
	els, err := d.node(n.Else, pos, ambient)
	if err != nil {
		return nil, err
	}
	return tree.NewConditional(pos, nil, clauses, els), nil
}

func (d *decoder) attrs(in []attrJSON, parent source.Pos, ambient *schema.Schema, validator *schema.ElementValidator) ([]*tree.Attribute, error) {
	out := make([]*tree.Attribute, 0, len(in))
	for _, aj := range in {
		pos, err := d.pos(aj.Pos, parent)
		if err != nil {
			return nil, err
		}
		if aj.Name == "" {
			return nil, d.errorf(pos, "attribute without a name")
		}
		val, err := d.node(aj.Value, pos, ambient)
		if err != nil {
			return nil, err
		}
		a := tree.NewAttribute(pos, aj.Name, val)
		if len(aj.Cond) > 0 {
			cond, err := d.node(aj.Cond, pos, ambient)
			if err != nil {
				return nil, err
			}
			a = a.WithCond(cond)
		}
		if av, ok := validator.Attr(aj.Name); ok && av.ContentType != "" {
			if inner, ok := d.reg.Lookup(av.ContentType); ok {
				a = a.WithInnerSchema(inner)
			}
		}
		out = append(out, a)
	}
	return out, nil
}

func (d *decoder) element(n *nodeJSON, pos source.Pos, ambient *schema.Schema) (*tree.Expr, error) {
	if n.Tag == "" {
		return nil, d.errorf(pos, "element without a tag")
	}
	v, ok := ambient.Element(n.Tag)
	if !ok {
		v = schema.NewElementValidator(n.Tag, 0, "")
	}
	inner := ambient
	var innerSchema *schema.Schema
	if v.InnerContentType != "" {
		s, ok := d.reg.Lookup(v.InnerContentType)
		if !ok {
			return nil, d.errorf(pos, "<%s> content type %s has no schema", n.Tag, v.InnerContentType)
		}
		inner, innerSchema = s, s
	}
	attrs, err := d.attrs(n.Attrs, pos, ambient, v)
	if err != nil {
		return nil, err
	}
	content, err := d.node(n.Content, pos, inner)
	if err != nil {
		return nil, err
	}
	return tree.NewOutputElement(pos, ambient, tree.OutputElementData{
		Tag:         n.Tag,
		Attributes:  attrs,
		Bundles:     slices.Clone(n.Bundles),
		Content:     content,
		Validator:   v,
		InnerSchema: innerSchema,
	}), nil
}

func (d *decoder) call(n *nodeJSON, pos source.Pos, ambient *schema.Schema) (*tree.Expr, error) {
	callee, err := d.name(n.Callee, pos)
	if err != nil {
		return nil, err
	}
	attrs, err := d.attrs(n.Attrs, pos, ambient, nil)
	if err != nil {
		return nil, err
	}
	content, err := d.node(n.Content, pos, ambient)
	if err != nil {
		return nil, err
	}
	ops, err := d.space(n.Space, pos)
	if err != nil {
		return nil, err
	}
	return tree.NewUnboundCall(pos, callee, attrs, slices.Clone(n.Bundles), tree.NewCollapse(content, ops)), nil
}

func (d *decoder) message(n *nodeJSON, pos source.Pos, ambient *schema.Schema) (*tree.Expr, error) {
	var ms *schema.Schema
	if n.Schema != "" {
		s, err := d.schema(n.Schema, pos)
		if err != nil {
			return nil, err
		}
		ms = s
	}
	content, err := d.node(n.Content, pos, ambient)
	if err != nil {
		return nil, err
	}
	return tree.NewUnextractedMessage(pos, ms, tree.UnextractedMessageData{
		Content:     content,
		Meaning:     n.Meaning,
		Description: n.Description,
		Hidden:      n.Hidden,
	}), nil
}
