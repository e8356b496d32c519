package testkit

import (
	"fmt"

	"gxpc/internal/schema"
	"gxpc/internal/tree"
)

// CheckPosInvariants runs a minimal set of position invariants on a tree:
// 1) every known position starts at line/column >= 1
// 2) a known position never ends before it starts
func CheckPosInvariants(e *tree.Expr) error {
	var err error
	tree.Inspect(e, func(n *tree.Expr) bool {
		if err != nil {
			return false
		}
		p := n.Pos
		if !p.Known() {
			return true
		}
		if p.Line == 0 || p.Col == 0 {
			err = fmt.Errorf("%s: position %s has zero start", n.Kind, p)
			return false
		}
		if p.EndLine < p.Line || (p.EndLine == p.Line && p.EndCol < p.Col) {
			err = fmt.Errorf("%s: position %s ends before it starts", n.Kind, p)
			return false
		}
		return true
	})
	return err
}

// CheckNoKinds fails if any of kinds is reachable from e.
func CheckNoKinds(e *tree.Expr, kinds ...tree.ExprKind) error {
	banned := make(map[tree.ExprKind]bool, len(kinds))
	for _, k := range kinds {
		banned[k] = true
	}
	var err error
	tree.Inspect(e, func(n *tree.Expr) bool {
		if err == nil && banned[n.Kind] {
			err = fmt.Errorf("unexpected %s (%s) at %s", n.Kind, n.DisplayName(), n.Pos)
		}
		return err == nil
	})
	return err
}

// CheckSchemaSoundness verifies that, below root, every node written into
// content carries a schema allowed by the schema of the content it sits in.
// Element bodies switch to the inner schema. Escapes and call parameters
// convert between schemas and are not descended into.
func CheckSchemaSoundness(e *tree.Expr, ambient *schema.Schema) error {
	if e == nil {
		return nil
	}
	if !ambient.Allows(e.Schema) {
		return fmt.Errorf("%s (%s) at %s has schema %s, not allowed by %s",
			e.Kind, e.DisplayName(), e.Pos, e.Schema, ambient)
	}
	switch d := e.Data.(type) {
	case tree.ConcatenationData:
		for _, v := range d.Values {
			if err := CheckSchemaSoundness(v, ambient); err != nil {
				return err
			}
		}
	case tree.ConditionalData:
		for _, c := range d.Clauses {
			if err := CheckSchemaSoundness(c.Expr, ambient); err != nil {
				return err
			}
		}
		return CheckSchemaSoundness(d.Else, ambient)
	case tree.OutputElementData:
		inner := ambient
		if d.InnerSchema != nil {
			inner = d.InnerSchema
		}
		for _, a := range d.Attributes {
			if err := CheckSchemaSoundness(a.Value, ambient); err != nil {
				return err
			}
		}
		return CheckSchemaSoundness(d.Content, inner)
	case tree.UnextractedMessageData:
		return CheckSchemaSoundness(d.Content, e.Schema)
	case tree.EscapeData, tree.BoundCallData:
		// conversions: the inner values are checked against their own schemas
	}
	return nil
}
