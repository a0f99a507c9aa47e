package resolver

import (
	"fmt"

	"tyck/internal/ast"
	"tyck/internal/diag"
	"tyck/internal/symbols"
)

// variablesWalk binds the remaining `@x` and `@@x` references. Unknown
// variables are reported and declared untyped so later phases only see
// bound identifiers.
type variablesWalk struct {
	s *state
	owners
}

func newVariablesWalk(s *state) *variablesWalk {
	return &variablesWalk{s: s, owners: owners{table: s.table}}
}

func (w *variablesWalk) PreTransform(n ast.Node) ast.Node {
	w.enter(n)
	return n
}

func (w *variablesWalk) PostTransform(n ast.Node) ast.Node {
	switch n := n.(type) {
	case *ast.ClassDef, *ast.MethodDef:
		w.leave(n)
		return n
	case *ast.UnresolvedIdent:
		return &ast.Ident{Loc: n.Loc, Symbol: w.resolve(n)}
	default:
		return n
	}
}

func (w *variablesWalk) resolve(id *ast.UnresolvedIdent) symbols.SymbolRef {
	s, t := w.s, w.s.table
	var klass symbols.ClassRef
	if id.Kind == ast.IdentClass {
		klass = w.contextClass()
	} else {
		klass = w.selfClass()
	}
	if sym := t.FindMemberTransitive(klass, id.Name); sym.Exists() {
		return sym
	}

	kind := "instance"
	if id.Kind == ast.IdentClass {
		kind = "class"
	}
	if e := s.beginError(id.Loc, diag.ResUndeclaredVariable,
		fmt.Sprintf("Use of undeclared variable `%s`", s.str(id.Name))); e != nil {
		e.WithNote(t.Class(klass).Loc(), fmt.Sprintf("Declare the %s variable in `%s`", kind, t.ShowClass(klass))).Emit()
	}
	var ref symbols.FieldRef
	if id.Kind == ast.IdentClass {
		ref = t.EnterStaticField(id.Loc, klass, id.Name)
	} else {
		ref = t.EnterField(id.Loc, klass, id.Name)
	}
	t.Field(ref).ResultType = t.Types.Untyped()
	return t.FieldSymbol(ref)
}
