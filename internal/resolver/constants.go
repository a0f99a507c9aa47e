package resolver

import (
	"fmt"

	"tyck/internal/ast"
	"tyck/internal/diag"
	"tyck/internal/source"
	"tyck/internal/symbols"
	"tyck/internal/types"
)

// constantsWalk binds ConstantLit nodes, resolves class ancestors when a
// class body closes and turns `X = SomeClass` into a type alias.
type constantsWalk struct {
	s       *state
	nesting *nesting
}

func newConstantsWalk(s *state) *constantsWalk { return &constantsWalk{s: s} }

func (w *constantsWalk) PreTransform(n ast.Node) ast.Node {
	if c, ok := n.(*ast.ClassDef); ok {
		w.nesting = w.nesting.push(c.Symbol)
	}
	return n
}

func (w *constantsWalk) PostTransform(n ast.Node) ast.Node {
	switch n := n.(type) {
	case *ast.ClassDef:
		// ancestors are written outside the body
		w.nesting = w.nesting.parent
		w.resolveAncestors(n)
		return n
	case *ast.ConstantLit:
		sym := w.resolveConstant(n)
		enforce(sym.Exists(), "constant %q resolved to nothing", w.s.str(n.Name))
		return &ast.Ident{Loc: n.Loc, Symbol: sym}
	case *ast.Assign:
		return w.aliasAssign(n)
	default:
		return n
	}
}

// resolveLexical looks name up in each enclosing scope, innermost first.
// Ancestors are not consulted: they are only linked once a class body closes.
func (w *constantsWalk) resolveLexical(id source.StringID) symbols.SymbolRef {
	t := w.s.table
	for scope := w.nesting; scope != nil; scope = scope.parent {
		if res := t.FindMember(scope.scope, id); res.Exists() {
			return res
		}
	}
	return symbols.NoSymbol
}

// resolveConstant is total: it returns the bound symbol, a freshly stubbed
// class, or the untyped sentinel.
func (w *constantsWalk) resolveConstant(c *ast.ConstantLit) symbols.SymbolRef {
	s, t := w.s, w.s.table
	untyped := symbols.Untyped.Ref()

	switch scope := c.Scope.(type) {
	case nil, *ast.EmptyTree:
		if res := w.resolveLexical(c.Name); res.Exists() {
			return res
		}
		owner := w.nesting.innermost()
		e := s.beginError(c.Loc, diag.ResStubConstant, fmt.Sprintf("Stubbing out unknown constant `%s`", s.show(c)))
		if e == nil {
			return untyped
		}
		e.Emit()
		return w.stub(c, owner, true).Ref()

	case *ast.ConstantLit, *ast.Ident:
		if lit, ok := scope.(*ast.ConstantLit); ok {
			inner := w.resolveConstant(lit)
			enforce(inner.Exists(), "scope %q resolved to nothing", s.show(lit))
			c.Scope = &ast.Ident{Loc: lit.Loc, Symbol: inner}
		}
		scopeSym := s.dealiasConstant(c.Scope.(*ast.Ident).Symbol)
		if !scopeSym.Exists() {
			return untyped
		}
		if res := t.FindMember(scopeSym, c.Name); res.Exists() {
			return res
		}
		if t.Types.IsUntyped(t.Class(scopeSym).ResultType) {
			// the scope is itself a stub; one report is enough
			return untyped
		}
		e := s.beginError(c.Loc, diag.ResStubConstant, fmt.Sprintf("Stubbing out unknown constant `%s`", s.show(c)))
		if e == nil {
			return untyped
		}
		e.Emit()
		return w.stub(c, scopeSym, false).Ref()

	default:
		if e := s.beginError(c.Loc, diag.ResDynamicConstant, fmt.Sprintf("Dynamic constant references are unsupported `%s`", s.show(c))); e != nil {
			e.Emit()
		}
		return untyped
	}
}

// stub enters a placeholder class for an unknown constant whose instances
// are untyped. Only stubs of bare names derive from StubClass; a stub under
// an explicit scope gets its superclass from the finalizer.
func (w *constantsWalk) stub(c *ast.ConstantLit, owner symbols.ClassRef, lexical bool) symbols.ClassRef {
	t := w.s.table
	ref := t.EnterClass(c.Loc, owner, c.Name)
	data := t.Class(ref)
	if !data.IsClassModuleSet() {
		data.SetIsModule(false)
	}
	if lexical && !data.SuperClass.Exists() {
		t.SetSuperClass(ref, symbols.StubClass)
	}
	data.ResultType = t.Types.Untyped()
	data.Flags |= symbols.ClassFlagStub
	return ref
}

// aliasAssign rewrites `X = SomeClass` into an alias on the constant X and
// drops the statement.
func (w *constantsWalk) aliasAssign(a *ast.Assign) ast.Node {
	lhs, ok := a.LHS.(*ast.Ident)
	if !ok || !lhs.Symbol.IsStaticField() {
		return a
	}
	rhs, ok := a.RHS.(*ast.Ident)
	if !ok || !rhs.Symbol.IsClassOrModule() {
		return a
	}
	t := w.s.table
	t.Field(lhs.Symbol.AsField()).ResultType = t.Types.Alias(rhs.Symbol.ID)
	return ast.Empty(a.Loc)
}

// dealiasConstant maps a resolved constant to the class it denotes:
// classes map to themselves and aliases to their target. Anything else
// has no class.
func (s *state) dealiasConstant(ref symbols.SymbolRef) symbols.ClassRef {
	switch {
	case ref.IsClassOrModule():
		return ref.AsClass()
	case ref.IsStaticField():
		target, ok := s.table.Types.Lookup(s.table.Field(ref.AsField()).ResultType)
		if !ok || target.Kind != types.KindAlias {
			return symbols.NoClassRef
		}
		return symbols.ClassRef(target.Symbol)
	default:
		return symbols.NoClassRef
	}
}
