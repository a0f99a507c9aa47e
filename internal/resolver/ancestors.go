package resolver

import (
	"fmt"

	"tyck/internal/ast"
	"tyck/internal/diag"
	"tyck/internal/symbols"
)

// resolveAncestors links a closed class body to the ancestors written on
// its declaration. For classes the first ancestor is the superclass; every
// other entry, and every ancestor of a module, is a mixin. `extend`-style
// ancestors become mixins of the singleton class.
func (w *constantsWalk) resolveAncestors(c *ast.ClassDef) {
	s, t := w.s, w.s.table
	klass := c.Symbol
	enforce(klass.Exists() && klass != symbols.Todo, "class definition without a symbol")

	for i := range c.Ancestors {
		anc := w.resolveAncestor(klass, &c.Ancestors[i])
		if !anc.Exists() || anc == symbols.Todo {
			continue
		}
		if c.Kind == ast.KindClass && i == 0 {
			data := t.Class(klass)
			switch cur := data.SuperClass; {
			case !cur.Exists(), cur == symbols.Todo, cur == anc:
				t.SetSuperClass(klass, anc)
			default:
				if e := s.beginError(c.Ancestors[i].Span(), diag.ResRedefinitionOfParents,
					fmt.Sprintf("Parents of class `%s` redefined", t.ShowClass(klass))); e != nil {
					e.WithNote(data.Loc(), fmt.Sprintf("Previously declared with superclass `%s`", t.ShowClass(cur))).Emit()
				}
			}
			continue
		}
		t.AddMixin(klass, anc)
	}

	if c.Kind == ast.KindModule && len(t.Class(klass).Mixins) == 0 {
		t.AddMixin(klass, symbols.BasicObject)
	}

	if len(c.SingletonAncestors) == 0 {
		return
	}
	singleton := t.SingletonClass(klass)
	for i := range c.SingletonAncestors {
		if anc := w.resolveAncestor(singleton, &c.SingletonAncestors[i]); anc.Exists() && anc != symbols.Todo {
			t.AddMixin(singleton, anc)
		}
	}
}

// resolveAncestor binds one ancestor expression in the scope enclosing the
// class and checks that it can be a parent of klass. The slot is rewritten
// to the bound Ident. NoClassRef means the ancestor is dropped.
func (w *constantsWalk) resolveAncestor(klass symbols.ClassRef, slot *ast.Node) symbols.ClassRef {
	s, t := w.s, w.s.table
	if lit, ok := (*slot).(*ast.ConstantLit); ok {
		*slot = &ast.Ident{Loc: lit.Loc, Symbol: w.resolveConstant(lit)}
	}
	loc := (*slot).Span()

	id, ok := (*slot).(*ast.Ident)
	var anc symbols.ClassRef
	if ok {
		anc = s.dealiasConstant(id.Symbol)
	}
	if anc == symbols.Untyped {
		// already reported where the constant was stubbed
		return symbols.NoClassRef
	}
	if !anc.Exists() {
		if e := s.beginError(loc, diag.ResDynamicSuperclass, "Superclasses and mixins must be statically resolvable"); e != nil {
			e.Emit()
		}
		return symbols.NoClassRef
	}
	if anc == symbols.Todo {
		return anc
	}
	if anc == klass || t.DerivesFrom(anc, klass) {
		if e := s.beginError(loc, diag.ResCircularDependency,
			fmt.Sprintf("Circular dependency: `%s` and `%s` are declared as parents of each other",
				t.ShowClass(klass), t.ShowClass(anc))); e != nil {
			e.Emit()
		}
		return symbols.NoClassRef
	}
	return anc
}
