package resolver

import (
	"tyck/internal/ast"
	"tyck/internal/symbols"
)

// owners tracks the innermost enclosing class or method during a walk.
type owners struct {
	table *symbols.Table
	stack []symbols.SymbolRef
}

func (o *owners) enter(n ast.Node) {
	switch n := n.(type) {
	case *ast.ClassDef:
		o.stack = append(o.stack, n.Symbol.Ref())
	case *ast.MethodDef:
		o.stack = append(o.stack, n.Symbol.Ref())
	}
}

func (o *owners) leave(n ast.Node) {
	switch n.(type) {
	case *ast.ClassDef, *ast.MethodDef:
		o.stack = o.stack[:len(o.stack)-1]
	}
}

func (o *owners) owner() symbols.SymbolRef {
	if len(o.stack) == 0 {
		return symbols.Root.Ref()
	}
	return o.stack[len(o.stack)-1]
}

// contextClass is the class whose body encloses the current position:
// the owner itself or the class owning the current method.
func (o *owners) contextClass() symbols.ClassRef {
	owner := o.owner()
	if owner.IsClassOrModule() {
		return owner.AsClass()
	}
	return o.table.Owner(owner)
}

// selfClass is the class of `self` at the current position: the
// singleton class directly in a class body, the method owner inside a
// method.
func (o *owners) selfClass() symbols.ClassRef {
	owner := o.owner()
	if owner.IsClassOrModule() {
		return o.table.SingletonClass(owner.AsClass())
	}
	return o.table.Owner(owner)
}
