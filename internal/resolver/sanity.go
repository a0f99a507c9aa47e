package resolver

import (
	"errors"
	"fmt"

	"tyck/internal/ast"
	"tyck/internal/symbols"
)

// sanityCheck verifies that resolved trees only reference bound symbols.
func sanityCheck(trees []ast.Node) error {
	var errs []error
	for idx, tree := range trees {
		ast.Walk(tree, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.ClassDef:
				if !n.Symbol.Exists() || n.Symbol == symbols.Todo {
					errs = append(errs, fmt.Errorf("tree %d: class at %s has no symbol", idx, n.Loc))
				}
			case *ast.MethodDef:
				if !n.Symbol.Exists() {
					errs = append(errs, fmt.Errorf("tree %d: method at %s has no symbol", idx, n.Loc))
				}
			case *ast.ConstantLit:
				errs = append(errs, fmt.Errorf("tree %d: unresolved constant at %s", idx, n.Loc))
			case *ast.UnresolvedIdent:
				errs = append(errs, fmt.Errorf("tree %d: unresolved variable at %s", idx, n.Loc))
			case *ast.Ident:
				// Todo stays as the superclass slot of classes written without one
				if !n.Symbol.Exists() {
					errs = append(errs, fmt.Errorf("tree %d: identifier at %s is unbound", idx, n.Loc))
				}
			}
			return true
		})
	}
	return errors.Join(errs...)
}
