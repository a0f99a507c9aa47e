package resolver

import "tyck/internal/symbols"

// nesting is the lexical scope chain at a point of the tree, innermost
// first. Frames are shared between siblings and never mutated.
type nesting struct {
	scope  symbols.ClassRef
	parent *nesting
}

func (n *nesting) push(scope symbols.ClassRef) *nesting {
	return &nesting{scope: scope, parent: n}
}

// innermost returns the scope new stubs go into.
func (n *nesting) innermost() symbols.ClassRef {
	if n == nil {
		return symbols.Root
	}
	return n.scope
}
