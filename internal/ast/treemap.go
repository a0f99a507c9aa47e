package ast

import (
	"fmt"

	"tyck/internal/source"
)

// Transformer receives every node of a tree walk. PreTransform runs before
// the children are visited, PostTransform after; both return the node to
// keep in place of n (n itself to leave the tree unchanged).
type Transformer interface {
	PreTransform(n Node) Node
	PostTransform(n Node) Node
}

// Map rewrites tree depth-first and returns the new root.
//
// Class ancestors and names are not visited: they belong to the enclosing
// lexical scope and are handled by the PostTransform of the ClassDef itself.
// The scope of a ConstantLit is left to whoever resolves the constant.
func Map(tree Node, tr Transformer) Node {
	if tree == nil {
		return nil
	}
	tree = tr.PreTransform(tree)
	switch n := tree.(type) {
	case *ClassDef:
		mapAll(n.Body, tr)
	case *MethodDef:
		n.Body = Map(n.Body, tr)
	case *Send:
		n.Recv = Map(n.Recv, tr)
		mapAll(n.Args, tr)
		n.Block = Map(n.Block, tr)
	case *Assign:
		n.LHS = Map(n.LHS, tr)
		n.RHS = Map(n.RHS, tr)
	case *Hash:
		mapAll(n.Keys, tr)
		mapAll(n.Values, tr)
	case *Array:
		mapAll(n.Elems, tr)
	case *Cast:
		n.Expr = Map(n.Expr, tr)
	case *InsSeq:
		mapAll(n.Stats, tr)
		n.Expr = Map(n.Expr, tr)
	case *EmptyTree, *ConstantLit, *Ident, *UnresolvedIdent, *Self, *Literal, *pruned:
		// leaves
	default:
		panic(fmt.Sprintf("ast.Map: unexpected node %T", tree))
	}
	return tr.PostTransform(tree)
}

func mapAll(nodes []Node, tr Transformer) {
	for i := range nodes {
		nodes[i] = Map(nodes[i], tr)
	}
}

// Walk visits every node reachable by Map without rewriting. fn returning
// false stops the descent into that node's children.
func Walk(tree Node, fn func(Node) bool) {
	Map(tree, walker{fn: fn})
}

type walker struct {
	fn func(Node) bool
}

func (w walker) PreTransform(n Node) Node {
	if !w.fn(n) {
		return &pruned{inner: n}
	}
	return n
}

func (w walker) PostTransform(n Node) Node {
	if p, ok := n.(*pruned); ok {
		return p.inner
	}
	return n
}

// pruned hides a node's children from Map.
type pruned struct{ inner Node }

func (p *pruned) Span() source.Span { return p.inner.Span() }
func (*pruned) node()               {}
