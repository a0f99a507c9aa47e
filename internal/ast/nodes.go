package ast

import (
	"tyck/internal/source"
	"tyck/internal/symbols"
	"tyck/internal/types"
)

// Node is a syntax tree node. The set of implementations is closed: every
// node type lives in this file and walkers switch over all of them.
type Node interface {
	Span() source.Span
	node()
}

// EmptyTree stands for an absent expression (no scope, removed statement).
type EmptyTree struct {
	Loc source.Span
}

// ClassKind distinguishes `class` from `module` declarations.
type ClassKind uint8

const (
	KindClass ClassKind = iota
	KindModule
)

func (k ClassKind) String() string {
	if k == KindModule {
		return "module"
	}
	return "class"
}

// ClassDef is a class or module body. Symbol is bound by the naming phase.
// For classes the first ancestor is the superclass candidate; an Ident of
// symbols.Todo there means no superclass was written.
type ClassDef struct {
	Loc                source.Span
	DeclLoc            source.Span
	Symbol             symbols.ClassRef
	Kind               ClassKind
	Name               Node
	Ancestors          []Node
	SingletonAncestors []Node
	Body               []Node
}

// MethodDef is a method definition bound to its symbol.
type MethodDef struct {
	Loc    source.Span
	Symbol symbols.MethodRef
	Name   source.StringID
	IsSelf bool
	Body   Node
}

// ConstantLit is an unresolved constant reference `Scope::Name`. Scope is
// EmptyTree for a lexical reference, another ConstantLit or an Ident for a
// qualified one; anything else is a dynamic scope.
type ConstantLit struct {
	Loc   source.Span
	Scope Node
	Name  source.StringID
}

// Ident is a reference already bound to a symbol.
type Ident struct {
	Loc    source.Span
	Symbol symbols.SymbolRef
}

// IdentKind classifies variables the naming phase left unresolved.
type IdentKind uint8

const (
	IdentInstance IdentKind = iota // @x
	IdentClass                     // @@x
)

// UnresolvedIdent is an instance or class variable awaiting resolution.
type UnresolvedIdent struct {
	Loc  source.Span
	Kind IdentKind
	Name source.StringID
}

// Self is the receiver `self` inside Class.
type Self struct {
	Loc   source.Span
	Class symbols.ClassRef
}

// Send is a method call. Block is nil when no block is passed.
type Send struct {
	Loc   source.Span
	Recv  Node
	Fun   source.StringID
	Args  []Node
	Block Node
}

// Assign is `LHS = RHS`.
type Assign struct {
	Loc source.Span
	LHS Node
	RHS Node
}

// Hash is a hash literal; Keys and Values have equal length.
type Hash struct {
	Loc    source.Span
	Keys   []Node
	Values []Node
}

// Array is an array literal.
type Array struct {
	Loc   source.Span
	Elems []Node
}

// LitKind classifies literals.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitString
	LitSymbol
	LitTrue
	LitFalse
	LitNil
)

// Literal is a scalar literal. Value keeps the source text (symbol names
// without the leading colon).
type Literal struct {
	Loc   source.Span
	Kind  LitKind
	Value string
}

// Cast is a resolved `T.let` / `T.cast` / `T.assert_type!`.
type Cast struct {
	Loc  source.Span
	Type types.TypeID
	Expr Node
	Cast source.StringID
}

// InsSeq is a statement sequence followed by a result expression.
type InsSeq struct {
	Loc   source.Span
	Stats []Node
	Expr  Node
}

func (n *EmptyTree) Span() source.Span       { return n.Loc }
func (n *ClassDef) Span() source.Span        { return n.Loc }
func (n *MethodDef) Span() source.Span       { return n.Loc }
func (n *ConstantLit) Span() source.Span     { return n.Loc }
func (n *Ident) Span() source.Span           { return n.Loc }
func (n *UnresolvedIdent) Span() source.Span { return n.Loc }
func (n *Self) Span() source.Span            { return n.Loc }
func (n *Send) Span() source.Span            { return n.Loc }
func (n *Assign) Span() source.Span          { return n.Loc }
func (n *Hash) Span() source.Span            { return n.Loc }
func (n *Array) Span() source.Span           { return n.Loc }
func (n *Literal) Span() source.Span         { return n.Loc }
func (n *Cast) Span() source.Span            { return n.Loc }
func (n *InsSeq) Span() source.Span          { return n.Loc }

func (*EmptyTree) node()       {}
func (*ClassDef) node()        {}
func (*MethodDef) node()       {}
func (*ConstantLit) node()     {}
func (*Ident) node()           {}
func (*UnresolvedIdent) node() {}
func (*Self) node()            {}
func (*Send) node()            {}
func (*Assign) node()          {}
func (*Hash) node()            {}
func (*Array) node()           {}
func (*Literal) node()         {}
func (*Cast) node()            {}
func (*InsSeq) node()          {}

// IsEmpty reports whether n is nil or an EmptyTree.
func IsEmpty(n Node) bool {
	if n == nil {
		return true
	}
	_, ok := n.(*EmptyTree)
	return ok
}

// Empty returns an EmptyTree at loc.
func Empty(loc source.Span) *EmptyTree { return &EmptyTree{Loc: loc} }
