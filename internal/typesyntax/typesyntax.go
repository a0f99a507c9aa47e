// Package typesyntax turns signature and type annotations written in the
// tree into types. The resolver consumes its results opaquely.
package typesyntax

import (
	"tyck/internal/ast"
	"tyck/internal/source"
	"tyck/internal/symbols"
	"tyck/internal/types"
)

// Seen records which parts of a `sig` block were present.
type Seen struct {
	Returns        bool
	Void           bool
	Args           bool
	Abstract       bool
	Override       bool
	Overridable    bool
	Implementation bool
	Final          bool
}

// ArgSpec is one `params(name: Type)` entry.
type ArgSpec struct {
	Name source.StringID
	Loc  source.Span
	Type types.TypeID
}

// Sig is a parsed method signature.
type Sig struct {
	Returns types.TypeID
	Args    []ArgSpec
	Seen    Seen
}

// Parser is the signature collaborator used by the resolver.
type Parser interface {
	// IsSig reports whether send is a `sig { ... }` annotation.
	IsSig(table *symbols.Table, send *ast.Send) bool
	// ParseSig reads a sig annotation.
	ParseSig(table *symbols.Table, send *ast.Send) Sig
	// ResultType converts a type expression; unsupported forms are untyped.
	ResultType(table *symbols.Table, n ast.Node) types.TypeID
}

// Default understands `params`, `returns`, `void` and the modifier calls
// (`abstract`, `override`, `overridable`, `implementation`, `final`), and
// types written as class references, `T.untyped`, `T.noreturn`,
// `Klass[Arg, ...]` and `[A, B]` tuples.
type Default struct{}

// New returns the default parser.
func New() Default { return Default{} }

func name(table *symbols.Table, id source.StringID) string {
	s, _ := table.Strings.Lookup(id)
	return s
}

func (Default) IsSig(table *symbols.Table, send *ast.Send) bool {
	if send == nil || name(table, send.Fun) != "sig" {
		return false
	}
	switch send.Recv.(type) {
	case nil, *ast.EmptyTree, *ast.Self:
		return true
	default:
		return false
	}
}

func (p Default) ParseSig(table *symbols.Table, send *ast.Send) Sig {
	sig := Sig{Returns: table.Types.Untyped()}
	if send == nil {
		return sig
	}
	node := send.Block
	for {
		call, ok := node.(*ast.Send)
		if !ok {
			break
		}
		switch name(table, call.Fun) {
		case "returns":
			sig.Seen.Returns = true
			if len(call.Args) > 0 {
				sig.Returns = p.ResultType(table, call.Args[0])
			}
		case "void":
			sig.Seen.Returns = true
			sig.Seen.Void = true
			sig.Returns = table.Types.Class(uint32(symbols.NilClass))
		case "params":
			sig.Seen.Args = true
			for _, arg := range call.Args {
				sig.Args = append(sig.Args, p.paramSpecs(table, arg)...)
			}
		case "abstract":
			sig.Seen.Abstract = true
		case "override":
			sig.Seen.Override = true
		case "overridable":
			sig.Seen.Overridable = true
		case "implementation":
			sig.Seen.Implementation = true
		case "final":
			sig.Seen.Final = true
		}
		node = call.Recv
	}
	return sig
}

func (p Default) paramSpecs(table *symbols.Table, arg ast.Node) []ArgSpec {
	hash, ok := arg.(*ast.Hash)
	if !ok {
		return nil
	}
	specs := make([]ArgSpec, 0, len(hash.Keys))
	for i, key := range hash.Keys {
		lit, ok := key.(*ast.Literal)
		if !ok || lit.Kind != ast.LitSymbol {
			continue
		}
		specs = append(specs, ArgSpec{
			Name: table.Strings.InternIdent(lit.Value),
			Loc:  lit.Loc,
			Type: p.ResultType(table, hash.Values[i]),
		})
	}
	return specs
}

func (p Default) ResultType(table *symbols.Table, n ast.Node) types.TypeID {
	untyped := table.Types.Untyped()
	switch n := n.(type) {
	case *ast.Ident:
		if cls := dealias(table, n.Symbol); cls.Exists() {
			return table.ExternalType(cls)
		}
		return untyped
	case *ast.Array:
		elems := make([]types.TypeID, 0, len(n.Elems))
		for _, e := range n.Elems {
			elems = append(elems, p.ResultType(table, e))
		}
		return table.Types.Tuple(elems)
	case *ast.Send:
		recv, ok := n.Recv.(*ast.Ident)
		if !ok {
			return untyped
		}
		fun := name(table, n.Fun)
		if recv.Symbol.AsClass() == symbols.T {
			switch fun {
			case "noreturn":
				return table.Types.Bottom()
			default:
				// unions and intersections are not modelled
				return untyped
			}
		}
		if fun != "[]" {
			return untyped
		}
		cls := dealias(table, recv.Symbol)
		if !cls.Exists() {
			return untyped
		}
		args := make([]types.TypeID, 0, len(n.Args))
		for _, a := range n.Args {
			args = append(args, p.ResultType(table, a))
		}
		return table.Types.Applied(uint32(cls), args)
	default:
		return untyped
	}
}

// dealias follows a constant alias (`X = Foo`) to the class it names.
// Stub classes yield NoClassRef.
func dealias(table *symbols.Table, ref symbols.SymbolRef) symbols.ClassRef {
	if ref.IsStaticField() {
		tt, ok := table.Types.Lookup(table.Field(ref.AsField()).ResultType)
		if !ok || tt.Kind != types.KindAlias {
			return symbols.NoClassRef
		}
		ref = symbols.ClassRef(tt.Symbol).Ref()
	}
	cls := ref.AsClass()
	if !cls.Exists() || table.Types.IsUntyped(table.Class(cls).ResultType) {
		return symbols.NoClassRef
	}
	return cls
}
