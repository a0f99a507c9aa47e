package typesyntax

import (
	"testing"

	"tyck/internal/ast"
	"tyck/internal/source"
	"tyck/internal/symbols"
)

func send(table *symbols.Table, recv ast.Node, fun string, args ...ast.Node) *ast.Send {
	return &ast.Send{Recv: recv, Fun: table.Strings.Intern(fun), Args: args}
}

func class(ref symbols.ClassRef) *ast.Ident { return &ast.Ident{Symbol: ref.Ref()} }

func TestParseSig(t *testing.T) {
	table := symbols.NewTable(symbols.Hints{}, nil, source.NoFileID)
	params := &ast.Hash{
		Keys:   []ast.Node{&ast.Literal{Kind: ast.LitSymbol, Value: "a"}},
		Values: []ast.Node{class(symbols.Integer)},
	}
	chain := send(table, send(table, send(table, ast.Empty(source.Span{}), "params", params), "returns", class(symbols.String)), "abstract")
	sig := &ast.Send{Recv: &ast.Self{}, Fun: table.Strings.Intern("sig"), Block: chain}

	p := New()
	if !p.IsSig(table, sig) {
		t.Fatalf("expected sig to be recognised")
	}
	parsed := p.ParseSig(table, sig)
	if !parsed.Seen.Returns || !parsed.Seen.Args || !parsed.Seen.Abstract {
		t.Fatalf("unexpected seen flags %+v", parsed.Seen)
	}
	if got := table.ShowType(parsed.Returns); got != "String" {
		t.Fatalf("expected String, got %q", got)
	}
	if len(parsed.Args) != 1 || table.Strings.MustLookup(parsed.Args[0].Name) != "a" {
		t.Fatalf("unexpected args %+v", parsed.Args)
	}
	if got := table.ShowType(parsed.Args[0].Type); got != "Integer" {
		t.Fatalf("expected Integer, got %q", got)
	}
}

func TestResultTypeForms(t *testing.T) {
	table := symbols.NewTable(symbols.Hints{}, nil, source.NoFileID)
	p := New()

	cases := []struct {
		name string
		node ast.Node
		want string
	}{
		{"class", class(symbols.Float), "Float"},
		{"untyped", send(table, class(symbols.T), "untyped"), "T.untyped"},
		{"noreturn", send(table, class(symbols.T), "noreturn"), "T.noreturn"},
		{"applied", send(table, class(symbols.Array), "[]", class(symbols.Integer)), "Array[Integer]"},
		{"tuple", &ast.Array{Elems: []ast.Node{class(symbols.String), class(symbols.SymbolClass)}}, "[String, Symbol]"},
		{"unresolved", &ast.ConstantLit{Name: table.Strings.Intern("Nope")}, "T.untyped"},
		{"stub", class(symbols.StubClass), "T.untyped"},
	}
	for _, tc := range cases {
		if got := table.ShowType(p.ResultType(table, tc.node)); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
