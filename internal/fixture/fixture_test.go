package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tyck/internal/ast"
	"tyck/internal/source"
	"tyck/internal/symbols"
	"tyck/internal/testkit"
)

const sample = `name: sample
files:
  - path: a.rb
    body:
      - class: Box
        superclass: Base
        body:
          - "Elem = type_member(:out)"
          - "include Comparable"
          - "extend ClassMethods"
          - "abstract!"
          - "sig { params(x: Integer).returns(String) }"
          - def: get
            args: [x, "k:", "&blk"]
            body:
              - "@x = T.let(x, Integer)"
      - module: A::B
      - "X = Box"
  - path: b.rb
    suppressed: true
    body:
      - "Nope::Missing"
`

func build(t *testing.T, text string) (*Program, *source.FileSet) {
	t.Helper()
	doc, err := Parse("sample.yaml", []byte(text))
	require.NoError(t, err)
	fs := source.NewFileSet()
	prog, err := Build(doc, fs, nil)
	require.NoError(t, err)
	return prog, fs
}

func TestBuildNamesDeclarations(t *testing.T) {
	prog, fs := build(t, sample)
	table := prog.Table
	strs := table.Strings

	require.Len(t, prog.Trees, 2)
	assert.True(t, fs.Get(prog.FileIDs[1]).IsSuppressed())
	assert.True(t, fs.Get(table.PayloadFile()).IsPayload())

	box := table.FindMember(symbols.Root, strs.Intern("Box")).AsClass()
	require.True(t, box.Exists())
	data := table.Class(box)
	assert.True(t, data.IsClass())
	assert.True(t, data.IsAbstract())
	require.Len(t, data.TypeMembers, 1)
	assert.Equal(t, symbols.Covariant, table.TypeMember(data.TypeMembers[0]).Variance)

	get := table.FindMember(box, strs.Intern("get")).AsMethod()
	require.True(t, get.Exists())
	args := table.Method(get).Args
	require.Len(t, args, 3)
	assert.True(t, args[1].IsKeyword())
	assert.True(t, args[2].IsBlock())

	a := table.FindMember(symbols.Root, strs.Intern("A")).AsClass()
	require.True(t, a.Exists())
	assert.False(t, table.Class(a).IsClassModuleSet(), "scope classes stay undeclared")
	b := table.FindMember(a, strs.Intern("B")).AsClass()
	assert.True(t, table.Class(b).IsModule())

	x := table.FindMember(symbols.Root, strs.Intern("X"))
	assert.True(t, x.IsStaticField())
}

func TestBuildMovesAncestors(t *testing.T) {
	prog, _ := build(t, sample)
	root := prog.Trees[0].(*ast.ClassDef)
	box := root.Body[0].(*ast.ClassDef)

	require.Len(t, box.Ancestors, 2)
	assert.IsType(t, &ast.ConstantLit{}, box.Ancestors[0])
	assert.IsType(t, &ast.ConstantLit{}, box.Ancestors[1])
	require.Len(t, box.SingletonAncestors, 1)

	// type member, sig and def remain
	require.Len(t, box.Body, 3)
	sig, ok := box.Body[1].(*ast.Send)
	require.True(t, ok)
	assert.Equal(t, "sig", prog.Table.Strings.MustLookup(sig.Fun))
	assert.NotNil(t, sig.Block)

	module := root.Body[1].(*ast.ClassDef)
	assert.Empty(t, module.Ancestors)
}

func TestClassWithoutSuperclassGetsPlaceholder(t *testing.T) {
	prog, _ := build(t, `files:
  - path: a.rb
    body:
      - class: A
        body: ["include M"]
      - module: M
`)
	a := prog.Trees[0].(*ast.ClassDef).Body[0].(*ast.ClassDef)
	require.Len(t, a.Ancestors, 2)
	id, ok := a.Ancestors[0].(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, symbols.Todo.Ref(), id.Symbol)
}

func TestSpansPointIntoDocument(t *testing.T) {
	prog, fs := build(t, sample)
	root := prog.Trees[0].(*ast.ClassDef)
	alias := root.Body[2].(*ast.Assign)
	f := fs.Get(alias.Loc.File)
	require.NotNil(t, f)
	assert.Equal(t, "X = Box", string(f.Content[alias.Loc.Start:alias.Loc.End]))

	for _, tree := range prog.Trees {
		require.NoError(t, testkit.CheckSpanInvariants(tree, fs))
	}
}

func TestParseExprForms(t *testing.T) {
	strs := source.NewInterner()
	p := ast.Printer{Strings: strs}
	cases := map[string]string{
		"A::B::C":                    "A::B::C",
		"T.let(@x, Integer)":         "T.let(@x, Integer)",
		"type_member(fixed: String)": "self.type_member({:fixed => String})",
		"Foo[Integer, String]":       "Foo.[](Integer, String)",
		"declare_variables(:@a => Integer)": "self.declare_variables({:@a => Integer})",
		"include M, N":               "self.include(M, N)",
		"[1, 2.5, \"s\", :sym, nil]": "[1, 2.5, \"s\", :sym, nil]",
	}
	for src, want := range cases {
		n, err := parseExpr(src, 0, source.NoFileID, strs, symbols.Root)
		require.NoError(t, err, src)
		assert.Equal(t, want, p.String(n), src)
	}
}

func TestParseExprErrors(t *testing.T) {
	strs := source.NewInterner()
	for _, src := range []string{"foo(", "A::", "\"open", "x = ", "a $ b", "foo(a: 1, 2)"} {
		_, err := parseExpr(src, 0, source.NoFileID, strs, symbols.Root)
		assert.Error(t, err, src)
	}
}

func TestParseRejectsMalformedDocuments(t *testing.T) {
	_, err := Parse("x.yaml", []byte("files: []\n"))
	assert.Error(t, err)
	_, err = Parse("x.yaml", []byte("files:\n  - body: []\n"))
	assert.Error(t, err)
	_, err = Parse("x.yaml", []byte("files:\n  - path: a.rb\n    bogus: 1\n"))
	assert.Error(t, err)

	doc, err := Parse("x.yaml", []byte("files:\n  - path: a.rb\n    body:\n      - class: A\n        def: f\n"))
	require.NoError(t, err)
	_, err = Build(doc, source.NewFileSet(), nil)
	assert.Error(t, err)
}
