package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tyck/internal/ast"
	"tyck/internal/diag"
	"tyck/internal/source"
	"tyck/internal/symbols"
)

func TestLexicalLookupPrefersInnermostScope(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - class: Inner
      - module: Outer
        body:
          - class: Inner
          - class: User
            body:
              - def: f
                body: ["Inner"]
`)
	assert.Empty(t, r.codes())
	user := r.class("Outer::User")
	var seen symbols.SymbolRef
	ast.Walk(r.res.Trees[0], func(n ast.Node) bool {
		if m, ok := n.(*ast.MethodDef); ok {
			seen = m.Body.(*ast.Ident).Symbol
			return false
		}
		return true
	})
	assert.Equal(t, r.class("Outer::Inner").Ref(), seen)
	assert.NotEqual(t, r.class("Inner").Ref(), seen)
	assert.True(t, user.Exists())
}

func TestLookupDoesNotSearchAncestors(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - class: A
        body: ["X = 1"]
      - class: B
        superclass: A
        body:
          - def: f
            body: ["X"]
      - class: B
        body:
          - def: g
            body: ["X"]
`)
	// the first body is walked before B is linked to A; the reopened body
	// must not see A::X either
	stubs := r.diagnostics(diag.ResStubConstant)
	require.Len(t, stubs, 1)
	assert.Equal(t, "Stubbing out unknown constant `X`", stubs[0].Message)

	root := r.res.Trees[0].(*ast.ClassDef)
	first := root.Body[1].(*ast.ClassDef).Body[0].(*ast.MethodDef)
	reopened := root.Body[2].(*ast.ClassDef).Body[0].(*ast.MethodDef)
	stub := r.member(r.class("B"), "X")
	require.True(t, stub.Exists())
	assert.NotEqual(t, r.member(r.class("A"), "X"), stub)
	assert.Equal(t, stub, first.Body.(*ast.Ident).Symbol)
	assert.Equal(t, stub, reopened.Body.(*ast.Ident).Symbol)
}

func TestQualifiedStubIsOrdinaryClass(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - module: Lib
      - "Lib::Missing"
`)
	require.Len(t, r.diagnostics(diag.ResStubConstant), 1)
	data := r.table().Class(r.class("Lib::Missing"))
	assert.True(t, data.IsStub())
	assert.True(t, r.table().Types.IsUntyped(data.ResultType))
	assert.Equal(t, symbols.Object, data.SuperClass)
}

func TestStubIsCreatedOnce(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - "Missing"
      - "Missing"
      - class: A
        body:
          - def: f
            body: ["Missing"]
`)
	stubs := r.diagnostics(diag.ResStubConstant)
	require.Len(t, stubs, 1)
	assert.Equal(t, "Stubbing out unknown constant `Missing`", stubs[0].Message)

	missing := r.class("Missing")
	data := r.table().Class(missing)
	assert.True(t, data.IsStub())
	assert.True(t, data.IsClass())
	assert.Equal(t, symbols.StubClass, data.SuperClass)
	assert.True(t, r.table().Types.IsUntyped(data.ResultType))

	root := r.res.Trees[0].(*ast.ClassDef)
	assert.Equal(t, missing.Ref(), root.Body[0].(*ast.Ident).Symbol)
	assert.Equal(t, missing.Ref(), root.Body[1].(*ast.Ident).Symbol)
}

func TestResolveConstantTwiceReportsOnce(t *testing.T) {
	r := newRun(t, `files:
  - path: a.rb
    body: [{class: A}]
`)
	s := newState(r.table(), r.options())
	w := newConstantsWalk(s)
	w.nesting = w.nesting.push(symbols.Root)
	file := r.prog.FileIDs[0]
	lit := func() *ast.ConstantLit {
		return &ast.ConstantLit{
			Loc:   source.Span{File: file, Start: 0, End: 5},
			Scope: ast.Empty(source.Span{File: file}),
			Name:  r.table().Strings.Intern("Nope"),
		}
	}
	first := w.resolveConstant(lit())
	second := w.resolveConstant(lit())
	assert.Equal(t, first, second)
	assert.Len(t, r.diagnostics(diag.ResStubConstant), 1)
}

func TestQualifiedConstantUnderStubIsNotReported(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - "Missing::Deeper::Deepest"
`)
	stubs := r.diagnostics(diag.ResStubConstant)
	require.Len(t, stubs, 1)
	assert.Contains(t, stubs[0].Message, "`Missing`")
	id := r.res.Trees[0].(*ast.ClassDef).Body[0].(*ast.Ident)
	assert.Equal(t, symbols.Untyped.Ref(), id.Symbol)
}

func TestQualifiedConstantUnderRealScopeIsStubbed(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - module: Lib
      - "Lib::Missing"
      - "::Lib"
`)
	stubs := r.diagnostics(diag.ResStubConstant)
	require.Len(t, stubs, 1)
	assert.Equal(t, "Stubbing out unknown constant `Lib::Missing`", stubs[0].Message)
	assert.True(t, r.table().Class(r.class("Lib::Missing")).IsStub())

	root := r.res.Trees[0].(*ast.ClassDef)
	assert.Equal(t, r.class("Lib").Ref(), root.Body[2].(*ast.Ident).Symbol)
}

func TestDynamicConstantScope(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - "foo.bar::Baz"
`)
	dyn := r.diagnostics(diag.ResDynamicConstant)
	require.Len(t, dyn, 1)
	assert.Contains(t, dyn[0].Message, "Dynamic constant references are unsupported")
	id := r.res.Trees[0].(*ast.ClassDef).Body[0].(*ast.Ident)
	assert.Equal(t, symbols.Untyped.Ref(), id.Symbol)
}

func TestConstantAliasIsFollowed(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - module: Real
      - "Nick = Real"
      - class: A
        body: ["include Nick"]
`)
	assert.Empty(t, r.codes())
	a := r.class("A")
	assert.Equal(t, []symbols.ClassRef{r.class("Real")}, r.table().Class(a).Mixins)

	nick := r.member(symbols.Root, "Nick")
	require.True(t, nick.IsStaticField())
	s := newState(r.table(), r.options())
	assert.Equal(t, r.class("Real"), s.dealiasConstant(nick))
	assert.Equal(t, r.class("Real"), s.dealiasConstant(r.class("Real").Ref()))
}

func TestCircularAncestorsAreRejected(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - class: A
        superclass: B
      - class: B
        superclass: A
`)
	cycles := r.diagnostics(diag.ResCircularDependency)
	require.Len(t, cycles, 1)
	assert.Equal(t, "Circular dependency: `B` and `A` are declared as parents of each other", cycles[0].Message)

	a, b := r.class("A"), r.class("B")
	assert.Equal(t, b, r.table().Class(a).SuperClass)
	assert.NotEqual(t, a, r.table().Class(b).SuperClass)
	assert.Equal(t, symbols.Object, r.table().Class(b).SuperClass)
}

func TestSelfInclusionIsRejected(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - module: M
        body: ["include M"]
`)
	assert.Len(t, r.diagnostics(diag.ResCircularDependency), 1)
	assert.Equal(t, []symbols.ClassRef{symbols.BasicObject}, r.table().Class(r.class("M")).Mixins)
}

func TestUnresolvableAncestors(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - "NotAClass = 1"
      - class: A
        superclass: NotAClass
      - class: B
        superclass: Unknown
`)
	assert.Len(t, r.diagnostics(diag.ResDynamicSuperclass), 1)
	// the unknown constant is reported once, as a stub, and the stub
	// becomes the superclass
	assert.Len(t, r.diagnostics(diag.ResStubConstant), 1)
	assert.Equal(t, symbols.Object, r.table().Class(r.class("A")).SuperClass)
	unknown := r.class("Unknown")
	assert.Equal(t, unknown, r.table().Class(r.class("B")).SuperClass)
	assert.Equal(t, symbols.StubClass, r.table().Class(unknown).SuperClass)
}

func TestParentsRedefined(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - class: P
      - class: Q
      - class: A
        superclass: P
      - class: A
        superclass: P
      - class: A
        superclass: Q
`)
	redef := r.diagnostics(diag.ResRedefinitionOfParents)
	require.Len(t, redef, 1)
	assert.Equal(t, "Parents of class `A` redefined", redef[0].Message)
	require.Len(t, redef[0].Notes, 1)
	assert.Equal(t, "Previously declared with superclass `P`", redef[0].Notes[0].Msg)
	assert.Equal(t, r.class("P"), r.table().Class(r.class("A")).SuperClass)
}

func TestExtendMixesIntoSingleton(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - module: ClassMethods
      - class: A
        body: ["extend ClassMethods"]
`)
	assert.Empty(t, r.codes())
	a := r.class("A")
	singleton := r.table().LookupSingletonClass(a)
	require.True(t, singleton.Exists())
	assert.Contains(t, r.table().Class(singleton).Mixins, r.class("ClassMethods"))
	assert.Contains(t, r.table().Class(singleton).Linearization, r.class("ClassMethods"))
}
