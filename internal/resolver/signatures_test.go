package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tyck/internal/ast"
	"tyck/internal/diag"
	"tyck/internal/symbols"
	"tyck/internal/types"
)

func (r *run) method(owner symbols.ClassRef, name string) *symbols.MethodData {
	r.t.Helper()
	ref := r.member(owner, name).AsMethod()
	require.Truef(r.t, ref.Exists(), "method %s not found", name)
	return r.table().Method(ref)
}

func TestSigIsAppliedToFollowingMethod(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - class: A
        body:
          - "sig { params(x: Integer, blk: String).returns(String) }"
          - def: f
            args: [x, "&blk"]
          - "sig { void }"
          - def: g
`)
	assert.Empty(t, r.codes())
	table := r.table()
	a := r.class("A")

	f := r.method(a, "f")
	assert.Equal(t, table.Types.Class(uint32(symbols.String)), f.ResultType)
	require.Len(t, f.Args, 2)
	assert.Equal(t, table.Types.Class(uint32(symbols.Integer)), f.Args[0].ResultType)
	assert.Equal(t, table.Types.Class(uint32(symbols.String)), f.Args[1].ResultType)

	g := r.method(a, "g")
	assert.Equal(t, table.Types.Class(uint32(symbols.NilClass)), g.ResultType)

	// sigs are consumed
	body := r.res.Trees[0].(*ast.ClassDef).Body[0].(*ast.ClassDef).Body
	require.Len(t, body, 2)
	assert.IsType(t, &ast.MethodDef{}, body[0])
	assert.IsType(t, &ast.MethodDef{}, body[1])
}

func TestSigErrors(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - class: A
        body:
          - "sig { params(x: Integer) }"
          - def: noreturn
            args: [x]
          - "sig { params(y: Integer).returns(Integer) }"
          - def: unknown
            args: [x]
          - "sig { returns(Integer) }"
`)
	var msgs []string
	for _, d := range r.diagnostics(diag.ResInvalidMethodSignature) {
		msgs = append(msgs, d.Message)
	}
	assert.ElementsMatch(t, []string{
		"Malformed `sig`: No return type specified. Specify one with .returns()",
		"Malformed `sig`. Type not specified for argument `x`",
		"Unknown argument name `y`",
		"Malformed `sig`. No method def following it",
	}, msgs)

	unknown := r.method(r.class("A"), "unknown")
	require.Len(t, unknown.Args, 1)
	assert.True(t, r.table().Types.IsUntyped(unknown.Args[0].ResultType))
}

func TestModifierOnlySigNeedsNoReturns(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - class: A
        body:
          - "sig { override }"
          - def: f
`)
	assert.Empty(t, r.codes())
	assert.NotZero(t, r.method(r.class("A"), "f").Flags&symbols.MethodFlagOverride)
}

func TestUnusedSigIsReplacedByNextOne(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - class: A
        body:
          - "sig { returns(Integer) }"
          - "sig { returns(String) }"
          - def: f
`)
	unused := r.diagnostics(diag.ResInvalidMethodSignature)
	require.Len(t, unused, 1)
	assert.Equal(t, "Unused type annotation. No method def before next annotation", unused[0].Message)
	require.Len(t, unused[0].Notes, 1)

	f := r.method(r.class("A"), "f")
	assert.Equal(t, r.table().Types.Class(uint32(symbols.String)), f.ResultType)
	assert.False(t, f.IsOverloaded())
}

func TestOverloadsInTrustedFiles(t *testing.T) {
	r := resolve(t, `options:
  trusted: [rbi/]
files:
  - path: rbi/core.rb
    body:
      - class: Conv
        body:
          - "sig { params(x: Integer).returns(String) }"
          - "sig { params(x: String, y: Integer).returns(Integer) }"
          - def: conv
            args: [x, "y = 1"]
`)
	assert.Empty(t, r.codes())
	table := r.table()
	conv := r.class("Conv")

	last := r.method(conv, "conv")
	assert.True(t, last.IsOverloaded())
	assert.Equal(t, table.Types.Class(uint32(symbols.Integer)), last.ResultType)
	assert.Len(t, last.Args, 2)

	first := r.method(conv, "conv (overload.1)")
	assert.True(t, first.IsOverloaded())
	assert.Equal(t, table.Types.Class(uint32(symbols.String)), first.ResultType)
	// the overload only keeps the arguments its sig names
	require.Len(t, first.Args, 1)
	assert.Equal(t, table.Types.Class(uint32(symbols.Integer)), first.Args[0].ResultType)
}

func TestOverloadsRejectKeywordArguments(t *testing.T) {
	r := resolve(t, `options:
  trusted: [rbi/]
files:
  - path: rbi/core.rb
    body:
      - class: Conv
        body:
          - "sig { params(k: Integer).returns(String) }"
          - "sig { params(k: String).returns(Integer) }"
          - def: conv
            args: ["k:"]
`)
	// one report per signature naming the keyword
	kw := r.diagnostics(diag.ResInvalidMethodSignature)
	require.Len(t, kw, 2)
	for _, d := range kw {
		assert.Equal(t, "Malformed `sig`. Overloaded functions cannot have keyword arguments: `k`", d.Message)
	}
}

func TestAbstractMethodBodyIsDropped(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - class: Shape
        abstract: true
        body:
          - "sig { abstract.returns(Integer) }"
          - def: area
            body: ["1"]
`)
	abs := r.diagnostics(diag.ResAbstractMethodWithBody)
	require.Len(t, abs, 1)
	assert.Equal(t, "Abstract methods must not contain any code in their body", abs[0].Message)

	area := r.method(r.class("Shape"), "area")
	assert.True(t, area.IsAbstract())
	def := r.res.Trees[0].(*ast.ClassDef).Body[0].(*ast.ClassDef).Body[0].(*ast.MethodDef)
	assert.True(t, ast.IsEmpty(def.Body))
}

func TestDeclareVariables(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - class: A
        body:
          - "declare_variables(:@count => Integer, :@@total => Integer)"
          - def: f
            body: ["@count", "@@total"]
          - "declare_variables(1)"
          - "declare_variables(:plain => Integer)"
`)
	var msgs []string
	for _, d := range r.diagnostics(diag.ResInvalidDeclareVariables) {
		msgs = append(msgs, d.Message)
	}
	assert.ElementsMatch(t, []string{
		"Malformed `declare_variables`: expected a hash literal",
		"Malformed `declare_variables`: `plain` is not a variable name",
	}, msgs)
	assert.Empty(t, r.diagnostics(diag.ResUndeclaredVariable))

	table := r.table()
	a := r.class("A")
	count := r.member(a, "@count")
	require.True(t, count.IsField())
	assert.Equal(t, table.Types.Class(uint32(symbols.Integer)), table.Field(count.AsField()).ResultType)
	assert.True(t, r.member(a, "@@total").IsStaticField())
}

func TestDeclareVariablesRedeclaration(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - class: A
        body:
          - "declare_variables(:@x => Integer)"
          - "declare_variables(:@x => String)"
`)
	dups := r.diagnostics(diag.ResDuplicateVariableDeclaration)
	require.Len(t, dups, 1)
	assert.Equal(t, "Redeclaring variable `@x`", dups[0].Message)
	require.Len(t, dups[0].Notes, 1)

	table := r.table()
	x := r.member(r.class("A"), "@x")
	require.True(t, x.IsField())
	assert.Equal(t, table.Types.Class(uint32(symbols.String)), table.Field(x.AsField()).ResultType)
}

func TestInstanceVariableDeclarations(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - class: A
        body:
          - def: initialize
            body: ["@x = T.let(1, Integer)", "@x = T.let(2, Integer)"]
          - def: other
            body: ["@y = T.let(1, Integer)"]
          - def: read
            body: ["@x", "@z"]
          - "@@shared = T.let(0, Integer)"
`)
	dup := r.diagnostics(diag.ResDuplicateVariableDeclaration)
	require.Len(t, dup, 1)
	assert.Equal(t, "Illegal variable redeclaration", dup[0].Message)
	require.Len(t, dup[0].Notes, 1)
	assert.Equal(t, "Previous declaration is here:", dup[0].Notes[0].Msg)

	scope := r.diagnostics(diag.ResInvalidDeclareVariables)
	require.Len(t, scope, 1)
	assert.Equal(t, "Instance variables must be declared inside `initialize`", scope[0].Message)

	undeclared := r.diagnostics(diag.ResUndeclaredVariable)
	require.Len(t, undeclared, 1)
	assert.Equal(t, "Use of undeclared variable `@z`", undeclared[0].Message)
	require.Len(t, undeclared[0].Notes, 1)
	assert.Equal(t, "Declare the instance variable in `A`", undeclared[0].Notes[0].Msg)

	table := r.table()
	a := r.class("A")
	x := r.member(a, "@x")
	require.True(t, x.IsField())
	assert.Equal(t, table.Types.Class(uint32(symbols.Integer)), table.Field(x.AsField()).ResultType)
	z := r.member(a, "@z")
	require.True(t, z.IsField())
	assert.True(t, table.Types.IsUntyped(table.Field(z.AsField()).ResultType))
	assert.True(t, r.member(a, "@@shared").IsStaticField())
}

func TestClassVariableOutsideClassScope(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - class: A
        body:
          - def: f
            body: ["@@late = T.let(1, Integer)"]
`)
	scope := r.diagnostics(diag.ResInvalidDeclareVariables)
	require.Len(t, scope, 1)
	assert.Equal(t, "Class variables must be declared at class scope", scope[0].Message)
	// still declared on the enclosing class
	assert.True(t, r.member(r.class("A"), "@@late").IsStaticField())
}

func TestCastsAndConstantTypes(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - "LIMIT = 10"
      - "RATIO = 0.5"
      - "NAME = T.let(\"x\", String)"
      - "WRONG = T.cast(1, Integer)"
      - "T.let(1)"
      - class: A
        body:
          - def: f
            body: ["T.assert_type!(1, Integer)"]
`)
	assert.Len(t, r.diagnostics(diag.ResConstantAssertType), 1)
	invalid := r.diagnostics(diag.ResInvalidCast)
	require.Len(t, invalid, 1)
	assert.Equal(t, "Not enough arguments to `T.let`: expected 2, got 1", invalid[0].Message)

	table := r.table()
	typeOf := func(name string) types.TypeID {
		f := r.member(symbols.Root, name)
		require.True(t, f.IsStaticField(), name)
		return table.Field(f.AsField()).ResultType
	}
	assert.Equal(t, table.Types.Class(uint32(symbols.Integer)), typeOf("LIMIT"))
	assert.Equal(t, table.Types.Class(uint32(symbols.Float)), typeOf("RATIO"))
	assert.Equal(t, table.Types.Class(uint32(symbols.String)), typeOf("NAME"))
	assert.Equal(t, table.Types.Class(uint32(symbols.Integer)), typeOf("WRONG"))

	root := r.res.Trees[0].(*ast.ClassDef)
	def := root.Body[len(root.Body)-1].(*ast.ClassDef).Body[0].(*ast.MethodDef)
	cast, ok := def.Body.(*ast.Cast)
	require.True(t, ok)
	assert.Equal(t, "assert_type!", table.Strings.MustLookup(cast.Cast))
}

func TestMixesInClassMethods(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - module: ClassMethods
      - module: Extra
      - module: Concern
        body:
          - "mixes_in_class_methods(ClassMethods)"
          - "mixes_in_class_methods(Extra)"
          - "mixes_in_class_methods(ClassMethods)"
      - class: Host
        body: ["include Concern"]
`)
	redundant := r.diagnostics(diag.ResInvalidMixinDeclaration)
	require.Len(t, redundant, 1)
	assert.Equal(t, "Redundant `mixes_in_class_methods` declaration for `ClassMethods`", redundant[0].Message)

	table := r.table()
	host := r.class("Host")
	singleton := table.LookupSingletonClass(host)
	require.True(t, singleton.Exists())
	assert.Equal(t, []symbols.ClassRef{r.class("ClassMethods"), r.class("Extra")}, table.Class(singleton).Mixins)
	// the new singleton was finalized and linearized
	assert.True(t, table.Class(singleton).SuperClass.Exists())
	assert.Contains(t, table.Class(singleton).Linearization, r.class("Extra"))

	carrier := r.member(r.class("Concern"), symbols.MixedInClassMethodsName)
	require.True(t, carrier.IsMethod())
	elems, ok := table.Types.TupleElems(table.Method(carrier.AsMethod()).ResultType)
	require.True(t, ok)
	assert.Len(t, elems, 2)
}

func TestMixesInClassMethodsErrors(t *testing.T) {
	r := resolve(t, `files:
  - path: a.rb
    body:
      - class: NotModule
      - module: Loop
        body: ["mixes_in_class_methods(Loop)"]
      - module: Wrong
        body: ["mixes_in_class_methods(NotModule)", "mixes_in_class_methods(1)", "mixes_in_class_methods()"]
      - class: Klass
        body: ["mixes_in_class_methods(Wrong)"]
`)
	var msgs []string
	for _, d := range r.diagnostics(diag.ResInvalidMixinDeclaration) {
		msgs = append(msgs, d.Message)
	}
	assert.ElementsMatch(t, []string{
		"Must not pass your self to `mixes_in_class_methods`",
		"`NotModule` is a class, not a module; Only modules may be mixins",
		"Argument to `mixes_in_class_methods` must be statically resolvable to a module",
		"Wrong number of arguments to `mixes_in_class_methods`: expected 1, got 0",
		"`mixes_in_class_methods` can only be declared inside a module, not a class",
	}, msgs)
}

func TestRequiresAncestor(t *testing.T) {
	const body = `
files:
  - path: a.rb
    body:
      - class: Base
      - module: Helper
        body: ["requires_ancestor(Base)"]
      - class: Concrete
        body: ["include Helper"]
      - class: Plain
        body: ["requires_ancestor(Base)"]
`
	r := resolve(t, "options:\n  requires_ancestor: true\n"+body)
	invalid := r.diagnostics(diag.ResInvalidRequiredAncestor)
	require.Len(t, invalid, 1)
	assert.Equal(t, "`requires_ancestor` can only be declared inside a module or an abstract class", invalid[0].Message)

	table := r.table()
	helper := table.Class(r.class("Helper"))
	require.Len(t, helper.RequiredAncestors, 1)
	assert.Equal(t, r.class("Base"), helper.RequiredAncestors[0].Class)
	assert.Equal(t, []symbols.ClassRef{r.class("Base")}, table.Class(r.class("Concrete")).RequiredAncestorsLin)

	// without the option the declaration is an ordinary send
	off := resolve(t, body)
	assert.Empty(t, off.diagnostics(diag.ResInvalidRequiredAncestor))
	assert.Empty(t, off.table().Class(off.class("Helper")).RequiredAncestors)
	helperDef := off.res.Trees[0].(*ast.ClassDef).Body[1].(*ast.ClassDef)
	require.Len(t, helperDef.Body, 1)
	assert.IsType(t, &ast.Send{}, helperDef.Body[0])
}
