package symbols

import (
	"fmt"

	"tyck/internal/source"
)

// Well-known payload classes. NewTable allocates them in exactly this order.
const (
	Root ClassRef = iota + 1
	Todo
	BasicObject
	Object
	Module
	Class
	Kernel
	StubClass
	Untyped
	ImplicitModuleSuperClass
	Enumerable
	T
	Integer
	Float
	String
	SymbolClass
	TrueClass
	FalseClass
	NilClass
	Array
	Hash

	payloadClassEnd
)

// Names of synthetic members.
const (
	AttachedClassName       = "<AttachedClass>"
	MixedInClassMethodsName = "<mixedInClassMethods>"
	InitializeName          = "initialize"
)

type wellKnownNames struct {
	attachedClass       source.StringID
	mixedInClassMethods source.StringID
	initialize          source.StringID
}

func internWellKnown(strings *source.Interner) wellKnownNames {
	return wellKnownNames{
		attachedClass:       strings.Intern(AttachedClassName),
		mixedInClassMethods: strings.Intern(MixedInClassMethodsName),
		initialize:          strings.Intern(InitializeName),
	}
}

// AttachedClassName returns the interned name of the synthetic self-type member.
func (t *Table) AttachedClassName() source.StringID { return t.names.attachedClass }

// MixedInClassMethodsName returns the interned name of the class-methods carrier.
func (t *Table) MixedInClassMethodsName() source.StringID { return t.names.mixedInClassMethods }

// InitializeName returns the interned name of constructors.
func (t *Table) InitializeName() source.StringID { return t.names.initialize }

type payloadEntry struct {
	ref      ClassRef
	name     string
	module   bool
	super    ClassRef
	mixins   []ClassRef
	members  []payloadTypeMember
	external bool // untyped result type
}

type payloadTypeMember struct {
	name     string
	variance Variance
}

// payloadEntries returns the built-in symbol set every table starts with.
func payloadEntries() []payloadEntry {
	return []payloadEntry{
		{ref: Root, name: "<root>"},
		{ref: Todo, name: "<todo>"},
		{ref: BasicObject, name: "BasicObject"},
		{ref: Object, name: "Object", super: BasicObject, mixins: []ClassRef{Kernel}},
		{ref: Module, name: "Module", super: Object},
		{ref: Class, name: "Class", super: Module},
		{ref: Kernel, name: "Kernel", module: true},
		{ref: StubClass, name: "<StubClass>", external: true},
		{ref: Untyped, name: "untyped", external: true},
		{ref: ImplicitModuleSuperClass, name: "<ImplicitModuleSuperClass>", super: BasicObject},
		{ref: Enumerable, name: "Enumerable", module: true, members: []payloadTypeMember{{"Elem", Covariant}}},
		{ref: T, name: "T", module: true},
		{ref: Integer, name: "Integer", super: Object},
		{ref: Float, name: "Float", super: Object},
		{ref: String, name: "String", super: Object},
		{ref: SymbolClass, name: "Symbol", super: Object},
		{ref: TrueClass, name: "TrueClass", super: Object},
		{ref: FalseClass, name: "FalseClass", super: Object},
		{ref: NilClass, name: "NilClass", super: Object},
		{ref: Array, name: "Array", super: Object, mixins: []ClassRef{Enumerable},
			members: []payloadTypeMember{{"Elem", Covariant}}},
		{ref: Hash, name: "Hash", super: Object, mixins: []ClassRef{Enumerable},
			members: []payloadTypeMember{{"K", Covariant}, {"V", Covariant}, {"Elem", Covariant}}},
	}
}

func (t *Table) seedPayload() {
	loc := source.Span{File: t.payloadFile}
	if t.payloadFile == source.NoFileID {
		loc = source.Span{}
	}
	for _, e := range payloadEntries() {
		owner := Root
		if e.ref == Root {
			owner = NoClassRef
		}
		ref := t.EnterClass(loc, owner, t.Strings.Intern(e.name))
		if ref != e.ref {
			panic(fmt.Sprintf("payload %s allocated as %d, want %d", e.name, ref, e.ref))
		}
	}
	// ancestors reference later entries (Object includes Kernel), so they are
	// linked in a second pass.
	for _, e := range payloadEntries() {
		c := t.Class(e.ref)
		c.SetIsModule(e.module)
		c.SuperClass = e.super
		c.Mixins = append(c.Mixins, e.mixins...)
		if e.external {
			c.ResultType = t.Types.Untyped()
		}
		for _, tm := range e.members {
			t.EnterTypeMember(loc, e.ref, t.Strings.Intern(tm.name), tm.variance)
		}
	}
}

// IsPayloadClass reports whether ref is one of the pre-seeded classes.
func IsPayloadClass(ref ClassRef) bool { return ref.Exists() && ref < payloadClassEnd }

// IsEnumerableRoot reports whether ref is the built-in Enumerable module.
func (t *Table) IsEnumerableRoot(ref ClassRef) bool { return ref == Enumerable }
