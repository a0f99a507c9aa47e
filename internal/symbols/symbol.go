package symbols

import (
	"tyck/internal/source"
	"tyck/internal/types"
)

// ClassFlags encode class/module attributes for quick checks.
type ClassFlags uint16

const (
	// ClassFlagKindSet is set once the symbol is known to be a class or a module.
	ClassFlagKindSet ClassFlags = 1 << iota
	ClassFlagModule
	// ClassFlagUndeclared marks symbols that were never declared with
	// `class` or `module` and defaulted to module.
	ClassFlagUndeclared
	ClassFlagAbstract
	ClassFlagInterface
	// ClassFlagStub marks classes synthesized for unresolved constants.
	ClassFlagStub
	ClassFlagLinearized
)

// Variance of a type member.
type Variance uint8

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

func (v Variance) String() string {
	switch v {
	case Covariant:
		return "covariant"
	case Contravariant:
		return "contravariant"
	default:
		return "invariant"
	}
}

// Member binds a name inside a class to a symbol.
type Member struct {
	Name source.StringID
	Ref  SymbolRef
}

// RequiredAncestor is a `requires_ancestor` declaration.
type RequiredAncestor struct {
	Class ClassRef
	Loc   source.Span
}

// ClassData describes a class, module or singleton class.
type ClassData struct {
	Name  source.StringID
	Owner ClassRef
	Locs  []source.Span
	Flags ClassFlags

	SuperClass  ClassRef
	Mixins      []ClassRef
	TypeMembers []TypeMemberRef
	Members     []Member
	memberIndex map[source.StringID]int

	// ResultType is untyped for stub classes and otherwise unset.
	ResultType types.TypeID

	Singleton ClassRef
	Attached  ClassRef

	Linearization    []ClassRef
	LinearizedMixins []ClassRef

	RequiredAncestors    []RequiredAncestor
	RequiredAncestorsLin []ClassRef
}

// Loc returns the first recorded declaration site.
func (c *ClassData) Loc() source.Span {
	if c == nil || len(c.Locs) == 0 {
		return source.Span{}
	}
	return c.Locs[0]
}

// AddLoc records another declaration site, skipping duplicates.
func (c *ClassData) AddLoc(sp source.Span) {
	if !sp.Exists() {
		return
	}
	for _, l := range c.Locs {
		if l == sp {
			return
		}
	}
	c.Locs = append(c.Locs, sp)
}

func (c *ClassData) IsClassModuleSet() bool { return c.Flags&ClassFlagKindSet != 0 }
func (c *ClassData) IsModule() bool         { return c.IsClassModuleSet() && c.Flags&ClassFlagModule != 0 }
func (c *ClassData) IsClass() bool          { return c.IsClassModuleSet() && c.Flags&ClassFlagModule == 0 }
func (c *ClassData) IsUndeclared() bool     { return c.Flags&ClassFlagUndeclared != 0 }
func (c *ClassData) IsStub() bool           { return c.Flags&ClassFlagStub != 0 }
func (c *ClassData) IsAbstract() bool       { return c.Flags&ClassFlagAbstract != 0 }
func (c *ClassData) IsLinearized() bool     { return c.Flags&ClassFlagLinearized != 0 }
func (c *ClassData) IsSingleton() bool      { return c.Attached.Exists() }

// SetIsModule fixes the class/module kind.
func (c *ClassData) SetIsModule(module bool) {
	c.Flags |= ClassFlagKindSet
	if module {
		c.Flags |= ClassFlagModule
	} else {
		c.Flags &^= ClassFlagModule
	}
}

// MethodFlags encode method attributes filled from signatures.
type MethodFlags uint16

const (
	MethodFlagAbstract MethodFlags = 1 << iota
	MethodFlagOverloaded
	MethodFlagOverride
	MethodFlagOverridable
	MethodFlagImplementation
	MethodFlagFinal
	MethodFlagGenerated
)

// ArgFlags describe the shape of a method parameter.
type ArgFlags uint8

const (
	ArgKeyword ArgFlags = 1 << iota
	ArgOptional
	ArgRepeated
	ArgBlock
)

// Argument is one parameter of a method.
type Argument struct {
	Name       source.StringID
	Loc        source.Span
	Flags      ArgFlags
	ResultType types.TypeID
}

func (a *Argument) IsKeyword() bool { return a.Flags&ArgKeyword != 0 }
func (a *Argument) IsBlock() bool   { return a.Flags&ArgBlock != 0 }

// MethodData describes a method.
type MethodData struct {
	Name       source.StringID
	Owner      ClassRef
	Loc        source.Span
	Args       []Argument
	ResultType types.TypeID
	Flags      MethodFlags
}

func (m *MethodData) IsAbstract() bool   { return m.Flags&MethodFlagAbstract != 0 }
func (m *MethodData) IsOverloaded() bool { return m.Flags&MethodFlagOverloaded != 0 }

// FieldData describes an instance field, class variable or constant.
type FieldData struct {
	Name       source.StringID
	Owner      ClassRef
	Loc        source.Span
	Static     bool
	ResultType types.TypeID
}

// TypeMemberData describes a generic type parameter.
type TypeMemberData struct {
	Name     source.StringID
	Owner    ClassRef
	Loc      source.Span
	Variance Variance
	Fixed    bool
	Lower    types.TypeID
	Upper    types.TypeID
}
