package symbols

import "fmt"

// ClassRef identifies a class or module inside the table.
type ClassRef uint32

// MethodRef identifies a method inside the table.
type MethodRef uint32

// FieldRef identifies an instance field, class variable or constant.
type FieldRef uint32

// TypeMemberRef identifies a generic type parameter owned by a class.
type TypeMemberRef uint32

const (
	// NoClassRef marks the absence of a class reference.
	NoClassRef ClassRef = 0
	// NoMethodRef marks the absence of a method reference.
	NoMethodRef MethodRef = 0
	// NoFieldRef marks the absence of a field reference.
	NoFieldRef FieldRef = 0
	// NoTypeMemberRef marks the absence of a type member reference.
	NoTypeMemberRef TypeMemberRef = 0
)

// Exists reports whether the ref points at an allocated class.
func (r ClassRef) Exists() bool { return r != NoClassRef }

// Exists reports whether the ref points at an allocated method.
func (r MethodRef) Exists() bool { return r != NoMethodRef }

// Exists reports whether the ref points at an allocated field.
func (r FieldRef) Exists() bool { return r != NoFieldRef }

// Exists reports whether the ref points at an allocated type member.
func (r TypeMemberRef) Exists() bool { return r != NoTypeMemberRef }

// SymbolKind tags the arena a SymbolRef points into.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolClassOrModule
	SymbolMethod
	SymbolField
	SymbolStaticField
	SymbolTypeMember
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolClassOrModule:
		return "class"
	case SymbolMethod:
		return "method"
	case SymbolField:
		return "field"
	case SymbolStaticField:
		return "static-field"
	case SymbolTypeMember:
		return "type-member"
	default:
		return "invalid"
	}
}

// SymbolRef is a kind-tagged handle to any symbol. The zero value is NoSymbol.
type SymbolRef struct {
	Kind SymbolKind
	ID   uint32
}

// NoSymbol is the "does not exist" sentinel.
var NoSymbol = SymbolRef{}

// Exists reports whether the ref points at an allocated symbol.
func (r SymbolRef) Exists() bool { return r.Kind != SymbolInvalid && r.ID != 0 }

func (r SymbolRef) IsClassOrModule() bool { return r.Kind == SymbolClassOrModule && r.ID != 0 }
func (r SymbolRef) IsMethod() bool        { return r.Kind == SymbolMethod && r.ID != 0 }
func (r SymbolRef) IsField() bool         { return r.Kind == SymbolField && r.ID != 0 }
func (r SymbolRef) IsStaticField() bool   { return r.Kind == SymbolStaticField && r.ID != 0 }
func (r SymbolRef) IsTypeMember() bool    { return r.Kind == SymbolTypeMember && r.ID != 0 }

// AsClass returns the class handle or NoClassRef when r is of another kind.
func (r SymbolRef) AsClass() ClassRef {
	if r.Kind != SymbolClassOrModule {
		return NoClassRef
	}
	return ClassRef(r.ID)
}

// AsMethod returns the method handle or NoMethodRef.
func (r SymbolRef) AsMethod() MethodRef {
	if r.Kind != SymbolMethod {
		return NoMethodRef
	}
	return MethodRef(r.ID)
}

// AsField returns the field handle for both instance and static fields.
func (r SymbolRef) AsField() FieldRef {
	if r.Kind != SymbolField && r.Kind != SymbolStaticField {
		return NoFieldRef
	}
	return FieldRef(r.ID)
}

// AsTypeMember returns the type member handle or NoTypeMemberRef.
func (r SymbolRef) AsTypeMember() TypeMemberRef {
	if r.Kind != SymbolTypeMember {
		return NoTypeMemberRef
	}
	return TypeMemberRef(r.ID)
}

func (r SymbolRef) String() string {
	if !r.Exists() {
		return "<none>"
	}
	return fmt.Sprintf("%s#%d", r.Kind, r.ID)
}

// Ref widens a class handle to a SymbolRef.
func (r ClassRef) Ref() SymbolRef {
	if !r.Exists() {
		return NoSymbol
	}
	return SymbolRef{Kind: SymbolClassOrModule, ID: uint32(r)}
}

// Ref widens a method handle to a SymbolRef.
func (r MethodRef) Ref() SymbolRef {
	if !r.Exists() {
		return NoSymbol
	}
	return SymbolRef{Kind: SymbolMethod, ID: uint32(r)}
}

// Ref widens a type member handle to a SymbolRef.
func (r TypeMemberRef) Ref() SymbolRef {
	if !r.Exists() {
		return NoSymbol
	}
	return SymbolRef{Kind: SymbolTypeMember, ID: uint32(r)}
}
