package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type (e.g. a result type never filled).
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindUntyped is the dynamic type; every check against it succeeds.
	KindUntyped
	// KindBottom is the uninhabited type.
	KindBottom
	// KindClass is an instance of a class or module.
	KindClass
	// KindApplied is a generic class applied to type arguments.
	KindApplied
	// KindAlias marks a constant that names another class (`X = Y`).
	KindAlias
	// KindTuple is a fixed-size tuple of element types.
	KindTuple
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUntyped:
		return "untyped"
	case KindBottom:
		return "bottom"
	case KindClass:
		return "class"
	case KindApplied:
		return "applied"
	case KindAlias:
		return "alias"
	case KindTuple:
		return "tuple"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor. Symbol holds a raw class handle for class,
// applied and alias types; Payload indexes side tables (tuples, applied args).
type Type struct {
	Kind    Kind
	Symbol  uint32
	Payload uint32
}

// MakeClass describes an instance of the class with raw handle sym.
func MakeClass(sym uint32) Type {
	return Type{Kind: KindClass, Symbol: sym}
}

// MakeAlias describes a constant aliasing the class with raw handle sym.
func MakeAlias(sym uint32) Type {
	return Type{Kind: KindAlias, Symbol: sym}
}
