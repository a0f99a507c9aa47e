package types

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the types every table needs.
type Builtins struct {
	Invalid TypeID
	Untyped TypeID
	Bottom  TypeID
}

// TupleInfo stores the element types for a tuple type.
type TupleInfo struct {
	Elems []TypeID
}

// AppliedInfo stores the type arguments of an applied generic class.
type AppliedInfo struct {
	Args []TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
type Interner struct {
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins
	tuples   []TupleInfo
	applied  []AppliedInfo
}

type typeKey struct {
	Kind    Kind
	Symbol  uint32
	Payload uint32
}

// NewInterner constructs an interner seeded with untyped and bottom.
func NewInterner() *Interner {
	in := &Interner{
		index:   make(map[typeKey]TypeID, 64),
		tuples:  []TupleInfo{{}},   // reserve 0
		applied: []AppliedInfo{{}}, // reserve 0
	}
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Untyped = in.Intern(Type{Kind: KindUntyped})
	in.builtins.Bottom = in.Intern(Type{Kind: KindBottom})
	return in
}

// Builtins returns TypeIDs for the seeded types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Untyped is a shortcut for Builtins().Untyped.
func (in *Interner) Untyped() TypeID { return in.builtins.Untyped }

// Bottom is a shortcut for Builtins().Bottom.
func (in *Interner) Bottom() TypeID { return in.builtins.Bottom }

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	if id, ok := in.index[typeKey(t)]; ok {
		return id
	}
	return in.internRaw(t)
}

func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Class interns the instance type of a class handle.
func (in *Interner) Class(sym uint32) TypeID {
	return in.Intern(MakeClass(sym))
}

// Alias interns the alias type for a class handle.
func (in *Interner) Alias(sym uint32) TypeID {
	return in.Intern(MakeAlias(sym))
}

// Tuple creates or finds a tuple with the given elements.
func (in *Interner) Tuple(elems []TypeID) TypeID {
	for i := 1; i < len(in.tuples); i++ {
		if slices.Equal(in.tuples[i].Elems, elems) {
			return in.Intern(Type{Kind: KindTuple, Payload: uint32(i)}) // #nosec G115 -- bounded by appendSlot
		}
	}
	slot := appendSlot(&in.tuples, TupleInfo{Elems: slices.Clone(elems)})
	return in.Intern(Type{Kind: KindTuple, Payload: slot})
}

// Applied creates or finds sym applied to args. With no args it is the plain
// class type.
func (in *Interner) Applied(sym uint32, args []TypeID) TypeID {
	if len(args) == 0 {
		return in.Class(sym)
	}
	for i := 1; i < len(in.applied); i++ {
		slot := uint32(i) // #nosec G115
		if id, ok := in.index[typeKey{Kind: KindApplied, Symbol: sym, Payload: slot}]; ok && slices.Equal(in.applied[i].Args, args) {
			return id
		}
	}
	slot := appendSlot(&in.applied, AppliedInfo{Args: slices.Clone(args)})
	return in.Intern(Type{Kind: KindApplied, Symbol: sym, Payload: slot})
}

func appendSlot[T any](store *[]T, v T) uint32 {
	*store = append(*store, v)
	slot, err := safecast.Conv[uint32](len(*store) - 1)
	if err != nil {
		panic(fmt.Errorf("type side table overflow: %w", err))
	}
	return slot
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// IsUntyped reports whether id is the dynamic type.
func (in *Interner) IsUntyped(id TypeID) bool {
	return id != NoTypeID && id == in.builtins.Untyped
}

// TupleElems returns tuple elements, or nil and false for non-tuples.
func (in *Interner) TupleElems(id TypeID) ([]TypeID, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTuple || int(tt.Payload) >= len(in.tuples) {
		return nil, false
	}
	return in.tuples[tt.Payload].Elems, true
}

// AppliedArgs returns the arguments of an applied type.
func (in *Interner) AppliedArgs(id TypeID) ([]TypeID, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindApplied || int(tt.Payload) >= len(in.applied) {
		return nil, false
	}
	return in.applied[tt.Payload].Args, true
}

// ClassSymbol returns the raw class handle behind class, applied and alias
// types.
func (in *Interner) ClassSymbol(id TypeID) (uint32, bool) {
	tt, ok := in.Lookup(id)
	if !ok {
		return 0, false
	}
	switch tt.Kind {
	case KindClass, KindApplied, KindAlias:
		return tt.Symbol, true
	default:
		return 0, false
	}
}

// Format renders id using name to print class handles.
func (in *Interner) Format(id TypeID, name func(sym uint32) string) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return "<none>"
	}
	switch tt.Kind {
	case KindUntyped:
		return "T.untyped"
	case KindBottom:
		return "T.noreturn"
	case KindClass:
		return name(tt.Symbol)
	case KindAlias:
		return "<Alias: " + name(tt.Symbol) + ">"
	case KindApplied:
		args, _ := in.AppliedArgs(id)
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, in.Format(a, name))
		}
		return name(tt.Symbol) + "[" + strings.Join(parts, ", ") + "]"
	case KindTuple:
		elems, _ := in.TupleElems(id)
		parts := make([]string, 0, len(elems))
		for _, e := range elems {
			parts = append(parts, in.Format(e, name))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return tt.Kind.String()
	}
}
