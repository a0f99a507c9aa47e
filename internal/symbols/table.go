package symbols

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"tyck/internal/source"
	"tyck/internal/types"
)

// Hints provide optional capacity suggestions for the symbol table arenas.
type Hints struct{ Classes, Methods, Fields, TypeMembers uint }

// Table owns every symbol of one analysis session. Handles stay valid for
// the lifetime of the table; symbols are never deleted.
type Table struct {
	Strings *source.Interner
	Types   *types.Interner

	classes     arena[ClassData]
	methods     arena[MethodData]
	fields      arena[FieldData]
	typeMembers arena[TypeMemberData]

	payloadFile source.FileID
	names       wellKnownNames
}

// NewTable builds a table seeded with the payload symbols. Payload symbols
// are located in payloadFile; pass source.NoFileID to leave them without a
// location. If strings is nil, a fresh interner is allocated.
func NewTable(h Hints, strings *source.Interner, payloadFile source.FileID) *Table {
	if strings == nil {
		strings = source.NewInterner()
	}
	t := &Table{
		Strings:     strings,
		Types:       types.NewInterner(),
		classes:     newArena[ClassData]("classes", capHint(h.Classes)),
		methods:     newArena[MethodData]("methods", capHint(h.Methods)),
		fields:      newArena[FieldData]("fields", capHint(h.Fields)),
		typeMembers: newArena[TypeMemberData]("type members", capHint(h.TypeMembers)),
		payloadFile: payloadFile,
	}
	t.names = internWellKnown(strings)
	t.seedPayload()
	return t
}

func capHint(n uint) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("capacity hint overflow: %w", err))
	}
	return v
}

// PayloadFile returns the file payload symbols are located in.
func (t *Table) PayloadFile() source.FileID { return t.payloadFile }

func (t *Table) Class(ref ClassRef) *ClassData               { return t.classes.get(uint32(ref)) }
func (t *Table) Method(ref MethodRef) *MethodData            { return t.methods.get(uint32(ref)) }
func (t *Table) Field(ref FieldRef) *FieldData               { return t.fields.get(uint32(ref)) }
func (t *Table) TypeMember(ref TypeMemberRef) *TypeMemberData { return t.typeMembers.get(uint32(ref)) }

// ClassesUsed is the class handle bound: valid handles are 1..ClassesUsed()-1.
// The bound grows while new classes are entered.
func (t *Table) ClassesUsed() int     { return t.classes.used() }
func (t *Table) MethodsUsed() int     { return t.methods.used() }
func (t *Table) FieldsUsed() int      { return t.fields.used() }
func (t *Table) TypeMembersUsed() int { return t.typeMembers.used() }

// FieldSymbol widens a field handle to a SymbolRef of the right kind.
func (t *Table) FieldSymbol(ref FieldRef) SymbolRef {
	f := t.Field(ref)
	if f == nil {
		return NoSymbol
	}
	if f.Static {
		return SymbolRef{Kind: SymbolStaticField, ID: uint32(ref)}
	}
	return SymbolRef{Kind: SymbolField, ID: uint32(ref)}
}

// Owner returns the owning class of any symbol.
func (t *Table) Owner(ref SymbolRef) ClassRef {
	switch ref.Kind {
	case SymbolClassOrModule:
		if c := t.Class(ClassRef(ref.ID)); c != nil {
			return c.Owner
		}
	case SymbolMethod:
		if m := t.Method(MethodRef(ref.ID)); m != nil {
			return m.Owner
		}
	case SymbolField, SymbolStaticField:
		if f := t.Field(FieldRef(ref.ID)); f != nil {
			return f.Owner
		}
	case SymbolTypeMember:
		if tm := t.TypeMember(TypeMemberRef(ref.ID)); tm != nil {
			return tm.Owner
		}
	}
	return NoClassRef
}

// Name returns the interned name of any symbol.
func (t *Table) Name(ref SymbolRef) source.StringID {
	switch ref.Kind {
	case SymbolClassOrModule:
		if c := t.Class(ClassRef(ref.ID)); c != nil {
			return c.Name
		}
	case SymbolMethod:
		if m := t.Method(MethodRef(ref.ID)); m != nil {
			return m.Name
		}
	case SymbolField, SymbolStaticField:
		if f := t.Field(FieldRef(ref.ID)); f != nil {
			return f.Name
		}
	case SymbolTypeMember:
		if tm := t.TypeMember(TypeMemberRef(ref.ID)); tm != nil {
			return tm.Name
		}
	}
	return source.NoStringID
}

// Loc returns the primary location of any symbol.
func (t *Table) Loc(ref SymbolRef) source.Span {
	switch ref.Kind {
	case SymbolClassOrModule:
		return t.Class(ClassRef(ref.ID)).Loc()
	case SymbolMethod:
		if m := t.Method(MethodRef(ref.ID)); m != nil {
			return m.Loc
		}
	case SymbolField, SymbolStaticField:
		if f := t.Field(FieldRef(ref.ID)); f != nil {
			return f.Loc
		}
	case SymbolTypeMember:
		if tm := t.TypeMember(TypeMemberRef(ref.ID)); tm != nil {
			return tm.Loc
		}
	}
	return source.Span{}
}

// ResultType returns the result type of a method, field or class symbol.
func (t *Table) ResultType(ref SymbolRef) types.TypeID {
	switch ref.Kind {
	case SymbolClassOrModule:
		if c := t.Class(ClassRef(ref.ID)); c != nil {
			return c.ResultType
		}
	case SymbolMethod:
		if m := t.Method(MethodRef(ref.ID)); m != nil {
			return m.ResultType
		}
	case SymbolField, SymbolStaticField:
		if f := t.Field(FieldRef(ref.ID)); f != nil {
			return f.ResultType
		}
	}
	return types.NoTypeID
}

// FindMember looks name up directly in owner, without walking ancestors.
func (t *Table) FindMember(owner ClassRef, name source.StringID) SymbolRef {
	c := t.Class(owner)
	if c == nil || c.memberIndex == nil {
		return NoSymbol
	}
	if idx, ok := c.memberIndex[name]; ok {
		return c.Members[idx].Ref
	}
	return NoSymbol
}

// FindMemberTransitive looks name up in owner and then its ancestors, in
// linearization order once computed, otherwise superclass-first.
func (t *Table) FindMemberTransitive(owner ClassRef, name source.StringID) SymbolRef {
	c := t.Class(owner)
	if c == nil {
		return NoSymbol
	}
	if c.IsLinearized() {
		for _, anc := range c.Linearization {
			if res := t.FindMember(anc, name); res.Exists() {
				return res
			}
		}
		return NoSymbol
	}
	seen := make(map[ClassRef]struct{})
	return t.findMemberTransitive(owner, name, seen)
}

func (t *Table) findMemberTransitive(owner ClassRef, name source.StringID, seen map[ClassRef]struct{}) SymbolRef {
	if _, ok := seen[owner]; ok || !owner.Exists() {
		return NoSymbol
	}
	seen[owner] = struct{}{}
	if res := t.FindMember(owner, name); res.Exists() {
		return res
	}
	c := t.Class(owner)
	for i := len(c.Mixins) - 1; i >= 0; i-- {
		if res := t.findMemberTransitive(c.Mixins[i], name, seen); res.Exists() {
			return res
		}
	}
	return t.findMemberTransitive(c.SuperClass, name, seen)
}

// AddMember binds name to ref in owner. A later binding of the same name
// replaces the lookup entry but keeps the earlier member in the list.
func (t *Table) AddMember(owner ClassRef, name source.StringID, ref SymbolRef) {
	c := t.Class(owner)
	if c == nil {
		panic(fmt.Sprintf("AddMember: invalid owner %d", owner))
	}
	if c.memberIndex == nil {
		c.memberIndex = make(map[source.StringID]int)
	}
	c.memberIndex[name] = len(c.Members)
	c.Members = append(c.Members, Member{Name: name, Ref: ref})
}

// EnterClass returns the class called name inside owner, creating it when
// absent. The kind (class or module) is left unset.
func (t *Table) EnterClass(loc source.Span, owner ClassRef, name source.StringID) ClassRef {
	if existing := t.FindMember(owner, name); existing.IsClassOrModule() {
		ref := existing.AsClass()
		t.Class(ref).AddLoc(loc)
		return ref
	}
	data := &ClassData{Name: name, Owner: owner}
	data.AddLoc(loc)
	ref := ClassRef(t.classes.alloc(data))
	if owner.Exists() {
		t.AddMember(owner, name, ref.Ref())
	}
	return ref
}

// EnterMethod returns the method called name inside owner, creating it when
// absent.
func (t *Table) EnterMethod(loc source.Span, owner ClassRef, name source.StringID) MethodRef {
	if existing := t.FindMember(owner, name); existing.IsMethod() {
		return existing.AsMethod()
	}
	ref := MethodRef(t.methods.alloc(&MethodData{Name: name, Owner: owner, Loc: loc}))
	t.AddMember(owner, name, ref.Ref())
	return ref
}

// EnterMethodOverload allocates the n-th overload of original.
func (t *Table) EnterMethodOverload(loc source.Span, original MethodRef, n int) MethodRef {
	m := t.Method(original)
	if m == nil {
		panic(fmt.Sprintf("EnterMethodOverload: invalid method %d", original))
	}
	name := t.Strings.Intern(fmt.Sprintf("%s (overload.%d)", t.Strings.MustLookup(m.Name), n))
	return t.EnterMethod(loc, m.Owner, name)
}

// EnterField returns the instance field called name inside owner.
func (t *Table) EnterField(loc source.Span, owner ClassRef, name source.StringID) FieldRef {
	return t.enterField(loc, owner, name, false)
}

// EnterStaticField returns the constant or class variable called name inside owner.
func (t *Table) EnterStaticField(loc source.Span, owner ClassRef, name source.StringID) FieldRef {
	return t.enterField(loc, owner, name, true)
}

func (t *Table) enterField(loc source.Span, owner ClassRef, name source.StringID, static bool) FieldRef {
	if existing := t.FindMember(owner, name); existing.AsField().Exists() {
		if f := t.Field(existing.AsField()); f.Static == static {
			return existing.AsField()
		}
	}
	ref := FieldRef(t.fields.alloc(&FieldData{Name: name, Owner: owner, Loc: loc, Static: static}))
	t.AddMember(owner, name, t.FieldSymbol(ref))
	return ref
}

// EnterTypeMember returns the type member called name inside owner,
// appending new ones to the owner's ordered type member list.
func (t *Table) EnterTypeMember(loc source.Span, owner ClassRef, name source.StringID, variance Variance) TypeMemberRef {
	if existing := t.FindMember(owner, name); existing.IsTypeMember() {
		return existing.AsTypeMember()
	}
	ref := TypeMemberRef(t.typeMembers.alloc(&TypeMemberData{
		Name:     name,
		Owner:    owner,
		Loc:      loc,
		Variance: variance,
		Lower:    t.Types.Bottom(),
		Upper:    t.Types.Untyped(),
	}))
	t.AddMember(owner, name, ref.Ref())
	c := t.Class(owner)
	c.TypeMembers = append(c.TypeMembers, ref)
	return ref
}

// FreshName returns a name derived from base that cannot collide with a
// source identifier.
func (t *Table) FreshName(base source.StringID, n int) source.StringID {
	return t.Strings.Intern(fmt.Sprintf("%s$%d", t.Strings.MustLookup(base), n))
}

// ShowClass renders the fully qualified name of a class (`A::B`,
// `<Class:A::B>` for singletons).
func (t *Table) ShowClass(ref ClassRef) string {
	c := t.Class(ref)
	if c == nil {
		return "<none>"
	}
	if c.Attached.Exists() {
		return "<Class:" + t.ShowClass(c.Attached) + ">"
	}
	name := t.Strings.MustLookup(c.Name)
	if !c.Owner.Exists() || c.Owner == Root {
		return name
	}
	return t.ShowClass(c.Owner) + "::" + name
}

// Show renders any symbol: classes qualified, methods as `A#m`, type
// members and fields as `A::X`.
func (t *Table) Show(ref SymbolRef) string {
	if !ref.Exists() {
		return "<none>"
	}
	if ref.IsClassOrModule() {
		return t.ShowClass(ref.AsClass())
	}
	owner := t.Owner(ref)
	name := t.Strings.MustLookup(t.Name(ref))
	var b strings.Builder
	if owner.Exists() && owner != Root {
		b.WriteString(t.ShowClass(owner))
		if ref.IsMethod() {
			b.WriteByte('#')
		} else {
			b.WriteString("::")
		}
	}
	b.WriteString(name)
	return b.String()
}

// ShowType renders a type with class handles printed by name.
func (t *Table) ShowType(id types.TypeID) string {
	return t.Types.Format(id, func(sym uint32) string { return t.ShowClass(ClassRef(sym)) })
}
