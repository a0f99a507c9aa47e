package symbols

import (
	"fmt"

	"tyck/internal/types"
)

// DerivesFrom reports whether klass is target or has it among its
// ancestors (superclass chain and mixins, transitively).
func (t *Table) DerivesFrom(klass, target ClassRef) bool {
	if !klass.Exists() || !target.Exists() {
		return false
	}
	return t.derivesFrom(klass, target, make(map[ClassRef]struct{}))
}

func (t *Table) derivesFrom(klass, target ClassRef, seen map[ClassRef]struct{}) bool {
	for klass.Exists() {
		if klass == target {
			return true
		}
		if _, ok := seen[klass]; ok {
			return false
		}
		seen[klass] = struct{}{}
		c := t.Class(klass)
		if c == nil {
			return false
		}
		for _, m := range c.Mixins {
			if t.derivesFrom(m, target, seen) {
				return true
			}
		}
		klass = c.SuperClass
	}
	return false
}

// SingletonClass returns the singleton class of klass, allocating it on
// first use. New singletons carry a covariant AttachedClass type member.
func (t *Table) SingletonClass(klass ClassRef) ClassRef {
	c := t.Class(klass)
	if c == nil {
		panic(fmt.Sprintf("SingletonClass: invalid class %d", klass))
	}
	if klass == Untyped {
		return Untyped
	}
	if c.Singleton.Exists() {
		return c.Singleton
	}
	loc := c.Loc()
	name := t.Strings.Intern("<Class:" + t.Strings.MustLookup(c.Name) + ">")
	data := &ClassData{Name: name, Owner: klass, Attached: klass}
	data.SetIsModule(false)
	data.AddLoc(loc)
	singleton := ClassRef(t.classes.alloc(data))
	c.Singleton = singleton
	t.EnterTypeMember(loc, singleton, t.names.attachedClass, Covariant)
	return singleton
}

// LookupSingletonClass returns the singleton of klass without allocating it.
func (t *Table) LookupSingletonClass(klass ClassRef) ClassRef {
	if c := t.Class(klass); c != nil {
		return c.Singleton
	}
	return NoClassRef
}

// AttachedClass returns the class a singleton class belongs to.
func (t *Table) AttachedClass(klass ClassRef) ClassRef {
	if c := t.Class(klass); c != nil {
		return c.Attached
	}
	return NoClassRef
}

// SetSuperClass links klass to super.
func (t *Table) SetSuperClass(klass, super ClassRef) {
	c := t.Class(klass)
	c.SuperClass = super
	c.Flags &^= ClassFlagLinearized
}

// AddMixin appends mixin to klass's mixins. Adding a mixin that is already
// present is a no-op that still reports success.
func (t *Table) AddMixin(klass, mixin ClassRef) bool {
	c := t.Class(klass)
	if c == nil || !mixin.Exists() {
		return false
	}
	for _, m := range c.Mixins {
		if m == mixin {
			return true
		}
	}
	c.Mixins = append(c.Mixins, mixin)
	c.Flags &^= ClassFlagLinearized
	return true
}

const (
	linPending uint8 = iota
	linVisiting
	linDone
)

// ComputeLinearization fills the method-lookup order of every class: the
// class itself, then each mixin's linearization with the last included mixin
// first, then the superclass linearization. Duplicates keep their first
// (most specific) position. A class reached through a mixin, such as the
// BasicObject every bare module includes, keeps its place in the superclass
// part when the superclass chain reaches it. Modules do not list their
// implicit superclass.
func (t *Table) ComputeLinearization() {
	state := make([]uint8, t.ClassesUsed())
	for i := 1; i < len(state); i++ {
		t.linearize(ClassRef(i), state) // #nosec G115 -- bounded by arena size
	}
}

func (t *Table) linearize(ref ClassRef, state []uint8) []ClassRef {
	c := t.Class(ref)
	switch state[ref] {
	case linDone:
		return c.Linearization
	case linVisiting:
		// cycles are refused while resolving ancestors
		return []ClassRef{ref}
	}
	state[ref] = linVisiting

	var superLin []ClassRef
	if c.SuperClass.Exists() && !c.IsModule() {
		superLin = t.linearize(c.SuperClass, state)
	}
	inSuper := make(map[ClassRef]struct{}, len(superLin))
	for _, anc := range superLin {
		inSuper[anc] = struct{}{}
	}

	seen := map[ClassRef]struct{}{ref: {}}
	lin := []ClassRef{ref}
	for i := len(c.Mixins) - 1; i >= 0; i-- {
		for _, anc := range t.linearize(c.Mixins[i], state) {
			if _, dup := seen[anc]; dup {
				continue
			}
			// классы (BasicObject у модулей) остаются на месте в цепочке суперклассов
			if _, ok := inSuper[anc]; ok && !t.Class(anc).IsModule() {
				continue
			}
			seen[anc] = struct{}{}
			lin = append(lin, anc)
		}
	}
	mixinPart := append([]ClassRef(nil), lin[1:]...)
	for _, anc := range superLin {
		if _, dup := seen[anc]; dup {
			continue
		}
		seen[anc] = struct{}{}
		lin = append(lin, anc)
	}
	c.Linearization = lin
	c.LinearizedMixins = mixinPart
	c.Flags |= ClassFlagLinearized
	state[ref] = linDone
	return lin
}

// ComputeRequiredAncestors closes every class's `requires_ancestor`
// declarations over its linearization. Requires ComputeLinearization.
func (t *Table) ComputeRequiredAncestors() {
	for i := 1; i < t.ClassesUsed(); i++ {
		ref := ClassRef(i) // #nosec G115 -- bounded by arena size
		c := t.Class(ref)
		seen := make(map[ClassRef]struct{})
		var closed []ClassRef
		add := func(from *ClassData) {
			for _, req := range from.RequiredAncestors {
				if _, ok := seen[req.Class]; ok {
					continue
				}
				seen[req.Class] = struct{}{}
				closed = append(closed, req.Class)
			}
		}
		add(c)
		for _, anc := range c.Linearization {
			if anc != ref {
				add(t.Class(anc))
			}
		}
		c.RequiredAncestorsLin = closed
	}
}

// ExternalType is the type of instances of klass as seen from outside:
// the class type, or the class applied to its type members (fixed members
// contribute their bound, the rest untyped).
func (t *Table) ExternalType(klass ClassRef) types.TypeID {
	c := t.Class(klass)
	if c == nil {
		return t.Types.Untyped()
	}
	if c.ResultType != types.NoTypeID && t.Types.IsUntyped(c.ResultType) {
		return c.ResultType
	}
	if len(c.TypeMembers) == 0 {
		return t.Types.Class(uint32(klass))
	}
	args := make([]types.TypeID, 0, len(c.TypeMembers))
	for _, ref := range c.TypeMembers {
		tm := t.TypeMember(ref)
		if tm.Fixed {
			args = append(args, tm.Upper)
		} else {
			args = append(args, t.Types.Untyped())
		}
	}
	return t.Types.Applied(uint32(klass), args)
}
