package resolver

import (
	"fmt"
	"slices"

	"tyck/internal/diag"
	"tyck/internal/source"
	"tyck/internal/symbols"
)

// aliasPair links a parent's type member to the member of a subclass that
// re-declares it.
type aliasPair struct {
	parent symbols.TypeMemberRef
	local  symbols.TypeMemberRef
}

// dealiasAt maps type member tp, declared somewhere in the ancestry of
// klass (or of a class deriving from klass), to the member of klass it
// denotes. Each step of the recursion lands on a member owned by a class
// strictly closer to klass, so it terminates. NoTypeMemberRef means tp has
// no counterpart in klass.
func (s *state) dealiasAt(tp symbols.TypeMemberRef, klass symbols.ClassRef) symbols.TypeMemberRef {
	t := s.table
	owner := t.TypeMember(tp).Owner
	if owner == klass {
		return tp
	}
	var cursor symbols.ClassRef
	switch {
	case t.DerivesFrom(owner, klass):
		cursor = owner
	case t.DerivesFrom(klass, owner):
		cursor = klass
	}
	for cursor.Exists() {
		if int(cursor) < len(s.aliases) {
			for _, pair := range s.aliases[cursor] {
				if pair.parent == tp {
					return s.dealiasAt(pair.local, klass)
				}
			}
		}
		cursor = t.Class(cursor).SuperClass
	}
	return symbols.NoTypeMemberRef
}

// resolveTypeMember links the parent's member parentTM to the member of the
// same name in sym. It reports whether the link was made; on every failure
// sym still ends up with a type member of that name (or a fresh one) so
// later phases can rely on it.
func (s *state) resolveTypeMember(parent symbols.ClassRef, parentTM symbols.TypeMemberRef, sym symbols.ClassRef) bool {
	t := s.table
	ptm := t.TypeMember(parentTM)
	name := ptm.Name
	symLoc := t.Class(sym).Loc()

	my := t.FindMember(sym, name)
	if !my.Exists() {
		code := diag.ResParentTypeNotDeclared
		if parent == symbols.Enumerable || t.DerivesFrom(parent, symbols.Enumerable) {
			code = diag.ResEnumerableParentTypeNotDeclared
		}
		if e := s.beginError(symLoc, code,
			fmt.Sprintf("Type `%s` declared by parent `%s` must be re-declared in `%s`",
				s.str(name), t.ShowClass(parent), t.ShowClass(sym))); e != nil {
			e.WithNote(ptm.Loc, fmt.Sprintf("`%s` declared in parent here", s.str(name))).Emit()
		}
		s.enterUntypedMember(symLoc, sym, name)
		return false
	}
	if !my.IsTypeMember() {
		if e := s.beginError(t.Loc(my), diag.ResNotATypeVariable,
			fmt.Sprintf("Type variable `%s` needs to be declared as `= type_member(SOMETHING)`", s.str(name))); e != nil {
			e.Emit()
		}
		s.enterUntypedMember(symLoc, sym, t.FreshName(name, 1))
		return false
	}

	myTM := my.AsTypeMember()
	mine := t.TypeMember(myTM)
	if !t.DerivesFrom(sym, symbols.Class) && mine.Variance != ptm.Variance && mine.Variance != symbols.Invariant {
		if e := s.beginError(mine.Loc, diag.ResParentVarianceMismatch,
			fmt.Sprintf("Type variance mismatch with parent `%s`", t.ShowClass(parent))); e != nil {
			e.WithNote(ptm.Loc, fmt.Sprintf("`%s` declared %s in parent here", s.str(name), ptm.Variance)).Emit()
		}
		return false
	}
	s.aliases[sym] = append(s.aliases[sym], aliasPair{parent: parentTM, local: myTM})
	return true
}

func (s *state) enterUntypedMember(loc source.Span, sym symbols.ClassRef, name source.StringID) {
	t := s.table
	ref := t.EnterTypeMember(loc, sym, name, symbols.Invariant)
	tm := t.TypeMember(ref)
	tm.Fixed = true
	tm.Lower = t.Types.Untyped()
	tm.Upper = t.Types.Untyped()
}

// resolveTypeMembers reconciles the type members of sym with those of its
// superclass and mixins, parents first. Each class is handled once.
func (s *state) resolveTypeMembers(sym symbols.ClassRef) {
	if s.resolved[sym] {
		return
	}
	s.resolved[sym] = true
	t := s.table

	if parent := t.Class(sym).SuperClass; parent.Exists() {
		s.resolveTypeMembers(parent)
		parentMembers := slices.Clone(t.Class(parent).TypeMembers)
		foundAll := true
		for _, tp := range parentMembers {
			if !s.resolveTypeMember(parent, tp, sym) {
				foundAll = false
			}
		}
		if foundAll {
			s.checkTypeMemberOrder(parent, parentMembers, sym)
		}
	}

	data := t.Class(sym)
	mixins := data.Mixins
	if data.IsLinearized() {
		mixins = slices.Clone(data.LinearizedMixins)
		slices.Reverse(mixins)
	}
	for _, mixin := range mixins {
		s.resolveTypeMembers(mixin)
		for _, tp := range slices.Clone(t.Class(mixin).TypeMembers) {
			s.resolveTypeMember(mixin, tp, sym)
		}
	}

	data = t.Class(sym)
	if data.IsClass() {
		for _, ref := range data.TypeMembers {
			tm := t.TypeMember(ref)
			if tm.Name == t.AttachedClassName() || tm.Variance == symbols.Invariant || s.trust.Trusted(tm.Loc) {
				continue
			}
			if e := s.beginError(tm.Loc, diag.ResVariantTypeMemberInClass,
				"Classes can only have invariant type members"); e != nil {
				e.Emit()
			}
			return
		}
	}

	if len(data.TypeMembers) == 0 {
		singleton := t.LookupSingletonClass(sym)
		if !singleton.Exists() {
			return
		}
		attached := t.FindMember(singleton, t.AttachedClassName())
		if !attached.IsTypeMember() {
			return
		}
		tm := t.TypeMember(attached.AsTypeMember())
		tm.Lower = t.Types.Bottom()
		tm.Upper = t.ExternalType(sym)
	}
}

// checkTypeMemberOrder makes sym list the members it re-declares from
// parent at the parent's positions, reporting and fixing each mismatch.
func (s *state) checkTypeMemberOrder(parent symbols.ClassRef, parentMembers []symbols.TypeMemberRef, sym symbols.ClassRef) {
	t := s.table
	for i, tp := range parentMembers {
		my := s.dealiasAt(tp, sym)
		enforce(my.Exists(), "no alias of %s recorded in %s", s.str(t.TypeMember(tp).Name), t.ShowClass(sym))
		members := t.Class(sym).TypeMembers
		enforce(i < len(members), "%s has fewer type members than %s", t.ShowClass(sym), t.ShowClass(parent))
		if members[i] == my {
			continue
		}
		found, expected := t.TypeMember(my), t.TypeMember(members[i])
		if e := s.beginError(found.Loc, diag.ResTypeMembersInWrongOrder,
			fmt.Sprintf("Type members for `%s` repeated in wrong order", t.ShowClass(sym))); e != nil {
			e.WithNote(found.Loc, fmt.Sprintf("Found type member with name `%s`", s.str(found.Name))).
				WithNote(expected.Loc, fmt.Sprintf("Expected type member with name `%s`", s.str(expected.Name))).
				WithNote(t.TypeMember(tp).Loc, fmt.Sprintf("`%s` defined in parent here:", s.str(t.TypeMember(tp).Name))).
				Emit()
		}
		at := slices.Index(members, my)
		enforce(at >= 0, "type member %s missing from %s", s.str(found.Name), t.ShowClass(sym))
		members[at], members[i] = members[i], members[at]
	}
}
