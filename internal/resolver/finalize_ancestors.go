package resolver

import (
	"tyck/internal/source"
	"tyck/internal/symbols"
)

// finalizeAncestors gives every class its implicit ancestry. Classes whose
// kind was never set become modules flagged undeclared. Classes without a
// superclass get Object, modules the implicit module superclass, singleton
// classes the singleton of their attached class's superclass. It is
// idempotent and visits classes allocated during the pass itself.
func (s *state) finalizeAncestors() Stats {
	t := s.table
	var stats Stats
	// the bound is re-read because singleton classes may be created below
	for i := 1; i < t.ClassesUsed(); i++ {
		ref := symbols.ClassRef(i) // #nosec G115 -- bounded by arena size
		data := t.Class(ref)
		if !data.IsClassModuleSet() {
			data.SetIsModule(true)
			data.Flags |= symbols.ClassFlagUndeclared
		}
		if s.inUserFile(data.Loc()) {
			if data.IsClass() {
				stats.Classes++
			} else {
				stats.Modules++
			}
		}

		if data.SuperClass.Exists() && data.SuperClass != symbols.Todo {
			continue
		}
		if ref == symbols.ImplicitModuleSuperClass {
			t.SetSuperClass(ref, symbols.BasicObject)
			continue
		}
		if attached := data.Attached; attached.Exists() && attached != symbols.Untyped {
			t.SetSuperClass(ref, s.singletonSuperClass(attached))
			continue
		}
		if data.IsClass() {
			if ref != symbols.Object && !t.DerivesFrom(symbols.Object, ref) {
				t.SetSuperClass(ref, symbols.Object)
			}
			continue
		}
		if ref != symbols.BasicObject && !t.DerivesFrom(symbols.BasicObject, ref) {
			t.SetSuperClass(ref, symbols.ImplicitModuleSuperClass)
		}
	}

	for i := 1; i < t.MethodsUsed(); i++ {
		if s.inUserFile(t.Method(symbols.MethodRef(i)).Loc) { // #nosec G115 -- bounded by arena size
			stats.Methods++
		}
	}
	return stats
}

// singletonSuperClass picks the superclass of the singleton of attached.
func (s *state) singletonSuperClass(attached symbols.ClassRef) symbols.ClassRef {
	t := s.table
	if attached == symbols.BasicObject {
		return symbols.Class
	}
	data := t.Class(attached)
	super := data.SuperClass
	switch {
	case super == symbols.ImplicitModuleSuperClass:
		return symbols.Module
	case !super.Exists() || super == symbols.Todo:
		// attached class has no parent to follow (its ancestry was cut to
		// avoid a cycle)
		if data.IsModule() {
			return symbols.Module
		}
		return symbols.Class
	default:
		return t.SingletonClass(super)
	}
}

// inUserFile reports whether loc lies in a non-payload source file.
func (s *state) inUserFile(loc source.Span) bool {
	if !loc.Exists() || loc.File == s.table.PayloadFile() {
		return false
	}
	f := s.fileOf(loc)
	return f == nil || !f.IsPayload()
}
