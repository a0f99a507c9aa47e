package resolver

import (
	"slices"

	"tyck/internal/symbols"
)

// finalizeSymbols runs after every tree was walked: it applies
// class-methods mixins, computes linearizations and reconciles type
// members across inheritance.
func (s *state) finalizeSymbols() {
	t := s.table

	createdSingleton := false
	for i := 1; i < t.ClassesUsed(); i++ {
		ref := symbols.ClassRef(i) // #nosec G115 -- bounded by arena size
		singleton := symbols.NoClassRef
		for _, mixin := range slices.Clone(t.Class(ref).Mixins) {
			carrier := t.FindMember(mixin, t.MixedInClassMethodsName())
			if !carrier.IsMethod() {
				continue
			}
			if !singleton.Exists() {
				if singleton = t.LookupSingletonClass(ref); !singleton.Exists() {
					singleton = t.SingletonClass(ref)
					createdSingleton = true
				}
			}
			elems, ok := t.Types.TupleElems(t.Method(carrier.AsMethod()).ResultType)
			enforce(ok, "class-methods carrier of %s is not a tuple", t.ShowClass(mixin))
			for _, elem := range elems {
				raw, ok := t.Types.ClassSymbol(elem)
				enforce(ok, "class-methods entry of %s is not a class", t.ShowClass(mixin))
				enforce(t.AddMixin(singleton, symbols.ClassRef(raw)),
					"could not mix %s into %s", t.ShowClass(symbols.ClassRef(raw)), t.ShowClass(singleton))
			}
		}
	}
	if createdSingleton {
		// new singletons need their implicit superclass
		s.finalizeAncestors()
	}

	t.ComputeLinearization()

	n := t.ClassesUsed()
	s.aliases = make([][]aliasPair, n)
	s.resolved = make([]bool, n)
	for i := 1; i < n; i++ {
		s.resolveTypeMembers(symbols.ClassRef(i)) // #nosec G115 -- bounded by arena size
	}

	if s.opts.RequiresAncestor {
		t.ComputeRequiredAncestors()
	}
}
