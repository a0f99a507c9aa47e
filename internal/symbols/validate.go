package symbols

import (
	"errors"
	"fmt"
)

// Validate performs structural checks on the table: handle bounds,
// acyclic superclass chains, singleton ordering and type member ownership.
func (t *Table) Validate() error {
	var errs []error
	used := t.ClassesUsed()
	inRange := func(ref ClassRef) bool { return int(ref) < used }

	for i := 1; i < used; i++ {
		ref := ClassRef(i) // #nosec G115 -- bounded by arena size
		c := t.Class(ref)
		if c == nil {
			errs = append(errs, fmt.Errorf("class %d has no data", i))
			continue
		}
		if !inRange(c.Owner) || !inRange(c.SuperClass) {
			errs = append(errs, fmt.Errorf("class %s: owner %d or superclass %d out of range", t.ShowClass(ref), c.Owner, c.SuperClass))
			continue
		}
		for _, m := range c.Mixins {
			if !m.Exists() || !inRange(m) {
				errs = append(errs, fmt.Errorf("class %s: invalid mixin %d", t.ShowClass(ref), m))
			}
		}
		if err := t.checkSuperChain(ref); err != nil {
			errs = append(errs, err)
		}
		if c.Singleton.Exists() {
			if c.Singleton <= ref {
				errs = append(errs, fmt.Errorf("class %s: singleton %d allocated before its attached class", t.ShowClass(ref), c.Singleton))
			} else if s := t.Class(c.Singleton); s == nil || s.Attached != ref {
				errs = append(errs, fmt.Errorf("class %s: singleton %d is not attached back", t.ShowClass(ref), c.Singleton))
			}
		}
		for _, tmRef := range c.TypeMembers {
			tm := t.TypeMember(tmRef)
			if tm == nil {
				errs = append(errs, fmt.Errorf("class %s: invalid type member %d", t.ShowClass(ref), tmRef))
				continue
			}
			if tm.Owner != ref {
				errs = append(errs, fmt.Errorf("type member %s listed in %s but owned by %d",
					t.Strings.MustLookup(tm.Name), t.ShowClass(ref), tm.Owner))
			}
		}
	}

	for i := 1; i < t.MethodsUsed(); i++ {
		m := t.Method(MethodRef(i)) // #nosec G115 -- bounded by arena size
		if !m.Owner.Exists() || !inRange(m.Owner) {
			errs = append(errs, fmt.Errorf("method %d has invalid owner %d", i, m.Owner))
		}
	}
	for i := 1; i < t.FieldsUsed(); i++ {
		f := t.Field(FieldRef(i)) // #nosec G115 -- bounded by arena size
		if !f.Owner.Exists() || !inRange(f.Owner) {
			errs = append(errs, fmt.Errorf("field %d has invalid owner %d", i, f.Owner))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

func (t *Table) checkSuperChain(ref ClassRef) error {
	steps := 0
	for cur := t.Class(ref).SuperClass; cur.Exists(); cur = t.Class(cur).SuperClass {
		if cur == ref || steps > t.ClassesUsed() {
			return fmt.Errorf("class %s: cyclic superclass chain", t.ShowClass(ref))
		}
		steps++
	}
	return nil
}
