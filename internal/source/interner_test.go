package source

import "testing"

func TestInternerBasic(t *testing.T) {
	in := NewInterner()

	if s, ok := in.Lookup(NoStringID); !ok || s != "" {
		t.Fatalf("NoStringID must map to the empty string, got %q %v", s, ok)
	}
	a := in.Intern("Elem")
	if a == NoStringID {
		t.Fatalf("non-empty string interned as NoStringID")
	}
	if b := in.Intern("Elem"); a != b {
		t.Fatalf("same string interned twice: %d != %d", a, b)
	}
	if c := in.Intern("Other"); c == a {
		t.Fatalf("distinct strings share an ID")
	}
	if in.Len() != 3 {
		t.Fatalf("Len = %d, want 3", in.Len())
	}
	if _, ok := in.Lookup(StringID(99)); ok {
		t.Fatalf("lookup of unknown ID must fail")
	}
}

func TestInternIdentNormalizesNFC(t *testing.T) {
	in := NewInterner()
	composed := in.InternIdent("Caf\u00e9")
	decomposed := in.InternIdent("Cafe\u0301")
	if composed != decomposed {
		t.Fatalf("NFC and NFD spellings must intern to the same ID")
	}
	if got := in.MustLookup(decomposed); got != "Caf\u00e9" {
		t.Fatalf("stored form %q is not NFC", got)
	}
}

func TestInternerMustLookupPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	NewInterner().MustLookup(StringID(5))
}
