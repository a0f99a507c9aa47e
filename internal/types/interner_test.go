package types

import "testing"

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Untyped == NoTypeID || b.Bottom == NoTypeID || b.Untyped == b.Bottom {
		t.Fatalf("unexpected builtins %+v", b)
	}
	if !in.IsUntyped(b.Untyped) || in.IsUntyped(b.Bottom) {
		t.Fatalf("IsUntyped mismatch")
	}
	if in.Intern(Type{Kind: KindInvalid}) != NoTypeID {
		t.Fatalf("invalid descriptors must not be interned")
	}
}

func TestInternerStableIDs(t *testing.T) {
	in := NewInterner()
	if in.Class(7) != in.Class(7) {
		t.Fatalf("class types must be interned once")
	}
	if in.Class(7) == in.Alias(7) {
		t.Fatalf("alias and class types must differ")
	}

	tup := in.Tuple([]TypeID{in.Class(1), in.Class(2)})
	if again := in.Tuple([]TypeID{in.Class(1), in.Class(2)}); again != tup {
		t.Fatalf("equal tuples must share an ID")
	}
	elems, ok := in.TupleElems(tup)
	if !ok || len(elems) != 2 {
		t.Fatalf("TupleElems = %v, %v", elems, ok)
	}

	app := in.Applied(3, []TypeID{in.Untyped()})
	if app != in.Applied(3, []TypeID{in.Untyped()}) {
		t.Fatalf("equal applied types must share an ID")
	}
	if in.Applied(3, nil) != in.Class(3) {
		t.Fatalf("applied without args must be the class type")
	}
	if sym, ok := in.ClassSymbol(app); !ok || sym != 3 {
		t.Fatalf("ClassSymbol = %d, %v", sym, ok)
	}
}

func TestInternerFormat(t *testing.T) {
	in := NewInterner()
	names := map[uint32]string{1: "Integer", 2: "Array"}
	name := func(sym uint32) string { return names[sym] }

	tests := []struct {
		id   TypeID
		want string
	}{
		{in.Untyped(), "T.untyped"},
		{in.Class(1), "Integer"},
		{in.Alias(1), "<Alias: Integer>"},
		{in.Applied(2, []TypeID{in.Class(1)}), "Array[Integer]"},
		{in.Tuple([]TypeID{in.Class(1), in.Untyped()}), "[Integer, T.untyped]"},
		{NoTypeID, "<none>"},
	}
	for _, tt := range tests {
		if got := in.Format(tt.id, name); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
