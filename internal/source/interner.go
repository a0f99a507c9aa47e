package source

import (
	"slices"

	"golang.org/x/text/unicode/norm"
)

type StringID uint32

const NoStringID StringID = 0

// Interner maps names to stable IDs. Symbol names are compared by ID, so two
// spellings of the same identifier must intern to the same ID.
type Interner struct {
	byID  []string            // индекс -> строка (byID[0] = "" для NoStringID)
	index map[string]StringID // строка -> ID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": NoStringID},
	}
}

// Intern inserts s and returns its ID; known strings return the existing ID.
func (i *Interner) Intern(s string) StringID {
	if id, ok := i.index[s]; ok {
		return id
	}
	cpy := string([]byte(s))
	id := StringID(len(i.byID)) // #nosec G115 -- interner never exceeds uint32 entries
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// InternIdent interns an identifier in Unicode NFC form so that composed and
// decomposed spellings of a constant name resolve to the same symbol.
func (i *Interner) InternIdent(s string) StringID {
	if norm.NFC.IsNormalString(s) {
		return i.Intern(s)
	}
	return i.Intern(norm.NFC.String(s))
}

// Lookup returns the string for id.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if !i.Has(id) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup паникует на невалидном ID.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("invalid string ID")
	}
	return s
}

// Has reports whether id was issued by this interner.
func (i *Interner) Has(id StringID) bool {
	return int(id) < len(i.byID)
}

// Len counts interned strings including the NoStringID slot.
func (i *Interner) Len() int {
	return len(i.byID)
}

// Snapshot returns a copy of every interned string indexed by ID.
func (i *Interner) Snapshot() []string {
	return slices.Clone(i.byID)
}
