// Package snapshot captures the resolved state of one program (its classes,
// their ancestry and type members, and the diagnostics the run reported)
// in a form that survives the symbol table and can be stored on disk.
package snapshot

import (
	"crypto/sha256"
	"sort"

	"github.com/google/uuid"

	"tyck/internal/diag"
	"tyck/internal/source"
	"tyck/internal/symbols"
)

// SchemaVersion is bumped whenever the Snapshot layout changes.
const SchemaVersion uint16 = 1

// Digest is a SHA-256 cache key.
type Digest [32]byte

// Stats mirror the resolver's input tallies.
type Stats struct {
	Classes int
	Modules int
	Methods int
}

// File records one file of the program. Spans of the snapshot refer to
// files by 1-based position in Snapshot.Files; 0 means no file.
type File struct {
	Path  string
	Flags uint8
}

type TypeMember struct {
	Name     string
	Variance string
	Fixed    bool
	Lower    string
	Upper    string
}

// Class is the resolved view of one user class, module or singleton.
type Class struct {
	Name       string
	Kind       string // class | module | singleton
	Stub       bool
	Abstract   bool
	Undeclared bool

	Super         string
	Mixins        []string
	Linearization []string
	TypeMembers   []TypeMember
	Methods       []string
	Fields        []string
}

type Note struct {
	File  uint32
	Start uint32
	End   uint32
	Msg   string
}

type Diagnostic struct {
	Severity uint8
	Code     uint16
	Message  string
	File     uint32
	Start    uint32
	End      uint32
	Notes    []Note
}

// Snapshot is the cached outcome of resolving one program.
type Snapshot struct {
	Schema uint16
	// RunID identifies the run that produced the snapshot.
	RunID  string
	Source string
	Key    Digest

	Stats       Stats
	Files       []File
	Classes     []Class
	Diagnostics []Diagnostic
}

// KeyOf hashes content together with salt strings (options that change the
// outcome of a run).
func KeyOf(content []byte, salt ...string) Digest {
	h := sha256.New()
	_, _ = h.Write([]byte{byte(SchemaVersion >> 8), byte(SchemaVersion)})
	for _, s := range salt {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write(content)
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Capture builds a snapshot of table. Payload classes and the singletons of
// payload classes are left out. files lists the program's files in
// registration order; diagnostics pointing elsewhere lose their file.
func Capture(src string, key Digest, table *symbols.Table, fs *source.FileSet, files []source.FileID, diags []diag.Diagnostic, stats Stats) *Snapshot {
	snap := &Snapshot{
		Schema: SchemaVersion,
		RunID:  uuid.NewString(),
		Source: src,
		Key:    key,
		Stats:  stats,
	}
	index := make(map[source.FileID]uint32, len(files))
	for _, id := range files {
		f := fs.Get(id)
		if f == nil {
			continue
		}
		snap.Files = append(snap.Files, File{Path: f.Path, Flags: uint8(f.Flags)})
		index[id] = uint32(len(snap.Files)) // #nosec G115 -- program file counts are small
	}
	for i := 1; i < table.ClassesUsed(); i++ {
		ref := symbols.ClassRef(i) // #nosec G115 -- bounded by ClassesUsed
		if captured, ok := captureClass(table, ref); ok {
			snap.Classes = append(snap.Classes, captured)
		}
	}
	sort.SliceStable(snap.Classes, func(i, j int) bool { return snap.Classes[i].Name < snap.Classes[j].Name })
	for i := range diags {
		snap.Diagnostics = append(snap.Diagnostics, fromDiagnostic(&diags[i], index))
	}
	return snap
}

func captureClass(table *symbols.Table, ref symbols.ClassRef) (Class, bool) {
	c := table.Class(ref)
	if symbols.IsPayloadClass(ref) || (c.IsSingleton() && symbols.IsPayloadClass(c.Attached)) {
		return Class{}, false
	}
	out := Class{
		Name:       table.ShowClass(ref),
		Stub:       c.IsStub(),
		Abstract:   c.IsAbstract(),
		Undeclared: c.IsUndeclared(),
	}
	switch {
	case c.IsSingleton():
		out.Kind = "singleton"
	case c.IsModule():
		out.Kind = "module"
	default:
		out.Kind = "class"
	}
	if c.SuperClass.Exists() {
		out.Super = table.ShowClass(c.SuperClass)
	}
	out.Mixins = showClasses(table, c.Mixins)
	out.Linearization = showClasses(table, c.Linearization)
	for _, tmRef := range c.TypeMembers {
		tm := table.TypeMember(tmRef)
		out.TypeMembers = append(out.TypeMembers, TypeMember{
			Name:     table.Strings.MustLookup(tm.Name),
			Variance: tm.Variance.String(),
			Fixed:    tm.Fixed,
			Lower:    table.ShowType(tm.Lower),
			Upper:    table.ShowType(tm.Upper),
		})
	}
	for _, m := range c.Members {
		switch {
		case m.Ref.IsMethod():
			out.Methods = append(out.Methods, table.Strings.MustLookup(m.Name))
		case m.Ref.IsField(), m.Ref.IsStaticField():
			out.Fields = append(out.Fields, table.Strings.MustLookup(m.Name))
		}
	}
	return out, true
}

func showClasses(table *symbols.Table, refs []symbols.ClassRef) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = table.ShowClass(r)
	}
	return out
}

func fromSpan(sp source.Span, index map[source.FileID]uint32) (file, start, end uint32) {
	return index[sp.File], sp.Start, sp.End
}

func toSpan(file, start, end uint32, ids []source.FileID) source.Span {
	if file == 0 || int(file) > len(ids) {
		return source.Span{Start: start, End: end}
	}
	return source.Span{File: ids[file-1], Start: start, End: end}
}

func fromDiagnostic(d *diag.Diagnostic, index map[source.FileID]uint32) Diagnostic {
	out := Diagnostic{Severity: uint8(d.Severity), Code: uint16(d.Code), Message: d.Message}
	out.File, out.Start, out.End = fromSpan(d.Primary, index)
	for _, n := range d.Notes {
		note := Note{Msg: n.Msg}
		note.File, note.Start, note.End = fromSpan(n.Span, index)
		out.Notes = append(out.Notes, note)
	}
	return out
}

// Restore rebuilds the diagnostics of the snapshot against ids, the
// program's files registered anew in the order they were captured.
func (s *Snapshot) Restore(ids []source.FileID) []diag.Diagnostic {
	out := make([]diag.Diagnostic, 0, len(s.Diagnostics))
	for _, d := range s.Diagnostics {
		restored := diag.Diagnostic{
			Severity: diag.Severity(d.Severity),
			Code:     diag.Code(d.Code),
			Message:  d.Message,
			Primary:  toSpan(d.File, d.Start, d.End, ids),
		}
		for _, n := range d.Notes {
			restored.Notes = append(restored.Notes, diag.Note{Span: toSpan(n.File, n.Start, n.End, ids), Msg: n.Msg})
		}
		out = append(out, restored)
	}
	return out
}

// Matches reports whether ids are the latest registrations of the paths
// the snapshot was captured with.
func (s *Snapshot) Matches(fs *source.FileSet, ids []source.FileID) bool {
	if len(ids) != len(s.Files) {
		return false
	}
	for i, id := range ids {
		f, ok := fs.GetByPath(s.Files[i].Path)
		if !ok || f.ID != id {
			return false
		}
	}
	return true
}

// Class returns the captured class called name.
func (s *Snapshot) Class(name string) (*Class, bool) {
	i := sort.Search(len(s.Classes), func(i int) bool { return s.Classes[i].Name >= name })
	if i < len(s.Classes) && s.Classes[i].Name == name {
		return &s.Classes[i], true
	}
	return nil, false
}
