package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetReservesNoFileID(t *testing.T) {
	fs := NewFileSet()
	if fs.Len() != 0 {
		t.Fatalf("expected empty file set, got %d files", fs.Len())
	}
	if fs.Get(NoFileID) != nil {
		t.Fatalf("NoFileID must not resolve to a file")
	}

	id := fs.AddVirtual("a.yaml", []byte("x"))
	if id == NoFileID {
		t.Fatalf("first file must not receive NoFileID")
	}
	if f := fs.Get(id); f == nil || f.Flags&FileVirtual == 0 {
		t.Fatalf("expected virtual file, got %+v", f)
	}
}

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("test.yaml", []byte("hello world"), 0)
	id2 := fs.Add("test.yaml", []byte("hello universe"), 0)
	if id1 == id2 {
		t.Fatalf("re-adding a path must allocate a new FileID")
	}

	latest, ok := fs.GetLatest("test.yaml")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d, %v; want %d", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "hello world" {
		t.Fatalf("old version content changed: %q", got)
	}
	if f, ok := fs.GetByPath("./test.yaml"); !ok || f.ID != id2 {
		t.Fatalf("GetByPath = %v, %v; want file %d", f, ok, id2)
	}
	if _, ok := fs.GetByPath("missing.yaml"); ok {
		t.Fatalf("GetByPath found an unregistered path")
	}
}

func TestFileSetResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("m.yaml", []byte("ab\ncd\n\nef"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{2, LineCol{Line: 1, Col: 3}},
		{3, LineCol{Line: 2, Col: 1}},
		{6, LineCol{Line: 3, Col: 1}},
		{8, LineCol{Line: 4, Col: 2}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start != tt.want {
			t.Errorf("offset %d: got %+v, want %+v", tt.off, start, tt.want)
		}
	}

	if start, end := fs.Resolve(Span{}); start != (LineCol{}) || end != (LineCol{}) {
		t.Fatalf("span without file must resolve to zero positions")
	}
}

func TestFileSetLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.yaml")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFa\r\nb\r\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a\nb\n" {
		t.Fatalf("unexpected content %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("expected BOM and CRLF flags, got %b", f.Flags)
	}
}

func TestFileFlagsPredicates(t *testing.T) {
	fs := NewFileSet()
	payload := fs.Add("payload/core.yaml", nil, FilePayload)
	muted := fs.Add("gen/x.yaml", nil, FileSuppressed)

	if !fs.Get(payload).IsPayload() || fs.Get(payload).IsSuppressed() {
		t.Fatalf("payload flags mismatch")
	}
	if !fs.Get(muted).IsSuppressed() || fs.Get(muted).IsPayload() {
		t.Fatalf("suppressed flags mismatch")
	}
	var missing *File
	if missing.IsPayload() {
		t.Fatalf("nil file is never payload")
	}
}

func TestRelativePathOutsideBaseFallsBackToAbsolute(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "other", "file.yaml")

	got, err := RelativePath(target, filepath.Join(tmp, "base"))
	if err != nil {
		t.Fatalf("RelativePath: %v", err)
	}
	if got != normalizePath(target) {
		t.Fatalf("got %q, want %q", got, normalizePath(target))
	}
}
