package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"tyck/internal/diag"
	"tyck/internal/snapshot"
	"tyck/internal/source"
)

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("/home/user/project/lib/a.rb", []byte(sampleSource))
	fs.SetBaseDir("/home/user/project")

	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.ResStubConstant, source.Span{File: fileID, Start: 10, End: 17}, "Unable to resolve constant `Missing`"))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"Absolute path", PathModeAbsolute, "/home/user/project/lib/a.rb:1:11"},
		{"Relative path", PathModeRelative, "lib/a.rb:1:11"},
		{"Basename only", PathModeBasename, "a.rb:1:11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Pretty(&buf, bag, fs, PrettyOpts{PathMode: tt.mode}); err != nil {
				t.Fatal(err)
			}
			output := buf.String()
			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			if !strings.Contains(output, "ERROR RES5002: Unable to resolve constant `Missing`") {
				t.Errorf("Expected header line, got:\n%s", output)
			}
		})
	}
}

func TestPrettyCaretUnderSpan(t *testing.T) {
	bag, fs, _ := sampleBag(t)

	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(buf.String(), "\n")
	// заголовок, строка исходника, каретка
	if len(lines) < 3 {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
	if lines[1] != " 1 | class A < Missing" {
		t.Errorf("source line = %q", lines[1])
	}
	if lines[2] != "   |           ^~~~~~~" {
		t.Errorf("caret line = %q", lines[2])
	}
}

func TestPrettyCaretCountsWideRunes(t *testing.T) {
	fs := source.NewFileSet()
	content := "X = \"日本\"; Y\n"
	fileID := fs.AddVirtual("wide.rb", []byte(content))
	start := uint32(strings.Index(content, "Y"))

	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.ResStubConstant, source.Span{File: fileID, Start: start, End: start + 1}, "Unable to resolve constant `Y`"))

	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(buf.String(), "\n")
	// `X = "` (5) + два широких символа (4) + `"; ` (3)
	want := "   | " + strings.Repeat(" ", 12) + "^"
	if lines[2] != want {
		t.Errorf("caret line = %q, want %q", lines[2], want)
	}
}

func TestPrettyNotesContextAndMax(t *testing.T) {
	bag, fs, _ := sampleBag(t)

	var buf bytes.Buffer
	opts := PrettyOpts{PathMode: PathModeBasename, ShowNotes: true, Context: 1, Max: 1}
	if err := Pretty(&buf, bag, fs, opts); err != nil {
		t.Fatal(err)
	}
	output := buf.String()
	if !strings.Contains(output, "note: a.rb:1:1: referenced from here") {
		t.Errorf("expected note with location, got:\n%s", output)
	}
	if strings.Contains(output, "WARNING") {
		t.Errorf("second diagnostic must be cut by Max, got:\n%s", output)
	}
	if !strings.Contains(output, "... 1 more diagnostics not shown") {
		t.Errorf("expected truncation line, got:\n%s", output)
	}

	buf.Reset()
	opts.Max = 0
	if err := Pretty(&buf, bag, fs, opts); err != nil {
		t.Fatal(err)
	}
	// контекст: строка 1 перед строкой 2
	if !strings.Contains(buf.String(), " 1 | class A < Missing\n 2 |   X = Y::Z\n") {
		t.Errorf("expected one line of context, got:\n%s", buf.String())
	}
}

func TestPrettyColor(t *testing.T) {
	bag, fs, _ := sampleBag(t)
	var plain, colored bytes.Buffer
	if err := Pretty(&plain, bag, fs, PrettyOpts{}); err != nil {
		t.Fatal(err)
	}
	if err := Pretty(&colored, bag, fs, PrettyOpts{Color: true}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(plain.String(), "\x1b[") {
		t.Errorf("plain output contains escape codes")
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Errorf("colored output has no escape codes")
	}
}

func TestShort(t *testing.T) {
	bag, fs, _ := sampleBag(t)
	var buf bytes.Buffer
	if err := Short(&buf, bag, fs, ShortOpts{}); err != nil {
		t.Fatal(err)
	}
	want := "error RES5002 a.rb:1:11 Unable to resolve constant `Missing`\n" +
		"warning RES5001 a.rb:2:7 Dynamic constant references are unsupported\n"
	if buf.String() != want {
		t.Errorf("Short() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestDump(t *testing.T) {
	snap := &snapshot.Snapshot{
		Source: "prog.yaml",
		Classes: []snapshot.Class{
			{
				Name: "Box", Kind: "class", Super: "Object",
				Mixins:        []string{"Enumerable"},
				Linearization: []string{"Box", "Enumerable", "Object", "Kernel", "BasicObject"},
				TypeMembers:   []snapshot.TypeMember{{Name: "Elem", Variance: "invariant", Lower: "T.noreturn", Upper: "T.untyped"}},
				Methods:       []string{"each"},
			},
			{Name: "Missing", Kind: "class", Super: "<StubClass>", Stub: true},
			{Name: "<Class:Box>", Kind: "singleton", Super: "<Class:Object>"},
		},
	}
	var buf bytes.Buffer
	if err := Dump(&buf, []*snapshot.Snapshot{snap}, DumpOpts{Members: true}); err != nil {
		t.Fatal(err)
	}
	output := buf.String()
	for _, want := range []string{
		"# prog.yaml\n",
		"class Box < Object\n",
		"  mixins: Enumerable\n",
		"  linearization: Box, Enumerable, Object, Kernel, BasicObject\n",
		"  type_member: Elem (invariant) T.noreturn..T.untyped\n",
		"  methods: each\n",
		"class Missing < <StubClass> [stub]\n",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in dump:\n%s", want, output)
		}
	}
	if strings.Contains(output, "<Class:Box>") {
		t.Errorf("singletons are hidden by default:\n%s", output)
	}
}
