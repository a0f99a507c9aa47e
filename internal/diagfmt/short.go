package diagfmt

import (
	"io"

	"tyck/internal/diag"
	"tyck/internal/source"
)

// Short writes one line per diagnostic: `<sev> <CODE> <path>:<line>:<col> <msg>`.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts ShortOpts) error {
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}
	text := diag.FormatShortDiagnostics(items, fs, opts.IncludeNotes)
	if text == "" {
		return nil
	}
	_, err := io.WriteString(w, text+"\n")
	return err
}
