package diag

import "tyck/internal/source"

type dedupKey struct {
	code  Code
	file  source.FileID
	start uint32
	end   uint32
	msg   string
}

// DedupReporter wraps another Reporter and lets through only the first
// diagnostic for a given code, primary span and header. Speculative
// re-resolution of the same occurrence therefore never reports twice.
type DedupReporter struct {
	next Reporter
	seen map[dedupKey]struct{}
}

// NewDedupReporter returns a Reporter that filters out duplicates while
// forwarding unique diagnostics to the provided reporter.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

// Seen reports whether a diagnostic with this code, span and header was
// forwarded.
func (r *DedupReporter) Seen(code Code, primary source.Span, msg string) bool {
	if r == nil {
		return false
	}
	_, ok := r.seen[keyOf(code, primary, msg)]
	return ok
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	if r == nil {
		return
	}
	key := keyOf(code, primary, msg)
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes)
	}
}

func keyOf(code Code, primary source.Span, msg string) dedupKey {
	return dedupKey{code: code, file: primary.File, start: primary.Start, end: primary.End, msg: msg}
}
