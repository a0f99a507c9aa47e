package resolver

import (
	"tyck/internal/diag"
	"tyck/internal/source"
)

// beginError opens an error report at loc. It returns nil when the report
// must not be made: the location lies in a file whose errors are
// suppressed, or the same error was already reported. Callers that create
// recovery symbols only when the report is made (constant stubs) depend on
// the nil result.
func (s *state) beginError(loc source.Span, code diag.Code, msg string) *diag.ReportBuilder {
	if f := s.fileOf(loc); f.IsSuppressed() {
		return nil
	}
	if s.report.Seen(code, loc, msg) {
		return nil
	}
	return diag.ReportError(s.report, code, loc, msg)
}

func (s *state) fileOf(loc source.Span) *source.File {
	if s.files == nil || !loc.Exists() {
		return nil
	}
	return s.files.Get(loc.File)
}
