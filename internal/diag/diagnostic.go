package diag

import (
	"tyck/internal/source"
)

// Note is a secondary location with an explanatory line, e.g. "declared in
// parent here".
type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}
