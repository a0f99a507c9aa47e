// Package diag defines the diagnostic model shared by the loader, the
// resolver and the CLI.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code: compact numeric identifier (see codes.go) with a stable string
//     form (RES5002 for a stubbed constant, IO4001 for a load failure, ...).
//   - Message: the header line; keep it short and actionable.
//   - Primary span: the canonical source.Span pointing to the issue.
//   - Notes: secondary spans with explanatory lines ("`Elem` declared in
//     parent here").
//
// Notes must add context rather than repeat the header.
//
// # Emitting diagnostics
//
// Phases depend on a diag.Reporter only. ReportError/ReportWarning return a
// ReportBuilder; chain WithNote and finish with Emit. BagReporter collects
// into a Bag, DedupReporter drops a second report with the same code,
// primary span and header.
//
// Package diag does not format anything for humans; see internal/diagfmt.
package diag
