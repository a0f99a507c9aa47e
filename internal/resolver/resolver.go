// Package resolver binds every constant reference in a parsed program to a
// symbol, links each class to its superclass and mixins, completes the
// ancestry every class lacks, and reconciles generic type members across
// inheritance.
//
// Run is the only entry point. Phases run in a fixed order: the constants
// walk (which also resolves ancestors as each class body closes), the
// signatures walk, the variables walk, the ancestor finalizer and symbol
// finalization (class-method mixins, linearization, type members).
package resolver

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tyck/internal/ast"
	"tyck/internal/diag"
	"tyck/internal/observ"
	"tyck/internal/source"
	"tyck/internal/symbols"
	"tyck/internal/typesyntax"
)

const tracerName = "tyck/resolver"

// Options configure one resolution run.
type Options struct {
	// Reporter receives diagnostics; they pass a dedup filter first.
	Reporter diag.Reporter
	// Files resolves spans to files for suppression and trust checks.
	Files *source.FileSet
	// Signatures parses `sig` blocks and type expressions. Nil uses
	// typesyntax.New().
	Signatures typesyntax.Parser
	// Trust decides which locations may break the invariant-in-classes
	// rule. Nil trusts payload locations only.
	Trust TrustPolicy
	// RequiresAncestor enables `requires_ancestor` declarations.
	RequiresAncestor bool
	// Validate runs the tree sanity check and Table.Validate afterwards.
	Validate bool
	// Timer and Counters collect phase timings and input tallies; both
	// may be nil.
	Timer    *observ.Timer
	Counters *observ.Counters
}

// Stats are the input tallies gathered by the ancestor finalizer.
type Stats struct {
	Classes int
	Modules int
	Methods int
}

// Result is the outcome of a successful run.
type Result struct {
	// Trees holds the rewritten roots, index-aligned with the input.
	Trees []ast.Node
	Stats Stats
}

// Run resolves trees against table. Trees are rewritten in place and also
// returned. Source errors are reported through opts.Reporter and never fail
// the run; the returned error is reserved for cancellation, internal
// assertion failures and, with opts.Validate, sanity violations.
func Run(ctx context.Context, table *symbols.Table, trees []ast.Node, opts Options) (res Result, err error) {
	if table == nil {
		return Result{}, errors.New("resolver: nil symbol table")
	}
	tracer := otel.GetTracerProvider().Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "resolver.Run", trace.WithAttributes(
		attribute.Int("trees", len(trees)),
		attribute.Int("classes.before", table.ClassesUsed()),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*InternalError)
			if !ok {
				panic(r)
			}
			span.RecordError(ie)
			res, err = Result{}, ie
		}
	}()

	s := newState(table, opts)
	phase := func(name string, fn func()) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		_, ps := tracer.Start(ctx, name)
		done := opts.Timer.Track(name)
		fn()
		done("")
		ps.End()
		return nil
	}

	if err = phase("resolver.constants", func() {
		for i, tree := range trees {
			trees[i] = ast.Map(tree, newConstantsWalk(s))
		}
	}); err != nil {
		return Result{}, err
	}
	if err = phase("resolver.signatures", func() {
		for i, tree := range trees {
			trees[i] = ast.Map(tree, newSignaturesWalk(s))
		}
	}); err != nil {
		return Result{}, err
	}
	if err = phase("resolver.variables", func() {
		for i, tree := range trees {
			trees[i] = ast.Map(tree, newVariablesWalk(s))
		}
	}); err != nil {
		return Result{}, err
	}
	var stats Stats
	if err = phase("resolver.finalize_ancestors", func() {
		stats = s.finalizeAncestors()
	}); err != nil {
		return Result{}, err
	}
	opts.Counters.Add("types.input.classes.total", int64(stats.Classes))
	opts.Counters.Add("types.input.modules.total", int64(stats.Modules))
	opts.Counters.Add("types.input.methods.total", int64(stats.Methods))

	if err = phase("resolver.finalize_symbols", s.finalizeSymbols); err != nil {
		return Result{}, err
	}

	if opts.Validate {
		var sanityErr error
		if err = phase("resolver.sanity", func() {
			sanityErr = errors.Join(sanityCheck(trees), table.Validate())
		}); err != nil {
			return Result{}, err
		}
		if sanityErr != nil {
			return Result{}, fmt.Errorf("resolver: sanity: %w", sanityErr)
		}
	}

	span.SetAttributes(attribute.Int("classes.after", table.ClassesUsed()))
	return Result{Trees: trees, Stats: stats}, nil
}

// state is shared by every phase of one run.
type state struct {
	table   *symbols.Table
	files   *source.FileSet
	report  *diag.DedupReporter
	sigs    typesyntax.Parser
	trust   TrustPolicy
	opts    Options
	names   names
	printer ast.Printer

	// filled by finalizeSymbols
	aliases  [][]aliasPair
	resolved []bool
}

func newState(table *symbols.Table, opts Options) *state {
	s := &state{
		table:  table,
		files:  opts.Files,
		report: diag.NewDedupReporter(opts.Reporter),
		sigs:   opts.Signatures,
		trust:  opts.Trust,
		opts:   opts,
		names:  internNames(table.Strings),
	}
	if s.sigs == nil {
		s.sigs = typesyntax.New()
	}
	if s.trust == nil {
		s.trust = PayloadTrust{Files: opts.Files, PayloadFile: table.PayloadFile()}
	}
	s.printer = ast.Printer{
		Strings: table.Strings,
		Symbol:  table.Show,
	}
	return s
}

// names are the method and keyword names the walks dispatch on.
type names struct {
	declareVariables    source.StringID
	mixesInClassMethods source.StringID
	requiresAncestor    source.StringID
	let                 source.StringID
	cast                source.StringID
	assertType          source.StringID
	typeMember          source.StringID
	typeTemplate        source.StringID
	fixed               source.StringID
	lower               source.StringID
	upper               source.StringID
}

func internNames(strs *source.Interner) names {
	return names{
		declareVariables:    strs.Intern("declare_variables"),
		mixesInClassMethods: strs.Intern("mixes_in_class_methods"),
		requiresAncestor:    strs.Intern("requires_ancestor"),
		let:                 strs.Intern("let"),
		cast:                strs.Intern("cast"),
		assertType:          strs.Intern("assert_type!"),
		typeMember:          strs.Intern("type_member"),
		typeTemplate:        strs.Intern("type_template"),
		fixed:               strs.Intern("fixed"),
		lower:               strs.Intern("lower"),
		upper:               strs.Intern("upper"),
	}
}

func (s *state) str(id source.StringID) string {
	v, _ := s.table.Strings.Lookup(id)
	return v
}

func (s *state) show(n ast.Node) string { return s.printer.String(n) }
