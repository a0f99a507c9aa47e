// Package driver runs the tyck pipeline: read program descriptions, name
// their declarations, resolve them and collect the diagnostics. Programs
// are independent; each gets its own symbol table.
package driver

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"tyck/internal/diag"
	"tyck/internal/fixture"
	"tyck/internal/observ"
	"tyck/internal/resolver"
	"tyck/internal/snapshot"
	"tyck/internal/source"
)

const tracerName = "tyck/driver"

// Options содержит опции пайплайна
type Options struct {
	MaxDiagnostics int
	// RequiresAncestor and Trusted add to what each program asks for.
	RequiresAncestor bool
	Trusted          []string
	Validate         bool
	// Jobs bounds parallel file decoding (0 = GOMAXPROCS).
	Jobs          int
	EnableTimings bool
	// Cache, when set, stores snapshots keyed by program content.
	Cache    *snapshot.Cache
	Observer PhaseObserver
	BaseDir  string
}

// Program is the outcome for one input file.
type Program struct {
	Path string
	// Files are the program's files, payload first. Nil when the input
	// could not be decoded.
	Files    []source.FileID
	Snapshot *snapshot.Snapshot
	Cached   bool
}

type Result struct {
	FileSet  *source.FileSet
	Bag      *diag.Bag
	Programs []Program
	// Errors counts error diagnostics, including those past the bag limit.
	Errors   int
	Timer    *observ.Timer
	Counters *observ.Counters
}

// HasErrors reports whether any program produced an error diagnostic.
func (r *Result) HasErrors() bool { return r != nil && r.Errors > 0 }

// Snapshots returns the snapshots of every resolved program.
func (r *Result) Snapshots() []*snapshot.Snapshot {
	out := make([]*snapshot.Snapshot, 0, len(r.Programs))
	for _, p := range r.Programs {
		if p.Snapshot != nil {
			out = append(out, p.Snapshot)
		}
	}
	return out
}

// Resolve loads every program under paths (files or directories) and
// resolves them one after another. The returned error is reserved for I/O
// failures, cancellation and internal errors; source problems are
// diagnostics in Result.Bag.
func Resolve(ctx context.Context, paths []string, opts Options) (res *Result, err error) {
	ctx, span := otel.GetTracerProvider().Tracer(tracerName).Start(ctx, "driver.Resolve")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("driver: internal error: %v", r)
			span.RecordError(err)
		}
	}()

	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = math.MaxUint16
	}
	var fs *source.FileSet
	if opts.BaseDir != "" {
		fs = source.NewFileSetWithBase(opts.BaseDir)
	} else {
		fs = source.NewFileSet()
	}
	res = &Result{
		FileSet:  fs,
		Bag:      diag.NewBag(maxDiags),
		Counters: observ.NewCounters(),
	}
	if opts.EnableTimings {
		res.Timer = observ.NewTimer()
	}

	done := opts.Observer.observe("load")
	track := res.Timer.Track("load")
	files, err := collectInputs(paths)
	if err != nil {
		track("")
		done()
		return nil, err
	}
	loaded, err := loadAll(ctx, files, opts.Jobs)
	track(fmt.Sprintf("files=%d", len(files)))
	done()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("programs", len(loaded)))

	for i := range loaded {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prog, err := resolveProgram(ctx, res, &loaded[i], opts)
		if err != nil {
			return nil, err
		}
		res.Programs = append(res.Programs, prog)
	}

	res.Bag.Sort()
	if res.Timer != nil {
		report := res.Timer.Report()
		appendTimingDiagnostic(res.Bag, timingPayload{
			Kind:     "resolve",
			TotalMS:  report.TotalMS,
			Phases:   report.Phases,
			Counters: res.Counters.Snapshot(),
		})
	}
	return res, nil
}

// salt lists the options that change the outcome of resolving a program.
func salt(path string, opts Options) []string {
	return []string{
		path,
		fmt.Sprintf("requires_ancestor=%t", opts.RequiresAncestor),
		fmt.Sprintf("validate=%t", opts.Validate),
		"trusted=" + strings.Join(opts.Trusted, ","),
	}
}

func resolveProgram(ctx context.Context, res *Result, l *loadedProgram, opts Options) (Program, error) {
	prog := Program{Path: l.Path}
	if l.Err != nil {
		// файл прочитан, но это не программа: точка в начале файла
		id := res.FileSet.Add(l.Path, l.Content, 0)
		res.add(diag.NewError(diag.IOFixtureInvalid, source.Span{File: id}, l.Err.Error()))
		return prog, nil
	}

	done := opts.Observer.observe("resolve " + l.Path)
	defer done()

	key := snapshot.KeyOf(l.Content, salt(l.Path, opts)...)
	if snap, ok := lookup(res, l, opts.Cache, key); ok {
		prog.Files = snap.files
		prog.Snapshot = snap.snap
		prog.Cached = true
		return prog, nil
	}

	track := res.Timer.Track("name " + l.Path)
	named, err := fixture.Build(l.Doc, res.FileSet, nil)
	track("")
	if err != nil {
		res.add(diag.NewError(diag.IOFixtureInvalid, source.Span{}, fmt.Sprintf("%s: %v", l.Path, err)))
		return prog, nil
	}
	prog.Files = append([]source.FileID{named.Table.PayloadFile()}, named.FileIDs...)

	bag := diag.NewBag(math.MaxUint16)
	trusted := append(append([]string(nil), named.Options.Trusted...), opts.Trusted...)
	out, err := resolver.Run(ctx, named.Table, named.Trees, resolver.Options{
		Reporter:         diag.BagReporter{Bag: bag},
		Files:            res.FileSet,
		RequiresAncestor: named.Options.RequiresAncestor || opts.RequiresAncestor,
		Validate:         opts.Validate,
		Trust: resolver.PayloadTrust{
			Files:       res.FileSet,
			PayloadFile: named.Table.PayloadFile(),
			Prefixes:    trusted,
		},
		Timer:    res.Timer,
		Counters: res.Counters,
	})
	if err != nil {
		return Program{}, fmt.Errorf("%s: %w", l.Path, err)
	}
	for _, d := range bag.Items() {
		res.add(d)
	}

	stats := snapshot.Stats{Classes: out.Stats.Classes, Modules: out.Stats.Modules, Methods: out.Stats.Methods}
	prog.Snapshot = snapshot.Capture(l.Path, key, named.Table, res.FileSet, prog.Files, bag.Items(), stats)
	if opts.Cache != nil {
		res.Counters.Add("driver.cache.misses", 1)
		if err := opts.Cache.Put(key, prog.Snapshot); err != nil {
			res.Counters.Add("driver.cache.errors", 1)
		}
	}
	return prog, nil
}

type cachedProgram struct {
	snap  *snapshot.Snapshot
	files []source.FileID
}

// lookup restores a program from the cache. On a hit the program's files
// are registered exactly as naming would register them.
func lookup(res *Result, l *loadedProgram, cache *snapshot.Cache, key snapshot.Digest) (cachedProgram, bool) {
	if cache == nil {
		return cachedProgram{}, false
	}
	snap, ok, err := cache.Get(key)
	if err != nil {
		res.Counters.Add("driver.cache.errors", 1)
		return cachedProgram{}, false
	}
	if !ok || len(snap.Files) != len(l.Doc.Files)+1 {
		return cachedProgram{}, false
	}
	payload, files := fixture.AddFiles(l.Doc, res.FileSet)
	ids := append([]source.FileID{payload}, files...)
	if !snap.Matches(res.FileSet, ids) {
		return cachedProgram{}, false
	}
	for _, d := range snap.Restore(ids) {
		res.add(d)
	}
	res.Counters.Add("driver.cache.hits", 1)
	return cachedProgram{snap: snap, files: ids}, true
}

func (r *Result) add(d diag.Diagnostic) {
	if d.Severity >= diag.SevError {
		r.Errors++
	}
	r.Bag.Add(d)
}
