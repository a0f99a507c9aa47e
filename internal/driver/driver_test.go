package driver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tyck/internal/diag"
	"tyck/internal/snapshot"
)

const goodProgram = `files:
  - path: a.rb
    body:
      - class: Base
      - class: Child
        superclass: Base
`

const badProgram = `files:
  - path: b.rb
    body:
      - class: Broken
        superclass: Missing
      - "X = Nope::Deeper"
`

func writeProgram(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestResolveSingleProgram(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "good.yaml", goodProgram)

	res, err := Resolve(context.Background(), []string{path}, Options{Validate: true})
	require.NoError(t, err)
	assert.False(t, res.HasErrors())
	assert.Zero(t, res.Bag.Len())
	require.Len(t, res.Programs, 1)

	prog := res.Programs[0]
	assert.False(t, prog.Cached)
	require.NotNil(t, prog.Snapshot)
	child, ok := prog.Snapshot.Class("Child")
	require.True(t, ok)
	assert.Equal(t, "Base", child.Super)
	assert.GreaterOrEqual(t, prog.Snapshot.Stats.Classes, 2)
	assert.Equal(t, int64(prog.Snapshot.Stats.Classes), res.Counters.Get("types.input.classes.total"))
}

func TestResolveDirectoryInOrder(t *testing.T) {
	dir := t.TempDir()
	writeProgram(t, dir, "b/bad.yml", badProgram)
	writeProgram(t, dir, "a/good.yaml", goodProgram)
	writeProgram(t, dir, "notes.txt", "ignored")

	res, err := Resolve(context.Background(), []string{dir}, Options{Jobs: 2})
	require.NoError(t, err)
	require.Len(t, res.Programs, 2)
	assert.Equal(t, filepath.Join(dir, "a", "good.yaml"), res.Programs[0].Path)
	assert.Equal(t, filepath.Join(dir, "b", "bad.yml"), res.Programs[1].Path)

	assert.True(t, res.HasErrors())
	stubs := res.Bag.WithCode(diag.ResStubConstant)
	require.NotEmpty(t, stubs)
	for _, d := range stubs {
		f := res.FileSet.Get(d.Primary.File)
		require.NotNil(t, f)
		assert.Equal(t, "b.rb", f.Path)
	}
}

func TestResolveReportsMalformedProgram(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "broken.yaml", "files:\n  - body: [1, 2\n")

	res, err := Resolve(context.Background(), []string{path}, Options{})
	require.NoError(t, err)
	invalid := res.Bag.WithCode(diag.IOFixtureInvalid)
	require.Len(t, invalid, 1)
	assert.Contains(t, invalid[0].Message, "broken.yaml")
	assert.True(t, res.HasErrors())
	assert.Nil(t, res.Programs[0].Snapshot)
}

func TestResolveMissingPath(t *testing.T) {
	_, err := Resolve(context.Background(), []string{filepath.Join(t.TempDir(), "nope.yaml")}, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Resolve(context.Background(), []string{t.TempDir()}, Options{})
	assert.Error(t, err)
}

func TestResolveCancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "good.yaml", goodProgram)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Resolve(ctx, []string{path}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveUsesCache(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "bad.yaml", badProgram)
	cache, err := snapshot.Open(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	opts := Options{Cache: cache, Validate: true}

	first, err := Resolve(context.Background(), []string{path}, opts)
	require.NoError(t, err)
	require.False(t, first.Programs[0].Cached)
	assert.Equal(t, int64(1), first.Counters.Get("driver.cache.misses"))

	second, err := Resolve(context.Background(), []string{path}, opts)
	require.NoError(t, err)
	require.True(t, second.Programs[0].Cached)
	assert.Equal(t, int64(1), second.Counters.Get("driver.cache.hits"))
	assert.Equal(t, first.Programs[0].Snapshot.RunID, second.Programs[0].Snapshot.RunID)
	assert.Equal(t, first.Bag.Items(), second.Bag.Items())
	assert.Equal(t, first.Errors, second.Errors)

	// options that change the outcome change the key
	opts.RequiresAncestor = true
	third, err := Resolve(context.Background(), []string{path}, opts)
	require.NoError(t, err)
	assert.False(t, third.Programs[0].Cached)
}

func TestResolveTimingsAndObserver(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "good.yaml", goodProgram)

	var mu sync.Mutex
	var events []PhaseEvent
	res, err := Resolve(context.Background(), []string{path}, Options{
		EnableTimings: true,
		Observer: func(ev PhaseEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, ev)
		},
	})
	require.NoError(t, err)

	timings := res.Bag.WithCode(diag.ObsTimings)
	require.Len(t, timings, 1)
	assert.Equal(t, diag.SevInfo, timings[0].Severity)
	require.Len(t, timings[0].Notes, 1)
	assert.Contains(t, timings[0].Notes[0].Msg, `"resolver.constants"`)
	assert.False(t, res.HasErrors())

	require.Len(t, events, 4)
	assert.Equal(t, PhaseEvent{Name: "load", Status: PhaseStart}, events[0])
	assert.Equal(t, "resolve "+path, events[2].Name)
	assert.Equal(t, PhaseEnd, events[3].Status)
}

func TestResolveMaxDiagnosticsKeepsErrorCount(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "bad.yaml", badProgram)
	res, err := Resolve(context.Background(), []string{path}, Options{MaxDiagnostics: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Bag.Len())
	assert.Greater(t, res.Errors, 1)
}
