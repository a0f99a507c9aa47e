package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"tyck/internal/fixture"
)

// loadedProgram is one input file after reading and decoding.
type loadedProgram struct {
	Path    string
	Content []byte
	Doc     *fixture.Document
	// Err is a decode error; the file was read but is not a valid program.
	Err error
}

func isProgramFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// listProgramFiles возвращает отсортированный список всех *.yaml/*.yml файлов в директории
func listProgramFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isProgramFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// collectInputs expands directories into the program files below them.
// Explicit file arguments are kept even without a YAML extension.
func collectInputs(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %q: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		files, err := listProgramFiles(p)
		if err != nil {
			return nil, fmt.Errorf("failed to list %q: %w", p, err)
		}
		out = append(out, files...)
	}
	if len(out) == 0 {
		return nil, errors.New("no program files to resolve")
	}
	return out, nil
}

// loadAll reads and decodes files in parallel. Results keep the order of
// files. Read failures abort the whole load; decode failures are kept on
// the entry.
func loadAll(ctx context.Context, files []string, jobs int) ([]loadedProgram, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]loadedProgram, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// #nosec G304 -- path is provided by the caller
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %q: %w", path, err)
			}
			doc, err := fixture.Parse(path, content)
			results[i] = loadedProgram{Path: path, Content: content, Doc: doc, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
