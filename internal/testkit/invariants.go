// Package testkit holds checks shared by tests of packages that build or
// rewrite trees.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"tyck/internal/ast"
	"tyck/internal/source"
)

// CheckSpanInvariants walks tree and verifies the spans it carries:
// 1) every span that exists names a file registered in fs
// 2) Start <= End and End stays within the file content
// 3) nodes below a class definition live in the class's file
func CheckSpanInvariants(tree ast.Node, fs *source.FileSet) error {
	if fs == nil {
		return fmt.Errorf("nil file set")
	}
	var (
		firstErr error
		owners   []source.FileID
	)
	check := func(n ast.Node) error {
		sp := n.Span()
		if !sp.Exists() {
			return nil
		}
		f := fs.Get(sp.File)
		if f == nil {
			return fmt.Errorf("%T: span points to unknown file %d", n, sp.File)
		}
		if sp.End < sp.Start {
			return fmt.Errorf("%T: inverted span %v", n, sp)
		}
		size, err := safecast.Conv[uint32](len(f.Content))
		if err != nil {
			return fmt.Errorf("len content overflow: %w", err)
		}
		if sp.End > size {
			return fmt.Errorf("%T: span end beyond content: %d > %d", n, sp.End, size)
		}
		if len(owners) > 0 && owners[len(owners)-1] != sp.File {
			return fmt.Errorf("%T: span in file %d, enclosing class in %d", n, sp.File, owners[len(owners)-1])
		}
		return nil
	}

	var visit func(n ast.Node)
	visit = func(n ast.Node) {
		ast.Walk(n, func(c ast.Node) bool {
			if firstErr != nil {
				return false
			}
			if err := check(c); err != nil {
				firstErr = err
				return false
			}
			cd, ok := c.(*ast.ClassDef)
			if !ok {
				return true
			}
			// тело класса проверяем отдельно, с его файлом на стеке
			pushed := cd.Loc.Exists()
			if pushed {
				owners = append(owners, cd.Loc.File)
			}
			for _, stat := range cd.Body {
				visit(stat)
			}
			if pushed {
				owners = owners[:len(owners)-1]
			}
			return false
		})
	}
	visit(tree)
	return firstErr
}
