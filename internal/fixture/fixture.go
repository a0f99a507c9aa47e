// Package fixture reads program descriptions written in YAML and turns them
// into the input of the resolver: a symbol table populated the way a naming
// phase would populate it, and one unresolved tree per source file.
//
// A document lists files. Each file has a body of items; an item is either
// a mapping (`class:`, `module:` or `def:`) or a single-line expression:
//
//	options:
//	  requires_ancestor: true
//	files:
//	  - path: a.rb
//	    body:
//	      - class: Box
//	        superclass: Base
//	        body:
//	          - "Elem = type_member"
//	          - "include Enumerable"
//	          - "sig { params(x: Integer).returns(String) }"
//	          - def: get
//	            args: [x]
//	      - "X = Box"
//
// Every file of a document shares the document text as its content, so
// spans point at the YAML line that produced a node.
package fixture

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options are per-document resolver switches.
type Options struct {
	RequiresAncestor bool     `yaml:"requires_ancestor"`
	Trusted          []string `yaml:"trusted"`
}

// FileSpec is one source file of a document.
type FileSpec struct {
	Path       string    `yaml:"path"`
	Suppressed bool      `yaml:"suppressed"`
	Payload    bool      `yaml:"payload"`
	Body       yaml.Node `yaml:"body"`
}

// Document is a parsed fixture.
type Document struct {
	Name    string     `yaml:"name"`
	Options Options    `yaml:"options"`
	Files   []FileSpec `yaml:"files"`

	path    string
	content []byte
	lines   []int
}

// Path returns the file the document was read from, if any.
func (d *Document) Path() string { return d.path }

// Content returns the raw document text.
func (d *Document) Content() []byte { return d.content }

// Parse decodes a document from content. path names it in errors.
func Parse(path string, content []byte) (*Document, error) {
	doc := &Document{path: path, content: content}
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(doc.Files) == 0 {
		return nil, fmt.Errorf("%s: no files", path)
	}
	for i, f := range doc.Files {
		if f.Path == "" {
			return nil, fmt.Errorf("%s: file %d has no path", path, i+1)
		}
		if f.Body.Kind != 0 && f.Body.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("%s:%d: body of %s must be a list", path, f.Body.Line, f.Path)
		}
	}
	doc.lines = lineStarts(content)
	return doc, nil
}

// Load reads and parses the document at path.
func Load(path string) (*Document, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, content)
}

func lineStarts(content []byte) []int {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// offset converts a 1-based YAML line and column into a byte offset.
func (d *Document) offset(line, col int) int {
	if line < 1 || line > len(d.lines) {
		return 0
	}
	off := d.lines[line-1] + col - 1
	if off > len(d.content) {
		return len(d.content)
	}
	return off
}

// scalarOffset is the offset of the first character of a scalar's value.
func (d *Document) scalarOffset(n *yaml.Node) int {
	off := d.offset(n.Line, n.Column)
	if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		off++
	}
	return off
}
