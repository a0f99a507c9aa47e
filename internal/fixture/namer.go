package fixture

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"tyck/internal/ast"
	"tyck/internal/source"
	"tyck/internal/symbols"
)

// PayloadPath names the virtual file built-in symbols are located in.
const PayloadPath = "<payload>"

// Program is a named program ready for resolution.
type Program struct {
	Table   *symbols.Table
	Trees   []ast.Node
	FileIDs []source.FileID
	Options Options
}

// Build enters the declarations of doc into a fresh symbol table and
// returns one tree per file. Spans point into files added to fs.
func Build(doc *Document, fs *source.FileSet, strs *source.Interner) (*Program, error) {
	if strs == nil {
		strs = source.NewInterner()
	}
	payload, fileIDs := AddFiles(doc, fs)
	b := &builder{
		doc:   doc,
		strs:  strs,
		table: symbols.NewTable(estimate(doc), strs, payload),
		names: builderNames{
			include:      strs.Intern("include"),
			extend:       strs.Intern("extend"),
			abstract:     strs.Intern("abstract!"),
			iface:        strs.Intern("interface!"),
			typeMember:   strs.Intern("type_member"),
			typeTemplate: strs.Intern("type_template"),
		},
	}
	prog := &Program{Table: b.table, Options: doc.Options}
	var errs []error
	for i := range doc.Files {
		spec := &doc.Files[i]
		b.file = fileIDs[i]
		root := &ast.ClassDef{
			Loc:    b.span(0, len(doc.content)),
			Symbol: symbols.Root,
			Kind:   ast.KindClass,
		}
		body, err := b.body(&spec.Body, symbols.Root, false)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", spec.Path, err))
		}
		b.attach(root, body)
		prog.Trees = append(prog.Trees, root)
		prog.FileIDs = append(prog.FileIDs, b.file)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return prog, nil
}

// AddFiles registers the payload file and every file of doc in fs, in the
// order Build uses. Registering the same document again into an equally
// populated FileSet yields the same IDs.
func AddFiles(doc *Document, fs *source.FileSet) (payload source.FileID, files []source.FileID) {
	payload = fs.Add(PayloadPath, nil, source.FileVirtual|source.FilePayload)
	files = make([]source.FileID, 0, len(doc.Files))
	for i := range doc.Files {
		spec := &doc.Files[i]
		flags := source.FileVirtual
		if spec.Suppressed {
			flags |= source.FileSuppressed
		}
		if spec.Payload {
			flags |= source.FilePayload
		}
		files = append(files, fs.Add(spec.Path, doc.content, flags))
	}
	return payload, files
}

type builderNames struct {
	include      source.StringID
	extend       source.StringID
	abstract     source.StringID
	iface        source.StringID
	typeMember   source.StringID
	typeTemplate source.StringID
}

type builder struct {
	doc   *Document
	strs  *source.Interner
	table *symbols.Table
	file  source.FileID
	names builderNames
}

func estimate(doc *Document) symbols.Hints {
	var count func(n *yaml.Node) uint
	count = func(n *yaml.Node) uint {
		total := uint(1)
		for _, c := range n.Content {
			total += count(c)
		}
		return total
	}
	var nodes uint
	for i := range doc.Files {
		nodes += count(&doc.Files[i].Body)
	}
	return symbols.Hints{Classes: nodes / 4, Methods: nodes / 4, Fields: nodes / 8, TypeMembers: nodes / 16}
}

func (b *builder) span(start, end int) source.Span {
	return source.Span{File: b.file, Start: uint32(start), End: uint32(end)} // #nosec G115 -- fixture sizes are small
}

func (b *builder) scalarSpan(n *yaml.Node) source.Span {
	off := b.doc.scalarOffset(n)
	return b.span(off, off+len(n.Value))
}

func (b *builder) errorf(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", n.Line, fmt.Sprintf(format, args...))
}

// body names the items of a sequence node in the scope of owner. inMethod
// is set for method bodies, where declarations are not allowed.
func (b *builder) body(seq *yaml.Node, owner symbols.ClassRef, inMethod bool) ([]ast.Node, error) {
	if seq.Kind == 0 {
		return nil, nil
	}
	var (
		out  []ast.Node
		errs []error
	)
	for _, item := range seq.Content {
		var (
			n   ast.Node
			err error
		)
		switch item.Kind {
		case yaml.ScalarNode:
			n, err = b.statement(item, owner, inMethod)
		case yaml.MappingNode:
			if inMethod {
				err = b.errorf(item, "definitions are not allowed inside a method body")
				break
			}
			n, err = b.definition(item, owner)
		default:
			err = b.errorf(item, "body items are expressions or definitions")
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, n)
	}
	return out, errors.Join(errs...)
}

func (b *builder) statement(item *yaml.Node, owner symbols.ClassRef, inMethod bool) (ast.Node, error) {
	n, err := parseExpr(item.Value, b.doc.scalarOffset(item), b.file, b.strs, owner)
	if err != nil {
		return nil, b.errorf(item, "%v", err)
	}
	if inMethod {
		return n, nil
	}
	if a, ok := n.(*ast.Assign); ok {
		return b.constantAssign(a, owner), nil
	}
	return n, nil
}

// constantAssign enters the constant or type member a names.
func (b *builder) constantAssign(a *ast.Assign, owner symbols.ClassRef) ast.Node {
	lit, ok := a.LHS.(*ast.ConstantLit)
	if !ok || !ast.IsEmpty(lit.Scope) {
		return a
	}
	t := b.table
	if send, ok := a.RHS.(*ast.Send); ok && (send.Fun == b.names.typeMember || send.Fun == b.names.typeTemplate) {
		tmOwner := owner
		if send.Fun == b.names.typeTemplate {
			tmOwner = t.SingletonClass(owner)
		}
		ref := t.EnterTypeMember(lit.Loc, tmOwner, lit.Name, variance(send))
		a.LHS = &ast.Ident{Loc: lit.Loc, Symbol: ref.Ref()}
		return a
	}
	ref := t.EnterStaticField(lit.Loc, owner, lit.Name)
	a.LHS = &ast.Ident{Loc: lit.Loc, Symbol: t.FieldSymbol(ref)}
	return a
}

func variance(send *ast.Send) symbols.Variance {
	for _, arg := range send.Args {
		if lit, ok := arg.(*ast.Literal); ok && lit.Kind == ast.LitSymbol {
			switch lit.Value {
			case "out":
				return symbols.Covariant
			case "in":
				return symbols.Contravariant
			}
		}
	}
	return symbols.Invariant
}

type definitionSpec struct {
	Class      string    `yaml:"class"`
	Module     string    `yaml:"module"`
	Superclass string    `yaml:"superclass"`
	Abstract   bool      `yaml:"abstract"`
	Def        string    `yaml:"def"`
	Self       bool      `yaml:"self"`
	Args       []string  `yaml:"args"`
	Body       yaml.Node `yaml:"body"`
}

func valueNode(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func (b *builder) definition(item *yaml.Node, owner symbols.ClassRef) (ast.Node, error) {
	var spec definitionSpec
	if err := item.Decode(&spec); err != nil {
		return nil, b.errorf(item, "%v", err)
	}
	switch {
	case spec.Class != "" && spec.Module == "" && spec.Def == "":
		return b.classDef(item, &spec, owner, ast.KindClass)
	case spec.Module != "" && spec.Class == "" && spec.Def == "":
		if spec.Superclass != "" {
			return nil, b.errorf(item, "modules have no superclass")
		}
		return b.classDef(item, &spec, owner, ast.KindModule)
	case spec.Def != "" && spec.Class == "" && spec.Module == "":
		return b.methodDef(item, &spec, owner)
	default:
		return nil, b.errorf(item, "a definition needs exactly one of class, module or def")
	}
}

func (b *builder) classDef(item *yaml.Node, spec *definitionSpec, owner symbols.ClassRef, kind ast.ClassKind) (ast.Node, error) {
	t := b.table
	key := "class"
	name := spec.Class
	if kind == ast.KindModule {
		key, name = "module", spec.Module
	}
	nameNode := valueNode(item, key)
	nameExpr, err := parseExpr(name, b.doc.scalarOffset(nameNode), b.file, b.strs, owner)
	if err != nil {
		return nil, b.errorf(nameNode, "%v", err)
	}
	lit, ok := nameExpr.(*ast.ConstantLit)
	if !ok {
		return nil, b.errorf(nameNode, "%q is not a constant name", name)
	}
	scope := b.enterScope(lit.Scope, owner)
	ref := t.EnterClass(lit.Loc, scope, lit.Name)
	data := t.Class(ref)
	switch {
	case !data.IsClassModuleSet():
		data.SetIsModule(kind == ast.KindModule)
	case data.IsModule() != (kind == ast.KindModule):
		prev := ast.KindClass
		if data.IsModule() {
			prev = ast.KindModule
		}
		return nil, b.errorf(nameNode, "%s was declared as a %s before", name, prev)
	}
	if spec.Abstract {
		data.Flags |= symbols.ClassFlagAbstract
	}

	def := &ast.ClassDef{
		Loc:     b.span(b.doc.offset(item.Line, item.Column), int(lit.Loc.End)),
		DeclLoc: lit.Loc,
		Symbol:  ref,
		Kind:    kind,
		Name:    lit,
	}
	if kind == ast.KindClass {
		if spec.Superclass == "" {
			def.Ancestors = append(def.Ancestors, &ast.Ident{Loc: lit.Loc, Symbol: symbols.Todo.Ref()})
		} else {
			superNode := valueNode(item, "superclass")
			super, err := parseExpr(spec.Superclass, b.doc.scalarOffset(superNode), b.file, b.strs, owner)
			if err != nil {
				return nil, b.errorf(superNode, "%v", err)
			}
			def.Ancestors = append(def.Ancestors, super)
		}
	}
	body, err := b.body(&spec.Body, ref, false)
	if err != nil {
		return nil, err
	}
	b.attach(def, body)
	return def, nil
}

// enterScope enters the classes named by the scope of a qualified class
// name (`A::B` enters A). Their kind stays unset until declared.
func (b *builder) enterScope(scope ast.Node, owner symbols.ClassRef) symbols.ClassRef {
	switch s := scope.(type) {
	case *ast.ConstantLit:
		parent := b.enterScope(s.Scope, owner)
		return b.table.EnterClass(s.Loc, parent, s.Name)
	case *ast.Ident:
		return s.Symbol.AsClass()
	default:
		return owner
	}
}

// attach moves `include`/`extend` sends into the ancestor lists of def,
// applies `abstract!`/`interface!` and keeps the rest as the body.
func (b *builder) attach(def *ast.ClassDef, body []ast.Node) {
	data := b.table.Class(def.Symbol)
	for _, n := range body {
		send, ok := n.(*ast.Send)
		if !ok {
			def.Body = append(def.Body, n)
			continue
		}
		if _, self := send.Recv.(*ast.Self); !self {
			def.Body = append(def.Body, n)
			continue
		}
		switch send.Fun {
		case b.names.include:
			def.Ancestors = append(def.Ancestors, send.Args...)
		case b.names.extend:
			def.SingletonAncestors = append(def.SingletonAncestors, send.Args...)
		case b.names.abstract:
			data.Flags |= symbols.ClassFlagAbstract
		case b.names.iface:
			data.Flags |= symbols.ClassFlagAbstract | symbols.ClassFlagInterface
		default:
			def.Body = append(def.Body, n)
		}
	}
}

func (b *builder) methodDef(item *yaml.Node, spec *definitionSpec, owner symbols.ClassRef) (ast.Node, error) {
	t := b.table
	nameNode := valueNode(item, "def")
	loc := b.scalarSpan(nameNode)
	methodOwner := owner
	if spec.Self {
		methodOwner = t.SingletonClass(owner)
	}
	name := b.strs.InternIdent(spec.Def)
	ref := t.EnterMethod(loc, methodOwner, name)
	m := t.Method(ref)
	m.Args = m.Args[:0]

	argsNode := valueNode(item, "args")
	for i, raw := range spec.Args {
		argLoc := loc
		if argsNode != nil && i < len(argsNode.Content) {
			argLoc = b.scalarSpan(argsNode.Content[i])
		}
		arg, err := parseArg(raw)
		if err != nil {
			return nil, b.errorf(nameNode, "%v", err)
		}
		arg.Name = b.strs.InternIdent(strings.TrimSuffix(arg.nameText, ":"))
		arg.Argument.Loc = argLoc
		m.Args = append(m.Args, arg.Argument)
	}

	self := owner
	if spec.Self {
		self = methodOwner
	}
	stats, err := b.body(&spec.Body, self, true)
	if err != nil {
		return nil, err
	}
	def := &ast.MethodDef{Loc: loc, Symbol: ref, Name: name, IsSelf: spec.Self, Body: ast.Empty(loc)}
	switch len(stats) {
	case 0:
	case 1:
		def.Body = stats[0]
	default:
		def.Body = &ast.InsSeq{Loc: stats[0].Span().Cover(stats[len(stats)-1].Span()), Stats: stats[:len(stats)-1], Expr: stats[len(stats)-1]}
	}
	return def, nil
}

type parsedArg struct {
	symbols.Argument
	nameText string
}

// parseArg reads `x`, `x:` (keyword), `x = 1`/`x?` (optional), `*xs`
// (repeated) and `&blk` (block).
func parseArg(raw string) (parsedArg, error) {
	raw = strings.TrimSpace(raw)
	var arg parsedArg
	switch {
	case strings.HasPrefix(raw, "&"):
		arg.Flags |= symbols.ArgBlock
		raw = raw[1:]
	case strings.HasPrefix(raw, "*"):
		arg.Flags |= symbols.ArgRepeated
		raw = strings.TrimLeft(raw, "*")
	}
	if i := strings.IndexByte(raw, '='); i >= 0 {
		arg.Flags |= symbols.ArgOptional
		raw = strings.TrimSpace(raw[:i])
	}
	if strings.HasSuffix(raw, ":") {
		arg.Flags |= symbols.ArgKeyword
	}
	if strings.HasSuffix(raw, "?") {
		arg.Flags |= symbols.ArgOptional
		raw = strings.TrimSuffix(raw, "?")
	}
	name := strings.TrimSuffix(raw, ":")
	if name == "" || !isIdentStart(name[0]) || scanIdent(name, 0) != len(name) {
		return parsedArg{}, fmt.Errorf("malformed argument %q", raw)
	}
	arg.nameText = name
	return arg, nil
}
