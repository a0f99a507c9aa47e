package fixture

import (
	"fmt"
	"strings"
	"unicode"

	"tyck/internal/ast"
	"tyck/internal/source"
	"tyck/internal/symbols"
)

type tokKind uint8

const (
	tkEOF tokKind = iota
	tkIdent
	tkConst
	tkIVar
	tkCVar
	tkSymbol
	tkInt
	tkFloat
	tkString
	tkPunct
)

type token struct {
	kind       tokKind
	text       string
	start, end int
}

// lex splits a one-line expression into tokens.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '"' || c == '\'':
			j := i + 1
			for j < len(src) && src[j] != c {
				j++
			}
			if j >= len(src) {
				return nil, fmt.Errorf("column %d: unterminated string", i+1)
			}
			toks = append(toks, token{tkString, src[i+1 : j], i, j + 1})
			i = j + 1
		case c == '@':
			j := i + 1
			kind := tkIVar
			if j < len(src) && src[j] == '@' {
				j++
				kind = tkCVar
			}
			j = scanIdent(src, j)
			toks = append(toks, token{kind, src[i:j], i, j})
			i = j
		case c == ':' && i+1 < len(src) && src[i+1] == ':':
			toks = append(toks, token{tkPunct, "::", i, i + 2})
			i += 2
		case c == ':' && i+1 < len(src) && (isIdentStart(src[i+1]) || src[i+1] == '@'):
			j := i + 1
			for j < len(src) && src[j] == '@' {
				j++
			}
			j = scanIdent(src, j)
			toks = append(toks, token{tkSymbol, src[i+1 : j], i, j})
			i = j
		case c >= '0' && c <= '9', c == '-' && i+1 < len(src) && src[i+1] >= '0' && src[i+1] <= '9':
			j := i + 1
			kind := tkInt
			for j < len(src) && (src[j] >= '0' && src[j] <= '9' || src[j] == '_' || src[j] == '.' && j+1 < len(src) && src[j+1] >= '0' && src[j+1] <= '9') {
				if src[j] == '.' {
					kind = tkFloat
				}
				j++
			}
			toks = append(toks, token{kind, src[i:j], i, j})
			i = j
		case isIdentStart(c):
			j := scanIdent(src, i)
			if j < len(src) && (src[j] == '!' || src[j] == '?') {
				j++
			}
			kind := tkIdent
			if unicode.IsUpper(rune(c)) {
				kind = tkConst
			}
			toks = append(toks, token{kind, src[i:j], i, j})
			i = j
		case c == '=' && i+1 < len(src) && src[i+1] == '>':
			toks = append(toks, token{tkPunct, "=>", i, i + 2})
			i += 2
		case strings.IndexByte("=.,()[]{}:", c) >= 0:
			toks = append(toks, token{tkPunct, string(c), i, i + 1})
			i++
		default:
			return nil, fmt.Errorf("column %d: unexpected %q", i+1, c)
		}
	}
	toks = append(toks, token{kind: tkEOF, start: len(src), end: len(src)})
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func scanIdent(src string, i int) int {
	for i < len(src) && (isIdentStart(src[i]) || src[i] >= '0' && src[i] <= '9') {
		i++
	}
	return i
}

// exprParser builds unresolved tree nodes from one expression. Constants
// become ConstantLit, variables UnresolvedIdent and calls without a
// receiver are sent to self.
type exprParser struct {
	toks []token
	pos  int
	base int
	file source.FileID
	strs *source.Interner
	self symbols.ClassRef
}

func parseExpr(src string, base int, file source.FileID, strs *source.Interner, self symbols.ClassRef) (ast.Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &exprParser{toks: toks, base: base, file: file, strs: strs, self: self}
	n, err := p.statement()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tkEOF {
		return nil, p.errorf(tok, "unexpected %q", tok.text)
	}
	return n, nil
}

func (p *exprParser) peek() token { return p.toks[p.pos] }

func (p *exprParser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tkEOF {
		p.pos++
	}
	return tok
}

func (p *exprParser) isPunct(text string) bool {
	tok := p.peek()
	return tok.kind == tkPunct && tok.text == text
}

func (p *exprParser) expect(text string) (token, error) {
	tok := p.next()
	if tok.kind != tkPunct || tok.text != text {
		return tok, p.errorf(tok, "expected %q", text)
	}
	return tok, nil
}

func (p *exprParser) errorf(tok token, format string, args ...any) error {
	return fmt.Errorf("column %d: %s", tok.start+1, fmt.Sprintf(format, args...))
}

func (p *exprParser) span(tok token) source.Span {
	return source.Span{File: p.file, Start: uint32(p.base + tok.start), End: uint32(p.base + tok.end)} // #nosec G115 -- fixture sizes are small
}

func (p *exprParser) statement() (ast.Node, error) {
	lhs, err := p.expr()
	if err != nil {
		return nil, err
	}
	if !p.isPunct("=") {
		return lhs, nil
	}
	p.next()
	rhs, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &ast.Assign{Loc: lhs.Span().Cover(rhs.Span()), LHS: lhs, RHS: rhs}, nil
}

func (p *exprParser) expr() (ast.Node, error) {
	n, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isPunct("."):
			p.next()
			name := p.next()
			if name.kind != tkIdent && name.kind != tkConst {
				return nil, p.errorf(name, "expected method name")
			}
			if n, err = p.call(n, name, false); err != nil {
				return nil, err
			}
		case p.isPunct("["):
			p.next()
			args, end, err := p.args("]")
			if err != nil {
				return nil, err
			}
			n = &ast.Send{Loc: n.Span().Cover(p.span(end)), Recv: n, Fun: p.strs.Intern("[]"), Args: args}
		case p.isPunct("::"):
			// `expr::Const` with a non-constant scope
			p.next()
			name := p.next()
			if name.kind != tkConst {
				return nil, p.errorf(name, "expected constant after ::")
			}
			if n, err = p.constPath(n, name); err != nil {
				return nil, err
			}
		default:
			return n, nil
		}
	}
}

func (p *exprParser) primary() (ast.Node, error) {
	tok := p.next()
	sp := p.span(tok)
	switch tok.kind {
	case tkConst:
		return p.constPath(ast.Empty(source.Span{File: p.file, Start: sp.Start, End: sp.Start}), tok)
	case tkPunct:
		switch tok.text {
		case "::":
			name := p.next()
			if name.kind != tkConst {
				return nil, p.errorf(name, "expected constant after ::")
			}
			return p.constPath(&ast.Ident{Loc: sp, Symbol: symbols.Root.Ref()}, name)
		case "[":
			elems, end, err := p.args("]")
			if err != nil {
				return nil, err
			}
			return &ast.Array{Loc: sp.Cover(p.span(end)), Elems: elems}, nil
		case "{":
			args, end, err := p.args("}")
			if err != nil {
				return nil, err
			}
			if len(args) == 0 {
				return &ast.Hash{Loc: sp.Cover(p.span(end))}, nil
			}
			h, ok := args[len(args)-1].(*ast.Hash)
			if !ok || len(args) != 1 {
				return nil, p.errorf(tok, "hash literal needs key/value pairs")
			}
			h.Loc = sp.Cover(p.span(end))
			return h, nil
		case "(":
			inner, err := p.expr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(")"); err != nil {
				return nil, err
			}
			return inner, nil
		}
	case tkIVar:
		return &ast.UnresolvedIdent{Loc: sp, Kind: ast.IdentInstance, Name: p.strs.InternIdent(tok.text)}, nil
	case tkCVar:
		return &ast.UnresolvedIdent{Loc: sp, Kind: ast.IdentClass, Name: p.strs.InternIdent(tok.text)}, nil
	case tkSymbol:
		return &ast.Literal{Loc: sp, Kind: ast.LitSymbol, Value: tok.text}, nil
	case tkInt:
		return &ast.Literal{Loc: sp, Kind: ast.LitInt, Value: tok.text}, nil
	case tkFloat:
		return &ast.Literal{Loc: sp, Kind: ast.LitFloat, Value: tok.text}, nil
	case tkString:
		return &ast.Literal{Loc: sp, Kind: ast.LitString, Value: tok.text}, nil
	case tkIdent:
		switch tok.text {
		case "self":
			return &ast.Self{Loc: sp, Class: p.self}, nil
		case "true":
			return &ast.Literal{Loc: sp, Kind: ast.LitTrue, Value: tok.text}, nil
		case "false":
			return &ast.Literal{Loc: sp, Kind: ast.LitFalse, Value: tok.text}, nil
		case "nil":
			return &ast.Literal{Loc: sp, Kind: ast.LitNil, Value: tok.text}, nil
		}
		recv := &ast.Self{Loc: source.Span{File: p.file, Start: sp.Start, End: sp.Start}, Class: p.self}
		return p.call(recv, tok, true)
	case tkEOF:
		return nil, p.errorf(tok, "unexpected end of expression")
	}
	return nil, p.errorf(tok, "unexpected %q", tok.text)
}

func (p *exprParser) constPath(scope ast.Node, name token) (ast.Node, error) {
	loc := p.span(name)
	if _, root := scope.(*ast.Ident); root {
		loc = scope.Span().Cover(loc)
	}
	var n ast.Node = &ast.ConstantLit{Loc: loc, Scope: scope, Name: p.strs.InternIdent(name.text)}
	for p.isPunct("::") {
		p.next()
		seg := p.next()
		if seg.kind != tkConst {
			return nil, p.errorf(seg, "expected constant after ::")
		}
		n = &ast.ConstantLit{Loc: n.Span().Cover(p.span(seg)), Scope: n, Name: p.strs.InternIdent(seg.text)}
	}
	return n, nil
}

// call parses the arguments and block of a send. command allows the
// parenthesis-free form `include M, N`.
func (p *exprParser) call(recv ast.Node, name token, command bool) (ast.Node, error) {
	send := &ast.Send{Loc: p.span(name), Recv: recv, Fun: p.strs.Intern(name.text)}
	if recv.Span().Exists() && !recv.Span().Empty() {
		send.Loc = recv.Span().Cover(send.Loc)
	}
	switch {
	case p.isPunct("("):
		p.next()
		args, end, err := p.args(")")
		if err != nil {
			return nil, err
		}
		send.Args = args
		send.Loc = send.Loc.Cover(p.span(end))
	case command && p.startsArg():
		args, err := p.commandArgs()
		if err != nil {
			return nil, err
		}
		send.Args = args
		if len(args) > 0 {
			send.Loc = send.Loc.Cover(args[len(args)-1].Span())
		}
	}
	if p.isPunct("{") {
		p.next()
		block, err := p.expr()
		if err != nil {
			return nil, err
		}
		end, err := p.expect("}")
		if err != nil {
			return nil, err
		}
		send.Block = block
		send.Loc = send.Loc.Cover(p.span(end))
	}
	return send, nil
}

func (p *exprParser) startsArg() bool {
	tok := p.peek()
	switch tok.kind {
	case tkEOF:
		return false
	case tkPunct:
		return tok.text == "::" || tok.text == "["
	default:
		return true
	}
}

func (p *exprParser) commandArgs() ([]ast.Node, error) {
	var args []ast.Node
	for {
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.isPunct(",") {
			return args, nil
		}
		p.next()
	}
}

// args parses a comma separated list up to close. `key: value` and
// `key => value` pairs are gathered into one trailing Hash.
func (p *exprParser) args(close string) ([]ast.Node, token, error) {
	var (
		args []ast.Node
		hash *ast.Hash
	)
	for !p.isPunct(close) {
		if p.peek().kind == tkEOF {
			return nil, p.peek(), p.errorf(p.peek(), "expected %q", close)
		}
		var key ast.Node
		if tok := p.peek(); tok.kind == tkIdent && p.toks[p.pos+1].kind == tkPunct && p.toks[p.pos+1].text == ":" {
			p.pos += 2
			key = &ast.Literal{Loc: p.span(tok), Kind: ast.LitSymbol, Value: tok.text}
		} else {
			arg, err := p.expr()
			if err != nil {
				return nil, token{}, err
			}
			if !p.isPunct("=>") {
				if hash != nil {
					return nil, token{}, p.errorf(p.peek(), "positional argument after key/value pairs")
				}
				args = append(args, arg)
				if !p.isPunct(",") {
					break
				}
				p.next()
				continue
			}
			p.next()
			key = arg
		}
		value, err := p.expr()
		if err != nil {
			return nil, token{}, err
		}
		if hash == nil {
			hash = &ast.Hash{Loc: key.Span()}
		}
		hash.Keys = append(hash.Keys, key)
		hash.Values = append(hash.Values, value)
		hash.Loc = hash.Loc.Cover(value.Span())
		if !p.isPunct(",") {
			break
		}
		p.next()
	}
	end, err := p.expect(close)
	if err != nil {
		return nil, end, err
	}
	if hash != nil {
		args = append(args, hash)
	}
	return args, end, nil
}
