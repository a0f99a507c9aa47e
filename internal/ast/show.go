package ast

import (
	"strings"

	"tyck/internal/source"
	"tyck/internal/symbols"
)

// Printer renders nodes back into source-like text for messages.
type Printer struct {
	Strings *source.Interner
	// Symbol names bound references; nil prints the raw handle.
	Symbol func(symbols.SymbolRef) string
}

// String renders n.
func (p Printer) String(n Node) string {
	var b strings.Builder
	p.write(&b, n)
	return b.String()
}

func (p Printer) name(id source.StringID) string {
	if p.Strings == nil {
		return "?"
	}
	s, ok := p.Strings.Lookup(id)
	if !ok {
		return "?"
	}
	return s
}

func (p Printer) write(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case nil, *EmptyTree:
	case *ConstantLit:
		if !IsEmpty(n.Scope) {
			p.write(b, n.Scope)
			b.WriteString("::")
		}
		b.WriteString(p.name(n.Name))
	case *Ident:
		if p.Symbol != nil {
			b.WriteString(p.Symbol(n.Symbol))
		} else {
			b.WriteString(n.Symbol.String())
		}
	case *UnresolvedIdent:
		if n.Kind == IdentClass {
			b.WriteString("@@")
		} else {
			b.WriteString("@")
		}
		b.WriteString(strings.TrimLeft(p.name(n.Name), "@"))
	case *Self:
		b.WriteString("self")
	case *Literal:
		switch n.Kind {
		case LitString:
			b.WriteString("\"" + n.Value + "\"")
		case LitSymbol:
			b.WriteString(":" + n.Value)
		default:
			b.WriteString(n.Value)
		}
	case *Send:
		if !IsEmpty(n.Recv) {
			p.write(b, n.Recv)
			b.WriteByte('.')
		}
		b.WriteString(p.name(n.Fun))
		if len(n.Args) > 0 {
			b.WriteByte('(')
			for i, a := range n.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				p.write(b, a)
			}
			b.WriteByte(')')
		}
	case *Hash:
		b.WriteByte('{')
		for i := range n.Keys {
			if i > 0 {
				b.WriteString(", ")
			}
			p.write(b, n.Keys[i])
			b.WriteString(" => ")
			p.write(b, n.Values[i])
		}
		b.WriteByte('}')
	case *Array:
		b.WriteByte('[')
		for i, e := range n.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			p.write(b, e)
		}
		b.WriteByte(']')
	case *Assign:
		p.write(b, n.LHS)
		b.WriteString(" = ")
		p.write(b, n.RHS)
	case *Cast:
		b.WriteString("T." + p.name(n.Cast) + "(")
		p.write(b, n.Expr)
		b.WriteString(", ...)")
	default:
		b.WriteString("<" + typeName(n) + ">")
	}
}

func typeName(n Node) string {
	switch n.(type) {
	case *ClassDef:
		return "ClassDef"
	case *MethodDef:
		return "MethodDef"
	case *InsSeq:
		return "InsSeq"
	default:
		return "Node"
	}
}
