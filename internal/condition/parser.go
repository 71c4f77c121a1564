package condition

import (
	"fmt"
	"strings"
)

// Parse compiles src into an expression tree.
// Blank input is rejected; use Evaluate for the "blank means true" rule.
func Parse(src string) (Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &ParseError{Expr: src, Reason: "empty expression"}
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorAt(t.pos, src[t.pos:], "unexpected trailing input")
	}
	return e, nil
}

// MustParse is Parse for expressions known at compile time. It panics on error.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorAt(offset int, fragment, reason string) *ParseError {
	return &ParseError{Expr: p.src, Offset: offset, Fragment: fragment, Reason: reason}
}

// unexpected reports t, or the unfinished construct starting at start when t
// is end of input.
func (p *parser) unexpected(t token, start int, want string) *ParseError {
	if t.kind == tokEOF {
		return p.errorAt(start, p.src[start:], fmt.Sprintf("expected %s, got end of input", want))
	}
	return p.errorAt(t.pos, t.text, fmt.Sprintf("expected %s, got %s", want, t.kind))
}

func (p *parser) expr() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokInt:
		return Literal{ID: t.val}, nil
	case tokNot:
		args, err := p.operands(t)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, p.errorAt(t.pos, p.src[t.pos:p.prevEnd()], fmt.Sprintf("NOT takes exactly one operand, got %d", len(args)))
		}
		return Not{X: args[0]}, nil
	case tokAnd, tokOr:
		args, err := p.operands(t)
		if err != nil {
			return nil, err
		}
		if t.kind == tokAnd {
			return And{Terms: args}, nil
		}
		return Or{Terms: args}, nil
	default:
		start := t.pos
		return nil, p.unexpected(t, start, "condition ID or operator")
	}
}

// operands parses "(" expr { "," expr } ")" following op.
func (p *parser) operands(op token) ([]Expr, error) {
	if t := p.next(); t.kind != tokLParen {
		return nil, p.unexpected(t, op.pos, "'(' after "+op.text)
	}
	if t := p.peek(); t.kind == tokRParen {
		p.next()
		return nil, p.errorAt(op.pos, p.src[op.pos:t.pos+1], op.text+" has no operands")
	}

	var args []Expr
	for {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)

		t := p.next()
		switch t.kind {
		case tokComma:
			continue
		case tokRParen:
			return args, nil
		default:
			return nil, p.unexpected(t, op.pos, "',' or ')'")
		}
	}
}

// prevEnd is the byte offset just past the last consumed token.
func (p *parser) prevEnd() int {
	if p.pos == 0 {
		return 0
	}
	t := p.toks[p.pos-1]
	return t.pos + len(t.text)
}
