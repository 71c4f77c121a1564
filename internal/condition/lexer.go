package condition

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokInt
	tokNot
	tokAnd
	tokOr
	tokLParen
	tokRParen
	tokComma
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokInt:
		return "integer"
	case tokNot:
		return "NOT"
	case tokAnd:
		return "AND"
	case tokOr:
		return "OR"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokComma:
		return "','"
	}
	return "unknown"
}

type token struct {
	kind tokenKind
	text string
	pos  int
	val  int
}

var keywords = map[string]tokenKind{
	"NOT": tokNot,
	"AND": tokAnd,
	"OR":  tokOr,
}

// lex splits src into tokens. The final token is always tokEOF.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++
		case r >= '0' && r <= '9':
			start := i
			for i < len(src) && src[i] >= '0' && src[i] <= '9' {
				i++
			}
			if end := leafEnd(src, i); end > i {
				return nil, &ParseError{Expr: src, Offset: start, Fragment: src[start:end], Reason: "condition ID is not an integer"}
			}
			text := src[start:i]
			n, err := strconv.Atoi(text)
			if err != nil {
				return nil, &ParseError{Expr: src, Offset: start, Fragment: text, Reason: "integer out of range"}
			}
			toks = append(toks, token{kind: tokInt, text: text, pos: start, val: n})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(src) {
				r, size := utf8.DecodeRuneInString(src[i:])
				if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
					break
				}
				i += size
			}
			word := src[start:i]
			kind, ok := keywords[word]
			if !ok {
				return nil, &ParseError{Expr: src, Offset: start, Fragment: word, Reason: "unknown operator"}
			}
			toks = append(toks, token{kind: kind, text: word, pos: start})
		default:
			return nil, &ParseError{Expr: src, Offset: i, Fragment: string(r), Reason: "unexpected character"}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

// leafEnd returns the end of the run of non-delimiter bytes starting at i.
func leafEnd(src string, i int) int {
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		if unicode.IsSpace(r) || r == '(' || r == ')' || r == ',' {
			break
		}
		i += size
	}
	return i
}
