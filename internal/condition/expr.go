package condition

import (
	"strconv"
	"strings"
)

// Expr is a parsed condition expression.
type Expr interface {
	// Eval reports whether the expression holds for applied.
	Eval(applied Set) bool
	// String renders the canonical form, e.g. "AND(1,NOT(3))".
	String() string

	isExpr()
}

// Literal is a single condition ID.
type Literal struct {
	ID int
}

// Not negates X.
type Not struct {
	X Expr
}

// And holds when every term holds.
type And struct {
	Terms []Expr
}

// Or holds when at least one term holds.
type Or struct {
	Terms []Expr
}

func (Literal) isExpr() {}
func (Not) isExpr()     {}
func (And) isExpr()     {}
func (Or) isExpr()      {}

func (l Literal) Eval(applied Set) bool { return applied.Contains(l.ID) }

func (n Not) Eval(applied Set) bool { return !n.X.Eval(applied) }

func (a And) Eval(applied Set) bool {
	for _, t := range a.Terms {
		if !t.Eval(applied) {
			return false
		}
	}
	return true
}

func (o Or) Eval(applied Set) bool {
	for _, t := range o.Terms {
		if t.Eval(applied) {
			return true
		}
	}
	return false
}

func (l Literal) String() string { return strconv.Itoa(l.ID) }

func (n Not) String() string { return "NOT(" + n.X.String() + ")" }

func (a And) String() string { return "AND(" + joinTerms(a.Terms) + ")" }

func (o Or) String() string { return "OR(" + joinTerms(o.Terms) + ")" }

func joinTerms(terms []Expr) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// IDs returns every condition ID referenced by e, in first-seen order.
func IDs(e Expr) []int {
	var out []int
	seen := make(map[int]bool)
	var walk func(Expr)
	walk = func(e Expr) {
		switch v := e.(type) {
		case Literal:
			if !seen[v.ID] {
				seen[v.ID] = true
				out = append(out, v.ID)
			}
		case Not:
			walk(v.X)
		case And:
			for _, t := range v.Terms {
				walk(t)
			}
		case Or:
			for _, t := range v.Terms {
				walk(t)
			}
		}
	}
	walk(e)
	return out
}

// Evaluate parses expr and evaluates it against applied.
// A blank expression is unconditional and returns true.
func Evaluate(expr string, applied Set) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return true, nil
	}
	e, err := Parse(expr)
	if err != nil {
		return false, err
	}
	return e.Eval(applied), nil
}
