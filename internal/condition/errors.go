package condition

import (
	"errors"
	"fmt"
)

// ErrSyntax is wrapped by every ParseError.
var ErrSyntax = errors.New("condition syntax error")

// ParseError reports a malformed expression. Fragment is the offending
// substring of Expr starting at byte Offset.
type ParseError struct {
	Expr     string
	Offset   int
	Fragment string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("condition %q: %s at offset %d near %q", e.Expr, e.Reason, e.Offset, e.Fragment)
}

func (e *ParseError) Unwrap() error {
	return ErrSyntax
}
