// Package condition parses and evaluates the boolean expressions that gate
// guidecard questions and instructions.
//
// Grammar (whitespace-insensitive, keywords upper case):
//
//	expr := INT
//	      | "NOT" "(" expr ")"
//	      | "AND" "(" expr { "," expr } ")"
//	      | "OR"  "(" expr { "," expr } ")"
//
// An integer is a condition ID and is true when the ID is in the applied Set.
// A blank expression is unconditional and always true.
//
//	ok, err := condition.Evaluate("AND(1, NOT(3))", condition.NewSet(1, 2))
//	// ok == true
//
// Parse returns a tree (Literal, Not, And, Or) that can be evaluated many
// times; catalogs compile their expressions once at load time.
package condition
