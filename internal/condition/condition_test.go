package condition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		applied Set
		want    bool
	}{
		{"blank is unconditional", "", NewSet(), true},
		{"whitespace is unconditional", "  \t", NewSet(), true},
		{"literal present", "5", NewSet(5), true},
		{"literal absent", "5", NewSet(1, 2), false},
		{"literal with leading zeros", "007", NewSet(7), true},
		{"not", "NOT(5)", NewSet(1), true},
		{"double negation present", "NOT(NOT(5))", NewSet(5), true},
		{"double negation absent", "NOT(NOT(5))", NewSet(), false},
		{"and all present", "AND(1,2,3)", NewSet(1, 2, 3), true},
		{"and one missing", "AND(1,2,3)", NewSet(1, 3), false},
		{"or one present", "OR(1,2)", NewSet(2), true},
		{"or none present", "OR(1,2)", NewSet(3), false},
		{"single operand and", "AND(4)", NewSet(4), true},
		{"single operand or", "OR(4)", NewSet(), false},
		{"nested", "AND(1, OR(2, 3), NOT(4))", NewSet(1, 3), true},
		{"nested blocked by not", "AND(1, OR(2, 3), NOT(4))", NewSet(1, 3, 4), false},
		{"whitespace insensitive", " AND ( 1 ,\n\tOR( 2 , 3 ) ) ", NewSet(1, 2), true},
		{"empty set", "OR(1, NOT(2))", Set{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.expr, tt.applied)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	applied := NewSet(1, 3)
	first, err := Evaluate("AND(1, OR(2, 3), NOT(4))", applied)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		got, err := Evaluate("AND(1, OR(2, 3), NOT(4))", applied)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestEvaluate_Commutative(t *testing.T) {
	sets := []Set{NewSet(), NewSet(1), NewSet(2), NewSet(1, 2)}
	pairs := [][2]string{
		{"AND(1,2)", "AND(2,1)"},
		{"OR(1,2)", "OR(2,1)"},
		{"AND(1,NOT(2))", "AND(NOT(2),1)"},
	}

	for _, pair := range pairs {
		for _, s := range sets {
			a, err := Evaluate(pair[0], s)
			require.NoError(t, err)
			b, err := Evaluate(pair[1], s)
			require.NoError(t, err)
			assert.Equal(t, a, b, "%s vs %s over %v", pair[0], pair[1], s.IDs())
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		fragment string
		offset   int
	}{
		{"unbalanced open", "AND(1,2", "AND(1,2", 0},
		{"unbalanced nested", "OR(1, NOT(2)", "OR(1, NOT(2)", 0},
		{"extra close", "AND(1,2))", ")", 8},
		{"non-integer leaf", "AND(1,x)", "x", 6},
		{"decimal leaf", "OR(1.5, 2)", "1.5", 3},
		{"negative leaf", "NOT(-1)", "-", 4},
		{"lowercase keyword", "and(1,2)", "and", 0},
		{"unknown prefix", "XOR(1,2)", "XOR", 0},
		{"empty and", "AND()", "AND()", 0},
		{"trailing comma", "OR(1,)", ")", 5},
		{"not with two operands", "NOT(1,2)", "NOT(1,2)", 0},
		{"missing paren", "NOT 1", "1", 4},
		{"bare parens", "(1)", "(", 0},
		{"trailing literal", "1 2", "2", 2},
		{"empty expression", "   ", "", 0},
		{"integer overflow", "99999999999999999999999", "99999999999999999999999", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.expr)
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "want *ParseError, got %T", err)
			assert.Equal(t, tt.fragment, pe.Fragment)
			assert.Equal(t, tt.offset, pe.Offset)
			assert.Equal(t, tt.expr, pe.Expr)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestEvaluate_MalformedReturnsParseError(t *testing.T) {
	got, err := Evaluate("AND(1,2", NewSet(1, 2))
	assert.False(t, got)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), `"AND(1,2"`)
}

func TestParse_Tree(t *testing.T) {
	e, err := Parse("AND(1, OR(2, 3), NOT(4))")
	require.NoError(t, err)

	want := And{Terms: []Expr{
		Literal{ID: 1},
		Or{Terms: []Expr{Literal{ID: 2}, Literal{ID: 3}}},
		Not{X: Literal{ID: 4}},
	}}
	assert.Equal(t, want, e)
	assert.Equal(t, "AND(1,OR(2,3),NOT(4))", e.String())
}

func TestParse_StringRoundTrip(t *testing.T) {
	for _, src := range []string{"7", "NOT(NOT(7))", "OR(AND(1,2),AND(3,NOT(4)),5)"} {
		e := MustParse(src)
		again, err := Parse(e.String())
		require.NoError(t, err)
		assert.Equal(t, e, again)
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("AND(") })
}

func TestIDs(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 4}, IDs(MustParse("AND(1, OR(2, 3, 1), NOT(4))")))
	assert.Equal(t, []int{9}, IDs(MustParse("9")))
}

func TestSet(t *testing.T) {
	s := NewSet(5, 1, 5, 3)

	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains(1))
	assert.False(t, s.Contains(2))
	assert.Equal(t, []int{1, 3, 5}, s.IDs())

	b, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[1,3,5]`, string(b))

	var zero Set
	assert.False(t, zero.Contains(1))
	assert.Empty(t, zero.IDs())
}

func FuzzParse(f *testing.F) {
	for _, seed := range []string{"1", "NOT(2)", "AND(1,OR(2,3))", "AND(1,2", "OR()", "x"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, src string) {
		e, err := Parse(src)
		if err != nil {
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse(%q) returned %T, want *ParseError", src, err)
			}
			return
		}
		again, err := Parse(e.String())
		if err != nil {
			t.Fatalf("canonical form %q of %q does not parse: %v", e.String(), src, err)
		}
		if again.String() != e.String() {
			t.Fatalf("round trip changed %q to %q", e.String(), again.String())
		}
	})
}

func BenchmarkEvaluate(b *testing.B) {
	e := MustParse("AND(1, OR(2, 3, 4, 5), NOT(AND(6, 7)), OR(NOT(8), 9))")
	applied := NewSet(1, 3, 6, 9)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Eval(applied)
	}
}
