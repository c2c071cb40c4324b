package ppl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCljAtoms(t *testing.T) {
	ast := parseClojure("test", "[1 2.5 true nil \"s\" foo]")
	vec, ok := ast.(*ASTVector)
	require.True(t, ok)
	require.Len(t, vec.Items, 6)
	assert.Equal(t, "1", vec.Items[0].String())
	assert.Equal(t, "2.5", vec.Items[1].String())
	assert.Equal(t, "True", vec.Items[2].String())
	assert.Equal(t, "None", vec.Items[3].String())
	assert.Equal(t, `"s"`, vec.Items[4].String())
	assert.Equal(t, "foo", vec.Items[5].String())
}

func TestCljLetPairs(t *testing.T) {
	ast := parseClojure("test", "(let [a 1 b 2] (+ a b))")
	outer, ok := ast.(*ASTLet)
	require.True(t, ok)
	assert.Equal(t, "a", outer.Target.Str())
	inner, ok := outer.Body.(*ASTLet)
	require.True(t, ok)
	assert.Equal(t, "b", inner.Target.Str())
	assert.Equal(t, "a + b", inner.Body.String())
}

func TestCljOperators(t *testing.T) {
	tests := []struct{ source, want string }{
		{"(+ 1 2 3)", "1 + 2 + 3"},
		{"(- 5 2)", "5 - 2"},
		{"(- 5)", "-5"},
		{"(= a b)", "a == b"},
		{"(not= a b)", "a != b"},
		{"(mod a b)", "a % b"},
		{"(pow a b)", "a ** b"},
		{"(not a)", "not a"},
		{"(first xs)", "xs[0]"},
		{"(second xs)", "xs[1]"},
		{"(nth xs 2)", "xs[2]"},
	}
	for _, test := range tests {
		ast := parseClojure("test", test.source)
		assert.Equal(t, test.want, ast.String(), "%s", test.source)
	}
}

func TestCljDefn(t *testing.T) {
	ast := parseClojure("test", "(defn f [x y] (+ x y))")
	def, ok := ast.(*ASTDef)
	require.True(t, ok)
	fn, ok := def.Value.(*ASTFunction)
	require.True(t, ok)
	require.Len(t, fn.Params, 2)
	ret, ok := fn.Body.(*ASTReturn)
	require.True(t, ok)
	assert.Equal(t, "x + y", ret.Value.String())
}

func TestCljLoopUnroll(t *testing.T) {
	ast := parseClojure("test", "(loop 3 init f a b)")
	// f(2, f(1, f(0, init, a, b), a, b), a, b)
	outer, ok := ast.(*ASTCall)
	require.True(t, ok)
	require.Equal(t, 4, outer.ArgCount())
	assert.Equal(t, "2", outer.Args[0].String())
	middle, ok := outer.Args[1].(*ASTCall)
	require.True(t, ok)
	assert.Equal(t, "1", middle.Args[0].String())
	innermost, ok := middle.Args[1].(*ASTCall)
	require.True(t, ok)
	assert.Equal(t, "0", innermost.Args[0].String())
	assert.Equal(t, "init", innermost.Args[1].String())
}

func TestCljLoopCountFromBinding(t *testing.T) {
	ast := parseClojure("test", "(let [n 2] (loop n 0.0 f))")
	let := ast.(*ASTLet)
	call, ok := let.Body.(*ASTCall)
	require.True(t, ok)
	assert.Equal(t, "1", call.Args[0].String())
}

func TestCljComments(t *testing.T) {
	ast := parseClojure("test", "; a comment\n(+ 1 2) ; trailing\n")
	assert.Equal(t, "1 + 2", ast.String())
}

func TestCljParseErrors(t *testing.T) {
	for _, source := range []string{
		"(+ 1 2",
		")",
		"(let [x] x)",
		"()",
		`"unterminated`,
	} {
		err := Recover(func() { parseClojure("test", source) })
		require.Error(t, err, "%q", source)
		var d *Diagnostic
		require.True(t, errors.As(err, &d), "%q: %v", source, err)
		assert.Equal(t, ParseError, d.Kind, "%q", source)
	}
}
