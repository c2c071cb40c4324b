package ppl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssignment(t *testing.T) {
	ast := parsePython("test", "x = 1 + 2 * 3\n")
	def, ok := ast.(*ASTDef)
	require.True(t, ok)
	assert.Equal(t, "x", def.Name.Str())
	assert.True(t, def.Global)
	assert.Equal(t, "1 + 2 * 3", def.Value.String())
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct{ source, want string }{
		{"r = (1 + 2) * 3\n", "(1 + 2) * 3"},
		{"r = 1 - 2 - 3\n", "1 - 2 - 3"},
		{"r = 1 - (2 - 3)\n", "1 - (2 - 3)"},
		{"r = -x ** 2\n", "-x ** 2"},
		{"r = a < b and c < d or e\n", "a < b and c < d or e"},
		{"r = not a and b\n", "not a and b"},
		{"r = a[0] + b[1]\n", "a[0] + b[1]"},
		{"r = x if c else y\n", "x if c else y"},
	}
	for _, test := range tests {
		ast := parsePython("test", test.source)
		def, ok := ast.(*ASTDef)
		require.True(t, ok, "%s", test.source)
		assert.Equal(t, test.want, def.Value.String(), "%s", test.source)
	}
}

func TestParseCallArguments(t *testing.T) {
	ast := parsePython("test", "r = f(1, 2, scale=3)\n")
	def := ast.(*ASTDef)
	call, ok := def.Value.(*ASTCall)
	require.True(t, ok)
	assert.Equal(t, 2, call.ArgCount())
	require.Len(t, call.Keywords, 1)
	assert.Equal(t, "scale", call.Keywords[0].Name.Str())
}

func TestParseColumnSubscript(t *testing.T) {
	ast := parsePython("test", "r = data[:,1]\n")
	def := ast.(*ASTDef)
	sub, ok := def.Value.(*ASTSubscript)
	require.True(t, ok)
	assert.True(t, sub.Column)
	assert.Equal(t, "data[:,1]", sub.String())
}

func TestParseDottedNames(t *testing.T) {
	ast := parsePython("test", "r = torch.Tensor([1.0, 2.0])\n")
	def := ast.(*ASTDef)
	call, ok := def.Value.(*ASTCall)
	require.True(t, ok)
	fn, ok := call.Function.(*ASTSymbol)
	require.True(t, ok)
	assert.Equal(t, "torch.Tensor", fn.Name.Str())
}

func TestParseImportsAreSkipped(t *testing.T) {
	source := `
import torch
from something import other
x = 1
`
	ast := parsePython("test", source)
	def, ok := ast.(*ASTDef)
	require.True(t, ok)
	assert.Equal(t, "x", def.Name.Str())
}

func TestParseBlocks(t *testing.T) {
	source := `
if a > 0:
    b = 1
    c = 2
else:
    b = 3
`
	ast := parsePython("test", source)
	cond, ok := ast.(*ASTCond)
	require.True(t, ok)
	then, ok := cond.Then.(*ASTBody)
	require.True(t, ok)
	assert.Len(t, then.Items, 2)
	_, ok = cond.Else.(*ASTDef)
	assert.True(t, ok)
}

func TestParseElifChain(t *testing.T) {
	source := `
if a > 0:
    b = 1
elif a > 1:
    b = 2
else:
    b = 3
`
	ast := parsePython("test", source)
	outer, ok := ast.(*ASTCond)
	require.True(t, ok)
	inner, ok := outer.Else.(*ASTCond)
	require.True(t, ok)
	assert.NotNil(t, inner.Else)
}

func TestParseForUnrolling(t *testing.T) {
	source := `
for i in range(3):
    observe(normal(0.0, 1.0), i)
`
	ast := parsePython("test", source)
	body, ok := ast.(*ASTBody)
	require.True(t, ok)
	require.Len(t, body.Items, 3)
	for k, item := range body.Items {
		let, ok := item.(*ASTLet)
		require.True(t, ok)
		assert.Equal(t, "i", let.Target.Str())
		v, ok := literalValue(let.Source)
		require.True(t, ok)
		assert.True(t, v.Equal(NewInt(int64(k))))
	}
}

func TestParseForRequiresStaticRange(t *testing.T) {
	err := Recover(func() {
		parsePython("test", "for i in range(n):\n    x = i\n")
	})
	require.Error(t, err)
	var d *Diagnostic
	require.True(t, errors.As(err, &d))
	assert.Equal(t, StaticError, d.Kind)
}

func TestParseContinuationLines(t *testing.T) {
	source := "xs = [1.0,\n      2.0,\n      3.0]\n"
	ast := parsePython("test", source)
	def, ok := ast.(*ASTDef)
	require.True(t, ok)
	assert.Equal(t, "[1.0, 2.0, 3.0]", def.Value.String())
}

func TestParseComments(t *testing.T) {
	source := "x = 1  # trailing comment\n# full-line comment\ny = 2\n"
	ast := parsePython("test", source)
	body, ok := ast.(*ASTBody)
	require.True(t, ok)
	assert.Len(t, body.Items, 2)
}

func TestParseErrors(t *testing.T) {
	for _, source := range []string{
		"x = (1 + 2\n",
		"if a > 0:\nx = 1\n",
		"x = [1, 2\n",
		"def f(:\n    return 1\n",
	} {
		err := Recover(func() { parsePython("test", source) })
		require.Error(t, err, "%q", source)
		var d *Diagnostic
		require.True(t, errors.As(err, &d), "%q: %v", source, err)
		assert.Equal(t, ParseError, d.Kind, "%q", source)
	}
}
