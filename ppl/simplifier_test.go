package ppl

import (
	"testing"
	"text/scanner"

	"github.com/Tobias-Kohn/PyPPLCompiler/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lit(v Value) ASTNode         { return &ASTLiteral{Val: v} }
func sym(name string) *ASTSymbol  { return &ASTSymbol{Name: symbol.Intern(name)} }
func bin(op string, l, r ASTNode) ASTNode {
	return &ASTBinary{Op: op, LHS: l, RHS: r}
}

func TestConstantFolding(t *testing.T) {
	tests := []struct {
		node ASTNode
		want string
	}{
		{bin("+", lit(NewInt(1)), lit(NewInt(2))), "3"},
		{bin("*", lit(NewFloat(2)), lit(NewFloat(3.5))), "7.0"},
		{bin("/", lit(NewInt(1)), lit(NewInt(2))), "0.5"},
		{bin("//", lit(NewInt(7)), lit(NewInt(2))), "3"},
		{bin("**", lit(NewInt(2)), lit(NewInt(10))), "1024"},
		{bin("<", lit(NewInt(1)), lit(NewInt(2))), "True"},
		{bin("==", lit(NewFloat(2)), lit(NewInt(2))), "True"},
		{&ASTUnary{Op: "-", Operand: lit(NewInt(5))}, "-5"},
		{&ASTUnary{Op: "not", Operand: lit(NewBool(false))}, "True"},
	}
	for _, test := range tests {
		got := simplify(test.node)
		assert.Equal(t, test.want, got.String())
	}
}

func TestVectorBroadcastFolding(t *testing.T) {
	vec := &ASTValueVector{Values: []Value{NewFloat(1), NewFloat(2), NewFloat(3)}}
	got := simplify(bin("*", lit(NewFloat(2)), vec))
	assert.Equal(t, "[2.0, 4.0, 6.0]", got.String())

	vec2 := &ASTValueVector{Values: []Value{NewInt(1), NewInt(2)}}
	got = simplify(bin("+", vec2, vec2))
	assert.Equal(t, "[2, 4]", got.String())
}

func TestLiteralCondReduction(t *testing.T) {
	cond := &ASTCond{Cond: lit(NewBool(true)), Then: lit(NewInt(1)), Else: lit(NewInt(2))}
	assert.Equal(t, "1", simplify(cond).String())
	cond = &ASTCond{Cond: lit(NewInt(0)), Then: lit(NewInt(1)), Else: lit(NewInt(2))}
	assert.Equal(t, "2", simplify(cond).String())
}

func TestSubscriptFolding(t *testing.T) {
	vec := &ASTValueVector{Values: []Value{NewFloat(1.5), NewFloat(2.5)}}
	got := simplify(&ASTSubscript{Base: vec, Index: lit(NewInt(1))})
	assert.Equal(t, "2.5", got.String())

	// Negative indices count from the end.
	got = simplify(&ASTSubscript{Base: vec, Index: lit(NewInt(-1))})
	assert.Equal(t, "2.5", got.String())

	matrix := &ASTValueVector{Values: []Value{
		NewVector([]Value{NewFloat(1), NewFloat(2)}),
		NewVector([]Value{NewFloat(3), NewFloat(4)}),
	}}
	got = simplify(&ASTSubscript{Base: matrix, Index: lit(NewInt(0)), Column: true})
	assert.Equal(t, "[1.0, 3.0]", got.String())
}

func TestLengthReduction(t *testing.T) {
	vec := &ASTValueVector{Values: []Value{NewFloat(1), NewFloat(2), NewFloat(3)}}
	call := &ASTCall{Function: sym("len"), Args: []ASTNode{vec}}
	assert.Equal(t, "3", simplify(call).String())
}

func TestArithmeticIdentities(t *testing.T) {
	x := sym("x")
	assert.Equal(t, "x", simplify(bin("+", x, lit(NewFloat(0)))).String())
	assert.Equal(t, "x", simplify(bin("*", lit(NewFloat(1)), x)).String())
	assert.Equal(t, "x", simplify(bin("-", x, lit(NewInt(0)))).String())
	assert.Equal(t, "x", simplify(bin("/", x, lit(NewFloat(1)))).String())
	assert.Equal(t, "0.0", simplify(bin("*", lit(NewFloat(0)), x)).String())
}

func TestConstantPropagationAndDeadDefs(t *testing.T) {
	pos := scanner.Position{}
	body := &ASTBody{Items: []ASTNode{
		&ASTDef{Pos: pos, Name: symbol.Intern("a"), Value: lit(NewFloat(2))},
		&ASTDef{Pos: pos, Name: symbol.Intern("b"), Value: bin("*", sym("a"), lit(NewFloat(3)))},
		bin("+", sym("b"), lit(NewFloat(1))),
	}}
	got := simplify(body)
	assert.Equal(t, "7.0", got.String())
}

func TestSimplifierIdempotence(t *testing.T) {
	sources := []string{linRegrSource, gmmSource, ifModelSource}
	for _, source := range sources {
		rs := newRawSimplifier(NewNamespace(nil))
		ast := rs.visit(parsePython("test", source))
		ast = rs.visit(newInliner().visit(ast))
		ast = newStaticAssigner().run(ast)
		once := simplify(ast)
		twice := simplify(once)
		assert.Equal(t, once.String(), twice.String())
	}
}

func TestObserveSplit(t *testing.T) {
	source := `
mu = sample(normal(0.0, 1.0))
zn = [1.0, 2.0] * mu
observe(normal(zn, 1.0), [0.5, 0.6])
`
	g := compileTest(t, source, Options{})
	require.Len(t, g.Vertices, 3)
	first := requireVertex(t, g, "y")
	assert.Equal(t, "dist.Normal(mu, 1.0)", first.Dist)
	assert.Equal(t, "0.5", first.Observation)
	assert.Equal(t, 0, first.SampleSize)
	second := requireVertex(t, g, "y1")
	assert.Equal(t, "dist.Normal(2.0 * mu, 1.0)", second.Dist)
	assert.Equal(t, "0.6", second.Observation)
}
