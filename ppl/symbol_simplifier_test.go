package ppl

import (
	"strings"
	"testing"
	"text/scanner"

	"github.com/Tobias-Kohn/PyPPLCompiler/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolSimplifierShortensFreshNames(t *testing.T) {
	pos := scanner.Position{}
	body := &ASTBody{Items: []ASTNode{
		&ASTDef{Pos: pos, Name: symbol.Intern("mu__L1"), Value: lit(NewFloat(1))},
		&ASTDef{Pos: pos, Name: symbol.Intern("mu__L2"), Value: sym("mu__L1")},
		sym("mu__L2"),
	}}
	got := simplifySymbols(body).(*ASTBody)
	first := got.Items[0].(*ASTDef)
	second := got.Items[1].(*ASTDef)
	assert.Equal(t, "mu", first.Name.Str())
	assert.Equal(t, "mu1", second.Name.Str())
	// References follow their defs.
	assert.Equal(t, "mu", second.Value.String())
	assert.Equal(t, "mu1", got.Items[2].String())
}

func TestSymbolSimplifierReservesUserNames(t *testing.T) {
	pos := scanner.Position{}
	body := &ASTBody{Items: []ASTNode{
		&ASTDef{Pos: pos, Name: symbol.Intern("x"), Value: lit(NewFloat(1))},
		&ASTDef{Pos: pos, Name: symbol.Intern("x__C1"), Value: lit(NewFloat(2))},
	}}
	got := simplifySymbols(body).(*ASTBody)
	renamed := got.Items[1].(*ASTDef)
	// The generated name must not capture the user's x.
	assert.Equal(t, "x1", renamed.Name.Str())
}

func TestSymbolSimplifierDeterministic(t *testing.T) {
	build := func() ASTNode {
		pos := scanner.Position{}
		return &ASTBody{Items: []ASTNode{
			&ASTDef{Pos: pos, Name: symbol.Intern("a__C1"), Value: lit(NewFloat(1))},
			&ASTDef{Pos: pos, Name: symbol.Intern("a__C2"), Value: lit(NewFloat(2))},
			&ASTDef{Pos: pos, Name: symbol.Intern("b__L1"), Value: lit(NewFloat(3))},
		}}
	}
	first := simplifySymbols(build()).String()
	second := simplifySymbols(build()).String()
	assert.Equal(t, first, second)
}

func TestNoFreshMarkersSurviveCompilation(t *testing.T) {
	for _, source := range []string{linRegrSource, gmmSource, ifModelSource} {
		g := compileTest(t, source, Options{})
		for _, node := range g.Nodes {
			assert.False(t, strings.Contains(node.NodeName(), freshMarker),
				"node %q keeps a fresh-name marker", node.NodeName())
		}
		for _, v := range g.Vertices {
			require.False(t, strings.Contains(v.Dist, freshMarker),
				"fragment %q keeps a fresh-name marker", v.Dist)
		}
	}
}
