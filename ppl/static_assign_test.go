package ppl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticSource runs the pipeline up to and including the static-assignment
// pass.
func staticSource(t *testing.T, source string) *ASTBody {
	t.Helper()
	rs := newRawSimplifier(NewNamespace(nil))
	ast := rs.visit(parsePython("test", source))
	ast = rs.visit(newInliner().visit(ast))
	ast = newStaticAssigner().run(ast)
	body, ok := ast.(*ASTBody)
	require.True(t, ok, "static assignment did not produce a body: %s", ast)
	return body
}

func TestSampleHoisting(t *testing.T) {
	body := staticSource(t, "b = sample(normal(0.0, 1.0)) + 1.0\n")
	names := defNames(body)
	require.Contains(t, names, "x__S1")
	require.Contains(t, names, "b")
	// The sample def precedes the def that reads it.
	assert.Less(t, indexOf(names, "x__S1"), indexOf(names, "b"))
}

func TestObserveHoisting(t *testing.T) {
	body := staticSource(t, "observe(normal(0.0, 1.0), 0.5)\n")
	names := defNames(body)
	assert.Contains(t, names, "y__O1")
}

func TestEveryNameAssignedOnce(t *testing.T) {
	for _, source := range []string{linRegrSource, gmmSource, ifModelSource} {
		body := staticSource(t, source)
		seen := map[string]bool{}
		for _, name := range defNames(body) {
			assert.False(t, seen[name], "name %q assigned twice", name)
			seen[name] = true
		}
	}
}

func TestBranchAssignmentsMerged(t *testing.T) {
	body := staticSource(t, ifModelSource)
	names := defNames(body)
	assert.Contains(t, names, "y__T1")
	assert.Contains(t, names, "y__E1")
	// The merged def conditionally reads the branch bindings.
	var merged *ASTDef
	walkAST(body, func(n ASTNode) bool {
		if def, ok := n.(*ASTDef); ok && def.Name.Str() == "y" {
			merged = def
		}
		return true
	})
	require.NotNil(t, merged)
	cond, ok := merged.Value.(*ASTCond)
	require.True(t, ok)
	assert.Equal(t, "y__T1", cond.Then.String())
	assert.Equal(t, "y__E1", cond.Else.String())
}

func TestConditionalReassignmentReadsMergedName(t *testing.T) {
	source := `
x = 1.0
c = sample(normal(0.0, 1.0))
if c > 0:
    x = 2.0
observe(normal(x, 1.0), 0.5)
`
	body := staticSource(t, source)
	// The conditional rebinding of x produces a merged name that the
	// observation reads instead of x.
	names := defNames(body)
	assert.Contains(t, names, "x__P1")
	var obs *ASTObserve
	walkAST(body, func(n ASTNode) bool {
		if o, ok := n.(*ASTObserve); ok {
			obs = o
		}
		return true
	})
	require.NotNil(t, obs)
	assert.True(t, referencesSymbolName(obs.Dist, "x__P1"))
	assert.False(t, referencesSymbolName(obs.Dist, "x"))
}

func TestLetsAreFlattened(t *testing.T) {
	source := `
(let [a 1.0]
  (let [b (+ a 1.0)]
    (sample (normal a b))))
`
	rs := newRawSimplifier(NewNamespace(nil))
	ast := rs.visit(parseClojure("test", source))
	ast = rs.visit(newInliner().visit(ast))
	ast = newStaticAssigner().run(ast)
	walkAST(ast, func(n ASTNode) bool {
		_, isLet := n.(*ASTLet)
		assert.False(t, isLet, "let survived static assignment")
		return true
	})
}

func indexOf(names []string, want string) int {
	for i, name := range names {
		if name == want {
			return i
		}
	}
	return -1
}

func referencesSymbolName(root ASTNode, name string) bool {
	found := false
	walkAST(root, func(n ASTNode) bool {
		if s, ok := n.(*ASTSymbol); ok && s.Name.Str() == name {
			found = true
		}
		return !found
	})
	return found
}
