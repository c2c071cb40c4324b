package ppl

import (
	"errors"
	"testing"

	"github.com/Tobias-Kohn/PyPPLCompiler/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inlineSource parses and inlines, without the later passes.
func inlineSource(t *testing.T, source string) ASTNode {
	t.Helper()
	rs := newRawSimplifier(NewNamespace(nil))
	ast := rs.visit(parsePython("test", source))
	ast = newInliner().visit(ast)
	return rs.visit(ast)
}

func defNames(root ASTNode) []string {
	var names []string
	walkAST(root, func(n ASTNode) bool {
		if def, ok := n.(*ASTDef); ok {
			names = append(names, def.Name.Str())
		}
		return true
	})
	return names
}

func TestInlinerHygiene(t *testing.T) {
	source := `
def f(x):
    return x + 1.0
b = f(a * 2.0) + f(a * 2.0)
`
	ast := inlineSource(t, source)
	names := defNames(ast)
	assert.Contains(t, names, "x__C1")
	assert.Contains(t, names, "x__C2")

	// No call to f survives.
	walkAST(ast, func(n ASTNode) bool {
		if call, ok := n.(*ASTCall); ok {
			if sym, ok := call.Function.(*ASTSymbol); ok {
				assert.NotEqual(t, "f", sym.Name.Str())
			}
		}
		return true
	})
}

func TestInlinerSymbolArgsNeedNoTemporary(t *testing.T) {
	source := `
def f(x):
    return x + 1.0
b = f(a) + f(a)
`
	ast := inlineSource(t, source)
	for _, name := range defNames(ast) {
		assert.NotContains(t, name, "__C")
	}
}

func TestInlinerKeywordReordering(t *testing.T) {
	source := `
def f(loc, scale):
    return sample(normal(loc, scale))
v = f(scale=2.0, loc=1.0)
`
	ast := inlineSource(t, source)
	var dists []*ASTDist
	walkAST(ast, func(n ASTNode) bool {
		if d, ok := n.(*ASTDist); ok {
			dists = append(dists, d)
		}
		return true
	})
	// One distribution in the retained definition of f, one at the inlined
	// call site.
	require.Len(t, dists, 2)
	// After inlining and raw re-simplification the def'd temporaries hold
	// the reordered values.
	body := ast.(*ASTBody)
	var locDef, scaleDef *ASTDef
	walkAST(body, func(n ASTNode) bool {
		if def, ok := n.(*ASTDef); ok {
			switch def.Name.Str() {
			case "loc__C1":
				locDef = def
			case "scale__C1":
				scaleDef = def
			}
		}
		return true
	})
	require.NotNil(t, locDef)
	require.NotNil(t, scaleDef)
	assert.Equal(t, "1.0", locDef.Value.String())
	assert.Equal(t, "2.0", scaleDef.Value.String())
}

func TestInlinerDefaults(t *testing.T) {
	source := `
def f(x, s=3.0):
    return x * s
b = f(2.0)
b
`
	g := compileTest(t, source, Options{})
	assert.Equal(t, "6.0", g.Result)
}

func TestInlinerArityErrors(t *testing.T) {
	for _, source := range []string{
		"def f(x):\n    return x\nb = f(1.0, 2.0)\n",
		"def f(x):\n    return x\nb = f()\n",
		"def f(x):\n    return x\nb = f(q=1.0)\n",
	} {
		err := Recover(func() { inlineSource(t, source) })
		require.Error(t, err, "%s", source)
		var d *Diagnostic
		require.True(t, errors.As(err, &d))
		assert.Equal(t, ArityError, d.Kind)
	}
}

func TestInlinerVararg(t *testing.T) {
	source := `
def f(x, *rest):
    return x + rest[0]
b = f(1.0, 2.0, 3.0)
`
	ast := inlineSource(t, source)
	// rest binds [2.0, 3.0]; rest[0] is folded by the raw pass only when
	// literal, which happens after the algebraic simplifier substitutes the
	// temporary. Here we only check the vararg was packed.
	found := false
	walkAST(ast, func(n ASTNode) bool {
		if def, ok := n.(*ASTDef); ok && def.Name.Str() == "rest__C1" {
			v, ok := literalValue(def.Value)
			require.True(t, ok)
			assert.True(t, v.Equal(NewVector([]Value{NewFloat(2), NewFloat(3)})))
			found = true
		}
		return true
	})
	assert.True(t, found)
}

func TestMapExpansion(t *testing.T) {
	source := `
(defn double [x] (* x 2.0))
(def xs (map double [1.0 2.0 3.0]))
xs
`
	g := compileTest(t, source, Options{Language: LangClojure})
	assert.Equal(t, "[2.0, 4.0, 6.0]", g.Result)
}

func TestZipExpansion(t *testing.T) {
	source := `
(def zs (zip [1 2] [3 4]))
zs
`
	g := compileTest(t, source, Options{Language: LangClojure})
	assert.Equal(t, "[[1, 3], [2, 4]]", g.Result)
}

func TestMapOverObservingFunctionNotExpanded(t *testing.T) {
	// Expanding a map over an observing callee would multiply the
	// observation; the call must be left alone (and then rejected at graph
	// generation since it cannot be lowered).
	source := `
(defn obs [y] (observe (normal 0.0 1.0) y))
(map obs [1.0 2.0])
`
	rs := newRawSimplifier(NewNamespace(nil))
	ast := rs.visit(parseClojure("test", source))
	ast = newInliner().visit(ast)
	stillCall := false
	walkAST(ast, func(n ASTNode) bool {
		if call, ok := n.(*ASTCall); ok {
			if sym, ok := call.Function.(*ASTSymbol); ok && sym.Name == symbol.Map {
				stillCall = true
			}
		}
		return true
	})
	assert.True(t, stillCall)
}

func TestLetRenaming(t *testing.T) {
	source := `
(let [x 1.0]
  (let [x (+ x 1.0)]
    x))
`
	rs := newRawSimplifier(NewNamespace(nil))
	ast := rs.visit(parseClojure("test", source))
	ast = newInliner().visit(ast)
	outer, ok := ast.(*ASTLet)
	require.True(t, ok)
	assert.Equal(t, "x__L1", outer.Target.Str())
	inner, ok := outer.Body.(*ASTLet)
	require.True(t, ok)
	assert.Equal(t, "x__L1L2", inner.Target.Str())
	// The inner source reads the outer binding.
	assert.True(t, referencesSymbol(inner.Source, symbol.Intern("x__L1")))
	// The inner body reads the inner binding.
	assert.True(t, referencesSymbol(inner.Body, inner.Target))
}
