package ppl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespaceDefaults(t *testing.T) {
	ns := NewNamespace(nil)
	got, ok := ns.Resolve("normal")
	assert.True(t, ok)
	assert.Equal(t, "normal", got)

	got, ok = ns.Resolve("dist.Normal")
	assert.True(t, ok)
	assert.Equal(t, "normal", got)

	_, ok = ns.Resolve("no_such_name")
	assert.False(t, ok)
}

func TestNamespaceUserEntries(t *testing.T) {
	ns := NewNamespace(map[string]string{"select": "categorical", "keep": "keep"})
	got, ok := ns.Resolve("select")
	assert.True(t, ok)
	assert.Equal(t, "categorical", got)

	got, ok = ns.Resolve("keep")
	assert.True(t, ok)
	assert.Equal(t, "keep", got)
}

func TestDistFamilyTable(t *testing.T) {
	continuous := []string{"normal", "uniform", "beta", "gamma", "exponential", "half_cauchy", "lognormal", "dirichlet"}
	discrete := []string{"categorical", "bernoulli", "binomial", "poisson", "discrete"}
	for _, name := range continuous {
		f, ok := LookupDistFamily(name)
		require.True(t, ok, name)
		assert.True(t, f.Continuous, name)
		assert.False(t, f.Discrete(), name)
	}
	for _, name := range discrete {
		f, ok := LookupDistFamily(name)
		require.True(t, ok, name)
		assert.True(t, f.Discrete(), name)
	}
}

func TestTransformedSupports(t *testing.T) {
	gamma, _ := LookupDistFamily("gamma")
	require.NotNil(t, gamma.Support)
	assert.Equal(t, "exp", gamma.Support.Bijector)
	assert.Equal(t, "log", gamma.Support.Inverse)

	normal, _ := LookupDistFamily("normal")
	assert.Nil(t, normal.Support)
}
