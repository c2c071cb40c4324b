package ppl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratedModelShape(t *testing.T) {
	model, err := CompileModel(ifModelSource, Options{})
	require.NoError(t, err)
	code := model.Code

	for _, want := range []string{
		"import distributions as dist",
		"class Model(object):",
		"def __init__(self, vertices, arcs, data, conditionals):",
		"def gen_prior_samples(self):",
		"def gen_log_pdf(self, state):",
		"def gen_log_pdf_transformed(self, state):",
		"def gen_cond_bit_vector(self, state):",
	} {
		assert.Contains(t, code, want)
	}

	// The condition updates the packed bit vector at its bit index.
	c := model.Graph.Conditions[0]
	assert.Contains(t, code, "cond_bits |= (1 << 0) if "+c.Name+" else 0")
	// Conditional vertices contribute to the log-pdf only under their guard.
	assert.Contains(t, code, "if "+c.Name+" else 0)")
	// Observed vertices are assigned their observation when sampling.
	assert.Contains(t, code, "y2 = 0.5")
}

func TestGeneratedModelBaseAndImports(t *testing.T) {
	model, err := CompileModel("x = sample(normal(0.0, 1.0))\n",
		Options{BaseClass: "base_model", Imports: []string{"torch"}})
	require.NoError(t, err)
	assert.Contains(t, model.Code, "import torch\n")
	assert.Contains(t, model.Code, "class Model(base_model):")
}

func TestGeneratedSampleStatements(t *testing.T) {
	model, err := CompileModel("zn = sample(categorical([0.5, 0.5]), [10])\n", Options{})
	require.NoError(t, err)
	assert.Contains(t, model.Code, "dst_ = dist.Categorical([0.5, 0.5])")
	assert.Contains(t, model.Code, "zn = dst_.sample(sample_size=10)")
}

func TestGeneratedTransformedSupport(t *testing.T) {
	model, err := CompileModel("r = sample(gamma(1.0, 1.0))\n", Options{})
	require.NoError(t, err)
	// The plain log-pdf uses the raw family; the transformed variant wraps
	// the support bijection.
	assert.Contains(t, model.Code, "dst_ = dist.Gamma(1.0, 1.0)")
	assert.Contains(t, model.Code, "dst_ = dist.Transformed(dist.Gamma(1.0, 1.0), 'exp', 'log')")
}

func TestGeneratedCodeDeterminism(t *testing.T) {
	m1, err := CompileModel(gmmSource, Options{})
	require.NoError(t, err)
	m2, err := CompileModel(gmmSource, Options{})
	require.NoError(t, err)
	assert.True(t, strings.Compare(m1.Code, m2.Code) == 0)
}
