package ppl

// The distribution family table. The core relies only on this metadata; the
// numerical semantics of each family belong to the runtime library that the
// generated code imports as "dist".

// Transform names a bijection between a constrained support and the reals,
// used by the transformed log-pdf generation.
type Transform struct {
	Bijector string
	Inverse  string
}

// DistFamily describes one distribution constructor.
type DistFamily struct {
	// Name is the constructor name in the surface syntax.
	Name string
	// CodeName is the constructor name emitted into code fragments.
	CodeName string
	// Arity is the number of required constructor arguments.
	Arity int
	// Continuous separates continuous from discrete families.
	Continuous bool
	// VectorParams is true for families parameterized by a probability or
	// concentration vector.
	VectorParams bool
	// Support is the optional transformed-support pair.
	Support *Transform
}

// Discrete reports whether the family is discrete.
func (f *DistFamily) Discrete() bool { return !f.Continuous }

var distFamilies = []*DistFamily{
	{Name: "normal", CodeName: "Normal", Arity: 2, Continuous: true},
	{Name: "uniform", CodeName: "Uniform", Arity: 2, Continuous: true,
		Support: &Transform{Bijector: "sigmoid", Inverse: "logit"}},
	{Name: "beta", CodeName: "Beta", Arity: 2, Continuous: true,
		Support: &Transform{Bijector: "sigmoid", Inverse: "logit"}},
	{Name: "gamma", CodeName: "Gamma", Arity: 2, Continuous: true,
		Support: &Transform{Bijector: "exp", Inverse: "log"}},
	{Name: "exponential", CodeName: "Exponential", Arity: 1, Continuous: true,
		Support: &Transform{Bijector: "exp", Inverse: "log"}},
	{Name: "half_cauchy", CodeName: "HalfCauchy", Arity: 2, Continuous: true,
		Support: &Transform{Bijector: "exp", Inverse: "log"}},
	{Name: "lognormal", CodeName: "LogNormal", Arity: 2, Continuous: true,
		Support: &Transform{Bijector: "exp", Inverse: "log"}},
	{Name: "dirichlet", CodeName: "Dirichlet", Arity: 1, Continuous: true, VectorParams: true},
	{Name: "categorical", CodeName: "Categorical", Arity: 1, VectorParams: true},
	{Name: "discrete", CodeName: "Discrete", Arity: 1, VectorParams: true},
	{Name: "bernoulli", CodeName: "Bernoulli", Arity: 1},
	{Name: "binomial", CodeName: "Binomial", Arity: 2},
	{Name: "poisson", CodeName: "Poisson", Arity: 1},
}

var distFamilyByName = func() map[string]*DistFamily {
	m := make(map[string]*DistFamily, len(distFamilies))
	for _, f := range distFamilies {
		m[f.Name] = f
	}
	return m
}()

// LookupDistFamily finds the family with the given surface name.
func LookupDistFamily(name string) (*DistFamily, bool) {
	f, ok := distFamilyByName[name]
	return f, ok
}
