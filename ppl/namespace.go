package ppl

// Namespace maps surface names to the names the compiled model uses. The
// caller-supplied mapping is layered over the defaults published by the
// distribution table; it is an ordinary value threaded through the front end
// and the raw simplifier, never module-level state.
type Namespace struct {
	names map[string]string
}

// NewNamespace builds the default namespace, extended by the given
// user mapping. A user entry may remap a name to a distribution constructor
// (e.g. "select" -> "categorical") or keep it unaltered ("name" -> "name").
func NewNamespace(user map[string]string) *Namespace {
	names := make(map[string]string, len(distFamilies)+len(user))
	for _, f := range distFamilies {
		names[f.Name] = f.Name
		names["dist."+f.CodeName] = f.Name
	}
	// Tensor constructors of the python surface are plain vectors here.
	names["torch.Tensor"] = "vector"
	names["torch.tensor"] = "vector"
	names["torch.zeros"] = "zeros"
	names["torch.ones"] = "ones"
	for k, v := range user {
		names[k] = v
	}
	return &Namespace{names: names}
}

// Resolve maps a surface name through the namespace. The second result is
// false when the name has no entry.
func (ns *Namespace) Resolve(name string) (string, bool) {
	target, ok := ns.names[name]
	if !ok {
		return name, false
	}
	// A user entry may itself point at another namespace entry
	// ("select" -> "categorical"); chase one level.
	if next, ok := ns.names[target]; ok && next != target {
		return next, true
	}
	return target, true
}
