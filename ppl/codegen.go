package ppl

// Rendering of the compiled graph into the source of a Model class. The
// class shape follows the runtime's abstract base model: accessors over the
// graph plus gen_prior_samples and gen_log_pdf(state). The graph stays the
// primary compiler output; the code here is carried for the code-generation
// collaborator and never parsed back.

import (
	"fmt"
	"strings"
)

// Model is the result of a full compilation: the graph plus the generated
// model-class source.
type Model struct {
	Graph *Graph
	Code  string
}

// CompileModel compiles the program and renders the model class.
func CompileModel(source string, opts Options) (model *Model, err error) {
	err = Recover(func() {
		graph := mustCompile(source, opts)
		model = &Model{Graph: graph, Code: generateModelCode(graph, opts)}
	})
	return model, err
}

// condBitVar is the state entry holding the packed condition truth values.
const condBitVar = "cond_bits"

type codeWriter struct {
	sb     strings.Builder
	indent int
}

func (w *codeWriter) linef(format string, args ...interface{}) {
	w.sb.WriteString(strings.Repeat("\t", w.indent))
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

func (w *codeWriter) blank() { w.sb.WriteByte('\n') }

func generateModelCode(g *Graph, opts Options) string {
	w := &codeWriter{}
	for _, imp := range opts.Imports {
		w.linef("import %s", imp)
	}
	w.linef("import distributions as dist")
	w.blank()
	base := opts.BaseClass
	if base == "" {
		base = "object"
	}
	w.linef("class Model(%s):", base)
	w.indent++

	w.linef("def __init__(self, vertices, arcs, data, conditionals):")
	w.indent++
	w.linef("self.vertices = vertices")
	w.linef("self.arcs = arcs")
	w.linef("self.data = data")
	w.linef("self.conditionals = conditionals")
	w.indent--
	w.blank()

	// Plain accessors over the graph sets.
	accessors := [][2]string{
		{"get_vertices", "return self.vertices"},
		{"get_vertices_names", "return [v.name for v in self.vertices]"},
		{"get_arcs", "return self.arcs"},
		{"get_arcs_names", "return [(u.name, v.name) for (u, v) in self.arcs]"},
		{"get_conditions", "return self.conditionals"},
		{"gen_cond_vars", "return [c.name for c in self.conditionals]"},
		{"gen_if_vars", "return [v.name for v in self.vertices if v.is_conditional and v.is_sampled and v.is_continuous]"},
		{"gen_cont_vars", "return [v.name for v in self.vertices if v.is_continuous and not v.is_conditional and v.is_sampled]"},
		{"gen_disc_vars", "return [v.name for v in self.vertices if v.is_discrete and v.is_sampled]"},
		{"get_vars", "return [v.name for v in self.vertices if v.is_sampled]"},
	}
	for _, acc := range accessors {
		w.linef("def %s(self):", acc[0])
		w.indent++
		w.linef("%s", acc[1])
		w.indent--
		w.blank()
	}

	genPriorSamples(w, g)
	genLogPDF(w, g, false)
	genLogPDF(w, g, true)

	w.linef("def gen_cond_bit_vector(self, state):")
	w.indent++
	w.linef("result = 0")
	w.linef("for cond in self.conditionals:")
	w.indent++
	w.linef("result = cond.update_bit_vector(state, result)")
	w.indent--
	w.linef("return result")
	w.indent--

	return w.sb.String()
}

func genPriorSamples(w *codeWriter, g *Graph) {
	w.linef("def gen_prior_samples(self):")
	w.indent++
	w.linef("state = {}")
	if len(g.Conditions) > 0 {
		w.linef("%s = 0", condBitVar)
		w.linef("state['%s'] = %s", condBitVar, condBitVar)
	}
	for _, node := range g.Nodes {
		switch t := node.(type) {
		case *DataNode:
			w.linef("%s = %s", t.Name, t.Code)
			w.linef("state['%s'] = %s", t.Name, t.Name)
		case *ConditionNode:
			w.linef("%s = %s", t.Name, t.Expr)
			w.linef("state['%s'] = %s", t.Name, t.Name)
			w.linef("%s |= (1 << %d) if %s else 0", condBitVar, t.BitIndex, t.Name)
			w.linef("state['%s'] = %s", condBitVar, condBitVar)
		case *Vertex:
			w.linef("dst_ = %s", t.Dist)
			switch {
			case t.Observed:
				w.linef("%s = %s", t.Name, t.Observation)
			case t.SampleSize > 1:
				w.linef("%s = dst_.sample(sample_size=%d)", t.Name, t.SampleSize)
			default:
				w.linef("%s = dst_.sample()", t.Name)
			}
			w.linef("state['%s'] = %s", t.Name, t.Name)
		}
	}
	w.linef("return state")
	w.indent--
	w.blank()
}

func genLogPDF(w *codeWriter, g *Graph, transformed bool) {
	name := "gen_log_pdf"
	if transformed {
		name = "gen_log_pdf_transformed"
	}
	w.linef("def %s(self, state):", name)
	w.indent++
	w.linef("log_pdf = 0")
	for _, node := range g.Nodes {
		switch t := node.(type) {
		case *DataNode:
			w.linef("%s = state['%s']", t.Name, t.Name)
		case *ConditionNode:
			w.linef("%s = %s", t.Name, t.Expr)
		case *Vertex:
			w.linef("%s = state['%s']", t.Name, t.Name)
			dst := t.Dist
			if transformed && t.Family.Support != nil {
				dst = fmt.Sprintf("dist.Transformed(%s, '%s', '%s')",
					t.Dist, t.Family.Support.Bijector, t.Family.Support.Inverse)
			}
			w.linef("dst_ = %s", dst)
			if t.Conditional {
				w.linef("log_pdf = log_pdf + (dst_.log_pdf(%s) if %s else 0)", t.Name, t.Condition)
			} else {
				w.linef("log_pdf = log_pdf + dst_.log_pdf(%s)", t.Name)
			}
		}
	}
	w.linef("return log_pdf")
	w.indent--
	w.blank()
}
