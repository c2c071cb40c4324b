package ppl

// The output data model: a directed graphical model with random-variable
// vertices, observed data nodes and lifted condition nodes. Nodes are held
// by value in an arena keyed by name, and arcs are name pairs, so the graph
// contains no back-references.

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/Tobias-Kohn/PyPPLCompiler/hash"
	"github.com/Tobias-Kohn/PyPPLCompiler/symbol"
	"github.com/grailbio/base/must"
	"v.io/x/lib/toposort"
)

// GraphNode is implemented by vertices, data nodes and condition nodes.
type GraphNode interface {
	// NodeName returns the unique name of the node.
	NodeName() string
}

// Vertex is a random variable of the model.
type Vertex struct {
	// Name is the unique vertex name.
	Name string
	// Dist is the distribution expression as a code fragment.
	Dist string
	// Family is the distribution family of the vertex.
	Family *DistFamily
	// Parents lists the graph nodes whose names occur free in Dist or in the
	// guard expression, in order of first occurrence.
	Parents []string
	// Sampled and Observed distinguish latent from conditioned variables.
	Sampled  bool
	Observed bool
	// Observation is the observed value fragment; empty unless Observed.
	Observation string
	// SampleSize is the length of a vectorized observation or sample, or 0.
	SampleSize int
	// Conditional marks a vertex introduced under one or more conditionals.
	Conditional bool
	// Condition is the guard expression under which the vertex is active;
	// empty unless Conditional.
	Condition string

	// distAST and guardAST retain the source expressions for re-validation.
	distAST  ASTNode
	guardAST ASTNode
}

// NodeName implements GraphNode.
func (v *Vertex) NodeName() string { return v.Name }

// Continuous reports whether the vertex's distribution family is continuous.
func (v *Vertex) Continuous() bool { return v.Family.Continuous }

// Discrete reports whether the vertex's distribution family is discrete.
func (v *Vertex) Discrete() bool { return v.Family.Discrete() }

func (v *Vertex) String() string {
	kind := "sampled"
	if v.Observed {
		kind = "observed"
	}
	support := "discrete"
	if v.Continuous() {
		support = "continuous"
	}
	s := fmt.Sprintf("%s: %s, %s, %s", v.Name, v.Dist, kind, support)
	if v.Conditional {
		s += fmt.Sprintf(", if %s", v.Condition)
	}
	if v.Observed {
		s += fmt.Sprintf(", value %s", v.Observation)
	}
	if v.SampleSize > 0 {
		s += fmt.Sprintf(", size %d", v.SampleSize)
	}
	return s
}

// DataNode is an observed constant bound once and carried for reference.
type DataNode struct {
	Name string
	Code string
}

// NodeName implements GraphNode.
func (d *DataNode) NodeName() string { return d.Name }

func (d *DataNode) String() string { return fmt.Sprintf("%s = %s", d.Name, d.Code) }

// ConditionNode is the boolean guard of a lifted conditional.
type ConditionNode struct {
	Name string
	// Expr is the guard expression fragment.
	Expr string
	// BitIndex is assigned on first appearance; downstream runtimes track
	// the condition's truth value in bit BitIndex of a state word.
	BitIndex int
	// Ancestors lists the node names read by Expr, for code ordering.
	Ancestors []string

	exprAST ASTNode
}

// NodeName implements GraphNode.
func (c *ConditionNode) NodeName() string { return c.Name }

func (c *ConditionNode) String() string {
	return fmt.Sprintf("%s: %s, bit %d", c.Name, c.Expr, c.BitIndex)
}

// Arc is a directed dependency from a parent node to a child vertex.
type Arc struct {
	Parent string
	Child  string
}

// Graph is the compiled model. It is immutable once returned by the
// compiler.
type Graph struct {
	// Nodes lists every node in creation order. The order is topological:
	// every node precedes the nodes that read it.
	Nodes []GraphNode
	// Vertices, Data and Conditions are the typed subsets of Nodes, in the
	// same order.
	Vertices   []*Vertex
	Data       []*DataNode
	Conditions []*ConditionNode
	// Arcs is the dependency relation into vertices.
	Arcs []Arc
	// Result is the canonicalized result expression of the model.
	Result string
}

// Vertex returns the vertex with the given name, or nil.
func (g *Graph) Vertex(name string) *Vertex {
	for _, v := range g.Vertices {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Condition returns the condition node with the given name, or nil.
func (g *Graph) Condition(name string) *ConditionNode {
	for _, c := range g.Conditions {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ArcNames returns the arcs as (parent, child) name pairs.
func (g *Graph) ArcNames() [][2]string {
	pairs := make([][2]string, len(g.Arcs))
	for i, a := range g.Arcs {
		pairs[i] = [2]string{a.Parent, a.Child}
	}
	return pairs
}

// SampledVars returns the names of all sampled vertices in creation order.
func (g *Graph) SampledVars() []string {
	var names []string
	for _, v := range g.Vertices {
		if v.Sampled {
			names = append(names, v.Name)
		}
	}
	return names
}

// Hash returns a fingerprint of the graph: two graphs with identical nodes,
// attributes and arcs hash equally.
func (g *Graph) Hash() hash.Hash {
	h := hash.String("graph")
	for _, node := range g.Nodes {
		switch t := node.(type) {
		case *Vertex:
			h = h.Merge(hash.String("v" + t.Name + ":" + t.Dist + ":" + t.Observation + ":" + t.Condition))
			h = h.Merge(hash.Int(int64(t.SampleSize)))
			h = h.Merge(hash.Bool(t.Observed))
		case *DataNode:
			h = h.Merge(hash.String("d" + t.Name + ":" + t.Code))
		case *ConditionNode:
			h = h.Merge(hash.String("c" + t.Name + ":" + t.Expr))
			h = h.Merge(hash.Int(int64(t.BitIndex)))
		}
	}
	for _, a := range g.Arcs {
		h = h.Merge(hash.String(a.Parent + ">" + a.Child))
	}
	return h.Merge(hash.String(g.Result))
}

// validate re-checks the graph invariants: pairwise-disjoint name sets, an
// acyclic arc relation, and agreement between the arcs and the free names of
// each vertex's distribution and guard expressions.
func (g *Graph) validate() {
	byName := map[string]GraphNode{}
	for _, node := range g.Nodes {
		if _, ok := byName[node.NodeName()]; ok {
			Panicf(nil, GraphError, "duplicate node name '%s'", node.NodeName())
		}
		byName[node.NodeName()] = node
	}

	// Acyclicity, checked the same way column order is computed for tables:
	// parents sort before children or the sorter reports a cycle.
	var sorter toposort.Sorter
	for _, node := range g.Nodes {
		sorter.AddNode(node.NodeName())
	}
	for _, a := range g.Arcs {
		sorter.AddEdge(a.Child, a.Parent)
	}
	_, cycles := sorter.Sort()
	if len(cycles) > 0 {
		Panicf(nil, GraphError, "the dependency graph contains a cycle: %v", cycles)
	}

	// Parent/free-name agreement, by a second scan of the retained
	// expressions.
	for _, v := range g.Vertices {
		free := map[symbol.ID]bool{}
		must.True(v.distAST != nil, "vertex without a distribution: ", v.Name)
		freeSymbols(v.distAST, free)
		if v.guardAST != nil {
			freeSymbols(v.guardAST, free)
		}
		want := map[string]bool{}
		for name := range free {
			if _, ok := byName[name.Str()]; ok {
				want[name.Str()] = true
			}
		}
		if len(want) != len(v.Parents) {
			Panicf(nil, GraphError, "vertex '%s': parents %v disagree with free names", v.Name, v.Parents)
		}
		for _, p := range v.Parents {
			if !want[p] {
				Panicf(nil, GraphError, "vertex '%s': parent '%s' is not free in its expressions", v.Name, p)
			}
		}
	}
}

// String renders the graph for human consumption.
func (g *Graph) String() string {
	buf := bytes.NewBuffer(nil)
	fmt.Fprintf(buf, "#Vertices: %d, #Arcs: %d\n", len(g.Vertices), len(g.Arcs))
	fmt.Fprintf(buf, "Vertices V:\n")
	lines := make([]string, len(g.Vertices))
	for i, v := range g.Vertices {
		lines[i] = "  " + v.String()
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Fprintln(buf, line)
	}
	fmt.Fprintf(buf, "Arcs A:\n")
	if len(g.Arcs) == 0 {
		fmt.Fprintf(buf, "  -\n")
	} else {
		for i, a := range g.Arcs {
			if i > 0 {
				fmt.Fprintf(buf, ", ")
			} else {
				fmt.Fprintf(buf, "  ")
			}
			fmt.Fprintf(buf, "(%s, %s)", a.Parent, a.Child)
		}
		fmt.Fprintln(buf)
	}
	fmt.Fprintf(buf, "Conditions C:\n")
	if len(g.Conditions) == 0 {
		fmt.Fprintf(buf, "  -\n")
	}
	for _, c := range g.Conditions {
		fmt.Fprintf(buf, "  %s\n", c)
	}
	fmt.Fprintf(buf, "Data D:\n")
	if len(g.Data) == 0 {
		fmt.Fprintf(buf, "  -\n")
	}
	for _, d := range g.Data {
		fmt.Fprintf(buf, "  %s\n", d)
	}
	if g.Result != "" {
		fmt.Fprintf(buf, "Result: %s\n", g.Result)
	}
	return buf.String()
}
