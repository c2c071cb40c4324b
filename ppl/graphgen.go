package ppl

// The graph generator walks the simplified straight-line program and builds
// the graphical model: one vertex per sample or observe def, data nodes for
// constant defs, condition nodes for lifted conditionals, and arcs for the
// free-name relation.

import (
	"strconv"

	"github.com/Tobias-Kohn/PyPPLCompiler/symbol"
)

// condEntry is one conditional in force, with its branch polarity.
type condEntry struct {
	node     *ConditionNode
	polarity bool
}

type graphGenerator struct {
	graph *Graph
	// arena of nodes keyed by final name.
	names map[string]GraphNode
	// symMap maps program names to the node names they became.
	symMap map[symbol.ID]string
	// env holds pure defs that are inlined at their use sites.
	env map[symbol.ID]ASTNode
	// conditions is the stack of conditionals currently in force.
	conditions []condEntry
	// condByExpr dedups condition nodes by their rendered guard.
	condByExpr map[string]*ConditionNode
}

func newGraphGenerator() *graphGenerator {
	return &graphGenerator{
		graph:      &Graph{},
		names:      map[string]GraphNode{},
		symMap:     map[symbol.ID]string{},
		env:        map[symbol.ID]ASTNode{},
		condByExpr: map[string]*ConditionNode{},
	}
}

// generate lowers the program to its graph and re-validates the graph
// invariants.
func (gg *graphGenerator) generate(root ASTNode) *Graph {
	body, ok := root.(*ASTBody)
	if !ok {
		body = &ASTBody{Pos: root.pos(), Items: []ASTNode{root}}
	}
	for i, item := range body.Items {
		last := i == len(body.Items)-1
		if last {
			if _, isDef := item.(*ASTDef); !isDef {
				gg.setResult(item)
				break
			}
		}
		gg.visitStmt(item)
	}
	gg.graph.validate()
	return gg.graph
}

func (gg *graphGenerator) visitStmt(n ASTNode) {
	switch t := n.(type) {
	case nil, *ASTLiteral, *ASTValueVector:
		// A literal in statement position has no effect on the graph.
	case *ASTBody:
		for _, item := range t.Items {
			gg.visitStmt(item)
		}
	case *ASTDef:
		gg.visitDef(t)
	case *ASTCond:
		gg.visitCondStmt(t)
	case *ASTSymbol, *ASTVector, *ASTBinary, *ASTUnary, *ASTSubscript, *ASTCall:
		// Pure expressions in statement position contribute nothing.
	case *ASTReturn:
		gg.setResult(t.Value)
	case *ASTSample, *ASTObserve:
		Panicf(n, InternalError, "unhoisted %T reached the graph generator", n)
	default:
		Panicf(n, InternalError, "graph generator: unknown statement %T", n)
	}
}

func (gg *graphGenerator) visitDef(n *ASTDef) {
	switch t := n.Value.(type) {
	case *ASTSample:
		gg.addVertex(n, t.Dist, nil, t.Size)
	case *ASTObserve:
		gg.addVertex(n, t.Dist, t.Value, nil)
	default:
		gg.addPureDef(n)
	}
}

// addVertex builds the vertex for a sample or observe def. observed is nil
// for samples; size is nil for observes (their size comes from the observed
// value).
func (gg *graphGenerator) addVertex(def *ASTDef, dist ASTNode, observed, size ASTNode) {
	d, ok := dist.(*ASTDist)
	if !ok {
		kind := "sample"
		if observed != nil {
			kind = "observation"
		}
		Panicf(def, GraphError, "%s of a non-distribution: %s", kind, dist)
	}
	deps := newDepSet()
	distRewritten := gg.rewrite(d, deps)

	v := &Vertex{
		Name:    gg.uniqueName(def.Name.Str()),
		Family:  d.Family,
		Sampled: observed == nil,
		distAST: distRewritten,
	}
	v.Dist = distRewritten.String()

	if len(gg.conditions) > 0 {
		v.Conditional = true
		v.guardAST = gg.guardExpr()
		v.Condition = v.guardAST.String()
		for _, entry := range gg.conditions {
			deps.add(entry.node.Name)
		}
	}
	v.Parents = deps.names

	switch {
	case observed != nil:
		v.Observed = true
		obsRewritten := gg.rewrite(observed, newDepSet())
		v.Observation = obsRewritten.String()
		if l := staticVectorLen(obsRewritten); l > 1 {
			v.SampleSize = l
		}
	case size != nil:
		n := staticSampleSize(size)
		if n < 0 {
			Panicf(def, StaticError, "sample size is not statically known: %s", size)
		}
		v.SampleSize = n
	}

	gg.register(def.Name, v)
	gg.graph.Vertices = append(gg.graph.Vertices, v)
	for _, p := range v.Parents {
		gg.graph.Arcs = append(gg.graph.Arcs, Arc{Parent: p, Child: v.Name})
	}
}

// addPureDef records a def with no sampling effect: a constant becomes a
// data node, anything else is inlined at its use sites through the
// environment. The environment holds the unrewritten expression; it is
// rewritten from scratch at each use site.
func (gg *graphGenerator) addPureDef(n *ASTDef) {
	if _, ok := literalValue(n.Value); ok {
		d := &DataNode{Name: gg.uniqueName(n.Name.Str()), Code: n.Value.String()}
		gg.register(n.Name, d)
		gg.graph.Data = append(gg.graph.Data, d)
		return
	}
	gg.env[n.Name] = n.Value
}

// visitCondStmt lifts the test into a condition node and visits the two
// branches under opposite polarities.
func (gg *graphGenerator) visitCondStmt(n *ASTCond) {
	c := gg.liftCondition(n.Cond)
	gg.conditions = append(gg.conditions, condEntry{node: c, polarity: true})
	gg.visitStmt(n.Then)
	gg.conditions = gg.conditions[:len(gg.conditions)-1]
	if n.Else != nil {
		gg.conditions = append(gg.conditions, condEntry{node: c, polarity: false})
		gg.visitStmt(n.Else)
		gg.conditions = gg.conditions[:len(gg.conditions)-1]
	}
}

// liftCondition returns the condition node for the given test expression,
// creating it with a fresh bit index on first appearance.
func (gg *graphGenerator) liftCondition(test ASTNode) *ConditionNode {
	// A test that is already a reference to a lifted condition is reused.
	if sym, ok := test.(*ASTSymbol); ok {
		if node, ok := gg.names[sym.Name.Str()]; ok {
			if c, ok := node.(*ConditionNode); ok {
				return c
			}
		}
	}
	deps := newDepSet()
	rewritten := gg.rewrite(test, deps)
	expr := rewritten.String()
	if c, ok := gg.condByExpr[expr]; ok {
		return c
	}
	bit := len(gg.graph.Conditions)
	c := &ConditionNode{
		Name:      gg.uniqueName("c" + strconv.Itoa(bit+1)),
		Expr:      expr,
		BitIndex:  bit,
		Ancestors: deps.names,
		exprAST:   rewritten,
	}
	gg.names[c.Name] = c
	gg.graph.Conditions = append(gg.graph.Conditions, c)
	gg.graph.Nodes = append(gg.graph.Nodes, c)
	gg.condByExpr[expr] = c
	return c
}

// guardExpr builds the conjunction of the conditions in force, with their
// polarities, as an expression over condition-node names.
func (gg *graphGenerator) guardExpr() ASTNode {
	var expr ASTNode
	for _, entry := range gg.conditions {
		var term ASTNode = &ASTSymbol{Name: symbol.Intern(entry.node.Name)}
		if !entry.polarity {
			term = &ASTUnary{Op: "not", Operand: term}
		}
		if expr == nil {
			expr = term
		} else {
			expr = &ASTBinary{Op: "and", LHS: expr, RHS: term}
		}
	}
	return expr
}

func (gg *graphGenerator) setResult(n ASTNode) {
	if n == nil {
		return
	}
	gg.graph.Result = gg.rewrite(n, newDepSet()).String()
}

// register binds a program name to its graph node.
func (gg *graphGenerator) register(name symbol.ID, node GraphNode) {
	gg.names[node.NodeName()] = node
	gg.symMap[name] = node.NodeName()
	if _, isCond := node.(*ConditionNode); !isCond {
		gg.graph.Nodes = append(gg.graph.Nodes, node)
	}
}

// uniqueName returns base if it is still free, else the first free
// base<i> name.
func (gg *graphGenerator) uniqueName(base string) string {
	if _, ok := gg.names[base]; !ok {
		return base
	}
	for i := 1; ; i++ {
		name := base + strconv.Itoa(i)
		if _, ok := gg.names[name]; !ok {
			return name
		}
	}
}

// depSet collects node names in order of first occurrence.
type depSet struct {
	names []string
	seen  map[string]bool
}

func newDepSet() *depSet { return &depSet{seen: map[string]bool{}} }

func (d *depSet) add(name string) {
	if !d.seen[name] {
		d.seen[name] = true
		d.names = append(d.names, name)
	}
}

// rewrite prepares an expression for the graph: pure defs are inlined,
// program names are replaced by node names (recording dependencies), and
// conditional sub-expressions are lifted into condition nodes. The returned
// tree renders to the fragment carried by the graph.
func (gg *graphGenerator) rewrite(n ASTNode, deps *depSet) ASTNode {
	switch t := n.(type) {
	case nil, *ASTLiteral, *ASTValueVector:
		return n
	case *ASTSymbol:
		if repl, ok := gg.env[t.Name]; ok {
			return gg.rewrite(repl, deps)
		}
		if nodeName, ok := gg.symMap[t.Name]; ok {
			deps.add(nodeName)
			return &ASTSymbol{Pos: t.Pos, Name: symbol.Intern(nodeName)}
		}
		Panicf(t, ResolutionError, "free symbol '%s' has no binding", t.Name.Str())
	case *ASTVector:
		items := make([]ASTNode, len(t.Items))
		for i, item := range t.Items {
			items[i] = gg.rewrite(item, deps)
		}
		return &ASTVector{Pos: t.Pos, Items: items}
	case *ASTCond:
		c := gg.liftCondition(t.Cond)
		deps.add(c.Name)
		if t.Else == nil {
			Panicf(t, GraphError, "conditional expression without an else branch")
		}
		return &ASTCond{
			Pos:  t.Pos,
			Cond: &ASTSymbol{Pos: t.Pos, Name: symbol.Intern(c.Name)},
			Then: gg.rewrite(t.Then, deps),
			Else: gg.rewrite(t.Else, deps),
		}
	case *ASTDist:
		args := make([]ASTNode, len(t.Args))
		for i, arg := range t.Args {
			args[i] = gg.rewrite(arg, deps)
		}
		return &ASTDist{Pos: t.Pos, Family: t.Family, Args: args}
	case *ASTSubscript:
		return &ASTSubscript{Pos: t.Pos, Base: gg.rewrite(t.Base, deps),
			Index: gg.rewrite(t.Index, deps), Column: t.Column}
	case *ASTBinary:
		return &ASTBinary{Pos: t.Pos, Op: t.Op, LHS: gg.rewrite(t.LHS, deps), RHS: gg.rewrite(t.RHS, deps)}
	case *ASTUnary:
		return &ASTUnary{Pos: t.Pos, Op: t.Op, Operand: gg.rewrite(t.Operand, deps)}
	case *ASTCall:
		// A call surviving to this point refers to a function the compiler
		// does not know.
		Panicf(t, ResolutionError, "unresolved call to '%s'", t.Function)
	case *ASTSample, *ASTObserve:
		Panicf(t, InternalError, "unhoisted %T in expression position", t)
	}
	Panicf(n, InternalError, "graph generator: cannot render %T", n)
	return nil
}
