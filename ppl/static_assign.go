package ppl

// The static-assignment pass flattens the inlined tree into a body of defs
// in which every name is assigned exactly once and every expression reads
// only previously assigned names. Sample and observe expressions are hoisted
// into defs of their own so the graph generator sees one definition per
// random variable; branch assignments are renamed apart and merged by a
// conditionally assigned def after the branch.

import (
	"fmt"
	"strconv"
	"text/scanner"

	"github.com/Tobias-Kohn/PyPPLCompiler/symbol"
)

type staticAssigner struct {
	hoistCounter int
	condCounter  int
	defined      map[symbol.ID]bool
	// pendingRenames maps names rebound by the just-visited conditional to
	// the merged def that later statements must read instead.
	pendingRenames map[symbol.ID]symbol.ID
}

func newStaticAssigner() *staticAssigner {
	return &staticAssigner{defined: map[symbol.ID]bool{}}
}

func (sa *staticAssigner) run(root ASTNode) ASTNode {
	stmts, expr := sa.visit(root)
	if ret, ok := expr.(*ASTReturn); ok {
		expr = ret.Value
	}
	if expr != nil {
		stmts = append(stmts, expr)
	}
	return makeBody(root.pos(), stmts)
}

// visit lowers a node into a list of flat statements plus a pure result
// expression. The expression is nil when the node yields no value.
func (sa *staticAssigner) visit(n ASTNode) (stmts []ASTNode, expr ASTNode) {
	switch t := n.(type) {
	case nil:
		return nil, nil
	case *ASTLiteral, *ASTValueVector, *ASTSymbol:
		return nil, n
	case *ASTVector:
		items := make([]ASTNode, len(t.Items))
		for i, item := range t.Items {
			var s []ASTNode
			s, items[i] = sa.visitValue(item)
			stmts = append(stmts, s...)
		}
		return stmts, &ASTVector{Pos: t.Pos, Items: items}
	case *ASTDef:
		if _, ok := t.Value.(*ASTFunction); ok {
			// A surviving function def is never called; drop it.
			return nil, nil
		}
		return sa.lowerDef(t.Pos, t.Name, t.Value)
	case *ASTLet:
		stmts, _ = sa.lowerDef(t.Pos, t.Target, t.Source)
		bodyStmts, bodyExpr := sa.visit(t.Body)
		return append(stmts, bodyStmts...), bodyExpr
	case *ASTBody:
		return sa.visitBody(t)
	case *ASTReturn:
		if t.Value == nil {
			return nil, &ASTReturn{Pos: t.Pos}
		}
		stmts, value := sa.visitValue(t.Value)
		return stmts, &ASTReturn{Pos: t.Pos, Value: value}
	case *ASTCond:
		return sa.visitCond(t)
	case *ASTCall:
		fn := t.Function
		args := make([]ASTNode, len(t.Args))
		for i, arg := range t.Args {
			var s []ASTNode
			s, args[i] = sa.visitValue(arg)
			stmts = append(stmts, s...)
		}
		keywords := make([]KeywordArg, len(t.Keywords))
		for i, kw := range t.Keywords {
			s, e := sa.visitValue(kw.Expr)
			stmts = append(stmts, s...)
			keywords[i] = KeywordArg{Name: kw.Name, Expr: e}
		}
		if len(keywords) == 0 {
			keywords = nil
		}
		return stmts, &ASTCall{Pos: t.Pos, Function: fn, Args: args, Keywords: keywords}
	case *ASTFunction:
		return nil, nil
	case *ASTSubscript:
		baseStmts, base := sa.visitValue(t.Base)
		indexStmts, index := sa.visitValue(t.Index)
		stmts = append(baseStmts, indexStmts...)
		return stmts, &ASTSubscript{Pos: t.Pos, Base: base, Index: index, Column: t.Column}
	case *ASTSample:
		sa.hoistCounter++
		name := symbol.Intern("x__S" + strconv.Itoa(sa.hoistCounter))
		return sa.lowerDef(t.Pos, name, t)
	case *ASTObserve:
		sa.hoistCounter++
		name := symbol.Intern("y__O" + strconv.Itoa(sa.hoistCounter))
		return sa.lowerDef(t.Pos, name, t)
	case *ASTDist:
		args := make([]ASTNode, len(t.Args))
		for i, arg := range t.Args {
			var s []ASTNode
			s, args[i] = sa.visitValue(arg)
			stmts = append(stmts, s...)
		}
		return stmts, &ASTDist{Pos: t.Pos, Family: t.Family, Args: args}
	case *ASTBinary:
		lhsStmts, lhs := sa.visitValue(t.LHS)
		rhsStmts, rhs := sa.visitValue(t.RHS)
		stmts = append(lhsStmts, rhsStmts...)
		return stmts, &ASTBinary{Pos: t.Pos, Op: t.Op, LHS: lhs, RHS: rhs}
	case *ASTUnary:
		stmts, operand := sa.visitValue(t.Operand)
		return stmts, &ASTUnary{Pos: t.Pos, Op: t.Op, Operand: operand}
	}
	Panicf(n, InternalError, "static assignment: unknown node type %T", n)
	return nil, nil
}

// visitValue visits a node in value position: a node with no value yields
// the nil literal.
func (sa *staticAssigner) visitValue(n ASTNode) ([]ASTNode, ASTNode) {
	stmts, expr := sa.visit(n)
	if expr == nil {
		expr = &ASTLiteral{Pos: n.pos(), Val: Null}
	}
	if ret, ok := expr.(*ASTReturn); ok {
		expr = ret.Value
	}
	return stmts, expr
}

// lowerDef lowers "name = value". Sample and observe keep their distribution
// in place so the def itself denotes the random variable.
func (sa *staticAssigner) lowerDef(pos scanner.Position, name symbol.ID, value ASTNode) ([]ASTNode, ASTNode) {
	var stmts []ASTNode
	var rhs ASTNode
	switch t := value.(type) {
	case *ASTSample:
		distStmts, dist := sa.visitValue(t.Dist)
		stmts = append(stmts, distStmts...)
		var size ASTNode
		if t.Size != nil {
			var sizeStmts []ASTNode
			sizeStmts, size = sa.visitValue(t.Size)
			stmts = append(stmts, sizeStmts...)
		}
		rhs = &ASTSample{Pos: t.Pos, Dist: dist, Size: size}
	case *ASTObserve:
		distStmts, dist := sa.visitValue(t.Dist)
		valueStmts, observed := sa.visitValue(t.Value)
		stmts = append(append(stmts, distStmts...), valueStmts...)
		rhs = &ASTObserve{Pos: t.Pos, Dist: dist, Value: observed}
	default:
		stmts, rhs = sa.visitValue(value)
	}
	sa.defined[name] = true
	stmts = append(stmts, &ASTDef{Pos: pos, Name: name, Value: rhs})
	return stmts, &ASTSymbol{Pos: pos, Name: name}
}

func (sa *staticAssigner) visitBody(n *ASTBody) ([]ASTNode, ASTNode) {
	var stmts []ASTNode
	var expr ASTNode
	items := append([]ASTNode{}, n.Items...)
	for i := 0; i < len(items); i++ {
		s, e := sa.visit(items[i])
		stmts = append(stmts, s...)
		if renames := sa.pendingRenames; len(renames) > 0 {
			sa.pendingRenames = nil
			for j := i + 1; j < len(items); j++ {
				items[j] = substituteSymbols(items[j], renames)
			}
		}
		if i == len(items)-1 {
			expr = e
			break
		}
		if _, ok := e.(*ASTReturn); ok {
			return stmts, e
		}
		// Any other non-final expression is pure here (samples and observes
		// were hoisted into defs above) and is dropped.
	}
	return stmts, expr
}

// visitCond lowers a conditional. Branch statements stay inside the
// conditional (the graph generator turns the test into a condition node and
// marks their vertices conditional); every name a branch assigns is renamed
// apart and merged afterwards by a single conditionally assigned def.
func (sa *staticAssigner) visitCond(n *ASTCond) ([]ASTNode, ASTNode) {
	testStmts, test := sa.visitValue(n.Cond)
	stmts := testStmts

	// Names bound before the conditional; the branch visits below mark their
	// own defs, which must not count as outer bindings.
	definedBefore := make(map[symbol.ID]bool, len(sa.defined))
	for name := range sa.defined {
		definedBefore[name] = true
	}

	sa.condCounter++
	c := sa.condCounter
	thenStmts, thenExpr := sa.visit(n.Then)
	thenStmts, thenExpr, thenDefs, order := renameBranch(thenStmts, thenExpr, "T", c)
	var elseStmts []ASTNode
	var elseExpr ASTNode
	var elseDefs map[symbol.ID]symbol.ID
	if n.Else != nil {
		elseStmts, elseExpr = sa.visit(n.Else)
		var elseOrder []symbol.ID
		elseStmts, elseExpr, elseDefs, elseOrder = renameBranch(elseStmts, elseExpr, "E", c)
		for _, name := range elseOrder {
			if _, ok := thenDefs[name]; !ok {
				order = append(order, name)
			}
		}
	}

	if len(thenStmts) > 0 || len(elseStmts) > 0 {
		then := makeBody(n.Pos, thenStmts)
		if len(thenStmts) == 0 {
			then = &ASTLiteral{Pos: n.Pos, Val: Null}
		}
		var els ASTNode
		if len(elseStmts) > 0 {
			els = makeBody(n.Pos, elseStmts)
		}
		stmts = append(stmts, &ASTCond{Pos: n.Pos, Cond: test, Then: then, Else: els})
	}

	// Merge the branch assignments: one def per logical name, conditionally
	// reading the then- or the else-side binding.
	renames := map[symbol.ID]symbol.ID{}
	for _, name := range order {
		branchRef := func(defs map[symbol.ID]symbol.ID) ASTNode {
			if renamed, ok := defs[name]; ok {
				return &ASTSymbol{Pos: n.Pos, Name: renamed}
			}
			if definedBefore[name] {
				return &ASTSymbol{Pos: n.Pos, Name: name}
			}
			return &ASTLiteral{Pos: n.Pos, Val: Null}
		}
		target := name
		if definedBefore[name] {
			target = symbol.Intern(name.Str() + fmt.Sprintf("__P%d", c))
			renames[name] = target
		}
		merged := &ASTCond{Pos: n.Pos, Cond: test, Then: branchRef(thenDefs), Else: branchRef(elseDefs)}
		sa.defined[target] = true
		stmts = append(stmts, &ASTDef{Pos: n.Pos, Name: target, Value: merged})
	}
	if len(renames) > 0 {
		sa.pendingRenames = renames
	}

	var expr ASTNode
	if thenExpr != nil || elseExpr != nil {
		if thenExpr == nil {
			thenExpr = &ASTLiteral{Pos: n.Pos, Val: Null}
		}
		if elseExpr == nil {
			elseExpr = &ASTLiteral{Pos: n.Pos, Val: Null}
		}
		expr = &ASTCond{Pos: n.Pos, Cond: test, Then: thenExpr, Else: elseExpr}
	}
	return stmts, expr
}

// renameBranch renames every def inside a conditional branch apart and
// rewrites the branch's later reads accordingly.
func renameBranch(stmts []ASTNode, expr ASTNode, tag string, c int) ([]ASTNode, ASTNode, map[symbol.ID]symbol.ID, []symbol.ID) {
	renames := map[symbol.ID]symbol.ID{}
	var order []symbol.ID
	out := make([]ASTNode, 0, len(stmts))
	for _, stmt := range stmts {
		stmt = substituteSymbols(stmt, renames)
		if def, ok := stmt.(*ASTDef); ok {
			renamed := symbol.Intern(def.Name.Str() + "__" + tag + strconv.Itoa(c))
			if _, seen := renames[def.Name]; !seen {
				order = append(order, def.Name)
			}
			renames[def.Name] = renamed
			stmt = &ASTDef{Pos: def.Pos, Name: renamed, Value: def.Value, Global: def.Global}
		}
		out = append(out, stmt)
	}
	if expr != nil {
		expr = substituteSymbols(expr, renames)
	}
	return out, expr, renames, order
}

// substituteSymbols replaces free symbol reads according to the map. Def
// targets are left alone.
func substituteSymbols(n ASTNode, renames map[symbol.ID]symbol.ID) ASTNode {
	if len(renames) == 0 || n == nil {
		return n
	}
	switch t := n.(type) {
	case *ASTLiteral, *ASTValueVector:
		return n
	case *ASTSymbol:
		if renamed, ok := renames[t.Name]; ok {
			return &ASTSymbol{Pos: t.Pos, Name: renamed}
		}
		return n
	case *ASTVector:
		items := make([]ASTNode, len(t.Items))
		for i, item := range t.Items {
			items[i] = substituteSymbols(item, renames)
		}
		return &ASTVector{Pos: t.Pos, Items: items}
	case *ASTDef:
		return &ASTDef{Pos: t.Pos, Name: t.Name, Value: substituteSymbols(t.Value, renames), Global: t.Global}
	case *ASTBody:
		items := make([]ASTNode, len(t.Items))
		for i, item := range t.Items {
			items[i] = substituteSymbols(item, renames)
		}
		return &ASTBody{Pos: t.Pos, Items: items}
	case *ASTReturn:
		return &ASTReturn{Pos: t.Pos, Value: substituteSymbols(t.Value, renames)}
	case *ASTCond:
		return &ASTCond{Pos: t.Pos, Cond: substituteSymbols(t.Cond, renames),
			Then: substituteSymbols(t.Then, renames), Else: substituteSymbols(t.Else, renames)}
	case *ASTCall:
		args := make([]ASTNode, len(t.Args))
		for i, arg := range t.Args {
			args[i] = substituteSymbols(arg, renames)
		}
		keywords := make([]KeywordArg, len(t.Keywords))
		for i, kw := range t.Keywords {
			keywords[i] = KeywordArg{Name: kw.Name, Expr: substituteSymbols(kw.Expr, renames)}
		}
		if len(keywords) == 0 {
			keywords = nil
		}
		return &ASTCall{Pos: t.Pos, Function: substituteSymbols(t.Function, renames), Args: args, Keywords: keywords}
	case *ASTSubscript:
		return &ASTSubscript{Pos: t.Pos, Base: substituteSymbols(t.Base, renames),
			Index: substituteSymbols(t.Index, renames), Column: t.Column}
	case *ASTSample:
		return &ASTSample{Pos: t.Pos, Dist: substituteSymbols(t.Dist, renames),
			Size: substituteSymbols(t.Size, renames)}
	case *ASTObserve:
		return &ASTObserve{Pos: t.Pos, Dist: substituteSymbols(t.Dist, renames),
			Value: substituteSymbols(t.Value, renames)}
	case *ASTDist:
		args := make([]ASTNode, len(t.Args))
		for i, arg := range t.Args {
			args[i] = substituteSymbols(arg, renames)
		}
		return &ASTDist{Pos: t.Pos, Family: t.Family, Args: args}
	case *ASTBinary:
		return &ASTBinary{Pos: t.Pos, Op: t.Op, LHS: substituteSymbols(t.LHS, renames),
			RHS: substituteSymbols(t.RHS, renames)}
	case *ASTUnary:
		return &ASTUnary{Pos: t.Pos, Op: t.Op, Operand: substituteSymbols(t.Operand, renames)}
	}
	return n
}
