package ppl

// Tree-walking utilities shared by the passes.

import (
	"github.com/Tobias-Kohn/PyPPLCompiler/symbol"
)

// astChildren lists the direct children of the given node in the fixed
// visitation order (depth-first, left-to-right over child slots).
func astChildren(root ASTNode) (c []ASTNode) {
	switch n := root.(type) {
	case *ASTLiteral, *ASTValueVector, *ASTSymbol, nil:
	case *ASTVector:
		c = append(c, n.Items...)
	case *ASTDef:
		c = append(c, n.Value)
	case *ASTLet:
		c = append(c, n.Source, n.Body)
	case *ASTBody:
		c = append(c, n.Items...)
	case *ASTReturn:
		if n.Value != nil {
			c = append(c, n.Value)
		}
	case *ASTCond:
		c = append(c, n.Cond, n.Then)
		if n.Else != nil {
			c = append(c, n.Else)
		}
	case *ASTCall:
		c = append(c, n.Function)
		c = append(c, n.Args...)
		for _, kw := range n.Keywords {
			c = append(c, kw.Expr)
		}
	case *ASTFunction:
		c = append(c, n.Body)
	case *ASTSubscript:
		c = append(c, n.Base, n.Index)
	case *ASTSample:
		c = append(c, n.Dist)
		if n.Size != nil {
			c = append(c, n.Size)
		}
	case *ASTObserve:
		c = append(c, n.Dist, n.Value)
	case *ASTDist:
		c = append(c, n.Args...)
	case *ASTBinary:
		c = append(c, n.LHS, n.RHS)
	case *ASTUnary:
		c = append(c, n.Operand)
	default:
		Panicf(root, InternalError, "unknown node type %T", root)
	}
	return
}

// walkAST invokes cb on root and, if cb returns true, on every descendant.
func walkAST(root ASTNode, cb func(n ASTNode) bool) {
	if root == nil || !cb(root) {
		return
	}
	for _, child := range astChildren(root) {
		walkAST(child, cb)
	}
}

// freeSymbols collects the names referenced by the expression. Def targets
// and function parameters do not count as references.
func freeSymbols(root ASTNode, out map[symbol.ID]bool) {
	walkAST(root, func(n ASTNode) bool {
		switch t := n.(type) {
		case *ASTSymbol:
			out[t.Name] = true
		case *ASTFunction:
			inner := map[symbol.ID]bool{}
			freeSymbols(t.Body, inner)
			for _, p := range t.Params {
				delete(inner, p)
			}
			if t.Vararg != symbol.Invalid {
				delete(inner, t.Vararg)
			}
			for name := range inner {
				out[name] = true
			}
			return false
		}
		return true
	})
}

// referencesSymbol reports whether the expression mentions the given name.
func referencesSymbol(root ASTNode, name symbol.ID) bool {
	found := false
	walkAST(root, func(n ASTNode) bool {
		if t, ok := n.(*ASTSymbol); ok && t.Name == name {
			found = true
		}
		return !found
	})
	return found
}

// isPureExpr reports whether the node is free of sampling, observation and
// binding effects, so it can be duplicated or moved.
func isPureExpr(root ASTNode) bool {
	pure := true
	walkAST(root, func(n ASTNode) bool {
		switch n.(type) {
		case *ASTSample, *ASTObserve, *ASTDef, *ASTLet, *ASTBody, *ASTReturn:
			pure = false
		}
		return pure
	})
	return pure
}

// containsObserve reports whether any observe statement occurs under root.
func containsObserve(root ASTNode) bool {
	found := false
	walkAST(root, func(n ASTNode) bool {
		if _, ok := n.(*ASTObserve); ok {
			found = true
		}
		return !found
	})
	return found
}

// astEqual reports structural equality of two trees. Positions are ignored.
func astEqual(a, b ASTNode) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch ta := a.(type) {
	case *ASTLiteral:
		tb, ok := b.(*ASTLiteral)
		return ok && ta.Val.Equal(tb.Val)
	case *ASTValueVector:
		tb, ok := b.(*ASTValueVector)
		return ok && NewVector(ta.Values).Equal(NewVector(tb.Values))
	case *ASTSymbol:
		tb, ok := b.(*ASTSymbol)
		return ok && ta.Name == tb.Name
	case *ASTDef:
		tb, ok := b.(*ASTDef)
		return ok && ta.Name == tb.Name && astEqual(ta.Value, tb.Value)
	case *ASTBinary:
		tb, ok := b.(*ASTBinary)
		return ok && ta.Op == tb.Op && astEqual(ta.LHS, tb.LHS) && astEqual(ta.RHS, tb.RHS)
	case *ASTUnary:
		tb, ok := b.(*ASTUnary)
		return ok && ta.Op == tb.Op && astEqual(ta.Operand, tb.Operand)
	case *ASTDist:
		tb, ok := b.(*ASTDist)
		if !ok || ta.Family != tb.Family || len(ta.Args) != len(tb.Args) {
			return false
		}
		for i := range ta.Args {
			if !astEqual(ta.Args[i], tb.Args[i]) {
				return false
			}
		}
		return true
	}
	// The remaining kinds compare by rendering; they occur rarely in
	// equality checks.
	return a.String() == b.String()
}
