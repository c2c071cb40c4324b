package ppl

// The raw simplifier canonicalizes the parser output: it resolves symbols
// against the namespace, tags distribution constructors and the sample and
// observe primitives, folds literal arithmetic and flattens trivial
// constructs. It runs directly after parsing and once more after inlining.

import (
	"github.com/Tobias-Kohn/PyPPLCompiler/symbol"
)

type rawSimplifier struct {
	ns *Namespace
}

func newRawSimplifier(ns *Namespace) *rawSimplifier {
	return &rawSimplifier{ns: ns}
}

func (rs *rawSimplifier) visit(n ASTNode) ASTNode {
	switch t := n.(type) {
	case nil, *ASTLiteral, *ASTValueVector:
		return n
	case *ASTSymbol:
		if target, ok := rs.ns.Resolve(t.Name.Str()); ok && target != t.Name.Str() {
			return &ASTSymbol{Pos: t.Pos, Name: symbol.Intern(target)}
		}
		return n
	case *ASTVector:
		items := make([]ASTNode, len(t.Items))
		for i, item := range t.Items {
			items[i] = rs.visit(item)
		}
		return foldVector(&ASTVector{Pos: t.Pos, Items: items})
	case *ASTDef:
		return &ASTDef{Pos: t.Pos, Name: t.Name, Value: rs.visit(t.Value), Global: t.Global}
	case *ASTLet:
		source := rs.visit(t.Source)
		body := rs.visit(t.Body)
		if t.Target == symbol.Wildcard {
			return makeBody(t.Pos, []ASTNode{source, body})
		}
		return &ASTLet{Pos: t.Pos, Target: t.Target, Source: source, Body: body}
	case *ASTBody:
		items := make([]ASTNode, len(t.Items))
		for i, item := range t.Items {
			items[i] = rs.visit(item)
		}
		return makeBody(t.Pos, items)
	case *ASTReturn:
		if t.Value == nil {
			return t
		}
		return &ASTReturn{Pos: t.Pos, Value: rs.visit(t.Value)}
	case *ASTCond:
		cond := rs.visit(t.Cond)
		then := rs.visit(t.Then)
		var els ASTNode
		if t.Else != nil {
			els = rs.visit(t.Else)
		}
		return &ASTCond{Pos: t.Pos, Cond: cond, Then: then, Else: els}
	case *ASTCall:
		return rs.visitCall(t)
	case *ASTFunction:
		return &ASTFunction{Pos: t.Pos, Name: t.Name, Params: t.Params, Vararg: t.Vararg,
			Defaults: rs.visitKeywords(t.Defaults), Body: rs.visit(t.Body)}
	case *ASTSubscript:
		return &ASTSubscript{Pos: t.Pos, Base: rs.visit(t.Base), Index: rs.visit(t.Index), Column: t.Column}
	case *ASTSample:
		var size ASTNode
		if t.Size != nil {
			size = rs.visit(t.Size)
		}
		return &ASTSample{Pos: t.Pos, Dist: rs.visit(t.Dist), Size: size}
	case *ASTObserve:
		return &ASTObserve{Pos: t.Pos, Dist: rs.visit(t.Dist), Value: rs.visit(t.Value)}
	case *ASTDist:
		args := make([]ASTNode, len(t.Args))
		for i, arg := range t.Args {
			args[i] = rs.visit(arg)
		}
		return &ASTDist{Pos: t.Pos, Family: t.Family, Args: args}
	case *ASTBinary:
		lhs, rhs := rs.visit(t.LHS), rs.visit(t.RHS)
		if folded, ok := foldBinary(t.Op, lhs, rhs); ok {
			return makeLiteral(t.Pos, folded)
		}
		return &ASTBinary{Pos: t.Pos, Op: t.Op, LHS: lhs, RHS: rhs}
	case *ASTUnary:
		operand := rs.visit(t.Operand)
		if folded, ok := foldUnary(t.Op, operand); ok {
			return makeLiteral(t.Pos, folded)
		}
		return &ASTUnary{Pos: t.Pos, Op: t.Op, Operand: operand}
	}
	Panicf(n, InternalError, "raw simplifier: unknown node type %T", n)
	return nil
}

func (rs *rawSimplifier) visitKeywords(kws []KeywordArg) []KeywordArg {
	if len(kws) == 0 {
		return nil
	}
	result := make([]KeywordArg, len(kws))
	for i, kw := range kws {
		result[i] = KeywordArg{Name: kw.Name, Expr: rs.visit(kw.Expr)}
	}
	return result
}

func (rs *rawSimplifier) visitCall(n *ASTCall) ASTNode {
	fn := rs.visit(n.Function)
	args := make([]ASTNode, len(n.Args))
	for i, arg := range n.Args {
		args[i] = rs.visit(arg)
	}
	keywords := rs.visitKeywords(n.Keywords)

	sym, ok := fn.(*ASTSymbol)
	if !ok {
		return &ASTCall{Pos: n.Pos, Function: fn, Args: args, Keywords: keywords}
	}
	switch sym.Name {
	case symbol.Sample:
		if len(args) < 1 || len(args) > 2 {
			Panicf(n, ArityError, "sample expects a distribution and an optional size, got %d arguments", len(args))
		}
		var size ASTNode
		if len(args) == 2 {
			size = args[1]
		}
		for _, kw := range keywords {
			if kw.Name.Str() == "sample_size" || kw.Name.Str() == "size" {
				size = kw.Expr
			} else {
				Panicf(n, ArityError, "sample: unknown keyword argument '%s'", kw.Name.Str())
			}
		}
		return &ASTSample{Pos: n.Pos, Dist: args[0], Size: size}
	case symbol.Observe:
		if len(args) != 2 || len(keywords) != 0 {
			Panicf(n, ArityError, "observe expects a distribution and a value, got %d arguments", len(args)+len(keywords))
		}
		return &ASTObserve{Pos: n.Pos, Dist: args[0], Value: args[1]}
	case symbol.Vector:
		return foldVector(&ASTVector{Pos: n.Pos, Items: args})
	case symbol.Zeros, symbol.Ones:
		if len(args) == 1 {
			if v, ok := literalValue(args[0]); ok && v.Kind == IntValue {
				fill := NewFloat(0)
				if sym.Name == symbol.Ones {
					fill = NewFloat(1)
				}
				elems := make([]Value, v.Int)
				for i := range elems {
					elems[i] = fill
				}
				return &ASTValueVector{Pos: n.Pos, Values: elems}
			}
		}
		return &ASTCall{Pos: n.Pos, Function: fn, Args: args, Keywords: keywords}
	}
	if family, ok := LookupDistFamily(sym.Name.Str()); ok {
		if len(args) < family.Arity {
			Panicf(n, ArityError, "%s expects %d arguments, got %d", family.Name, family.Arity, len(args))
		}
		return &ASTDist{Pos: n.Pos, Family: family, Args: args}
	}
	return &ASTCall{Pos: n.Pos, Function: fn, Args: args, Keywords: keywords}
}

// foldVector converts a vector whose elements are all literals into a value
// vector.
func foldVector(n *ASTVector) ASTNode {
	values := make([]Value, len(n.Items))
	for i, item := range n.Items {
		v, ok := literalValue(item)
		if !ok {
			return n
		}
		values[i] = v
	}
	return &ASTValueVector{Pos: n.Pos, Values: values}
}
