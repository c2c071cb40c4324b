package ppl

// The algebraic simplifier rewrites the straight-line program to fixpoint:
// it folds constants, propagates pure defs into their use sites, reduces
// conditionals with literal tests, resolves static subscripts and lengths,
// and splits vectorized observations into per-element observation defs.

import (
	"strconv"

	"github.com/Tobias-Kohn/PyPPLCompiler/symbol"
)

const maxSimplifyRounds = 1000

type simplifier struct {
	ti      *typeInferencer
	env     map[symbol.ID]ASTNode
	changed bool
}

func simplify(root ASTNode) ASTNode {
	for round := 0; ; round++ {
		if round >= maxSimplifyRounds {
			Panicf(root, InternalError, "simplifier did not reach a fixpoint")
		}
		s := &simplifier{ti: newTypeInferencer(), env: map[symbol.ID]ASTNode{}}
		root = s.visit(root)
		root = s.dropDeadDefs(root)
		if !s.changed {
			return root
		}
	}
}

func (s *simplifier) visit(n ASTNode) ASTNode {
	switch t := n.(type) {
	case nil, *ASTLiteral, *ASTValueVector, *ASTFunction:
		return n
	case *ASTSymbol:
		if repl, ok := s.env[t.Name]; ok {
			s.changed = true
			return repl
		}
		return n
	case *ASTVector:
		items := make([]ASTNode, len(t.Items))
		for i, item := range t.Items {
			items[i] = s.visit(item)
		}
		folded := foldVector(&ASTVector{Pos: t.Pos, Items: items})
		if _, ok := folded.(*ASTValueVector); ok {
			s.changed = true
		}
		return folded
	case *ASTDef:
		return s.visitDef(t)
	case *ASTBody:
		return s.visitBody(t)
	case *ASTReturn:
		if t.Value == nil {
			return t
		}
		return &ASTReturn{Pos: t.Pos, Value: s.visit(t.Value)}
	case *ASTCond:
		return s.visitCond(t)
	case *ASTCall:
		return s.visitCall(t)
	case *ASTSubscript:
		return s.visitSubscript(t)
	case *ASTSample:
		var size ASTNode
		if t.Size != nil {
			size = s.visit(t.Size)
		}
		return &ASTSample{Pos: t.Pos, Dist: s.visit(t.Dist), Size: size}
	case *ASTObserve:
		return &ASTObserve{Pos: t.Pos, Dist: s.visit(t.Dist), Value: s.visit(t.Value)}
	case *ASTDist:
		args := make([]ASTNode, len(t.Args))
		for i, arg := range t.Args {
			args[i] = s.visit(arg)
		}
		return &ASTDist{Pos: t.Pos, Family: t.Family, Args: args}
	case *ASTBinary:
		return s.visitBinary(t)
	case *ASTUnary:
		operand := s.visit(t.Operand)
		if folded, ok := foldUnary(t.Op, operand); ok {
			s.changed = true
			return makeLiteral(t.Pos, folded)
		}
		return &ASTUnary{Pos: t.Pos, Op: t.Op, Operand: operand}
	case *ASTLet:
		Panicf(n, InternalError, "let survived static assignment")
	}
	Panicf(n, InternalError, "simplifier: unknown node type %T", n)
	return nil
}

func (s *simplifier) visitDef(n *ASTDef) ASTNode {
	value := s.visit(n.Value)
	s.ti.env.define(n.Name, s.ti.infer(value))
	if isPureExpr(value) {
		s.env[n.Name] = value
	}
	return &ASTDef{Pos: n.Pos, Name: n.Name, Value: value, Global: n.Global}
}

func (s *simplifier) visitBody(n *ASTBody) ASTNode {
	var items []ASTNode
	for _, item := range n.Items {
		item = s.visit(item)
		if def, ok := item.(*ASTDef); ok {
			if split := s.splitVectorObserve(def); split != nil {
				items = append(items, split...)
				continue
			}
		}
		items = append(items, item)
	}
	return makeBody(n.Pos, items)
}

func (s *simplifier) visitCond(n *ASTCond) ASTNode {
	cond := s.visit(n.Cond)
	if v, ok := literalValue(cond); ok {
		s.changed = true
		if v.AsBool() {
			return s.visit(n.Then)
		}
		if n.Else == nil {
			return &ASTLiteral{Pos: n.Pos, Val: Null}
		}
		return s.visit(n.Else)
	}
	then := s.visit(n.Then)
	var els ASTNode
	if n.Else != nil {
		els = s.visit(n.Else)
	}
	return &ASTCond{Pos: n.Pos, Cond: cond, Then: then, Else: els}
}

func (s *simplifier) visitCall(n *ASTCall) ASTNode {
	args := make([]ASTNode, len(n.Args))
	for i, arg := range n.Args {
		args[i] = s.visit(arg)
	}
	if sym, ok := n.Function.(*ASTSymbol); ok && len(args) == 1 {
		switch sym.Name {
		case symbol.Len:
			if size := s.sequenceSize(args[0]); size >= 0 {
				s.changed = true
				return &ASTLiteral{Pos: n.Pos, Val: NewInt(int64(size))}
			}
		case symbol.Zeros, symbol.Ones:
			if v, ok := literalValue(args[0]); ok && v.Kind == IntValue {
				fill := NewFloat(0)
				if sym.Name == symbol.Ones {
					fill = NewFloat(1)
				}
				elems := make([]Value, v.Int)
				for i := range elems {
					elems[i] = fill
				}
				s.changed = true
				return &ASTValueVector{Pos: n.Pos, Values: elems}
			}
		case symbol.Range:
			if v, ok := literalValue(args[0]); ok && v.Kind == IntValue {
				elems := make([]Value, v.Int)
				for i := range elems {
					elems[i] = NewInt(int64(i))
				}
				s.changed = true
				return &ASTValueVector{Pos: n.Pos, Values: elems}
			}
		}
	}
	keywords := make([]KeywordArg, len(n.Keywords))
	for i, kw := range n.Keywords {
		keywords[i] = KeywordArg{Name: kw.Name, Expr: s.visit(kw.Expr)}
	}
	if len(keywords) == 0 {
		keywords = nil
	}
	return &ASTCall{Pos: n.Pos, Function: n.Function, Args: args, Keywords: keywords}
}

func (s *simplifier) sequenceSize(n ASTNode) int {
	if l := staticVectorLen(n); l >= 0 {
		return l
	}
	if t := s.ti.infer(n); t.Kind == SequenceType {
		return t.Size
	}
	return -1
}

func (s *simplifier) visitSubscript(n *ASTSubscript) ASTNode {
	base := s.visit(n.Base)
	index := s.visit(n.Index)
	iv, indexLit := literalValue(index)
	if indexLit && iv.Kind != IntValue {
		indexLit = false
	}

	if n.Column {
		// m[:,k] extracts element k of every row of a literal matrix.
		if bv, ok := literalValue(base); ok && indexLit && bv.Kind == VectorValue {
			elems := make([]Value, len(bv.Elems))
			for i, row := range bv.Elems {
				if row.Kind != VectorValue || int(iv.Int) >= len(row.Elems) {
					Panicf(n, StaticError, "column index %d out of range", iv.Int)
				}
				elems[i] = row.Elems[iv.Int]
			}
			s.changed = true
			return &ASTValueVector{Pos: n.Pos, Values: elems}
		}
		return &ASTSubscript{Pos: n.Pos, Base: base, Index: index, Column: true}
	}

	if indexLit {
		if l := staticVectorLen(base); l >= 0 {
			i := int(iv.Int)
			if i < 0 {
				i += l
			}
			if i < 0 || i >= l {
				Panicf(n, StaticError, "index %d out of range for vector of length %d", iv.Int, l)
			}
			s.changed = true
			return vectorItem(base, i)
		}
		// Distribute the subscript over element-wise operations so that
		// vector arithmetic involving random variables reduces per element.
		switch b := base.(type) {
		case *ASTBinary:
			if !isComparisonOp(b.Op) {
				lhs := s.subscriptOperand(b.LHS, index)
				rhs := s.subscriptOperand(b.RHS, index)
				if lhs != nil && rhs != nil {
					s.changed = true
					return s.visit(&ASTBinary{Pos: b.Pos, Op: b.Op, LHS: lhs, RHS: rhs})
				}
			}
		case *ASTUnary:
			if operand := s.subscriptOperand(b.Operand, index); operand != nil {
				s.changed = true
				return s.visit(&ASTUnary{Pos: b.Pos, Op: b.Op, Operand: operand})
			}
		case *ASTCond:
			if b.Else != nil {
				then := s.subscriptOperand(b.Then, index)
				els := s.subscriptOperand(b.Else, index)
				if then != nil && els != nil {
					s.changed = true
					return s.visit(&ASTCond{Pos: b.Pos, Cond: b.Cond, Then: then, Else: els})
				}
			}
		}
	}
	return &ASTSubscript{Pos: n.Pos, Base: base, Index: index, Column: n.Column}
}

// subscriptOperand pushes a subscript into one operand of an element-wise
// operation: sequences are subscripted, scalars pass through. It returns nil
// when the operand's shape is unknown.
func (s *simplifier) subscriptOperand(operand ASTNode, index ASTNode) ASTNode {
	t := s.ti.infer(operand)
	switch {
	case t.Kind == SequenceType:
		return &ASTSubscript{Pos: operand.pos(), Base: operand, Index: index}
	case t.IsScalarNumeric() || t.Kind == BoolType:
		return operand
	}
	return nil
}

func (s *simplifier) visitBinary(n *ASTBinary) ASTNode {
	lhs := s.visit(n.LHS)
	rhs := s.visit(n.RHS)
	if folded, ok := foldBinary(n.Op, lhs, rhs); ok {
		s.changed = true
		return makeLiteral(n.Pos, folded)
	}
	if reduced := reduceIdentity(n.Op, lhs, rhs); reduced != nil {
		s.changed = true
		return reduced
	}
	return &ASTBinary{Pos: n.Pos, Op: n.Op, LHS: lhs, RHS: rhs}
}

func isComparisonOp(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=", "and", "or":
		return true
	}
	return false
}

// reduceIdentity rewrites the usual arithmetic identities: x+0, x-0, 0+x,
// x*1, 1*x, x*0, 0*x, x/1, x**1.
func reduceIdentity(op string, lhs, rhs ASTNode) ASTNode {
	lv, lok := literalValue(lhs)
	rv, rok := literalValue(rhs)
	isZero := func(v Value) bool { return v.IsNumeric() && v.AsFloat() == 0 }
	isOne := func(v Value) bool { return v.IsNumeric() && v.AsFloat() == 1 }
	switch op {
	case "+":
		if lok && isZero(lv) {
			return rhs
		}
		if rok && isZero(rv) {
			return lhs
		}
	case "-":
		if rok && isZero(rv) {
			return lhs
		}
	case "*":
		if lok && isOne(lv) {
			return rhs
		}
		if rok && isOne(rv) {
			return lhs
		}
		if lok && isZero(lv) {
			return lhs
		}
		if rok && isZero(rv) {
			return rhs
		}
	case "/", "**":
		if rok && isOne(rv) {
			return lhs
		}
	}
	return nil
}

// splitVectorObserve splits an observation of a statically known vector into
// one observation def per element, provided every distribution argument is a
// scalar or a sequence of the same length. The original name is rebound to
// the vector of the element observations. Families parameterized by a
// vector (categorical and friends) are never split.
func (s *simplifier) splitVectorObserve(def *ASTDef) []ASTNode {
	obs, ok := def.Value.(*ASTObserve)
	if !ok {
		return nil
	}
	dist, ok := obs.Dist.(*ASTDist)
	if !ok || dist.Family.VectorParams {
		return nil
	}
	values, ok := literalValue(obs.Value)
	if !ok || values.Kind != VectorValue || len(values.Elems) == 0 {
		return nil
	}
	n := len(values.Elems)
	anySeq := false
	for _, arg := range dist.Args {
		t := s.ti.infer(arg)
		switch {
		case t.Kind == SequenceType && t.Size == n:
			anySeq = true
		case t.IsScalarNumeric():
		default:
			return nil
		}
	}
	if !anySeq {
		return nil
	}
	s.changed = true
	out := make([]ASTNode, n, n+1)
	refs := make([]ASTNode, n)
	for i := 0; i < n; i++ {
		index := &ASTLiteral{Pos: obs.Pos, Val: NewInt(int64(i))}
		args := make([]ASTNode, len(dist.Args))
		for j, arg := range dist.Args {
			if t := s.ti.infer(arg); t.Kind == SequenceType {
				args[j] = s.visit(&ASTSubscript{Pos: arg.pos(), Base: arg, Index: index})
			} else {
				args[j] = arg
			}
		}
		name := symbol.Intern(def.Name.Str() + "_" + strconv.Itoa(i+1))
		refs[i] = &ASTSymbol{Pos: def.Pos, Name: name}
		out[i] = &ASTDef{Pos: def.Pos, Name: name, Value: &ASTObserve{
			Pos:   obs.Pos,
			Dist:  &ASTDist{Pos: dist.Pos, Family: dist.Family, Args: args},
			Value: makeLiteral(obs.Pos, values.Elems[i]),
		}}
	}
	// The original name stays bound, to the vector of the per-element
	// observations, so that later reads of it still resolve.
	return append(out, &ASTDef{Pos: def.Pos, Name: def.Name, Value: &ASTVector{Pos: def.Pos, Items: refs}})
}

// dropDeadDefs removes pure defs whose names are never read. Random-variable
// defs are kept unconditionally.
func (s *simplifier) dropDeadDefs(root ASTNode) ASTNode {
	body, ok := root.(*ASTBody)
	if !ok {
		return root
	}
	used := map[symbol.ID]bool{}
	walkAST(root, func(n ASTNode) bool {
		switch t := n.(type) {
		case *ASTSymbol:
			used[t.Name] = true
		case *ASTDef:
			freeSymbols(t.Value, used)
			return false
		}
		return true
	})
	var items []ASTNode
	for i, item := range body.Items {
		if def, ok := item.(*ASTDef); ok && i < len(body.Items)-1 {
			if !used[def.Name] && isPureExpr(def.Value) {
				s.changed = true
				continue
			}
		}
		items = append(items, item)
	}
	return makeBody(body.Pos, items)
}
