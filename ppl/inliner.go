package ppl

// The function inliner eliminates user-defined functions by substituting
// their bodies with hygienically renamed locals, and statically expands map
// and zip over vectors of known size. After one full pass no function node
// remains reachable from a call.

import (
	"fmt"

	"github.com/Tobias-Kohn/PyPPLCompiler/symbol"
)

type inliner struct {
	scope       *scopeStack
	ti          *typeInferencer
	callCounter int
	letCounter  int
}

func newInliner() *inliner {
	return &inliner{scope: newScopeStack(), ti: newTypeInferencer()}
}

func (in *inliner) visit(n ASTNode) ASTNode {
	switch t := n.(type) {
	case nil, *ASTLiteral, *ASTValueVector, *ASTFunction:
		// Function bodies are visited at their call sites, under the scope
		// created for the call.
		return n
	case *ASTSymbol:
		if resolved, ok := in.scope.resolve(t.Name); ok {
			if sym, ok := resolved.(*ASTSymbol); ok {
				return sym
			}
		}
		return n
	case *ASTVector:
		items := make([]ASTNode, len(t.Items))
		for i, item := range t.Items {
			items[i] = in.visit(item)
		}
		return &ASTVector{Pos: t.Pos, Items: items}
	case *ASTDef:
		return in.visitDef(t)
	case *ASTLet:
		return in.visitLet(t)
	case *ASTBody:
		items := make([]ASTNode, len(t.Items))
		for i, item := range t.Items {
			items[i] = in.visit(item)
		}
		return makeBody(t.Pos, items)
	case *ASTReturn:
		if t.Value == nil {
			return t
		}
		return &ASTReturn{Pos: t.Pos, Value: in.visit(t.Value)}
	case *ASTCond:
		cond := in.visit(t.Cond)
		then := in.visit(t.Then)
		var els ASTNode
		if t.Else != nil {
			els = in.visit(t.Else)
		}
		return &ASTCond{Pos: t.Pos, Cond: cond, Then: then, Else: els}
	case *ASTCall:
		return in.visitCall(t)
	case *ASTSubscript:
		return &ASTSubscript{Pos: t.Pos, Base: in.visit(t.Base), Index: in.visit(t.Index), Column: t.Column}
	case *ASTSample:
		var size ASTNode
		if t.Size != nil {
			size = in.visit(t.Size)
		}
		return &ASTSample{Pos: t.Pos, Dist: in.visit(t.Dist), Size: size}
	case *ASTObserve:
		return &ASTObserve{Pos: t.Pos, Dist: in.visit(t.Dist), Value: in.visit(t.Value)}
	case *ASTDist:
		args := make([]ASTNode, len(t.Args))
		for i, arg := range t.Args {
			args[i] = in.visit(arg)
		}
		return &ASTDist{Pos: t.Pos, Family: t.Family, Args: args}
	case *ASTBinary:
		return &ASTBinary{Pos: t.Pos, Op: t.Op, LHS: in.visit(t.LHS), RHS: in.visit(t.RHS)}
	case *ASTUnary:
		return &ASTUnary{Pos: t.Pos, Op: t.Op, Operand: in.visit(t.Operand)}
	}
	Panicf(n, InternalError, "inliner: unknown node type %T", n)
	return nil
}

// resolveFunction finds the user function a call refers to, if any.
func (in *inliner) resolveFunction(fn ASTNode) *ASTFunction {
	switch t := fn.(type) {
	case *ASTFunction:
		return t
	case *ASTSymbol:
		if resolved, ok := in.scope.resolve(t.Name); ok {
			if f, ok := resolved.(*ASTFunction); ok {
				return f
			}
		}
	}
	return nil
}

func (in *inliner) visitCall(n *ASTCall) ASTNode {
	if f := in.resolveFunction(n.Function); f != nil {
		return in.inlineCall(n, f)
	}
	if sym, ok := n.Function.(*ASTSymbol); ok {
		switch sym.Name {
		case symbol.Map:
			return in.visitCallMap(n)
		case symbol.Zip:
			return in.visitCallZip(n)
		}
	}
	args := make([]ASTNode, len(n.Args))
	for i, arg := range n.Args {
		args[i] = in.visit(arg)
	}
	keywords := make([]KeywordArg, len(n.Keywords))
	for i, kw := range n.Keywords {
		keywords[i] = KeywordArg{Name: kw.Name, Expr: in.visit(kw.Expr)}
	}
	if len(keywords) == 0 {
		keywords = nil
	}
	return &ASTCall{Pos: n.Pos, Function: in.visit(n.Function), Args: args, Keywords: keywords}
}

// inlineCall substitutes the callee's body at the call site. Arguments that
// are not already symbols are bound to renamed temporaries in a prelude; the
// parameters are then rebound in a fresh scope whose suffix makes every name
// introduced by the body unique to this call.
func (in *inliner) inlineCall(n *ASTCall, f *ASTFunction) ASTNode {
	args := make([]ASTNode, len(n.Args))
	for i, arg := range n.Args {
		args[i] = in.visit(arg)
	}
	params := f.Params
	if f.Vararg != symbol.Invalid {
		params = append(append([]symbol.ID{}, f.Params...), f.Vararg)
	}
	ordered := in.orderArguments(n, f, args)

	in.callCounter++
	suffix := fmt.Sprintf("__C%d", in.callCounter)

	var prelude []ASTNode
	for i, p := range params {
		a := ordered[i]
		_, isSym := a.(*ASTSymbol)
		switch {
		case p != symbol.Wildcard && !isSym:
			prelude = append(prelude, &ASTDef{Pos: a.pos(), Name: symbol.Intern(p.Str() + suffix), Value: a})
		case p == symbol.Wildcard && !isSym:
			prelude = append(prelude, a)
		}
	}

	in.scope.push(suffix)
	for i, p := range params {
		if p == symbol.Wildcard {
			continue
		}
		if sym, ok := ordered[i].(*ASTSymbol); ok {
			in.scope.define(p, sym)
		} else {
			in.scope.define(p, &ASTSymbol{Pos: n.Pos, Name: symbol.Intern(p.Str() + suffix)})
		}
	}
	result := in.visit(f.Body)
	in.scope.pop()

	switch t := result.(type) {
	case *ASTReturn:
		return makeBody(n.Pos, prelude, []ASTNode{t.Value})
	case *ASTBody:
		if t.lastIsReturn() {
			ret := t.Items[len(t.Items)-1].(*ASTReturn)
			return makeBody(n.Pos, prelude, t.Items[:len(t.Items)-1], []ASTNode{ret.Value})
		}
	}
	// The body did not end in a return; fall back to the generic visit.
	return in.visitGenericCall(n)
}

// orderArguments aligns actual arguments with the callee's parameter list:
// keywords are reordered to positional, defaults fill the gaps, extra
// positional arguments are packed into the vararg.
func (in *inliner) orderArguments(n *ASTCall, f *ASTFunction, args []ASTNode) []ASTNode {
	nParams := len(f.Params)
	ordered := make([]ASTNode, nParams)
	if len(args) > nParams && f.Vararg == symbol.Invalid {
		Panicf(n, ArityError, "too many arguments: %d given, %d expected", len(args), nParams)
	}
	for i := 0; i < len(args) && i < nParams; i++ {
		ordered[i] = args[i]
	}
	for _, kw := range n.Keywords {
		idx := -1
		for i, p := range f.Params {
			if p == kw.Name {
				idx = i
				break
			}
		}
		if idx < 0 {
			Panicf(n, ArityError, "unknown keyword argument '%s'", kw.Name.Str())
		}
		if ordered[idx] != nil {
			Panicf(n, ArityError, "argument '%s' given twice", kw.Name.Str())
		}
		ordered[idx] = in.visit(kw.Expr)
	}
	for i, p := range f.Params {
		if ordered[i] != nil {
			continue
		}
		filled := false
		for _, d := range f.Defaults {
			if d.Name == p {
				ordered[i] = d.Expr
				filled = true
				break
			}
		}
		if !filled {
			Panicf(n, ArityError, "missing argument '%s'", p.Str())
		}
	}
	if f.Vararg != symbol.Invalid {
		var rest []ASTNode
		if len(args) > nParams {
			rest = args[nParams:]
		}
		ordered = append(ordered, &ASTVector{Pos: n.Pos, Items: rest})
	}
	return ordered
}

// staticVector resolves a node to a vector of statically known contents,
// following one level of global binding.
func (in *inliner) staticVector(n ASTNode) ASTNode {
	switch t := n.(type) {
	case *ASTVector, *ASTValueVector:
		return n
	case *ASTSymbol:
		if resolved, ok := in.scope.resolve(t.Name); ok {
			switch resolved.(type) {
			case *ASTVector, *ASTValueVector:
				return resolved
			}
		}
	}
	return nil
}

// visitCallMap expands map(f, v1, ..., vk) over statically known vectors
// into a vector of calls, one per index up to the shortest vector. A map
// over a callee that observes is not expanded (its expansion would multiply
// the observation).
func (in *inliner) visitCallMap(n *ASTCall) ASTNode {
	if n.ArgCount() <= 1 {
		return &ASTVector{Pos: n.Pos}
	}
	fn, isSym := n.Args[0].(*ASTSymbol)
	if isSym {
		if f := in.resolveFunction(fn); f != nil && containsObserve(f.Body) {
			Debugf(n, "map not expanded: callee observes")
			isSym = false
		}
	}
	seqArgs := make([]ASTNode, len(n.Args)-1)
	length := -1
	for i, arg := range n.Args[1:] {
		v := in.staticVector(in.visit(arg))
		if v == nil {
			isSym = false
			break
		}
		seqArgs[i] = v
		if l := staticVectorLen(v); length < 0 || l < length {
			length = l
		}
	}
	if isSym {
		items := make([]ASTNode, length)
		for i := 0; i < length; i++ {
			callArgs := make([]ASTNode, len(seqArgs))
			for j, seq := range seqArgs {
				callArgs[j] = vectorItem(seq, i)
			}
			items[i] = &ASTCall{Pos: n.Pos, Function: fn, Args: callArgs}
		}
		return in.visit(&ASTVector{Pos: n.Pos, Items: items})
	}
	return in.visitGenericCall(n)
}

// visitCallZip expands zip(v1, ..., vk) into a vector of index tuples. When
// the arguments are not literal vectors the expansion falls back to type
// inference: sequences of known size are expanded with subscripts.
func (in *inliner) visitCallZip(n *ASTCall) ASTNode {
	if n.ArgCount() == 0 {
		return &ASTVector{Pos: n.Pos}
	}
	args := make([]ASTNode, len(n.Args))
	length := -1
	allStatic := true
	for i, arg := range n.Args {
		args[i] = in.visit(arg)
		if v := in.staticVector(args[i]); v != nil {
			args[i] = v
			if l := staticVectorLen(v); length < 0 || l < length {
				length = l
			}
		} else {
			allStatic = false
		}
	}
	if allStatic {
		items := make([]ASTNode, length)
		for i := 0; i < length; i++ {
			tuple := make([]ASTNode, len(args))
			for j, seq := range args {
				tuple[j] = vectorItem(seq, i)
			}
			items[i] = &ASTVector{Pos: n.Pos, Items: tuple}
		}
		return in.visit(&ASTVector{Pos: n.Pos, Items: items})
	}
	length = -1
	for _, arg := range args {
		t := in.ti.infer(arg)
		if t.Kind != SequenceType || t.Size < 0 {
			return in.visitGenericCall(n)
		}
		if length < 0 || t.Size < length {
			length = t.Size
		}
	}
	items := make([]ASTNode, length)
	for i := 0; i < length; i++ {
		tuple := make([]ASTNode, len(args))
		for j, arg := range args {
			tuple[j] = &ASTSubscript{Pos: n.Pos, Base: arg, Index: &ASTLiteral{Pos: n.Pos, Val: NewInt(int64(i))}}
		}
		items[i] = &ASTVector{Pos: n.Pos, Items: tuple}
	}
	return in.visit(&ASTVector{Pos: n.Pos, Items: items})
}

func (in *inliner) visitGenericCall(n *ASTCall) ASTNode {
	args := make([]ASTNode, len(n.Args))
	for i, arg := range n.Args {
		args[i] = in.visit(arg)
	}
	return &ASTCall{Pos: n.Pos, Function: n.Function, Args: args, Keywords: n.Keywords}
}

func (in *inliner) visitDef(n *ASTDef) ASTNode {
	if f, ok := n.Value.(*ASTFunction); ok {
		if n.Global || in.scope.atGlobal() {
			in.scope.defineGlobal(n.Name, f)
		} else {
			in.scope.define(n.Name, f)
		}
		return n
	}
	if !n.Global && !in.scope.atGlobal() {
		if suffix := in.scope.suffix(); suffix != "" {
			value := in.visit(n.Value)
			renamed := symbol.Intern(n.Name.Str() + suffix)
			in.scope.define(n.Name, &ASTSymbol{Pos: n.Pos, Name: renamed})
			return &ASTDef{Pos: n.Pos, Name: renamed, Value: value}
		}
	}
	value := in.visit(n.Value)
	switch value.(type) {
	case *ASTLiteral, *ASTValueVector, *ASTVector:
		in.scope.defineGlobal(n.Name, value)
		in.ti.env.define(n.Name, in.ti.infer(value))
	}
	return &ASTDef{Pos: n.Pos, Name: n.Name, Value: value, Global: n.Global}
}

func (in *inliner) visitLet(n *ASTLet) ASTNode {
	in.letCounter++
	if n.Target == symbol.Wildcard {
		return makeBody(n.Pos, []ASTNode{in.visit(n.Source), in.visit(n.Body)})
	}
	base := in.scope.suffix()
	if base == "" {
		base = "__"
	}
	suffix := fmt.Sprintf("%sL%d", base, in.letCounter)
	source := in.visit(n.Source)
	renamed := symbol.Intern(n.Target.Str() + suffix)
	in.scope.push(suffix)
	in.scope.define(n.Target, &ASTSymbol{Pos: n.Pos, Name: renamed})
	body := in.visit(n.Body)
	in.scope.pop()
	return &ASTLet{Pos: n.Pos, Target: renamed, Source: source, Body: body}
}
