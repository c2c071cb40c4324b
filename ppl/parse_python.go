package ppl

// Recursive-descent parser for the python-like surface syntax. Import lines
// are skipped, bounded for-loops over statically known ranges are unrolled
// into let bindings, and function bodies are normalized to end in a return.

import (
	"text/scanner"

	"github.com/Tobias-Kohn/PyPPLCompiler/symbol"
)

type pyParser struct {
	tokens    []token
	pos       int
	funcDepth int
	loopDepth int
	// valueBindings tracks top-level literal assignments for parse-time
	// evaluation of loop bounds.
	valueBindings map[string]Value
}

// parsePython parses the given source into the shared syntax tree.
func parsePython(filename, source string) ASTNode {
	p := &pyParser{tokens: lexPython(filename, source), valueBindings: map[string]Value{}}
	stmts := p.parseStatements()
	p.expectKind(tokEOF)
	var pos scanner.Position
	if len(p.tokens) > 0 {
		pos = p.tokens[0].pos
	}
	return makeBody(pos, stmts)
}

func (p *pyParser) cur() token  { return p.tokens[p.pos] }
func (p *pyParser) next() token { t := p.tokens[p.pos]; p.pos++; return t }

func (p *pyParser) matchOp(text string) bool {
	if t := p.cur(); t.kind == tokOp && t.text == text {
		p.pos++
		return true
	}
	return false
}

func (p *pyParser) expectOp(text string) {
	if !p.matchOp(text) {
		panicfAt(p.cur().pos, ParseError, "expected '%s', found '%s'", text, p.cur())
	}
}

func (p *pyParser) matchIdent(name string) bool {
	if t := p.cur(); t.kind == tokIdent && t.text == name {
		p.pos++
		return true
	}
	return false
}

func (p *pyParser) expectKind(kind tokenKind) token {
	if p.cur().kind != kind {
		panicfAt(p.cur().pos, ParseError, "unexpected '%s'", p.cur())
	}
	return p.next()
}

func (p *pyParser) atIdent(name string) bool {
	t := p.cur()
	return t.kind == tokIdent && t.text == name
}

// parseStatements parses until a dedent or EOF.
func (p *pyParser) parseStatements() []ASTNode {
	var stmts []ASTNode
	for {
		switch p.cur().kind {
		case tokEOF, tokDedent:
			return stmts
		case tokNewline:
			p.pos++
			continue
		}
		if stmt := p.parseStatement(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
}

func (p *pyParser) parseStatement() ASTNode {
	t := p.cur()
	if t.kind == tokIdent {
		switch t.text {
		case "import", "from":
			p.skipLine()
			return nil
		case "def":
			return p.parseDef()
		case "if":
			return p.parseIf()
		case "for":
			return p.parseFor()
		case "return":
			return p.parseReturn()
		}
	}
	// Assignment or expression statement.
	if t.kind == tokIdent && !pyKeywords[t.text] && p.tokens[p.pos+1].kind == tokOp && p.tokens[p.pos+1].text == "=" {
		p.pos += 2
		value := p.parseExpr()
		p.expectKind(tokNewline)
		global := p.funcDepth == 0 && p.loopDepth == 0
		if global {
			if v, ok := p.staticValue(value); ok {
				p.valueBindings[t.text] = v
			}
		}
		return &ASTDef{Pos: t.pos, Name: symbol.Intern(t.text), Value: value, Global: global}
	}
	expr := p.parseExpr()
	p.expectKind(tokNewline)
	return expr
}

func (p *pyParser) skipLine() {
	for p.cur().kind != tokNewline && p.cur().kind != tokEOF {
		p.pos++
	}
	if p.cur().kind == tokNewline {
		p.pos++
	}
}

// parseBlock parses ':' NEWLINE INDENT statements DEDENT.
func (p *pyParser) parseBlock() ASTNode {
	pos := p.cur().pos
	p.expectOp(":")
	p.expectKind(tokNewline)
	p.expectKind(tokIndent)
	stmts := p.parseStatements()
	p.expectKind(tokDedent)
	if len(stmts) == 0 {
		panicfAt(pos, ParseError, "empty block")
	}
	return makeBody(pos, stmts)
}

func (p *pyParser) parseDef() ASTNode {
	pos := p.next().pos // def
	name := p.expectKind(tokIdent)
	p.expectOp("(")
	var params []symbol.ID
	vararg := symbol.Invalid
	var defaults []KeywordArg
	for !p.matchOp(")") {
		if p.matchOp("*") {
			vararg = symbol.Intern(p.expectKind(tokIdent).text)
		} else {
			param := p.expectKind(tokIdent)
			params = append(params, symbol.Intern(param.text))
			if p.matchOp("=") {
				defaults = append(defaults, KeywordArg{Name: symbol.Intern(param.text), Expr: p.parseExpr()})
			}
		}
		if !p.matchOp(",") && !(p.cur().kind == tokOp && p.cur().text == ")") {
			panicfAt(p.cur().pos, ParseError, "expected ',' or ')' in parameter list")
		}
	}
	p.funcDepth++
	body := p.parseBlock()
	p.funcDepth--
	if b, ok := body.(*ASTBody); !ok || !b.lastIsReturn() {
		if _, isRet := body.(*ASTReturn); !isRet {
			body = makeBody(pos, []ASTNode{body, &ASTReturn{Pos: pos, Value: &ASTLiteral{Pos: pos, Val: Null}}})
		}
	}
	fn := &ASTFunction{Pos: pos, Name: symbol.Intern(name.text), Params: params, Vararg: vararg,
		Defaults: defaults, Body: body}
	return &ASTDef{Pos: pos, Name: fn.Name, Value: fn, Global: p.funcDepth == 0}
}

func (p *pyParser) parseIf() ASTNode {
	pos := p.next().pos // if / elif
	cond := p.parseExpr()
	then := p.parseBlock()
	var els ASTNode
	if p.atIdent("elif") {
		els = p.parseIf()
	} else if p.matchIdent("else") {
		els = p.parseBlock()
	}
	return &ASTCond{Pos: pos, Cond: cond, Then: then, Else: els}
}

// parseFor statically unrolls "for v in range(n)" and "for v in <static
// vector>" into a sequence of let bindings, one per iteration.
func (p *pyParser) parseFor() ASTNode {
	pos := p.next().pos // for
	loopVar := p.expectKind(tokIdent)
	if !p.matchIdent("in") {
		panicfAt(p.cur().pos, ParseError, "expected 'in'")
	}
	iterable := p.parseExpr()
	p.loopDepth++
	body := p.parseBlock()
	p.loopDepth--

	var values []Value
	if call, ok := iterable.(*ASTCall); ok {
		if fn, ok := call.Function.(*ASTSymbol); ok && fn.Name == symbol.Range && len(call.Args) == 1 {
			n := p.evalStaticInt(call.Args[0])
			for i := int64(0); i < n; i++ {
				values = append(values, NewInt(i))
			}
			iterable = nil
		}
	}
	if iterable != nil {
		v, ok := p.staticValue(iterable)
		if !ok || v.Kind != VectorValue {
			panicfAt(pos, StaticError, "for requires a statically known range or vector")
		}
		values = v.Elems
	}
	target := symbol.Intern(loopVar.text)
	items := make([]ASTNode, len(values))
	for i, v := range values {
		items[i] = &ASTLet{Pos: pos, Target: target, Source: makeLiteral(pos, v), Body: body}
	}
	return makeBody(pos, items)
}

func (p *pyParser) parseReturn() ASTNode {
	pos := p.next().pos
	if p.cur().kind == tokNewline {
		p.pos++
		return &ASTReturn{Pos: pos, Value: &ASTLiteral{Pos: pos, Val: Null}}
	}
	value := p.parseExpr()
	p.expectKind(tokNewline)
	return &ASTReturn{Pos: pos, Value: value}
}

// staticValue evaluates an expression at parse time, following top-level
// literal bindings.
func (p *pyParser) staticValue(n ASTNode) (Value, bool) {
	switch t := n.(type) {
	case *ASTLiteral:
		return t.Val, true
	case *ASTValueVector:
		return NewVector(t.Values), true
	case *ASTSymbol:
		v, ok := p.valueBindings[t.Name.Str()]
		return v, ok
	case *ASTVector:
		elems := make([]Value, len(t.Items))
		for i, item := range t.Items {
			v, ok := p.staticValue(item)
			if !ok {
				return Value{}, false
			}
			elems[i] = v
		}
		return NewVector(elems), true
	case *ASTCall:
		if fn, ok := t.Function.(*ASTSymbol); ok && fn.Name == symbol.Len && len(t.Args) == 1 {
			if v, ok := p.staticValue(t.Args[0]); ok && v.Kind == VectorValue {
				return NewInt(int64(len(v.Elems))), true
			}
		}
	case *ASTBinary:
		lhs, lok := p.staticValue(t.LHS)
		rhs, rok := p.staticValue(t.RHS)
		if lok && rok {
			return evalBinary(t.Op, lhs, rhs)
		}
	case *ASTUnary:
		if v, ok := p.staticValue(t.Operand); ok {
			return evalUnary(t.Op, v)
		}
	}
	return Value{}, false
}

func (p *pyParser) evalStaticInt(n ASTNode) int64 {
	v, ok := p.staticValue(n)
	if !ok || v.Kind != IntValue {
		Panicf(n, StaticError, "expression is not a statically known integer")
	}
	return v.Int
}

// Expression parsing, loosest first.

func (p *pyParser) parseExpr() ASTNode {
	expr := p.parseOr()
	if p.atIdent("if") {
		pos := p.next().pos
		cond := p.parseOr()
		if !p.matchIdent("else") {
			panicfAt(p.cur().pos, ParseError, "expected 'else' in conditional expression")
		}
		els := p.parseExpr()
		return &ASTCond{Pos: pos, Cond: cond, Then: expr, Else: els}
	}
	return expr
}

func (p *pyParser) parseOr() ASTNode {
	expr := p.parseAnd()
	for p.matchIdent("or") {
		rhs := p.parseAnd()
		expr = &ASTBinary{Pos: expr.pos(), Op: "or", LHS: expr, RHS: rhs}
	}
	return expr
}

func (p *pyParser) parseAnd() ASTNode {
	expr := p.parseNot()
	for p.matchIdent("and") {
		rhs := p.parseNot()
		expr = &ASTBinary{Pos: expr.pos(), Op: "and", LHS: expr, RHS: rhs}
	}
	return expr
}

func (p *pyParser) parseNot() ASTNode {
	if p.atIdent("not") {
		pos := p.next().pos
		return &ASTUnary{Pos: pos, Op: "not", Operand: p.parseNot()}
	}
	return p.parseComparison()
}

func (p *pyParser) parseComparison() ASTNode {
	expr := p.parseArith()
	if t := p.cur(); t.kind == tokOp {
		switch t.text {
		case "==", "!=", "<", "<=", ">", ">=":
			p.pos++
			rhs := p.parseArith()
			return &ASTBinary{Pos: t.pos, Op: t.text, LHS: expr, RHS: rhs}
		}
	}
	return expr
}

func (p *pyParser) parseArith() ASTNode {
	expr := p.parseTerm()
	for {
		t := p.cur()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return expr
		}
		p.pos++
		rhs := p.parseTerm()
		expr = &ASTBinary{Pos: t.pos, Op: t.text, LHS: expr, RHS: rhs}
	}
}

func (p *pyParser) parseTerm() ASTNode {
	expr := p.parseFactor()
	for {
		t := p.cur()
		if t.kind != tokOp {
			return expr
		}
		switch t.text {
		case "*", "/", "//", "%":
			p.pos++
			rhs := p.parseFactor()
			expr = &ASTBinary{Pos: t.pos, Op: t.text, LHS: expr, RHS: rhs}
		default:
			return expr
		}
	}
}

func (p *pyParser) parseFactor() ASTNode {
	if t := p.cur(); t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.pos++
		return &ASTUnary{Pos: t.pos, Op: t.text, Operand: p.parseFactor()}
	}
	return p.parsePower()
}

func (p *pyParser) parsePower() ASTNode {
	expr := p.parsePostfix()
	if t := p.cur(); t.kind == tokOp && t.text == "**" {
		p.pos++
		rhs := p.parseFactor()
		return &ASTBinary{Pos: t.pos, Op: "**", LHS: expr, RHS: rhs}
	}
	return expr
}

func (p *pyParser) parsePostfix() ASTNode {
	expr := p.parseAtom()
	for {
		t := p.cur()
		if t.kind != tokOp {
			return expr
		}
		switch t.text {
		case "(":
			p.pos++
			expr = p.parseCall(expr, t.pos)
		case "[":
			p.pos++
			expr = p.parseSubscript(expr, t.pos)
		case ".":
			p.pos++
			name := p.expectKind(tokIdent)
			sym, ok := expr.(*ASTSymbol)
			if !ok {
				panicfAt(t.pos, ParseError, "attribute access on a non-name")
			}
			expr = &ASTSymbol{Pos: sym.Pos, Name: symbol.Intern(sym.Name.Str() + "." + name.text)}
		default:
			return expr
		}
	}
}

func (p *pyParser) parseCall(fn ASTNode, pos scanner.Position) ASTNode {
	var args []ASTNode
	var keywords []KeywordArg
	for !p.matchOp(")") {
		if t := p.cur(); t.kind == tokIdent && !pyKeywords[t.text] &&
			p.tokens[p.pos+1].kind == tokOp && p.tokens[p.pos+1].text == "=" {
			p.pos += 2
			keywords = append(keywords, KeywordArg{Name: symbol.Intern(t.text), Expr: p.parseExpr()})
		} else {
			if len(keywords) > 0 {
				panicfAt(t.pos, ParseError, "positional argument after keyword argument")
			}
			args = append(args, p.parseExpr())
		}
		if !p.matchOp(",") && !(p.cur().kind == tokOp && p.cur().text == ")") {
			panicfAt(p.cur().pos, ParseError, "expected ',' or ')' in argument list")
		}
	}
	return &ASTCall{Pos: pos, Function: fn, Args: args, Keywords: keywords}
}

func (p *pyParser) parseSubscript(base ASTNode, pos scanner.Position) ASTNode {
	if p.matchOp(":") {
		p.expectOp(",")
		index := p.parseExpr()
		p.expectOp("]")
		return &ASTSubscript{Pos: pos, Base: base, Index: index, Column: true}
	}
	index := p.parseExpr()
	p.expectOp("]")
	return &ASTSubscript{Pos: pos, Base: base, Index: index}
}

func (p *pyParser) parseAtom() ASTNode {
	t := p.cur()
	switch t.kind {
	case tokNumber, tokString:
		p.pos++
		return &ASTLiteral{Pos: t.pos, Val: t.val}
	case tokIdent:
		switch t.text {
		case "True", "False":
			p.pos++
			return &ASTLiteral{Pos: t.pos, Val: NewBool(t.text == "True")}
		case "None":
			p.pos++
			return &ASTLiteral{Pos: t.pos, Val: Null}
		}
		if pyKeywords[t.text] {
			panicfAt(t.pos, ParseError, "unexpected keyword '%s'", t.text)
		}
		p.pos++
		return &ASTSymbol{Pos: t.pos, Name: symbol.Intern(t.text)}
	case tokOp:
		switch t.text {
		case "(":
			p.pos++
			expr := p.parseExpr()
			if p.matchOp(",") {
				items := []ASTNode{expr}
				for !p.matchOp(")") {
					items = append(items, p.parseExpr())
					if !p.matchOp(",") && !(p.cur().kind == tokOp && p.cur().text == ")") {
						panicfAt(p.cur().pos, ParseError, "expected ',' or ')' in tuple")
					}
				}
				return &ASTVector{Pos: t.pos, Items: items}
			}
			p.expectOp(")")
			return expr
		case "[":
			p.pos++
			var items []ASTNode
			for !p.matchOp("]") {
				items = append(items, p.parseExpr())
				if !p.matchOp(",") && !(p.cur().kind == tokOp && p.cur().text == "]") {
					panicfAt(p.cur().pos, ParseError, "expected ',' or ']' in list")
				}
			}
			return &ASTVector{Pos: t.pos, Items: items}
		}
	}
	panicfAt(t.pos, ParseError, "unexpected '%s'", t)
	return nil
}
