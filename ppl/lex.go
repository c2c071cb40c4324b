package ppl

// Tokenizer for the python-like surface syntax. The source is first cut into
// logical lines (joining lines inside open brackets), then each line is
// scanned with text/scanner; indentation is turned into explicit indent and
// dedent tokens.

import (
	"strconv"
	"strings"
	"text/scanner"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokOp
	tokNewline
	tokIndent
	tokDedent
)

type token struct {
	kind tokenKind
	text string
	val  Value
	pos  scanner.Position
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "<eof>"
	case tokNewline:
		return "<newline>"
	case tokIndent:
		return "<indent>"
	case tokDedent:
		return "<dedent>"
	}
	return t.text
}

// pyKeywords are idents that are never plain names.
var pyKeywords = map[string]bool{
	"def": true, "return": true, "if": true, "elif": true, "else": true,
	"for": true, "in": true, "and": true, "or": true, "not": true,
	"True": true, "False": true, "None": true, "lambda": true,
}

// stripLineComment removes a trailing '#' comment, ignoring hash signs
// inside string literals.
func stripLineComment(line string) string {
	inString := rune(0)
	for i, ch := range line {
		switch {
		case inString != 0:
			if ch == inString {
				inString = 0
			}
		case ch == '\'' || ch == '"':
			inString = ch
		case ch == '#':
			return line[:i]
		}
	}
	return line
}

func indentWidth(line string) int {
	w := 0
	for _, ch := range line {
		switch ch {
		case ' ':
			w++
		case '\t':
			w += 8 - w%8
		default:
			return w
		}
	}
	return w
}

// logicalLine is a source line after comment stripping and bracket joining.
type logicalLine struct {
	text   string
	indent int
	lineNo int
}

func splitLogicalLines(source string) []logicalLine {
	var lines []logicalLine
	var pending *logicalLine
	depth := 0
	for i, raw := range strings.Split(source, "\n") {
		line := stripLineComment(raw)
		if pending == nil && strings.TrimSpace(line) == "" {
			continue
		}
		if pending == nil {
			pending = &logicalLine{text: line, indent: indentWidth(line), lineNo: i + 1}
		} else {
			pending.text += " " + strings.TrimSpace(line)
		}
		for _, ch := range line {
			switch ch {
			case '(', '[':
				depth++
			case ')', ']':
				depth--
			}
		}
		if depth <= 0 {
			lines = append(lines, *pending)
			pending = nil
			depth = 0
		}
	}
	if pending != nil {
		lines = append(lines, *pending)
	}
	return lines
}

// lexLine scans one logical line into tokens.
func lexLine(filename string, line logicalLine) []token {
	var sc scanner.Scanner
	sc.Init(strings.NewReader(line.text))
	sc.Filename = filename
	sc.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings
	sc.Error = func(_ *scanner.Scanner, msg string) {
		panicfAt(scanner.Position{Filename: filename, Line: line.lineNo}, ParseError, "%s", msg)
	}

	pos := func() scanner.Position {
		p := sc.Pos()
		p.Line = line.lineNo
		return p
	}
	var tokens []token
	for {
		tok := sc.Scan()
		if tok == scanner.EOF {
			break
		}
		p := pos()
		switch tok {
		case scanner.Ident:
			tokens = append(tokens, token{kind: tokIdent, text: sc.TokenText(), pos: p})
		case scanner.Int:
			v, err := strconv.ParseInt(sc.TokenText(), 0, 64)
			if err != nil {
				panicfAt(p, ParseError, "bad integer literal %q", sc.TokenText())
			}
			tokens = append(tokens, token{kind: tokNumber, text: sc.TokenText(), val: NewInt(v), pos: p})
		case scanner.Float:
			v, err := strconv.ParseFloat(sc.TokenText(), 64)
			if err != nil {
				panicfAt(p, ParseError, "bad float literal %q", sc.TokenText())
			}
			tokens = append(tokens, token{kind: tokNumber, text: sc.TokenText(), val: NewFloat(v), pos: p})
		case scanner.String:
			s, err := strconv.Unquote(sc.TokenText())
			if err != nil {
				panicfAt(p, ParseError, "bad string literal %s", sc.TokenText())
			}
			tokens = append(tokens, token{kind: tokString, text: sc.TokenText(), val: NewString(s), pos: p})
		default:
			op := string(tok)
			// Combine the two-character operators.
			switch tok {
			case '*':
				if sc.Peek() == '*' {
					sc.Scan()
					op = "**"
				}
			case '/':
				if sc.Peek() == '/' {
					sc.Scan()
					op = "//"
				}
			case '=':
				if sc.Peek() == '=' {
					sc.Scan()
					op = "=="
				}
			case '!':
				if sc.Peek() == '=' {
					sc.Scan()
					op = "!="
				} else {
					panicfAt(p, ParseError, "unexpected character '!'")
				}
			case '<':
				if sc.Peek() == '=' {
					sc.Scan()
					op = "<="
				}
			case '>':
				if sc.Peek() == '=' {
					sc.Scan()
					op = ">="
				}
			}
			tokens = append(tokens, token{kind: tokOp, text: op, pos: p})
		}
	}
	return tokens
}

// lexPython produces the full token stream with newline, indent and dedent
// tokens.
func lexPython(filename, source string) []token {
	var tokens []token
	indents := []int{0}
	lines := splitLogicalLines(source)
	for _, line := range lines {
		lineTokens := lexLine(filename, line)
		if len(lineTokens) == 0 {
			continue
		}
		p := lineTokens[0].pos
		cur := indents[len(indents)-1]
		switch {
		case line.indent > cur:
			indents = append(indents, line.indent)
			tokens = append(tokens, token{kind: tokIndent, pos: p})
		case line.indent < cur:
			for len(indents) > 1 && indents[len(indents)-1] > line.indent {
				indents = indents[:len(indents)-1]
				tokens = append(tokens, token{kind: tokDedent, pos: p})
			}
			if indents[len(indents)-1] != line.indent {
				panicfAt(p, ParseError, "inconsistent indentation")
			}
		}
		tokens = append(tokens, lineTokens...)
		tokens = append(tokens, token{kind: tokNewline, pos: p})
	}
	var last scanner.Position
	if len(tokens) > 0 {
		last = tokens[len(tokens)-1].pos
	}
	for len(indents) > 1 {
		indents = indents[:len(indents)-1]
		tokens = append(tokens, token{kind: tokDedent, pos: last})
	}
	tokens = append(tokens, token{kind: tokEOF, pos: last})
	return tokens
}
