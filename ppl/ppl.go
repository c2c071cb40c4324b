package ppl

// The compiler entry points: language detection, the pass pipeline, and the
// public Compile functions.

import (
	"text/scanner"
)

// Language selects the surface syntax of the input.
type Language int

const (
	// LangAuto detects the language from the first characters of the input.
	LangAuto Language = iota
	// LangPython is the python-like surface syntax.
	LangPython
	// LangClojure is the lisp-like surface syntax.
	LangClojure
)

// Options configures a compilation. The zero value compiles python-or-lisp
// auto-detected input under the default distribution namespace.
type Options struct {
	// Language of the source; LangAuto scans the input.
	Language Language
	// Namespace maps surface names to target names, layered over the
	// distribution defaults.
	Namespace map[string]string
	// BaseClass names the model base class mentioned in generated code. It
	// does not affect the graph.
	BaseClass string
	// Imports lists module names emitted into the generated code preamble.
	Imports []string
	// Filename is used in source locations of diagnostics.
	Filename string
}

// DetectLanguage inspects the first meaningful characters of the source.
// The second result is false when the input is blank.
func DetectLanguage(source string) (Language, bool) {
	for _, ch := range source {
		switch {
		case ch == '#':
			return LangPython, true
		case ch == ';' || ch == '(':
			return LangClojure, true
		case ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z'):
			return LangPython, true
		case ch > ' ':
			return LangPython, true
		}
	}
	return LangAuto, false
}

// Compile compiles a probabilistic program into its graphical model.
func Compile(source string, opts Options) (graph *Graph, err error) {
	err = Recover(func() {
		graph = mustCompile(source, opts)
	})
	return graph, err
}

// mustCompile is Compile without the panic-to-error conversion. It is the
// pass pipeline itself.
func mustCompile(source string, opts Options) *Graph {
	lang := opts.Language
	if lang == LangAuto {
		detected, ok := DetectLanguage(source)
		if !ok {
			panicfAt(position(opts.Filename), ParseError, "cannot detect the input language of a blank program")
		}
		lang = detected
	}
	filename := opts.Filename
	if filename == "" {
		filename = "<input>"
	}

	var ast ASTNode
	switch lang {
	case LangPython:
		ast = parsePython(filename, source)
	case LangClojure:
		ast = parseClojure(filename, source)
	default:
		panicfAt(position(filename), ParseError, "unknown language")
	}

	ns := NewNamespace(opts.Namespace)
	rs := newRawSimplifier(ns)
	ast = rs.visit(ast)
	Debugf(ast, "after raw simplification")
	ast = newInliner().visit(ast)
	ast = rs.visit(ast)
	Debugf(ast, "after inlining")
	ast = newStaticAssigner().run(ast)
	Debugf(ast, "after static assignment")
	ast = simplify(ast)
	Debugf(ast, "after algebraic simplification")
	ast = simplifySymbols(ast)
	Debugf(ast, "after symbol simplification")
	return newGraphGenerator().generate(ast)
}

func position(filename string) scanner.Position {
	return scanner.Position{Filename: filename, Line: 1, Column: 1}
}
