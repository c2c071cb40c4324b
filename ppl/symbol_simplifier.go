package ppl

// The symbol simplifier canonicalizes the fresh names minted by the inliner
// and the static-assignment pass ("mu__C1", "y__O1_2") into stable short
// identifiers: the part before the "__" marker, with the first free numeric
// suffix appended when that is taken ("mu", "y", "y1", ...). Names written
// by the user survive unchanged and
// are never shadowed by a canonicalized name.

import (
	"strconv"
	"strings"

	"github.com/Tobias-Kohn/PyPPLCompiler/symbol"
)

// freshMarker separates a surface name from its hygienic rename suffix.
const freshMarker = "__"

type symbolSimplifier struct {
	renames map[symbol.ID]symbol.ID
	used    map[string]bool
}

func simplifySymbols(root ASTNode) ASTNode {
	ss := &symbolSimplifier{renames: map[symbol.ID]symbol.ID{}, used: map[string]bool{}}
	// User-written names are reserved before any renaming happens.
	walkAST(root, func(n ASTNode) bool {
		record := func(id symbol.ID) {
			if !strings.Contains(id.Str(), freshMarker) {
				ss.used[id.Str()] = true
			}
		}
		switch t := n.(type) {
		case *ASTSymbol:
			record(t.Name)
		case *ASTDef:
			record(t.Name)
		case *ASTLet:
			record(t.Target)
		}
		return true
	})
	// The mapping is built in visit order (definitions precede uses), so the
	// canonical names are a deterministic function of the program.
	walkAST(root, func(n ASTNode) bool {
		switch t := n.(type) {
		case *ASTDef:
			ss.rename(t.Name)
		case *ASTLet:
			ss.rename(t.Target)
		case *ASTSymbol:
			ss.rename(t.Name)
		}
		return true
	})
	return mapSymbols(root, func(id symbol.ID) symbol.ID {
		if renamed, ok := ss.renames[id]; ok {
			return renamed
		}
		return id
	})
}

func (ss *symbolSimplifier) rename(id symbol.ID) {
	name := id.Str()
	if !strings.Contains(name, freshMarker) {
		return
	}
	if _, ok := ss.renames[id]; ok {
		return
	}
	base := name[:strings.Index(name, freshMarker)]
	if base == "" {
		base = "t"
	}
	candidate := base
	for i := 1; ss.used[candidate]; i++ {
		candidate = base + strconv.Itoa(i)
	}
	ss.used[candidate] = true
	ss.renames[id] = symbol.Intern(candidate)
}

// mapSymbols rewrites every name in the tree, both binding occurrences and
// reads, through the given function.
func mapSymbols(n ASTNode, f func(symbol.ID) symbol.ID) ASTNode {
	switch t := n.(type) {
	case nil, *ASTLiteral, *ASTValueVector:
		return n
	case *ASTSymbol:
		return &ASTSymbol{Pos: t.Pos, Name: f(t.Name)}
	case *ASTVector:
		items := make([]ASTNode, len(t.Items))
		for i, item := range t.Items {
			items[i] = mapSymbols(item, f)
		}
		return &ASTVector{Pos: t.Pos, Items: items}
	case *ASTDef:
		return &ASTDef{Pos: t.Pos, Name: f(t.Name), Value: mapSymbols(t.Value, f), Global: t.Global}
	case *ASTLet:
		return &ASTLet{Pos: t.Pos, Target: f(t.Target), Source: mapSymbols(t.Source, f), Body: mapSymbols(t.Body, f)}
	case *ASTBody:
		items := make([]ASTNode, len(t.Items))
		for i, item := range t.Items {
			items[i] = mapSymbols(item, f)
		}
		return &ASTBody{Pos: t.Pos, Items: items}
	case *ASTReturn:
		return &ASTReturn{Pos: t.Pos, Value: mapSymbols(t.Value, f)}
	case *ASTCond:
		return &ASTCond{Pos: t.Pos, Cond: mapSymbols(t.Cond, f),
			Then: mapSymbols(t.Then, f), Else: mapSymbols(t.Else, f)}
	case *ASTCall:
		args := make([]ASTNode, len(t.Args))
		for i, arg := range t.Args {
			args[i] = mapSymbols(arg, f)
		}
		keywords := make([]KeywordArg, len(t.Keywords))
		for i, kw := range t.Keywords {
			keywords[i] = KeywordArg{Name: kw.Name, Expr: mapSymbols(kw.Expr, f)}
		}
		if len(keywords) == 0 {
			keywords = nil
		}
		return &ASTCall{Pos: t.Pos, Function: mapSymbols(t.Function, f), Args: args, Keywords: keywords}
	case *ASTFunction:
		params := make([]symbol.ID, len(t.Params))
		for i, p := range t.Params {
			params[i] = f(p)
		}
		vararg := t.Vararg
		if vararg != symbol.Invalid {
			vararg = f(vararg)
		}
		defaults := make([]KeywordArg, len(t.Defaults))
		for i, d := range t.Defaults {
			defaults[i] = KeywordArg{Name: f(d.Name), Expr: mapSymbols(d.Expr, f)}
		}
		if len(defaults) == 0 {
			defaults = nil
		}
		return &ASTFunction{Pos: t.Pos, Name: t.Name, Params: params, Vararg: vararg,
			Defaults: defaults, Body: mapSymbols(t.Body, f)}
	case *ASTSubscript:
		return &ASTSubscript{Pos: t.Pos, Base: mapSymbols(t.Base, f),
			Index: mapSymbols(t.Index, f), Column: t.Column}
	case *ASTSample:
		return &ASTSample{Pos: t.Pos, Dist: mapSymbols(t.Dist, f), Size: mapSymbols(t.Size, f)}
	case *ASTObserve:
		return &ASTObserve{Pos: t.Pos, Dist: mapSymbols(t.Dist, f), Value: mapSymbols(t.Value, f)}
	case *ASTDist:
		args := make([]ASTNode, len(t.Args))
		for i, arg := range t.Args {
			args[i] = mapSymbols(arg, f)
		}
		return &ASTDist{Pos: t.Pos, Family: t.Family, Args: args}
	case *ASTBinary:
		return &ASTBinary{Pos: t.Pos, Op: t.Op, LHS: mapSymbols(t.LHS, f), RHS: mapSymbols(t.RHS, f)}
	case *ASTUnary:
		return &ASTUnary{Pos: t.Pos, Op: t.Op, Operand: mapSymbols(t.Operand, f)}
	}
	Panicf(n, InternalError, "mapSymbols: unknown node type %T", n)
	return nil
}
