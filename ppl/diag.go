package ppl

import (
	"fmt"
	"text/scanner"

	"github.com/grailbio/base/errors"
)

// DiagKind classifies fatal compilation diagnostics.
type DiagKind int

const (
	// ParseError reports invalid surface syntax.
	ParseError DiagKind = iota
	// ResolutionError reports a free symbol with no binding in scope nor in
	// the namespace map.
	ResolutionError
	// ArityError reports a call with incompatible positional or keyword
	// arguments.
	ArityError
	// StaticError reports a construct that requires a statically known value
	// (loop count, map over a non-static sequence, sample size).
	StaticError
	// GraphError reports an inconsistency while building the graph: a cycle,
	// an observation on a non-distribution, a branch mismatch.
	GraphError
	// InternalError reports a violated compiler invariant.
	InternalError
)

func (k DiagKind) String() string {
	switch k {
	case ParseError:
		return "parse error"
	case ResolutionError:
		return "resolution error"
	case ArityError:
		return "arity error"
	case StaticError:
		return "static error"
	case GraphError:
		return "graph error"
	default:
		return "internal error"
	}
}

// Diagnostic is a structured, fatal compilation error.
type Diagnostic struct {
	Kind    DiagKind
	Pos     scanner.Position
	Message string
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", d.Pos, d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// Panicf aborts the compilation with a structured diagnostic. Arg "ast" gives
// the source location; pass nil when no location is known. The panic is
// converted back to an error by Recover at the compiler entry points.
func Panicf(ast ASTNode, kind DiagKind, format string, args ...interface{}) {
	d := &Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)}
	if ast != nil {
		d.Pos = ast.pos()
	}
	panic(d)
}

// panicfAt is Panicf for callers that hold a raw position instead of a node.
func panicfAt(pos scanner.Position, kind DiagKind, format string, args ...interface{}) {
	panic(&Diagnostic{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Recover runs the given function, catching any diagnostic panic thrown by a
// compiler pass and turning it into an error. Non-diagnostic panics are
// wrapped as errors as well so that callers see a single failure channel.
func Recover(cb func()) (err error) {
	defer func() {
		if e := recover(); e != nil {
			if d, ok := e.(*Diagnostic); ok {
				err = d
				return
			}
			err = errors.E(fmt.Sprintf("panic: %v", e))
		}
	}()
	cb()
	return nil
}
