package ppl

// Logging functions, similar to those in the "log" package. They can show the
// source-code location and rendering of the node being processed.

import (
	"fmt"

	"github.com/grailbio/base/log"
)

// Debugf is similar to log.Debug.Printf(...). Arg "ast" is the node being
// processed; pass nil if unknown.
func Debugf(ast ASTNode, format string, args ...interface{}) {
	if log.At(log.Debug) {
		log.Output(2, log.Debug, prefix(ast)+fmt.Sprintf(format, args...)) // nolint: errcheck
	}
}

// Logf is similar to log.Printf(...). Arg "ast" is the node being processed;
// pass nil if unknown.
func Logf(ast ASTNode, format string, args ...interface{}) {
	if log.At(log.Info) {
		log.Output(2, log.Info, prefix(ast)+fmt.Sprintf(format, args...)) // nolint: errcheck
	}
}

// Errorf is similar to log.Error.Printf(...). Arg "ast" is the node being
// processed; pass nil if unknown.
func Errorf(ast ASTNode, format string, args ...interface{}) {
	log.Output(2, log.Error, prefix(ast)+fmt.Sprintf(format, args...)) // nolint: errcheck
}

func prefix(ast ASTNode) string {
	if ast == nil {
		return ""
	}
	return ast.pos().String() + ":" + ast.String() + ": "
}
