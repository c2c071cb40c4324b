package ppl

import (
	"errors"
	"testing"
	"text/scanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticError(t *testing.T) {
	d := &Diagnostic{Kind: ResolutionError, Message: "free symbol 'q' has no binding",
		Pos: scanner.Position{Filename: "model.py", Line: 3, Column: 7}}
	assert.Equal(t, "model.py:3:7: resolution error: free symbol 'q' has no binding", d.Error())

	d = &Diagnostic{Kind: InternalError, Message: "boom"}
	assert.Equal(t, "internal error: boom", d.Error())
}

func TestRecoverPassesDiagnostics(t *testing.T) {
	err := Recover(func() {
		Panicf(nil, StaticError, "count %d is not static", 3)
	})
	require.Error(t, err)
	var d *Diagnostic
	require.True(t, errors.As(err, &d))
	assert.Equal(t, StaticError, d.Kind)
	assert.Equal(t, "count 3 is not static", d.Message)
}

func TestRecoverWrapsForeignPanics(t *testing.T) {
	err := Recover(func() { panic("unexpected") })
	require.Error(t, err)
	var d *Diagnostic
	assert.False(t, errors.As(err, &d))
}

func TestRecoverNilOnSuccess(t *testing.T) {
	assert.NoError(t, Recover(func() {}))
}

func TestDiagKindStrings(t *testing.T) {
	kinds := map[DiagKind]string{
		ParseError:      "parse error",
		ResolutionError: "resolution error",
		ArityError:      "arity error",
		StaticError:     "static error",
		GraphError:      "graph error",
		InternalError:   "internal error",
	}
	for kind, want := range kinds {
		assert.Equal(t, want, kind.String())
	}
}
