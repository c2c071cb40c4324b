package symbol_test

import (
	"testing"

	"github.com/Tobias-Kohn/PyPPLCompiler/symbol"
	"github.com/stretchr/testify/assert"
)

func TestIntern(t *testing.T) {
	assert.Equal(t, symbol.Intern("abc"), symbol.Intern("abc"))
	assert.False(t, symbol.Intern("abc") == symbol.Intern("cde"))
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"_", "_3", "x__C1", "xyz"} {
		id := symbol.Intern(name)
		name2 := id.Str()
		assert.Equal(t, name, name2)
	}
}

func TestHash(t *testing.T) {
	assert.Equal(t, symbol.Intern("slope").Hash(), symbol.Intern("slope").Hash())
	assert.NotEqual(t, symbol.Intern("slope").Hash(), symbol.Intern("bias").Hash())
}
