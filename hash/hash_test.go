package hash_test

import (
	"testing"

	"github.com/Tobias-Kohn/PyPPLCompiler/hash"
	"github.com/stretchr/testify/assert"
)

func TestEmptyInputs(t *testing.T) {
	assert.NotEqual(t, hash.Bytes(nil), hash.Hash{})
	assert.NotEqual(t, hash.String(""), hash.Hash{})
}

func TestAdd(t *testing.T) {
	h0 := hash.String("normal(0, 1)")
	h1 := hash.String("beta(1, 1)")
	assert.Equal(t, hash.Hash{}.Add(h0), h0)
	assert.Equal(t, h0.Add(hash.Hash{}), h0)
	assert.Equal(t, h0.Add(h1), h1.Add(h0))
	assert.NotEqual(t, h0.Add(h0), hash.Hash{})
}

func TestMerge(t *testing.T) {
	h0 := hash.String("x")
	h1 := hash.String("y")
	assert.NotEqual(t, h0.Merge(h1), h1.Merge(h0))
	assert.NotEqual(t, hash.Hash{}.Merge(h0), h0)
	assert.NotEqual(t, h0.Merge(hash.Hash{}), h0)
	assert.Equal(t, h0.Merge(h1), h0.Merge(h1))
}

func TestScalars(t *testing.T) {
	assert.NotEqual(t, hash.Int(1), hash.Float(1.0))
	assert.NotEqual(t, hash.Bool(true), hash.Bool(false))
	assert.Equal(t, hash.Int(42), hash.Int(42))
}
