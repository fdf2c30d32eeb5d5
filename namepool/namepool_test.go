package namepool_test

import (
	"testing"

	"github.com/lambda-doc/lambda/namepool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNameIsIdempotent(t *testing.T) {
	p := namepool.New()
	a := p.CreateName([]byte("foo"))
	b := p.CreateName([]byte("foo"))
	assert.Same(t, a, b)
	assert.Equal(t, 1, p.Count())
}

func TestLookupByStringMatchesCreated(t *testing.T) {
	p := namepool.New()
	n := p.CreateName([]byte("bar"))
	got := p.LookupString("bar")
	require.NotNil(t, got)
	assert.Same(t, n, got)
	assert.Nil(t, p.LookupString("missing"))
}

func TestChildDelegatesToParent(t *testing.T) {
	parent := namepool.New()
	pn := parent.CreateName([]byte("shared"))
	child := namepool.NewChild(parent)

	got := child.LookupBytes([]byte("shared"))
	require.NotNil(t, got)
	assert.Same(t, pn, got)

	// A name created only in the child isn't visible from the parent.
	child.CreateName([]byte("local"))
	assert.Nil(t, parent.LookupString("local"))
	assert.True(t, child.Contains([]byte("local")))
}

func TestLongSymbolsAreUnshared(t *testing.T) {
	p := namepool.New()
	long := make([]byte, namepool.PoolableSymbolLimit+1)
	for i := range long {
		long[i] = 'a'
	}
	a := p.CreateSymbol(long)
	b := p.CreateSymbol(long)
	assert.NotSame(t, a, b)
	assert.Equal(t, 0, p.Count())
}

func TestReleaseCascadesToParent(t *testing.T) {
	parent := namepool.New()
	child := namepool.NewChild(parent)
	stats := parent.Stats()
	assert.Equal(t, 2, stats.RefCount)
	child.Release()
	stats = parent.Stats()
	assert.Equal(t, 1, stats.RefCount)
}
