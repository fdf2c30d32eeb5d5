package item_test

import (
	"testing"

	"github.com/lambda-doc/lambda/item"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineInt56RoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 1 << 40, -(1 << 40), item.FitsInt56Max(), item.FitsInt56Min()} {
		it := item.NewInt(v)
		require.Equal(t, item.TagInt56, it.Tag(), "value %d should fit inline", v)
		assert.Equal(t, v, it.AsInt())
	}
}

func TestIntPromotesToInt64WhenOutOfRange(t *testing.T) {
	v := int64(1) << 62
	it := item.NewInt(v)
	require.Equal(t, item.TagInt64, it.Tag())
	assert.Equal(t, v, it.AsInt())
}

func TestNullAndErrAreDistinctSentinels(t *testing.T) {
	assert.True(t, item.Null.IsNull())
	assert.False(t, item.Err.IsNull())
	assert.True(t, item.Err.IsErr())
	assert.False(t, item.Null.IsErr())
}

func TestStringAndSymbolShareCharsLen(t *testing.T) {
	s := item.NewString([]byte("hello"))
	sym := item.NewSymbol([]byte("world"), nil)
	assert.Equal(t, "hello", string(s.Chars()))
	assert.Equal(t, 5, s.Len())
	assert.Equal(t, "world", string(sym.Chars()))
	assert.Equal(t, item.TagString, s.Tag())
	assert.Equal(t, item.TagSymbol, sym.Tag())
}

func TestWrongTagProjectionIsDefinedEmpty(t *testing.T) {
	b := item.NewBool(true)
	assert.Nil(t, b.AsString())
	assert.Equal(t, int64(0), b.AsInt())
}

func TestStringRefCounting(t *testing.T) {
	s := item.NewString([]byte("x"))
	s.RetainString()
	assert.Equal(t, 2, s.ReleaseString())
	assert.Equal(t, 1, s.ReleaseString())
	assert.Equal(t, 0, s.ReleaseString())
}
