package input

import (
	"testing"

	"github.com/lambda-doc/lambda/item"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSourceUnknownFormat(t *testing.T) {
	ctx := FromSource([]byte("hello"), "", "no-such-format", "")
	assert.True(t, ctx.HasErrors())
	assert.Equal(t, item.Null, ctx.Root)
}

func TestFromSourceEmptySource(t *testing.T) {
	Register("stub-empty", func(ctx *Context, src []byte) item.Item {
		t.Fatal("parser must not be invoked for empty source")
		return item.Null
	})
	ctx := FromSource(nil, "", "stub-empty", "")
	require.False(t, ctx.HasErrors())
	assert.Equal(t, item.Null, ctx.Root)
}

func TestFromSourceDispatchesRegisteredParser(t *testing.T) {
	Register("stub-ok", func(ctx *Context, src []byte) item.Item {
		return item.NewBool(len(src) > 0)
	})
	ctx := FromSource([]byte("x"), "base://doc", "stub-ok", "flavor-a")
	require.False(t, ctx.HasErrors())
	assert.Equal(t, "base://doc", ctx.Base)
	assert.Equal(t, "flavor-a", ctx.Flavor)
	assert.True(t, ctx.Root.AsBool())
}

func TestFromSourceStripsBOM(t *testing.T) {
	var seen []byte
	Register("stub-bom", func(ctx *Context, src []byte) item.Item {
		seen = src
		return item.Null
	})
	src := append([]byte("\xef\xbb\xbf"), []byte("abc")...)
	FromSource(src, "", "stub-bom", "")
	assert.Equal(t, []byte("abc"), seen)
}
