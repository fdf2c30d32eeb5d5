package json_test

import (
	"testing"

	_ "github.com/lambda-doc/lambda/parser/json"

	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *input.Context {
	t.Helper()
	return input.FromSource([]byte(src), "", "json", "")
}

func TestParseEmptySourceIsNull(t *testing.T) {
	ctx := parse(t, "")
	assert.False(t, ctx.HasErrors())
	assert.True(t, reader.Of(ctx.Root).IsNull())
}

func TestParseScalars(t *testing.T) {
	cases := []struct {
		src  string
		want func(t *testing.T, r reader.ItemReader)
	}{
		{"true", func(t *testing.T, r reader.ItemReader) { assert.True(t, r.AsBool()) }},
		{"false", func(t *testing.T, r reader.ItemReader) { assert.False(t, r.AsBool()) }},
		{"null", func(t *testing.T, r reader.ItemReader) { assert.True(t, r.IsNull()) }},
		{`"hi"`, func(t *testing.T, r reader.ItemReader) { assert.Equal(t, "hi", r.AsString()) }},
		{"42", func(t *testing.T, r reader.ItemReader) { assert.EqualValues(t, 42, r.AsInt64()) }},
		{"-7", func(t *testing.T, r reader.ItemReader) { assert.EqualValues(t, -7, r.AsInt64()) }},
		{"3.5", func(t *testing.T, r reader.ItemReader) { assert.InDelta(t, 3.5, r.AsFloat(), 1e-9) }},
		{"1e2", func(t *testing.T, r reader.ItemReader) { assert.InDelta(t, 100.0, r.AsFloat(), 1e-9) }},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			ctx := parse(t, c.src)
			require.False(t, ctx.HasErrors(), ctx.FormatErrors())
			c.want(t, reader.Of(ctx.Root))
		})
	}
}

func TestParseIntegerRoundTripsAsInt(t *testing.T) {
	// §8: 9007199254740992 exceeds float64's exact-integer range by the
	// usual measure but is itself exactly representable, and must come
	// back out as an int, not a float.
	ctx := parse(t, `{"n": 9007199254740992}`)
	require.False(t, ctx.HasErrors())
	m := reader.Of(ctx.Root).AsMap()
	r := reader.Of(m.Get("n"))
	require.True(t, r.IsInt())
	assert.EqualValues(t, 9007199254740992, r.AsInt64())
}

func TestParseObjectAndArray(t *testing.T) {
	ctx := parse(t, `{"name": "ok", "tags": [1, 2, 3], "nested": {"a": true}}`)
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	m := reader.Of(ctx.Root).AsMap()
	assert.Equal(t, "ok", reader.Of(m.Get("name")).AsString())

	arr := reader.Of(m.Get("tags")).AsArray()
	require.Equal(t, 3, arr.Length())
	assert.EqualValues(t, 2, reader.Of(arr.Get(1)).AsInt64())

	nested := reader.Of(m.Get("nested")).AsMap()
	assert.True(t, reader.Of(nested.Get("a")).AsBool())
}

func TestParseEmptyKeyNormalizedToSentinel(t *testing.T) {
	ctx := parse(t, `{"": 1}`)
	require.False(t, ctx.HasErrors())
	m := reader.Of(ctx.Root).AsMap()
	assert.True(t, m.Has("''"))
	assert.False(t, m.Has(""))
	assert.EqualValues(t, 1, reader.Of(m.Get("''")).AsInt64())
}

func TestParseUTF8StringPassesThrough(t *testing.T) {
	ctx := parse(t, `"😀"`)
	require.False(t, ctx.HasErrors())
	assert.Equal(t, "😀", reader.Of(ctx.Root).AsString())
}

func TestParseEscapedSurrogatePair(t *testing.T) {
	// U+1F600 GRINNING FACE, encoded as its UTF-16 surrogate pair.
	ctx := parse(t, `"\uD83D\uDE00"`)
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	assert.Equal(t, "\U0001F600", reader.Of(ctx.Root).AsString())
}

func TestParseLoneSurrogateWarns(t *testing.T) {
	ctx := parse(t, `"\uD83D"`)
	assert.False(t, ctx.HasErrors())
	assert.Greater(t, ctx.Diag.WarningCount(), 0)
	assert.Equal(t, "�", reader.Of(ctx.Root).AsString())
}

func TestParseRecoversFromSyntaxError(t *testing.T) {
	ctx := parse(t, `{"a": 1 "b": 2, "c": 3}`)
	assert.True(t, ctx.HasErrors())
	m := reader.Of(ctx.Root).AsMap()
	assert.EqualValues(t, 1, reader.Of(m.Get("a")).AsInt64())
	assert.EqualValues(t, 3, reader.Of(m.Get("c")).AsInt64())
}

func TestParseMaxDepthExceeded(t *testing.T) {
	src := ""
	for i := 0; i < 100; i++ {
		src += "["
	}
	for i := 0; i < 100; i++ {
		src += "]"
	}
	ctx := parse(t, src)
	require.True(t, ctx.HasErrors())
	assert.Equal(t, 1, ctx.ErrorCount())
}
