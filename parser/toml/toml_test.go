package toml_test

import (
	"testing"

	_ "github.com/lambda-doc/lambda/parser/toml"

	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *input.Context {
	t.Helper()
	return input.FromSource([]byte(src), "", "toml", "")
}

func TestTopLevelScalars(t *testing.T) {
	ctx := parse(t, "name = \"tom\"\nage = 30\npi = 3.25\nok = true\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	m := reader.Of(ctx.Root).AsMap()
	assert.Equal(t, "tom", reader.Of(m.Get("name")).AsString())
	assert.Equal(t, int64(30), reader.Of(m.Get("age")).AsInt64())
	assert.Equal(t, 3.25, reader.Of(m.Get("pi")).AsFloat())
	assert.True(t, reader.Of(m.Get("ok")).AsBool())
}

func TestTableHeaderAndDottedKey(t *testing.T) {
	ctx := parse(t, "[server]\nhost = \"localhost\"\nnet.port = 8080\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	server := reader.Of(reader.Of(ctx.Root).AsMap().Get("server")).AsMap()
	assert.Equal(t, "localhost", reader.Of(server.Get("host")).AsString())
	net := reader.Of(server.Get("net")).AsMap()
	assert.Equal(t, int64(8080), reader.Of(net.Get("port")).AsInt64())
}

func TestArrayOfTables(t *testing.T) {
	ctx := parse(t, "[[products]]\nname = \"a\"\n[[products]]\nname = \"b\"\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	products := reader.Of(reader.Of(ctx.Root).AsMap().Get("products")).AsArray()
	require.Equal(t, 2, products.Length())
	assert.Equal(t, "a", reader.Of(reader.Of(products.Get(0)).AsMap().Get("name")).AsString())
	assert.Equal(t, "b", reader.Of(reader.Of(products.Get(1)).AsMap().Get("name")).AsString())
}

func TestInlineArrayAndTable(t *testing.T) {
	ctx := parse(t, "point = { x = 1, y = 2 }\nnums = [1, 2, 3]\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	m := reader.Of(ctx.Root).AsMap()
	point := reader.Of(m.Get("point")).AsMap()
	assert.Equal(t, int64(1), reader.Of(point.Get("x")).AsInt64())
	nums := reader.Of(m.Get("nums")).AsArray()
	require.Equal(t, 3, nums.Length())
	assert.Equal(t, int64(2), reader.Of(nums.Get(1)).AsInt64())
}

func TestDottedKeyInsideInlineTable(t *testing.T) {
	ctx := parse(t, "p = { a.b = 1, a.c = 2 }\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	p := reader.Of(reader.Of(ctx.Root).AsMap().Get("p")).AsMap()
	a := reader.Of(p.Get("a")).AsMap()
	assert.Equal(t, int64(1), reader.Of(a.Get("b")).AsInt64())
	assert.Equal(t, int64(2), reader.Of(a.Get("c")).AsInt64())
}

func TestMultilineBasicStringAndEscapes(t *testing.T) {
	ctx := parse(t, "s = \"line1\\nline2\"\nm = \"\"\"\nhello\nworld\"\"\"\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	m := reader.Of(ctx.Root).AsMap()
	assert.Equal(t, "line1\nline2", reader.Of(m.Get("s")).AsString())
	assert.Contains(t, reader.Of(m.Get("m")).AsString(), "hello\nworld")
}

func TestLiteralStringNoEscapes(t *testing.T) {
	ctx := parse(t, `s = 'C:\no\escapes'`+"\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	m := reader.Of(ctx.Root).AsMap()
	assert.Equal(t, `C:\no\escapes`, reader.Of(m.Get("s")).AsString())
}

func TestDateTimeValue(t *testing.T) {
	ctx := parse(t, "created = 2024-01-15T10:30:00Z\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	m := reader.Of(ctx.Root).AsMap()
	assert.True(t, reader.Of(m.Get("created")).Item().Tag().String() != "")
}

func TestDuplicateKeyErrors(t *testing.T) {
	ctx := parse(t, "a = 1\na = 2\n")
	assert.True(t, ctx.HasErrors())
}

func TestEmptySourceIsNull(t *testing.T) {
	ctx := parse(t, "")
	assert.True(t, reader.Of(ctx.Root).IsNull())
}
