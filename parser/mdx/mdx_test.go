package mdx_test

import (
	"testing"

	_ "github.com/lambda-doc/lambda/parser/mdx"

	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *input.Context {
	t.Helper()
	return input.FromSource([]byte(src), "", "mdx", "")
}

func TestPlainMarkdownFeedsThroughMarkdownParser(t *testing.T) {
	ctx := parse(t, "# Title\n\nSome *text*.\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	root := reader.Of(ctx.Root).AsElement()
	assert.Equal(t, "mdx_document", root.TagName())
	body := reader.Of(root.ChildAt(0)).AsElement()
	assert.Equal(t, "body", body.TagName())
	assert.Equal(t, "h1", reader.Of(body.ChildAt(0)).AsElement().TagName())
}

func TestUppercaseTagDispatchesToJSX(t *testing.T) {
	ctx := parse(t, "Hello\n\n<MyWidget prop=\"1\" />\n\nworld\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	body := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	var found bool
	for i := 0; i < body.ChildCount(); i++ {
		el := reader.Of(body.ChildAt(i)).AsElement()
		if el.TagName() == "MyWidget" {
			found = true
			assert.True(t, el.HasAttr("component"))
		}
	}
	assert.True(t, found)
}

func TestLowercaseTagDispatchesToHTML(t *testing.T) {
	ctx := parse(t, "<div class=\"note\">raw html</div>\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	body := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	div := reader.Of(body.ChildAt(0)).AsElement()
	assert.Equal(t, "div", div.TagName())
	assert.Equal(t, "note", div.GetStringAttr("class"))
}

func TestEmptySourceIsNull(t *testing.T) {
	ctx := parse(t, "")
	assert.True(t, reader.Of(ctx.Root).IsNull())
}
