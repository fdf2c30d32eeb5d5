package jsx_test

import (
	"testing"

	_ "github.com/lambda-doc/lambda/parser/jsx"

	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *input.Context {
	t.Helper()
	return input.FromSource([]byte(src), "", "jsx", "")
}

func TestLowercaseElementIsNotComponent(t *testing.T) {
	ctx := parse(t, `<div className="x">hi</div>`)
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	div := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	assert.Equal(t, "div", div.TagName())
	assert.False(t, div.HasAttr("component"))
	assert.Equal(t, "x", div.GetStringAttr("className"))
}

func TestUppercaseElementIsComponent(t *testing.T) {
	ctx := parse(t, `<MyButton label="go" />`)
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	btn := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	assert.Equal(t, "MyButton", btn.TagName())
	assert.True(t, btn.HasAttr("component"))
}

func TestDottedComponentName(t *testing.T) {
	ctx := parse(t, `<Form.Item name="x" />`)
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	el := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	assert.Equal(t, "Form.Item", el.TagName())
}

func TestFragment(t *testing.T) {
	ctx := parse(t, `<><span>a</span><span>b</span></>`)
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	frag := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	assert.Equal(t, "fragment", frag.TagName())
	assert.Equal(t, 2, frag.ChildCount())
}

func TestBraceExpressionWithNestedStringAndBrace(t *testing.T) {
	ctx := parse(t, `<div>{ foo("}") + "{}" }</div>`)
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	div := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	require.Equal(t, 1, div.ChildCount())
	assert.Contains(t, reader.Of(div.ChildAt(0)).AsString(), `foo("}")`)
}

func TestSelfClosingTag(t *testing.T) {
	ctx := parse(t, `<input type="text" />`)
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	el := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	assert.Equal(t, "input", el.TagName())
	assert.Equal(t, 0, el.ChildCount())
}

func TestTextWithEntityDecodesInline(t *testing.T) {
	ctx := parse(t, `<p>a &amp; b &nbsp;c</p>`)
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	p := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	require.Equal(t, 1, p.ChildCount())
	assert.Equal(t, "a & b c", reader.Of(p.ChildAt(0)).AsString())
}

func TestEmptySourceIsNull(t *testing.T) {
	ctx := parse(t, "")
	assert.True(t, reader.Of(ctx.Root).IsNull())
}
