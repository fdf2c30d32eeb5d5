package markdown_test

import (
	"testing"

	_ "github.com/lambda-doc/lambda/parser/markdown"

	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *input.Context {
	t.Helper()
	return input.FromSource([]byte(src), "", "markup", "")
}

func TestHeadingLevels(t *testing.T) {
	ctx := parse(t, "# Title\n\n## Subtitle\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	doc := reader.Of(ctx.Root).AsElement()
	require.Equal(t, 2, doc.ChildCount())
	assert.Equal(t, "h1", reader.Of(doc.ChildAt(0)).AsElement().TagName())
	assert.Equal(t, "h2", reader.Of(doc.ChildAt(1)).AsElement().TagName())
}

func TestParagraphAndEmphasis(t *testing.T) {
	ctx := parse(t, "Hello *there* and **world**.\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	p := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	assert.Equal(t, "p", p.TagName())
	assert.True(t, p.ChildCount() >= 3)
}

func TestLinkAndImage(t *testing.T) {
	ctx := parse(t, "See [docs](https://example.com \"Docs\") and ![alt](pic.png).\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	p := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	var foundLink, foundImg bool
	for i := 0; i < p.ChildCount(); i++ {
		el := reader.Of(p.ChildAt(i)).AsElement()
		switch el.TagName() {
		case "a":
			foundLink = true
			assert.Equal(t, "https://example.com", el.GetStringAttr("href"))
			assert.Equal(t, "Docs", el.GetStringAttr("title"))
		case "img":
			foundImg = true
			assert.Equal(t, "pic.png", el.GetStringAttr("src"))
		}
	}
	assert.True(t, foundLink)
	assert.True(t, foundImg)
}

func TestEmojiShortcode(t *testing.T) {
	ctx := parse(t, "Hello :smile: world\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	p := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	require.Equal(t, 3, p.ChildCount())
	assert.Equal(t, "Hello ", reader.Of(p.ChildAt(0)).AsString())
	assert.True(t, reader.Of(p.ChildAt(1)).IsSymbol())
	assert.Equal(t, "smile", reader.Of(p.ChildAt(1)).AsSymbol())
	assert.Equal(t, " world", reader.Of(p.ChildAt(2)).AsString())
}

func TestNamedEntityDecodesInline(t *testing.T) {
	ctx := parse(t, "Price &mdash; &copy; 2024\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	p := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	require.Equal(t, 1, p.ChildCount())
	assert.Equal(t, "Price — © 2024", reader.Of(p.ChildAt(0)).AsString())
}

func TestUnknownShortcodeStaysLiteral(t *testing.T) {
	ctx := parse(t, "price: $5 :not_a_colon_pair\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	p := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	require.Equal(t, 1, p.ChildCount())
	assert.Contains(t, reader.Of(p.ChildAt(0)).AsString(), ":not_a_colon_pair")
}

func TestFencedCodeBlockWithInfoString(t *testing.T) {
	ctx := parse(t, "```go\nfmt.Println(1)\n```\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	pre := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	assert.Equal(t, "pre", pre.TagName())
	assert.Equal(t, "go", pre.GetStringAttr("language"))
	code := reader.Of(pre.ChildAt(0)).AsElement()
	assert.Equal(t, "block", code.GetStringAttr("type"))
	assert.Equal(t, "fmt.Println(1)", reader.Of(code.ChildAt(0)).AsString())
}

func TestBlockquote(t *testing.T) {
	ctx := parse(t, "> quoted text\n> more\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	bq := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	assert.Equal(t, "blockquote", bq.TagName())
}

func TestUnorderedAndOrderedLists(t *testing.T) {
	ctx := parse(t, "- one\n- two\n\n1. first\n2. second\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	doc := reader.Of(ctx.Root).AsElement()
	ul := reader.Of(doc.ChildAt(0)).AsElement()
	assert.Equal(t, "ul", ul.TagName())
	assert.Equal(t, 2, ul.ChildCount())
	ol := reader.Of(doc.ChildAt(1)).AsElement()
	assert.Equal(t, "ol", ol.TagName())
	assert.Equal(t, "1", ol.GetStringAttr("start"))
}

func TestThematicBreak(t *testing.T) {
	ctx := parse(t, "---\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	hr := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	assert.Equal(t, "hr", hr.TagName())
}

func TestInlineCodeSpan(t *testing.T) {
	ctx := parse(t, "Use `fmt.Println` here.\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	p := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	var found bool
	for i := 0; i < p.ChildCount(); i++ {
		if el := reader.Of(p.ChildAt(i)).AsElement(); el.TagName() == "code" {
			found = true
			assert.Equal(t, "inline", el.GetStringAttr("type"))
		}
	}
	assert.True(t, found)
}

func TestEmptySourceIsNull(t *testing.T) {
	ctx := parse(t, "")
	assert.True(t, reader.Of(ctx.Root).IsNull())
}
