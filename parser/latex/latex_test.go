package latex_test

import (
	"testing"

	_ "github.com/lambda-doc/lambda/parser/latex"

	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *input.Context {
	t.Helper()
	return input.FromSource([]byte(src), "", "latex", "")
}

func parseFlavor(t *testing.T, src, flavor string) *input.Context {
	t.Helper()
	return input.FromSource([]byte(src), "", "latex", flavor)
}

func TestSimpleCommandWithArg(t *testing.T) {
	ctx := parse(t, `\textbf{hello}`)
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	doc := reader.Of(ctx.Root).AsElement()
	cmd := reader.Of(doc.ChildAt(0)).AsElement()
	assert.Equal(t, "command", cmd.TagName())
	assert.Equal(t, "textbf", cmd.GetStringAttr("name"))
	arg := reader.Of(cmd.ChildAt(0)).AsElement()
	assert.Equal(t, "hello", reader.Of(arg.ChildAt(0)).AsString())
}

func TestCommandWithOptionalArg(t *testing.T) {
	ctx := parse(t, `\documentclass[11pt]{article}`)
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	cmd := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	assert.Equal(t, "11pt", cmd.GetStringAttr("opt"))
	arg := reader.Of(cmd.ChildAt(0)).AsElement()
	assert.Equal(t, "article", reader.Of(arg.ChildAt(0)).AsString())
}

func TestEnvironment(t *testing.T) {
	ctx := parse(t, "\\begin{itemize}\n\\item one\n\\end{itemize}")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	env := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	assert.Equal(t, "environment", env.TagName())
	assert.Equal(t, "itemize", env.GetStringAttr("name"))
}

func TestMismatchedEnvironmentWarns(t *testing.T) {
	ctx := parse(t, "\\begin{itemize}\n\\end{enumerate}")
	assert.True(t, ctx.Diag.WarningCount() > 0)
}

func TestInlineMath(t *testing.T) {
	ctx := parse(t, `the value is $x^2$ here`)
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	doc := reader.Of(ctx.Root).AsElement()
	var found bool
	for i := 0; i < doc.ChildCount(); i++ {
		el := reader.Of(doc.ChildAt(i)).AsElement()
		if el.TagName() == "math" {
			found = true
			assert.False(t, reader.Of(el.GetAttr("display")).AsBool())
			assert.Equal(t, "x^2", reader.Of(el.ChildAt(0)).AsString())
		}
	}
	assert.True(t, found)
}

func TestDisplayMath(t *testing.T) {
	ctx := parse(t, `$$x = y$$`)
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	math := reader.Of(reader.Of(ctx.Root).AsElement().ChildAt(0)).AsElement()
	assert.True(t, reader.Of(math.GetAttr("display")).AsBool())
}

func TestCommentIsDroppedByDefault(t *testing.T) {
	ctx := parse(t, "text % a comment\nmore")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	doc := reader.Of(ctx.Root).AsElement()
	for i := 0; i < doc.ChildCount(); i++ {
		el := reader.Of(doc.ChildAt(i))
		if el.IsElement() {
			assert.NotEqual(t, "comment", el.AsElement().TagName())
		}
	}
}

func TestCommentIsKeptInTSFlavor(t *testing.T) {
	ctx := parseFlavor(t, "text % a comment\nmore", "ts")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	doc := reader.Of(ctx.Root).AsElement()
	var found bool
	for i := 0; i < doc.ChildCount(); i++ {
		el := reader.Of(doc.ChildAt(i))
		if el.IsElement() && el.AsElement().TagName() == "comment" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSymbolControlSequence(t *testing.T) {
	ctx := parse(t, `a\\b`)
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	doc := reader.Of(ctx.Root).AsElement()
	var found bool
	for i := 0; i < doc.ChildCount(); i++ {
		el := reader.Of(doc.ChildAt(i))
		if el.IsElement() && el.AsElement().TagName() == "command" {
			assert.Equal(t, "\\", el.AsElement().GetStringAttr("name"))
			found = true
		}
	}
	assert.True(t, found)
}

func TestEmptySourceIsNull(t *testing.T) {
	ctx := parse(t, "")
	assert.True(t, reader.Of(ctx.Root).IsNull())
}
