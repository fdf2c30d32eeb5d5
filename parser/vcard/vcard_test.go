package vcard_test

import (
	"testing"

	_ "github.com/lambda-doc/lambda/parser/vcard"

	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *input.Context {
	t.Helper()
	return input.FromSource([]byte(src), "", "vcf", "")
}

func TestSingleCard(t *testing.T) {
	ctx := parse(t, "BEGIN:VCARD\nVERSION:4.0\nFN:Jane Doe\nEND:VCARD\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	cards := reader.Of(ctx.Root).AsArray()
	require.Equal(t, 1, cards.Length())
	card := reader.Of(cards.Get(0)).AsMap()
	fn := reader.Of(card.Get("fn")).AsMap()
	assert.Equal(t, "Jane Doe", reader.Of(fn.Get("value")).AsString())
}

func TestParametersAreCaptured(t *testing.T) {
	ctx := parse(t, "BEGIN:VCARD\nTEL;TYPE=cell:+1-555-0100\nEND:VCARD\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	card := reader.Of(reader.Of(ctx.Root).AsArray().Get(0)).AsMap()
	tel := reader.Of(card.Get("tel")).AsMap()
	assert.Equal(t, "+1-555-0100", reader.Of(tel.Get("value")).AsString())
	params := reader.Of(tel.Get("params")).AsMap()
	assert.Equal(t, "cell", reader.Of(params.Get("type")).AsString())
}

func TestRepeatedPropertyBecomesArray(t *testing.T) {
	ctx := parse(t, "BEGIN:VCARD\nEMAIL:a@x.com\nEMAIL:b@x.com\nEND:VCARD\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	card := reader.Of(reader.Of(ctx.Root).AsArray().Get(0)).AsMap()
	emails := reader.Of(card.Get("email")).AsArray()
	require.Equal(t, 2, emails.Length())
}

func TestFoldedLineIsJoined(t *testing.T) {
	ctx := parse(t, "BEGIN:VCARD\nNOTE:long line that\n continues here\nEND:VCARD\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	card := reader.Of(reader.Of(ctx.Root).AsArray().Get(0)).AsMap()
	note := reader.Of(card.Get("note")).AsMap()
	assert.Equal(t, "long line thatcontinues here", reader.Of(note.Get("value")).AsString())
}

func TestMultipleCards(t *testing.T) {
	ctx := parse(t, "BEGIN:VCARD\nFN:A\nEND:VCARD\nBEGIN:VCARD\nFN:B\nEND:VCARD\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	cards := reader.Of(ctx.Root).AsArray()
	require.Equal(t, 2, cards.Length())
}

func TestPropertyOutsideCardWarns(t *testing.T) {
	ctx := parse(t, "FN:stray\n")
	assert.True(t, ctx.Diag.WarningCount() > 0)
}

func TestEmptySourceIsNull(t *testing.T) {
	ctx := parse(t, "")
	assert.True(t, reader.Of(ctx.Root).IsNull())
}
