package csv_test

import (
	"testing"

	_ "github.com/lambda-doc/lambda/parser/csv"

	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, format, src string) *input.Context {
	t.Helper()
	return input.FromSource([]byte(src), "", format, "")
}

func TestHeaderDetectionAndRowShape(t *testing.T) {
	// §8.2: root is an array of two maps; shape is shared between rows.
	ctx := parse(t, "csv", "name,age\nAlice,30\nBob,25\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())

	arr := reader.Of(ctx.Root).AsArray()
	require.Equal(t, 2, arr.Length())

	row0 := reader.Of(arr.Get(0)).AsMap()
	row1 := reader.Of(arr.Get(1)).AsMap()
	assert.Equal(t, "Alice", reader.Of(row0.Get("name")).AsString())
	assert.Equal(t, "30", reader.Of(row0.Get("age")).AsString())
	assert.Equal(t, "Bob", reader.Of(row1.Get("name")).AsString())
	assert.Equal(t, "25", reader.Of(row1.Get("age")).AsString())
}

func TestNoHeaderWhenAllRowsLookNumeric(t *testing.T) {
	ctx := parse(t, "csv", "1,2,3\n4,5,6\n")
	require.False(t, ctx.HasErrors())
	arr := reader.Of(ctx.Root).AsArray()
	require.Equal(t, 2, arr.Length())
	row0 := reader.Of(arr.Get(0)).AsArray()
	require.Equal(t, 3, row0.Length())
	assert.Equal(t, "2", reader.Of(row0.Get(1)).AsString())
}

func TestTabSeparatorDetected(t *testing.T) {
	ctx := parse(t, "tsv", "name\tage\nAlice\t30\n")
	require.False(t, ctx.HasErrors())
	arr := reader.Of(ctx.Root).AsArray()
	row0 := reader.Of(arr.Get(0)).AsMap()
	assert.Equal(t, "Alice", reader.Of(row0.Get("name")).AsString())
}

func TestQuotedFieldWithDoubledQuoteAndSeparator(t *testing.T) {
	ctx := parse(t, "csv", "name,quote\nAlice,\"she said \"\"hi, there\"\"\"\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	arr := reader.Of(ctx.Root).AsArray()
	row0 := reader.Of(arr.Get(0)).AsMap()
	assert.Equal(t, `she said "hi, there"`, reader.Of(row0.Get("quote")).AsString())
}

func TestDuplicateAndEmptyHeaderWarn(t *testing.T) {
	ctx := parse(t, "csv", "name,,name\nAlice,x,y\n")
	assert.False(t, ctx.HasErrors())
	assert.Greater(t, ctx.Diag.WarningCount(), 0)
}

func TestRowLengthMismatchWarns(t *testing.T) {
	ctx := parse(t, "csv", "a,b,c\n1,2\n")
	assert.False(t, ctx.HasErrors())
	assert.Greater(t, ctx.Diag.WarningCount(), 0)
}

func TestEmptySourceIsNull(t *testing.T) {
	ctx := parse(t, "csv", "")
	assert.False(t, ctx.HasErrors())
	assert.True(t, reader.Of(ctx.Root).IsNull())
}
