package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextDiagnostics(t *testing.T) {
	ctx := New([]byte("abc"), "", "json", "")
	ctx.AddWarning("heads up")
	ctx.AddError("boom %d", 1)
	assert.True(t, ctx.HasErrors())
	assert.Equal(t, 1, ctx.ErrorCount())
	assert.Contains(t, ctx.FormatErrors(), "boom 1")
}

func TestContextEnterDepthOverflow(t *testing.T) {
	ctx := NewWithOptions([]byte("x"), "", "json", "", WithMaxDepth(2))
	require.True(t, ctx.EnterDepth())
	require.True(t, ctx.EnterDepth())
	assert.False(t, ctx.EnterDepth())
	assert.True(t, ctx.ShouldStopParsing())
	assert.Equal(t, 1, ctx.ErrorCount())

	// a second overflow must not add a second error
	assert.False(t, ctx.EnterDepth())
	assert.Equal(t, 1, ctx.ErrorCount())
}

func TestContextMaxErrorsBackpressure(t *testing.T) {
	ctx := NewWithOptions([]byte("x"), "", "json", "", WithMaxErrors(2))
	ctx.AddError("one")
	ctx.AddError("two")
	ctx.AddError("three")
	assert.True(t, ctx.ShouldStopParsing())
	assert.Equal(t, 3, ctx.ErrorCount())
}

func TestStripBOM(t *testing.T) {
	assert.Equal(t, []byte("abc"), StripBOM([]byte("\xef\xbb\xbfabc")))
	assert.Equal(t, []byte("abc"), StripBOM([]byte("abc")))
}
