package eml_test

import (
	"testing"

	_ "github.com/lambda-doc/lambda/parser/eml"

	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *input.Context {
	t.Helper()
	return input.FromSource([]byte(src), "", "eml", "")
}

func TestSimpleMessage(t *testing.T) {
	ctx := parse(t, "From: a@x.com\r\nSubject: hi\r\n\r\nhello world\r\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	msg := reader.Of(ctx.Root).AsMap()
	headers := reader.Of(msg.Get("headers")).AsMap()
	assert.Equal(t, "a@x.com", reader.Of(headers.Get("from")).AsString())
	assert.Equal(t, "hi", reader.Of(headers.Get("subject")).AsString())
	assert.Contains(t, reader.Of(msg.Get("body")).AsString(), "hello world")
}

func TestFoldedHeaderIsJoined(t *testing.T) {
	ctx := parse(t, "Subject: long\r\n subject line\r\n\r\nbody\r\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	headers := reader.Of(reader.Of(ctx.Root).AsMap().Get("headers")).AsMap()
	assert.Equal(t, "long subject line", reader.Of(headers.Get("subject")).AsString())
}

func TestRepeatedHeaderBecomesArray(t *testing.T) {
	ctx := parse(t, "Received: one\r\nReceived: two\r\n\r\nbody\r\n")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	headers := reader.Of(reader.Of(ctx.Root).AsMap().Get("headers")).AsMap()
	received := reader.Of(headers.Get("received")).AsArray()
	require.Equal(t, 2, received.Length())
}

func TestMultipartMessageSplitsIntoParts(t *testing.T) {
	src := "Content-Type: multipart/mixed; boundary=XYZ\r\n\r\n" +
		"--XYZ\r\nContent-Type: text/plain\r\n\r\nfirst part\r\n" +
		"--XYZ\r\nContent-Type: text/plain\r\n\r\nsecond part\r\n" +
		"--XYZ--\r\n"
	ctx := parse(t, src)
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	body := reader.Of(reader.Of(ctx.Root).AsMap().Get("body")).AsArray()
	require.Equal(t, 2, body.Length())
	part0 := reader.Of(body.Get(0)).AsMap()
	assert.Contains(t, reader.Of(part0.Get("body")).AsString(), "first part")
}

func TestMalformedHeaderLineWarns(t *testing.T) {
	ctx := parse(t, "not-a-header-line\r\n\r\nbody\r\n")
	assert.True(t, ctx.Diag.WarningCount() > 0)
}

func TestEmptySourceIsNull(t *testing.T) {
	ctx := parse(t, "")
	assert.True(t, reader.Of(ctx.Root).IsNull())
}
