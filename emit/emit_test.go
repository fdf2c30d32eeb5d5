package emit_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/lambda-doc/lambda/emit"
	"github.com/lambda-doc/lambda/item"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForReturnsErrorWhenNoEmitterRegistered(t *testing.T) {
	var buf bytes.Buffer
	err := emit.For(&buf, item.Null, "no-such-format", "")
	require.Error(t, err)
	var nee *emit.NoEmitterError
	assert.ErrorAs(t, err, &nee)
}

func TestRegisterAndForRoundTripsThroughEmitterFunc(t *testing.T) {
	emit.Register("stub-emit-test", emit.EmitterFunc(func(w io.Writer, it item.Item, flavor string) error {
		_, err := w.Write([]byte(flavor))
		return err
	}))

	var buf bytes.Buffer
	require.NoError(t, emit.For(&buf, item.Null, "stub-emit-test", "dialect-a"))
	assert.Equal(t, "dialect-a", buf.String())
}
