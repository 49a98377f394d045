package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandler_Output(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), outBuf, WithTextHandlerRenderer(func(s string) (string, error) {
		return "Rendered: " + s, nil
	}))

	require.NoError(t, handler.Output(context.Background(), Message{Content: "Hello World"}))
	assert.Equal(t, "Rendered: Hello World\n", outBuf.String())
}

func TestTextHandler_Input(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("  my user input \n\x1b[1mbold\n"), outBuf)

	val, err := handler.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "my user input", val)

	val, err = handler.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "[1mbold", val, "control characters are stripped")

	_, err = handler.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "> > > ", outBuf.String())
}

func TestTextHandler_InputRetriesRejected(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "5")
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("far too long\nok\n"), outBuf)

	val, err := handler.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Contains(t, outBuf.String(), "Please try again")
}

func TestTextHandler_InputHonorsContext(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	handler := NewTextHandler(r, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := handler.Input(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
