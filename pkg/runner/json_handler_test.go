package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scribe/pkg/domain"
)

func TestJSONHandler_Output(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(""), buf)

	msg := Message{SessionID: "s1", Content: "Do you want me to proceed?", Phase: domain.PhaseAwaitingConfirmation, Pending: true}
	require.NoError(t, handler.Output(context.Background(), msg))
	require.NoError(t, handler.SystemOutput(context.Background(), "ready"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var decoded Message
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	assert.Equal(t, msg, decoded)
	assert.JSONEq(t, `{"system":"ready"}`, lines[1])
}

func TestJSONHandler_Input(t *testing.T) {
	in := strings.Join([]string{
		`"add milk to Shopping List"`,
		`{"input": "read Shopping List"}`,
		`plain text`,
		`last line without newline`,
	}, "\n")
	handler := NewJSONHandler(strings.NewReader(in), io.Discard)
	ctx := context.Background()

	for _, want := range []string{"add milk to Shopping List", "read Shopping List", "plain text", "last line without newline"} {
		got, err := handler.Input(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := handler.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)
}
