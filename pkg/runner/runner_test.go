package runner

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Loop(t *testing.T) {
	out := &bytes.Buffer{}
	var seen []string
	chat := func(_ context.Context, sessionID, input string) (Message, error) {
		assert.Equal(t, "cli", sessionID)
		seen = append(seen, input)
		if input == "explode" {
			return Message{}, errors.New("workspace down")
		}
		return Message{Content: "ok: " + input}, nil
	}

	r := NewRunner(chat,
		WithSessionID("cli"),
		WithGreeting("Welcome"),
		WithInputHandler(NewTextHandler(strings.NewReader("add milk\n\nexplode\nread list\nquit\nnever\n"), out)),
	)
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"add milk", "explode", "read list"}, seen, "empty lines skipped, quit stops")
	text := out.String()
	assert.Contains(t, text, "[System] Welcome")
	assert.Contains(t, text, "ok: add milk")
	assert.Contains(t, text, "[System] Error: workspace down")
	assert.Contains(t, text, "ok: read list")
	assert.NotContains(t, text, "never")
}

func TestRunner_StopsAtEOF(t *testing.T) {
	calls := 0
	r := NewRunner(func(context.Context, string, string) (Message, error) {
		calls++
		return Message{}, nil
	}, WithInputHandler(NewJSONHandler(strings.NewReader(`"one"`+"\n"), &bytes.Buffer{})))

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestRunner_OversizedInputContinues(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "8")
	out := &bytes.Buffer{}
	var seen []string
	r := NewRunner(func(_ context.Context, _, input string) (Message, error) {
		seen = append(seen, input)
		return Message{Content: input}, nil
	}, WithInputHandler(NewJSONHandler(strings.NewReader("\"this is too long\"\n\"short\"\n"), out)))

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"short"}, seen)
	assert.Contains(t, out.String(), "exceeds maximum allowed size")
}

func TestRunner_RequiresChat(t *testing.T) {
	assert.Error(t, NewRunner(nil).Run(context.Background()))
}
