package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/scribe/internal/presentation/tui"
	"github.com/aretw0/scribe/pkg/runner"
)

// printSystemMessage prints a standardized, dimmed system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	style := tui.SystemStyle(w)
	fmt.Fprintln(w, style(">>> "+fmt.Sprintf(format, args...)))
}

// chatFunc adapts an assistant to the runner loop.
func chatFunc(rt *Runtime) runner.ChatFunc {
	return func(ctx context.Context, sessionID, input string) (runner.Message, error) {
		reply, err := rt.Assistant.Chat(ctx, sessionID, input)
		if err != nil {
			return runner.Message{}, err
		}
		return runner.Message{
			SessionID: sessionID,
			Content:   reply.Content,
			Phase:     reply.Phase,
			Pending:   len(reply.Pending) > 0,
		}, nil
	}
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil // Exit 0 for interruptions
	}
	return err
}

// stdout is swapped in tests.
var stdout io.Writer = os.Stdout
