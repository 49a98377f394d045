package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/scribe/internal/logging"
)

// Runner drives the conversation loop: read an instruction, run a turn, show the reply.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	// Chat runs one turn. Required.
	Chat ChatFunc

	// Handler is the strategy for IO. If nil, a TextHandler on Stdin/Stdout is used.
	Handler IOHandler

	// SessionID identifies the conversation every turn belongs to.
	SessionID string

	// Greeting is printed through SystemOutput before the first prompt.
	Greeting string

	// HandleSignals ends the loop on interrupt instead of killing the process.
	HandleSignals bool

	Logger *slog.Logger
}

// NewRunner creates a Runner for chat.
func NewRunner(chat ChatFunc, opts ...Option) *Runner {
	r := &Runner{
		Chat:   chat,
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run loops until the input ends, the user types exit or quit, or ctx is done.
// A failed turn is reported through SystemOutput and the loop continues.
func (r *Runner) Run(ctx context.Context) error {
	if r.Chat == nil {
		return fmt.Errorf("runner: chat function is required")
	}
	handler := r.resolveHandler()

	var signals *SignalManager
	if r.HandleSignals {
		signals = NewSignalManager(ctx)
		defer signals.Stop()
		ctx = signals.Context()
	}

	if r.Greeting != "" {
		if err := handler.SystemOutput(ctx, r.Greeting); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}

	for {
		input, err := handler.Input(ctx)
		if errors.Is(err, ErrInputTooLarge) || errors.Is(err, ErrInvalidUTF8) {
			if err := handler.SystemOutput(ctx, "Error: "+err.Error()); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			continue
		}
		if err != nil {
			if signals != nil {
				signals.CheckRace()
			}
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				r.Logger.Debug("Runner input closed", "session_id", r.SessionID, "err", err)
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		msg, err := r.Chat(ctx, r.SessionID, input)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.Logger.Error("Turn failed", "session_id", r.SessionID, "err", err)
			if err := handler.SystemOutput(ctx, "Error: "+err.Error()); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			continue
		}
		if err := handler.Output(ctx, msg); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

func (r *Runner) resolveHandler() IOHandler {
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r.Handler
}
