package runner

import (
	"context"

	"github.com/aretw0/scribe/pkg/domain"
)

// Message is one assistant reply as shown to the user.
type Message struct {
	SessionID string       `json:"session_id,omitempty"`
	Content   string       `json:"content"`
	Phase     domain.Phase `json:"phase,omitempty"`
	// Pending is true while a destructive action waits for confirmation.
	Pending bool `json:"pending,omitempty"`
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents a reply.
	Output(ctx context.Context, msg Message) error

	// Input reads the next instruction. It returns io.EOF when the user is done.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (errors, status), distinct from replies.
	SystemOutput(ctx context.Context, msg string) error
}

// ChatFunc runs one conversational turn for a session.
type ChatFunc func(ctx context.Context, sessionID, input string) (Message, error)
