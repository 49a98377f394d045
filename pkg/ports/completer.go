package ports

import "context"

// Completer is the language-model collaborator used by the model-backed parser tier.
type Completer interface {
	// Complete sends the fixed system instructions and the user's raw text and
	// returns the model's reply verbatim.
	Complete(ctx context.Context, system, user string) (string, error)
}
