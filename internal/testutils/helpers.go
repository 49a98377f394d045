package testutils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/scribe"
	"github.com/aretw0/scribe/pkg/adapters/memory"
	"github.com/aretw0/scribe/pkg/parser"
)

// SetupAssistant creates an offline assistant over an in-memory workspace
// holding one empty page per title. With no titles a "Shopping List" page is
// seeded. It fails the test immediately on error.
func SetupAssistant(t *testing.T, titles []string, opts ...scribe.Option) (*scribe.Assistant, *memory.Workspace) {
	t.Helper()

	if len(titles) == 0 {
		titles = []string{"Shopping List"}
	}
	ws := memory.NewWorkspace()
	for _, title := range titles {
		_, err := ws.Seed(context.Background(), "", title)
		require.NoError(t, err, "Failed to seed page %q", title)
	}

	opts = append([]scribe.Option{scribe.WithParserOptions(parser.WithOffline(true))}, opts...)
	a, err := scribe.New(ws, opts...)
	require.NoError(t, err, "Failed to build assistant")

	return a, ws
}
