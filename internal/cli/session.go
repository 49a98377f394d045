package cli

import (
	"context"
	"os"

	"github.com/aretw0/scribe"
	"github.com/aretw0/scribe/internal/presentation/tui"
	"github.com/aretw0/scribe/pkg/runner"
)

// RunSession runs the interactive conversation loop until the input ends.
func RunSession(ctx context.Context, rt *Runtime, opts RunOptions) error {
	quiet := opts.JSON || opts.Headless
	if !quiet {
		tui.PrintBanner(stdout, scribe.Version)
	}

	var handler runner.IOHandler
	switch {
	case opts.JSON:
		handler = runner.NewJSONHandler(os.Stdin, stdout)
	case !opts.Headless && tui.IsInteractive():
		handler = runner.NewTextHandler(os.Stdin, stdout, runner.WithTextHandlerRenderer(tui.NewRenderer()))
	default:
		handler = runner.NewTextHandler(os.Stdin, stdout, runner.WithPrompt(""))
	}

	runnerOpts := []runner.Option{
		runner.WithLogger(rt.Logger),
		runner.WithSessionID(opts.SessionID),
		runner.WithInputHandler(handler),
		runner.WithSignalHandling(true),
	}
	if !quiet {
		runnerOpts = append(runnerOpts, runner.WithGreeting("Session '"+opts.SessionID+"' active. Type exit to quit."))
	}

	rt.Logger.Info("Session Started", "session_id", opts.SessionID)
	err := runner.NewRunner(chatFunc(rt), runnerOpts...).Run(ctx)
	if !quiet && err == nil {
		printSystemMessage(stdout, "Session '%s' saved.", opts.SessionID)
	}
	return handleExecutionError(err)
}
