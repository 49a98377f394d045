/*
Package runner implements the interactive conversation loop and its I/O handlers.

It is the bridge between an assistant (anything that can run a turn for a
session) and a terminal or pipe. The loop reads an instruction, runs the turn,
and prints the reply until the input ends or the user types exit.

# Key Components

  - Runner: the loop itself, with optional signal handling.
  - IOHandler: decouples how instructions arrive and replies leave.
  - TextHandler: line-based IO for interactive CLI usage, with an optional renderer.
  - JSONHandler: JSON-Lines IO for scripting.
  - SanitizeInput: the input policy every surface applies before a turn.

# Usage

	r := runner.NewRunner(chat,
		runner.WithSessionID("user-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
		runner.WithSignalHandling(true),
	)
	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
