/*
Package planner executes interpreted commands against a workspace.

A Machine owns one turn of a conversation. It moves the session through
Idle, AwaitingConfirmation and Executing, holds destructive commands until a
literal yes or no, and runs the queue strictly in order. Each workspace call
goes through a RetryPolicy; a failing command is reported and the next one
still runs. The per-command messages are joined into one reply.

	m := planner.New(ws, parser.NewInterpreter(parser.New()))
	reply, err := m.Handle(ctx, state, "add milk to Shopping List")
*/
package planner
