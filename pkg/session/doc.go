/*
Package session serializes conversation turns and persists ConversationState.

Manager.Update is the single entry point a turn goes through: it takes the
per-session lock (and the distributed lock when configured), loads or creates
the state, runs the turn and saves the result. Two turns for the same session
never interleave; turns for different sessions run independently.
*/
package session
