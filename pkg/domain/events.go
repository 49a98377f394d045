package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventParse        EventType = "parse"
	EventCommandStart EventType = "command_start"
	EventCommandEnd   EventType = "command_end"
	EventRetry        EventType = "retry"
	EventTransition   EventType = "transition"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// ParseEvent is emitted once per interpreted instruction.
type ParseEvent struct {
	EventBase
	Tier     Source        `json:"tier"`
	Commands int           `json:"commands"`
	Split    bool          `json:"split"`
	Duration time.Duration `json:"duration"`
}

// CommandEvent brackets the execution of a single Command.
type CommandEvent struct {
	EventBase
	Index    int           `json:"index"`
	Command  Command       `json:"command"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration,omitempty"`
}

// RetryEvent is emitted before each retry of an external call.
type RetryEvent struct {
	EventBase
	Op      string        `json:"op"`
	Attempt int           `json:"attempt"`
	Delay   time.Duration `json:"delay"`
	Err     error         `json:"-"`
}

// TransitionEvent records a phase change.
type TransitionEvent struct {
	EventBase
	From Phase `json:"from"`
	To   Phase `json:"to"`
}

// LifecycleHooks defines callbacks for pipeline observability.
type LifecycleHooks struct {
	OnParse        func(context.Context, *ParseEvent)
	OnCommandStart func(context.Context, *CommandEvent)
	OnCommandEnd   func(context.Context, *CommandEvent)
	OnRetry        func(context.Context, *RetryEvent)
	OnTransition   func(context.Context, *TransitionEvent)
}

// Merge returns hooks that call h first and then other for every event.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnParse:        chain(h.OnParse, other.OnParse),
		OnCommandStart: chain(h.OnCommandStart, other.OnCommandStart),
		OnCommandEnd:   chain(h.OnCommandEnd, other.OnCommandEnd),
		OnRetry:        chain(h.OnRetry, other.OnRetry),
		OnTransition:   chain(h.OnTransition, other.OnTransition),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
