package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrParseFailure is returned by a parser tier that declines an instruction.
	// It never reaches the user: a later tier or the fallback Command resolves it.
	ErrParseFailure = errors.New("parse failure")

	// ErrAmbiguousCompound is raised when a compound instruction cannot be split confidently.
	ErrAmbiguousCompound = errors.New("ambiguous compound instruction")

	// ErrInvalidCommand is returned by Command.Validate.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrTargetNotFound is returned when no page matches a requested name.
	ErrTargetNotFound = errors.New("target not found")

	// ErrSectionNotFound is returned when no heading matches a requested section.
	ErrSectionNotFound = errors.New("section not found")

	// ErrTransient marks failures a retry could plausibly fix (timeouts, rate limits, 5xx).
	ErrTransient = errors.New("transient external failure")

	// ErrPermanent marks failures a retry cannot fix (auth, validation, 404).
	ErrPermanent = errors.New("permanent external failure")

	// ErrUnsupportedAction is returned when the workspace lacks a capability an action needs.
	ErrUnsupportedAction = errors.New("unsupported action")

	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnknownStateKey is returned by ConversationState.Get/Set for keys outside the schema.
	ErrUnknownStateKey = errors.New("unknown state key")

	// ErrReadOnlyStateKey is returned by ConversationState.Set for derived keys.
	ErrReadOnlyStateKey = errors.New("read-only state key")

	// ErrInvalidStateValue is returned by ConversationState.Set for values that do not parse.
	ErrInvalidStateValue = errors.New("invalid state value")

	// ErrInvalidTransition is returned when a phase change is not in the transition table.
	ErrInvalidTransition = errors.New("invalid phase transition")
)

// TargetError names the page or section that could not be resolved.
type TargetError struct {
	Kind string // "page", "parent page" or "section"
	Name string
	Page string // owning page for sections
	Err  error
}

func (e *TargetError) Error() string {
	if e.Page != "" {
		return fmt.Sprintf("%s %q not found in %q", e.Kind, e.Name, e.Page)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *TargetError) Unwrap() error { return e.Err }

// ExternalError wraps a failed call to a collaborator (workspace or model).
type ExternalError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ExternalError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExternalError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTransient) and errors.Is(err, ErrPermanent) classify by status code.
func (e *ExternalError) Is(target error) bool {
	switch target {
	case ErrTransient:
		return e.transient()
	case ErrPermanent:
		return !e.transient()
	}
	return false
}

func (e *ExternalError) transient() bool {
	if e.StatusCode == 0 {
		return isTransientCause(e.Err)
	}
	return e.StatusCode == 408 || e.StatusCode == 429 || e.StatusCode >= 500
}

func isTransientCause(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTransient) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// IsTransient classifies an error for the retry policy.
// Context cancellation is never transient: the caller gave up.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrTransient) || isTransientCause(err)
}
