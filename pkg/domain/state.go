package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Phase is the current mode of a conversation's action-planning machine.
type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseExecuting            Phase = "executing"
)

var allowedTransitions = map[Phase]map[Phase]struct{}{
	PhaseIdle: {
		PhaseAwaitingConfirmation: {},
		PhaseExecuting:            {},
	},
	PhaseAwaitingConfirmation: {
		PhaseExecuting: {},
		PhaseIdle:      {},
	},
	PhaseExecuting: {
		PhaseIdle: {},
	},
}

// ValidateTransition checks a phase change against the transition table.
func ValidateTransition(from, to Phase) error {
	next, ok := allowedTransitions[from]
	if !ok {
		return fmt.Errorf("%w: unknown phase %q", ErrInvalidTransition, from)
	}
	if _, ok := next[to]; !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// ConversationState is the per-session state owned by the planner.
type ConversationState struct {
	SessionID string `json:"session_id"`
	Phase     Phase  `json:"phase"`

	// PendingAction is the Command waiting for a yes/no reply.
	PendingAction *Command `json:"pending_action,omitempty"`
	// PendingInput is the raw instruction that produced PendingAction.
	PendingInput string `json:"pending_input,omitempty"`
	// RemainingCommands are the rest of a decomposed compound instruction.
	RemainingCommands []Command `json:"remaining_commands,omitempty"`

	RequireConfirm bool   `json:"require_confirm"`
	DefaultTarget  string `json:"default_target,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries the encrypted form of the fields above when a store
	// middleware keeps them opaque at rest.
	Sealed string `json:"sealed,omitempty"`
}

// NewConversationState creates an idle session with confirmation enabled.
func NewConversationState(sessionID string) *ConversationState {
	return &ConversationState{
		SessionID:      sessionID,
		Phase:          PhaseIdle,
		RequireConfirm: true,
	}
}

// Transition moves the state to the given phase if the table allows it.
func (s *ConversationState) Transition(to Phase) error {
	from := s.Phase
	if from == "" {
		from = PhaseIdle
	}
	if err := ValidateTransition(from, to); err != nil {
		return err
	}
	s.Phase = to
	if to == PhaseIdle {
		s.clearQueue()
	}
	return nil
}

// Hold stores the command awaiting confirmation together with the rest of the queue.
func (s *ConversationState) Hold(input string, pending Command, remaining []Command) error {
	if s.PendingAction != nil {
		return fmt.Errorf("%w: a pending action is already outstanding", ErrInvalidTransition)
	}
	if err := s.Transition(PhaseAwaitingConfirmation); err != nil {
		return err
	}
	p := pending
	s.PendingAction = &p
	s.PendingInput = input
	s.RemainingCommands = append([]Command(nil), remaining...)
	return nil
}

// Release empties the pending slot and returns the full queue in execution order.
func (s *ConversationState) Release() []Command {
	var queue []Command
	if s.PendingAction != nil {
		queue = append(queue, *s.PendingAction)
	}
	queue = append(queue, s.RemainingCommands...)
	s.clearQueue()
	return queue
}

func (s *ConversationState) clearQueue() {
	s.PendingAction = nil
	s.PendingInput = ""
	s.RemainingCommands = nil
}

// Snapshot returns a deep copy of the state.
func (s *ConversationState) Snapshot() *ConversationState {
	if s == nil {
		return nil
	}
	out := *s
	if s.PendingAction != nil {
		p := *s.PendingAction
		out.PendingAction = &p
	}
	out.RemainingCommands = append([]Command(nil), s.RemainingCommands...)
	return &out
}

// Target returns the session's default page, falling back to DefaultTarget.
func (s *ConversationState) Target() string {
	if strings.TrimSpace(s.DefaultTarget) != "" {
		return s.DefaultTarget
	}
	return DefaultTarget
}

// Get reads a named field as a string.
func (s *ConversationState) Get(key string) (string, error) {
	switch key {
	case KeyRequireConfirm:
		return strconv.FormatBool(s.RequireConfirm), nil
	case KeyDefaultTarget:
		return s.Target(), nil
	case KeyPhase:
		if s.Phase == "" {
			return string(PhaseIdle), nil
		}
		return string(s.Phase), nil
	case KeyPendingAction:
		if s.PendingAction == nil {
			return "", nil
		}
		raw, err := json.Marshal(s.PendingAction)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	case KeyRemainingCommands:
		return strconv.Itoa(len(s.RemainingCommands)), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStateKey, key)
}

// Set writes a named field from its string form.
func (s *ConversationState) Set(key, value string) error {
	switch key {
	case KeyRequireConfirm:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidStateValue, key, value, err)
		}
		s.RequireConfirm = b
		return nil
	case KeyDefaultTarget:
		s.DefaultTarget = strings.TrimSpace(value)
		return nil
	case KeyPhase, KeyPendingAction, KeyRemainingCommands:
		return fmt.Errorf("%w: %q", ErrReadOnlyStateKey, key)
	}
	return fmt.Errorf("%w: %q", ErrUnknownStateKey, key)
}
