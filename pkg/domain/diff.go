package domain

import "reflect"

// StateDiff represents the changes between two snapshots of a ConversationState.
// It is serialized to JSON so clients can patch their local view after a turn.
type StateDiff struct {
	SessionID string `json:"session_id"`

	Phase          *Phase  `json:"phase,omitempty"`
	RequireConfirm *bool   `json:"require_confirm,omitempty"`
	DefaultTarget  *string `json:"default_target,omitempty"`

	// PendingAction is set when the pending slot changed. A cleared slot is
	// reported through PendingCleared because a nil pointer is dropped by omitempty.
	PendingAction  *Command `json:"pending_action,omitempty"`
	PendingCleared bool     `json:"pending_cleared,omitempty"`

	// Remaining is the new length of the command queue when it changed.
	Remaining *int `json:"remaining,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState.
func Diff(oldState, newState *ConversationState) *StateDiff {
	if newState == nil {
		return nil
	}
	if oldState == nil {
		oldState = &ConversationState{}
	}

	diff := &StateDiff{SessionID: newState.SessionID}

	if oldState.Phase != newState.Phase {
		p := newState.Phase
		diff.Phase = &p
	}
	if oldState.RequireConfirm != newState.RequireConfirm {
		b := newState.RequireConfirm
		diff.RequireConfirm = &b
	}
	if oldState.DefaultTarget != newState.DefaultTarget {
		t := newState.DefaultTarget
		diff.DefaultTarget = &t
	}

	switch {
	case newState.PendingAction == nil && oldState.PendingAction != nil:
		diff.PendingCleared = true
	case newState.PendingAction != nil && !reflect.DeepEqual(oldState.PendingAction, newState.PendingAction):
		p := *newState.PendingAction
		diff.PendingAction = &p
	}

	if len(oldState.RemainingCommands) != len(newState.RemainingCommands) ||
		!reflect.DeepEqual(oldState.RemainingCommands, newState.RemainingCommands) {
		n := len(newState.RemainingCommands)
		diff.Remaining = &n
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Phase == nil &&
		d.RequireConfirm == nil &&
		d.DefaultTarget == nil &&
		d.PendingAction == nil &&
		!d.PendingCleared &&
		d.Remaining == nil
}
