package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	awaiting := PhaseAwaitingConfirmation
	pending := Command{Action: ActionWrite, PrimaryTarget: "Groceries", Content: "milk"}

	tests := []struct {
		name     string
		old      *ConversationState
		new      *ConversationState
		wantDiff *StateDiff // nil means no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  NewConversationState("sess-1"),
			wantDiff: &StateDiff{
				SessionID:      "sess-1",
				Phase:          &[]Phase{PhaseIdle}[0],
				RequireConfirm: &[]bool{true}[0],
			},
		},
		{
			name:     "No Changes",
			old:      NewConversationState("sess-1"),
			new:      NewConversationState("sess-1"),
			wantDiff: nil,
		},
		{
			name: "Hold Pending Action",
			old:  NewConversationState("sess-1"),
			new: &ConversationState{
				SessionID:         "sess-1",
				Phase:             PhaseAwaitingConfirmation,
				RequireConfirm:    true,
				PendingAction:     &pending,
				RemainingCommands: []Command{pending},
			},
			wantDiff: &StateDiff{
				SessionID:     "sess-1",
				Phase:         &awaiting,
				PendingAction: &pending,
				Remaining:     &[]int{1}[0],
			},
		},
		{
			name: "Pending Cleared",
			old: &ConversationState{
				SessionID:      "sess-1",
				Phase:          PhaseAwaitingConfirmation,
				RequireConfirm: true,
				PendingAction:  &pending,
			},
			new: NewConversationState("sess-1"),
			wantDiff: &StateDiff{
				SessionID:      "sess-1",
				Phase:          &[]Phase{PhaseIdle}[0],
				PendingCleared: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Diff() = nil, want %+v", tt.wantDiff)
			}
			if got.SessionID != tt.wantDiff.SessionID {
				t.Errorf("Diff().SessionID = %v, want %v", got.SessionID, tt.wantDiff.SessionID)
			}
			if !equalPtr(got.Phase, tt.wantDiff.Phase) {
				t.Errorf("Diff().Phase = %v, want %v", got.Phase, tt.wantDiff.Phase)
			}
			if !equalPtr(got.RequireConfirm, tt.wantDiff.RequireConfirm) {
				t.Errorf("Diff().RequireConfirm = %v, want %v", got.RequireConfirm, tt.wantDiff.RequireConfirm)
			}
			if !equalPtr(got.Remaining, tt.wantDiff.Remaining) {
				t.Errorf("Diff().Remaining = %v, want %v", got.Remaining, tt.wantDiff.Remaining)
			}
			if got.PendingCleared != tt.wantDiff.PendingCleared {
				t.Errorf("Diff().PendingCleared = %v, want %v", got.PendingCleared, tt.wantDiff.PendingCleared)
			}
			if (got.PendingAction == nil) != (tt.wantDiff.PendingAction == nil) {
				t.Errorf("Diff().PendingAction = %v, want %v", got.PendingAction, tt.wantDiff.PendingAction)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Unchanged Fields Omitted", func(t *testing.T) {
		s1 := NewConversationState("sess-1")
		s2 := s1.Snapshot()
		s2.DefaultTarget = "Journal"

		diff := Diff(s1, s2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}
		bytes, _ := json.Marshal(diff)
		if strings.Contains(string(bytes), `"phase"`) {
			t.Errorf("JSON should not contain 'phase' when unchanged, got: %s", string(bytes))
		}
		if !strings.Contains(string(bytes), `"default_target":"Journal"`) {
			t.Errorf("JSON should contain the new default target, got: %s", string(bytes))
		}
	})
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
