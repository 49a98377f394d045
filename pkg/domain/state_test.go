package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTransition(t *testing.T) {
	allowed := [][2]Phase{
		{PhaseIdle, PhaseAwaitingConfirmation},
		{PhaseIdle, PhaseExecuting},
		{PhaseAwaitingConfirmation, PhaseExecuting},
		{PhaseAwaitingConfirmation, PhaseIdle},
		{PhaseExecuting, PhaseIdle},
	}
	for _, tr := range allowed {
		assert.NoError(t, ValidateTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]Phase{
		{PhaseExecuting, PhaseAwaitingConfirmation},
		{PhaseIdle, PhaseIdle},
		{"bogus", PhaseIdle},
	}
	for _, tr := range denied {
		err := ValidateTransition(tr[0], tr[1])
		assert.True(t, errors.Is(err, ErrInvalidTransition), "%s -> %s", tr[0], tr[1])
	}
}

func TestConversationState_HoldRelease(t *testing.T) {
	s := NewConversationState("s1")
	first := Command{Action: ActionWrite, Content: "milk"}
	second := Command{Action: ActionWrite, Content: "eggs", IsMultiAction: true}

	require.NoError(t, s.Hold("add milk and eggs", first, []Command{second}))
	assert.Equal(t, PhaseAwaitingConfirmation, s.Phase)
	require.NotNil(t, s.PendingAction)
	assert.Len(t, s.RemainingCommands, 1)

	t.Run("Only One Pending", func(t *testing.T) {
		err := s.Hold("again", first, nil)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	require.NoError(t, s.Transition(PhaseExecuting))
	queue := s.Release()
	assert.Equal(t, []Command{first, second}, queue)
	assert.Nil(t, s.PendingAction)
	assert.Empty(t, s.RemainingCommands)

	require.NoError(t, s.Transition(PhaseIdle))
}

func TestConversationState_IdleDrainsQueue(t *testing.T) {
	s := NewConversationState("s1")
	require.NoError(t, s.Hold("x", Command{Action: ActionDelete}, []Command{{Action: ActionDelete}}))

	require.NoError(t, s.Transition(PhaseIdle))
	assert.Nil(t, s.PendingAction)
	assert.Empty(t, s.RemainingCommands)
	assert.Empty(t, s.PendingInput)
}

func TestConversationState_GetSet(t *testing.T) {
	s := NewConversationState("s1")

	v, err := s.Get(KeyRequireConfirm)
	require.NoError(t, err)
	assert.Equal(t, "true", v)

	require.NoError(t, s.Set(KeyRequireConfirm, "false"))
	assert.False(t, s.RequireConfirm)

	v, _ = s.Get(KeyDefaultTarget)
	assert.Equal(t, DefaultTarget, v)
	require.NoError(t, s.Set(KeyDefaultTarget, " Journal "))
	v, _ = s.Get(KeyDefaultTarget)
	assert.Equal(t, "Journal", v)

	v, _ = s.Get(KeyPhase)
	assert.Equal(t, "idle", v)

	assert.ErrorIs(t, s.Set(KeyPhase, "executing"), ErrReadOnlyStateKey)
	assert.ErrorIs(t, s.Set("colour", "blue"), ErrUnknownStateKey)
	_, err = s.Get("colour")
	assert.ErrorIs(t, err, ErrUnknownStateKey)
	assert.Error(t, s.Set(KeyRequireConfirm, "maybe"))
}

func TestConversationState_Snapshot(t *testing.T) {
	s := NewConversationState("s1")
	require.NoError(t, s.Hold("x", Command{Action: ActionWrite, Content: "a"}, []Command{{Action: ActionWrite}}))

	snap := s.Snapshot()
	snap.PendingAction.Content = "changed"
	snap.RemainingCommands[0].Content = "changed"

	assert.Equal(t, "a", s.PendingAction.Content)
	assert.Empty(t, s.RemainingCommands[0].Content)
}
