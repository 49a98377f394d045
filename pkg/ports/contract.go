package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewConversationState(sessionID)
		state.DefaultTarget = "Journal"
		require.NoError(t, state.Hold("add milk",
			domain.Command{Action: domain.ActionWrite, PrimaryTarget: "Groceries", Content: "milk"},
			[]domain.Command{{Action: domain.ActionWrite, PrimaryTarget: "Groceries", Content: "eggs", IsMultiAction: true}},
		))

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.PhaseAwaitingConfirmation, loaded.Phase)
		assert.Equal(t, "Journal", loaded.DefaultTarget)
		assert.True(t, loaded.RequireConfirm)
		require.NotNil(t, loaded.PendingAction)
		assert.Equal(t, "milk", loaded.PendingAction.Content)
		require.Len(t, loaded.RemainingCommands, 1)
		assert.True(t, loaded.RemainingCommands[0].IsMultiAction)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Writes Are Isolated", func(t *testing.T) {
		state := domain.NewConversationState(sessionID)
		require.NoError(t, store.Save(ctx, sessionID, state))

		state.DefaultTarget = "mutated after save"

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, loaded.DefaultTarget)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewConversationState(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewConversationState(id1))
		_ = store.Save(ctx, id2, domain.NewConversationState(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
