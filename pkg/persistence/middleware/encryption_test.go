package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/persistence/middleware"
	"github.com/aretw0/scribe/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func encrypted(t *testing.T, next ports.StateStore, active []byte, fallback ...[]byte) ports.StateStore {
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
	require.NoError(t, err)
	return mw(next)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	secureStore := encrypted(t, underlyingStore, generateKey(t))

	ctx := context.Background()
	sessionID := "test-session"
	originalState := pendingState(t, sessionID, "write my-secret-sauce in Diary")

	require.NoError(t, secureStore.Save(ctx, sessionID, originalState))

	storedState, err := underlyingStore.Load(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, storedState.PendingAction, "pending action must be sealed")
	assert.Empty(t, storedState.PendingInput)
	assert.NotEmpty(t, storedState.Sealed)
	assert.Equal(t, domain.PhaseAwaitingConfirmation, storedState.Phase, "phase stays visible")

	loadedState, err := secureStore.Load(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, loadedState.PendingAction)
	assert.Equal(t, "my-secret-sauce", loadedState.PendingAction.Content)
	assert.Equal(t, "write my-secret-sauce in Diary", loadedState.PendingInput)
	assert.Empty(t, loadedState.Sealed)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	secureStoreOld := encrypted(t, underlyingStore, oldKey)

	ctx := context.Background()
	sessionID := "rotation-session"
	require.NoError(t, secureStoreOld.Save(ctx, sessionID, pendingState(t, sessionID, "old")))

	secureStoreNew := encrypted(t, underlyingStore, newKey, oldKey)
	loadedState, err := secureStoreNew.Load(ctx, sessionID)
	require.NoError(t, err, "fallback key must decrypt")
	assert.Equal(t, "old", loadedState.PendingInput)

	loadedState.PendingInput = "new"
	require.NoError(t, secureStoreNew.Save(ctx, sessionID, loadedState))

	_, err = secureStoreOld.Load(ctx, sessionID)
	assert.Error(t, err, "old key alone cannot read data sealed with the new key")
}

func TestEncryptionMiddleware_PlainStateRejected(t *testing.T) {
	underlyingStore := NewMockStore()
	ctx := context.Background()
	require.NoError(t, underlyingStore.Save(ctx, "plain", domain.NewConversationState("plain")))

	_, err := encrypted(t, underlyingStore, generateKey(t)).Load(ctx, "plain")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestDecodeKey(t *testing.T) {
	key := generateKey(t)

	got, err := middleware.DecodeKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = middleware.DecodeKey(base64.RawURLEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.DecodeKey(base64.StdEncoding.EncodeToString([]byte("too short")))
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.DecodeKey("%%%")
	assert.Error(t, err)
}
