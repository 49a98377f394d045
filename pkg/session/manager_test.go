package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]domain.ConversationState
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, state *domain.ConversationState) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]domain.ConversationState)
	}
	s.data[sessionID] = *state.Snapshot()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.ConversationState, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.data[sessionID]; ok {
		return state.Snapshot(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_UpdateSerializesTurns(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	turns := 10

	// Each turn appends one command. Without the lock some appends would be lost.
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Update(ctx, id, func(ctx context.Context, s *domain.ConversationState) error {
				s.RemainingCommands = append(s.RemainingCommands, domain.Command{Action: domain.ActionWrite})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, state.RemainingCommands, turns)
}

func TestManager_UpdateFailureDoesNotSave(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()

	boom := errors.New("boom")
	err := manager.Update(ctx, "s1", func(ctx context.Context, s *domain.ConversationState) error {
		s.DefaultTarget = "Journal"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = manager.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_LoadOrStart(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store, session.WithDefaults(func(s *domain.ConversationState) {
		s.RequireConfirm = false
		s.DefaultTarget = "Inbox"
	}))
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := manager.LoadOrStart(ctx, id)
			assert.NoError(t, err)
			assert.NotNil(t, state)
		}()
	}
	wg.Wait()

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseIdle, state.Phase)
	assert.False(t, state.RequireConfirm)
	assert.Equal(t, "Inbox", state.DefaultTarget)
}

func TestManager_UpdateStampsTime(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	manager := session.NewManager(&SlowStore{}, session.WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	require.NoError(t, manager.Update(ctx, "s1", func(context.Context, *domain.ConversationState) error { return nil }))

	state, err := manager.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, state.UpdatedAt.Equal(fixed))
}
