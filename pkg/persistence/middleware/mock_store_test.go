package middleware_test

import (
	"context"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]*domain.ConversationState
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.ConversationState),
	}
}

func (s *MockStore) Save(ctx context.Context, sessionID string, state *domain.ConversationState) error {
	s.data[sessionID] = state.Snapshot()
	return nil
}

func (s *MockStore) Load(ctx context.Context, sessionID string) (*domain.ConversationState, error) {
	state, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return state.Snapshot(), nil
}

func (s *MockStore) Delete(ctx context.Context, sessionID string) error {
	delete(s.data, sessionID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.StateStore = (*MockStore)(nil)

func pendingState(t interface{ Fatal(...any) }, sessionID, input string) *domain.ConversationState {
	st := domain.NewConversationState(sessionID)
	err := st.Hold(input,
		domain.Command{Action: domain.ActionWrite, PrimaryTarget: "Diary", Content: "my-secret-sauce"},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	return st
}
