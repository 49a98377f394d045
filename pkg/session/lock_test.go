package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

// MockStore structure
type MockStore struct{}

func (m *MockStore) Save(ctx context.Context, sessionID string, state *domain.ConversationState) error {
	return nil
}
func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.ConversationState, error) {
	return nil, domain.ErrSessionNotFound
}
func (m *MockStore) Delete(ctx context.Context, sessionID string) error { return nil }
func (m *MockStore) List(ctx context.Context) ([]string, error)         { return nil, nil }

type recordingLocker struct {
	ttl      time.Duration
	released int
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.ttl = ttl
	return func(context.Context) error {
		l.released++
		return nil
	}, nil
}

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(&MockStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.Update(ctx, sid, func(context.Context, *domain.ConversationState) error { return nil })
		_ = mgr.Delete(ctx, sid)
	}

	lockCount := len(mgr.locks)
	t.Logf("Sessions Created: %d, Locks Leaked: %d", count, lockCount)

	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &recordingLocker{}
	mgr := NewManager(&MockStore{}, WithLocker(locker), WithLockTTL(5*time.Second))

	err := mgr.Update(context.Background(), "s1", func(context.Context, *domain.ConversationState) error { return nil })
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if locker.ttl != 5*time.Second {
		t.Errorf("expected ttl 5s, got %v", locker.ttl)
	}
	if locker.released != 1 {
		t.Errorf("expected lock released once, got %d", locker.released)
	}
}
