//go:build !integration

package redis

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	"telegram-storefront-bot/internal/config"
	"telegram-storefront-bot/internal/domain"
	"telegram-storefront-bot/internal/domain/model"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(context.Background(), &config.RedisConfig{URL: mr.Addr()})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

// mockUserRepo is an in-memory UserRepository that counts IsRegistered calls.
type mockUserRepo struct {
	mu              sync.Mutex
	users           map[int64]*model.User
	isRegisteredHit int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[int64]*model.User{}}
}

func (m *mockUserRepo) Upsert(ctx context.Context, userID int64, p model.UserPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		u = &model.User{UserID: userID}
		m.users[userID] = u
	}
	u.Apply(p)
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isRegisteredHit++
	u, ok := m.users[userID]
	return ok && u.Registered, nil
}

func (m *mockUserRepo) ListRegisteredIDs(ctx context.Context) ([]int64, error) { return nil, nil }
func (m *mockUserRepo) CountRegistered(ctx context.Context) (int, error) { return 0, nil }
func (m *mockUserRepo) ListForExport(ctx context.Context, onlyRegistered bool) ([]*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) Ping(ctx context.Context) error { return nil }

func (m *mockUserRepo) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isRegisteredHit
}
