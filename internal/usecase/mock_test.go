//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-storefront-bot/internal/domain"
	"telegram-storefront-bot/internal/domain/model"
	"telegram-storefront-bot/internal/domain/ports/adapter"
	"telegram-storefront-bot/internal/domain/ports/repository"
	"telegram-storefront-bot/internal/infra/i18n"
)

// =============================
// Adapters
// =============================

// ---- Mock TelegramBotAdapter ----

// MockTelegramBot records every outbound call. A XxxFunc hook replaces the
// default behaviour; hooked calls are still recorded.
type MockTelegramBot struct {
	mu        sync.Mutex
	Sent      []adapter.SendMessageParams
	Photos    []adapter.SendMediaParams
	Videos    []adapter.SendMediaParams
	Documents []adapter.SendDocumentParams

	SendMessageFunc  func(ctx context.Context, params adapter.SendMessageParams) error
	SendPhotoFunc    func(ctx context.Context, params adapter.SendMediaParams) error
	SendVideoFunc    func(ctx context.Context, params adapter.SendMediaParams) error
	SendDocumentFunc func(ctx context.Context, params adapter.SendDocumentParams) error
}

var _ adapter.TelegramBotAdapter = (*MockTelegramBot)(nil)

func (m *MockTelegramBot) SendMessage(ctx context.Context, params adapter.SendMessageParams) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, params)
	m.mu.Unlock()
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, params)
	}
	return nil
}

func (m *MockTelegramBot) SendPhoto(ctx context.Context, params adapter.SendMediaParams) error {
	m.mu.Lock()
	m.Photos = append(m.Photos, params)
	m.mu.Unlock()
	if m.SendPhotoFunc != nil {
		return m.SendPhotoFunc(ctx, params)
	}
	return nil
}

func (m *MockTelegramBot) SendVideo(ctx context.Context, params adapter.SendMediaParams) error {
	m.mu.Lock()
	m.Videos = append(m.Videos, params)
	m.mu.Unlock()
	if m.SendVideoFunc != nil {
		return m.SendVideoFunc(ctx, params)
	}
	return nil
}

func (m *MockTelegramBot) SendDocument(ctx context.Context, params adapter.SendDocumentParams) error {
	m.mu.Lock()
	m.Documents = append(m.Documents, params)
	m.mu.Unlock()
	if m.SendDocumentFunc != nil {
		return m.SendDocumentFunc(ctx, params)
	}
	return nil
}

func (m *MockTelegramBot) Messages() []adapter.SendMessageParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]adapter.SendMessageParams(nil), m.Sent...)
}

func (m *MockTelegramBot) Texts() []string {
	var out []string
	for _, p := range m.Messages() {
		out = append(out, p.Text)
	}
	return out
}

// WaitForMessages polls until at least n messages were sent.
func (m *MockTelegramBot) WaitForMessages(t *testing.T, n int) []adapter.SendMessageParams {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msgs := m.Messages(); len(msgs) >= n {
			return msgs
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected at least %d messages, got %d", n, len(m.Messages()))
	return nil
}

// ---- Mock Geocoder ----

type MockGeocoder struct {
	mu    sync.Mutex
	Calls int

	ReverseFunc func(ctx context.Context, lat, lon *float64) model.GeocodeResult
}

var _ adapter.Geocoder = (*MockGeocoder)(nil)

func (g *MockGeocoder) Reverse(ctx context.Context, lat, lon *float64) model.GeocodeResult {
	g.mu.Lock()
	g.Calls++
	g.mu.Unlock()
	if g.ReverseFunc != nil {
		return g.ReverseFunc(ctx, lat, lon)
	}
	if lat == nil || lon == nil {
		return model.GeocodeResult{Address: "нет данных", Status: model.GeocodeNoData}
	}
	return model.GeocodeResult{Address: "Somewhere", Status: model.GeocodeResolved}
}

// =============================
// Repositories
// =============================

// ---- Mock UserRepository ----

// MockUserRepo is an in-memory store with the same merge rules as the real
// backends. Func hooks override single methods.
type MockUserRepo struct {
	mu    sync.Mutex
	users map[int64]*model.User

	UpsertFunc            func(ctx context.Context, userID int64, patch model.UserPatch) error
	IsRegisteredFunc      func(ctx context.Context, userID int64) (bool, error)
	ListRegisteredIDsFunc func(ctx context.Context) ([]int64, error)
	CountRegisteredFunc   func(ctx context.Context) (int, error)
	ListForExportFunc     func(ctx context.Context, onlyRegistered bool) ([]*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{users: make(map[int64]*model.User)}
}

func (r *MockUserRepo) Upsert(ctx context.Context, userID int64, patch model.UserPatch) error {
	if r.UpsertFunc != nil {
		return r.UpsertFunc(ctx, userID, patch)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		u = &model.User{UserID: userID}
		r.users[userID] = u
	}
	u.Apply(patch)
	return nil
}

func (r *MockUserRepo) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MockUserRepo) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	if r.IsRegisteredFunc != nil {
		return r.IsRegisteredFunc(ctx, userID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	return ok && u.Registered, nil
}

func (r *MockUserRepo) ListRegisteredIDs(ctx context.Context) ([]int64, error) {
	if r.ListRegisteredIDsFunc != nil {
		return r.ListRegisteredIDsFunc(ctx)
	}
	var ids []int64
	for _, u := range r.sorted() {
		if u.Registered {
			ids = append(ids, u.UserID)
		}
	}
	return ids, nil
}

func (r *MockUserRepo) CountRegistered(ctx context.Context) (int, error) {
	if r.CountRegisteredFunc != nil {
		return r.CountRegisteredFunc(ctx)
	}
	ids, _ := r.ListRegisteredIDs(ctx)
	return len(ids), nil
}

func (r *MockUserRepo) ListForExport(ctx context.Context, onlyRegistered bool) ([]*model.User, error) {
	if r.ListForExportFunc != nil {
		return r.ListForExportFunc(ctx, onlyRegistered)
	}
	var out []*model.User
	for _, u := range r.sorted() {
		if onlyRegistered && !u.Registered {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *MockUserRepo) Ping(ctx context.Context) error { return nil }

func (r *MockUserRepo) sorted() []*model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// ---- In-memory Locker ----

type MockLocker struct {
	mu   sync.Mutex
	held map[string]string
}

var _ repository.JobLocker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", domain.ErrLocked
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

// =============================
// Helpers
// =============================

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestTranslator() *i18n.Translator {
	return i18n.MustDefault("ru")
}
