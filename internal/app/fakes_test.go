package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rewear-api/internal/ai"
	"rewear-api/internal/model"
	"rewear-api/internal/pkg/hashutil"
	"rewear-api/internal/pkg/jwtutil"
	"rewear-api/internal/repository"
)

// memUserStore mimics a unique email index: Create is atomic under the mutex.
type memUserStore struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	nextID  int
	failErr error
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byID: make(map[string]*model.User)}
}

func (s *memUserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	for _, u := range s.byID {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	s.nextID++
	user.ID = fmt.Sprintf("user-%d", s.nextID)
	stored := *user
	s.byID[user.ID] = &stored
	return nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	for _, u := range s.byID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memUserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	u, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (s *memUserStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

func (s *memUserStore) setAdmin(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[id].IsAdmin = true
}

// racyUserStore reports no existing user on lookup so concurrent signups all reach Create.
type racyUserStore struct {
	*memUserStore
}

func (s racyUserStore) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, nil
}

type memItemStore struct {
	mu     sync.Mutex
	items  map[string]model.ClothingItem
	nextID int
}

func newMemItemStore() *memItemStore {
	return &memItemStore{items: make(map[string]model.ClothingItem)}
}

func (s *memItemStore) Create(_ context.Context, item *model.ClothingItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	item.ID = fmt.Sprintf("item-%d", s.nextID)
	s.items[item.ID] = *item
	return nil
}

func (s *memItemStore) GetByID(_ context.Context, id string) (*model.ClothingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *memItemStore) ListByStatus(_ context.Context, status model.ItemStatus, limit, offset int) ([]model.ClothingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ClothingItem
	for _, item := range s.items {
		if item.Status == status {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostedDate.After(out[j].PostedDate) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *memItemStore) ListByOwner(_ context.Context, userID string) ([]model.ClothingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ClothingItem
	for _, item := range s.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostedDate.After(out[j].PostedDate) })
	return out, nil
}

func (s *memItemStore) Save(_ context.Context, item *model.ClothingItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = *item
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.AuthEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event model.AuthEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type stubCompletion struct {
	calls    int
	messages []ai.ChatMessage
	reply    string
	err      error
	deadline time.Time
}

func (c *stubCompletion) Complete(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	c.calls++
	c.messages = messages
	c.deadline, _ = ctx.Deadline()
	return c.reply, c.err
}

func newTestTokens(t *testing.T) *jwtutil.Manager {
	t.Helper()
	m, err := jwtutil.NewManager("test-secret", "HS256", 30*time.Minute)
	require.NoError(t, err)
	return m
}

func newTestAuthService(t *testing.T, users UserStore, publisher AuthEventPublisher) *AuthService {
	t.Helper()
	return NewAuthService(users, hashutil.NewHasher(bcrypt.MinCost), newTestTokens(t), publisher, nil)
}
