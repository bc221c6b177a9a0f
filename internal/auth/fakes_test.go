package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bizinsight360/bizinsight360/internal/shared"
	"github.com/bizinsight360/bizinsight360/internal/users"
)

type memoryUsers struct {
	mu     sync.Mutex
	items  map[int64]users.User
	nextID int64
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{items: make(map[int64]users.User), nextID: 1}
}

func (m *memoryUsers) List(ctx context.Context) ([]users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]users.User, 0, len(m.items))
	for _, u := range m.items {
		out = append(out, u)
	}
	return out, nil
}

func (m *memoryUsers) Get(ctx context.Context, id int64) (users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return users.User{}, fmt.Errorf("%w: user with ID %d", shared.ErrNotFound, id)
	}
	return u, nil
}

func (m *memoryUsers) GetByEmail(ctx context.Context, email string) (users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if u.Email == email {
			return u, nil
		}
	}
	return users.User{}, shared.ErrNotFound
}

func (m *memoryUsers) GetByResetToken(ctx context.Context, token string) (users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if u.ResetToken != nil && *u.ResetToken == token {
			return u, nil
		}
	}
	return users.User{}, shared.ErrNotFound
}

func (m *memoryUsers) Create(ctx context.Context, u users.User) (users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.nextID
	m.nextID++
	m.items[u.ID] = u
	return u, nil
}

func (m *memoryUsers) Update(ctx context.Context, u users.User) (users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[u.ID] = u
	return u, nil
}

func (m *memoryUsers) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *memoryUsers) SetRefreshToken(ctx context.Context, id int64, token *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.items[id]
	u.RefreshToken = token
	m.items[id] = u
	return nil
}

func (m *memoryUsers) SetResetToken(ctx context.Context, id int64, token *string, expires *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.items[id]
	u.ResetToken, u.ResetTokenExpires = token, expires
	m.items[id] = u
	return nil
}

func (m *memoryUsers) UpdatePassword(ctx context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.items[id]
	u.PasswordHash, u.ResetToken, u.ResetTokenExpires = hash, nil, nil
	m.items[id] = u
	return nil
}

type recordingMailer struct {
	to   []string
	urls []string
	err  error
}

func (r *recordingMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	if r.err != nil {
		return r.err
	}
	r.to = append(r.to, to)
	r.urls = append(r.urls, resetURL)
	return nil
}
