package users

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizinsight360/bizinsight360/internal/rbac"
	"github.com/bizinsight360/bizinsight360/internal/shared"
)

type memoryRepo struct {
	items  map[int64]User
	nextID int64
}

func newMemoryRepo(seed ...User) *memoryRepo {
	m := &memoryRepo{items: make(map[int64]User), nextID: 1}
	for _, u := range seed {
		_, _ = m.Create(context.Background(), u)
	}
	return m
}

func (m *memoryRepo) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(m.items))
	for id := int64(1); id < m.nextID; id++ {
		if u, ok := m.items[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (User, error) {
	u, ok := m.items[id]
	if !ok {
		return User{}, fmt.Errorf("%w: user with ID %d", shared.ErrNotFound, id)
	}
	return u, nil
}

func (m *memoryRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	for _, u := range m.items {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, shared.ErrNotFound
}

func (m *memoryRepo) GetByResetToken(ctx context.Context, token string) (User, error) {
	for _, u := range m.items {
		if u.ResetToken != nil && *u.ResetToken == token {
			return u, nil
		}
	}
	return User{}, shared.ErrNotFound
}

func (m *memoryRepo) Create(ctx context.Context, u User) (User, error) {
	if _, err := m.GetByEmail(ctx, u.Email); err == nil {
		return User{}, shared.ErrDuplicate
	}
	u.ID = m.nextID
	m.nextID++
	m.items[u.ID] = u
	return u, nil
}

func (m *memoryRepo) Update(ctx context.Context, u User) (User, error) {
	if _, ok := m.items[u.ID]; !ok {
		return User{}, shared.ErrNotFound
	}
	m.items[u.ID] = u
	return u, nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memoryRepo) SetRefreshToken(ctx context.Context, id int64, token *string) error {
	u := m.items[id]
	u.RefreshToken = token
	m.items[id] = u
	return nil
}

func (m *memoryRepo) SetResetToken(ctx context.Context, id int64, token *string, expires *time.Time) error {
	u := m.items[id]
	u.ResetToken, u.ResetTokenExpires = token, expires
	m.items[id] = u
	return nil
}

func (m *memoryRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	u := m.items[id]
	u.PasswordHash, u.ResetToken, u.ResetTokenExpires = hash, nil, nil
	m.items[id] = u
	return nil
}

type prefixHasher struct{}

func (prefixHasher) HashPassword(plain string) (string, error) { return "hashed:" + plain, nil }

func strPtr(s string) *string { return &s }

func seededService() (*Service, *memoryRepo) {
	repo := newMemoryRepo(
		User{Email: "admin@bizinsight360.com", Role: rbac.RoleAdmin, PasswordHash: "x"},
		User{Email: "alice@example.com", Role: rbac.RoleUser, PasswordHash: "x"},
		User{Email: "bob@example.com", Role: rbac.RoleUser, PasswordHash: "x"},
	)
	return NewService(repo, prefixHasher{}), repo
}

func TestUpdateSelf(t *testing.T) {
	svc, repo := seededService()

	out, err := svc.Update(context.Background(), 2, UpdateInput{
		Email:    strPtr("Alice.New@Example.com"),
		Password: strPtr("secret99"),
		Role:     strPtr("ADMIN"),
	}, 2, rbac.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "alice.new@example.com", out.Email)
	assert.Equal(t, rbac.RoleUser, out.Role, "role change ignored for non-admin callers")
	assert.Equal(t, "hashed:secret99", repo.items[2].PasswordHash)
}

func TestUpdateOtherUserForbidden(t *testing.T) {
	svc, _ := seededService()
	_, err := svc.Update(context.Background(), 3, UpdateInput{FullName: strPtr("Bobby")}, 2, rbac.RoleUser)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	err = svc.Delete(context.Background(), 3, 2, rbac.RoleUser)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestAdminMayChangeRoleAndDelete(t *testing.T) {
	svc, repo := seededService()
	out, err := svc.Update(context.Background(), 3, UpdateInput{Role: strPtr("ADMIN")}, 1, rbac.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, out.Role)

	require.NoError(t, svc.Delete(context.Background(), 3, 1, rbac.RoleAdmin))
	_, ok := repo.items[3]
	assert.False(t, ok)
}

func TestUpdateEmailMustBeUnique(t *testing.T) {
	svc, _ := seededService()
	_, err := svc.Update(context.Background(), 2, UpdateInput{Email: strPtr("BOB@example.com")}, 2, rbac.RoleUser)
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	_, err = svc.Update(context.Background(), 2, UpdateInput{Email: strPtr("not-an-email")}, 2, rbac.RoleUser)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestListHidesCredentials(t *testing.T) {
	svc, _ := seededService()
	items, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "admin@bizinsight360.com", items[0].Email)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail(" User@Example.COM "))
}
