package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bizinsight360/bizinsight360/internal/platform/httpx"
	"github.com/bizinsight360/bizinsight360/internal/rbac"
	"github.com/bizinsight360/bizinsight360/internal/shared"
)

// Service handles user management.
type Service struct {
	repo     Repository
	hasher   PasswordHasher
	validate *validator.Validate
}

// NewService builds a Service.
func NewService(repo Repository, hasher PasswordHasher) *Service {
	return &Service{repo: repo, hasher: hasher, validate: httpx.NewValidator()}
}

// List returns every user without credentials.
func (s *Service) List(ctx context.Context) ([]PublicUser, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]PublicUser, 0, len(items))
	for _, u := range items {
		out = append(out, u.Public())
	}
	return out, nil
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id int64) (PublicUser, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return PublicUser{}, err
	}
	return u.Public(), nil
}

// Update changes the target user's profile. Callers may update themselves;
// admins may update anyone and are the only ones whose role changes apply.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput, callerID int64, callerRole rbac.Role) (PublicUser, error) {
	if err := rbac.SelfOrAdmin(callerID, callerRole, id); err != nil {
		return PublicUser{}, err
	}
	if err := s.validate.Struct(in); err != nil {
		return PublicUser{}, httpx.ValidationError(err)
	}
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return PublicUser{}, err
	}

	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		if email != u.Email {
			existing, err := s.repo.GetByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != u.ID:
				return PublicUser{}, fmt.Errorf("%w: email already exists", shared.ErrDuplicate)
			case err != nil && !errors.Is(err, shared.ErrNotFound):
				return PublicUser{}, fmt.Errorf("check email: %w", err)
			}
			u.Email = email
		}
	}
	if in.Password != nil {
		hash, err := s.hasher.HashPassword(*in.Password)
		if err != nil {
			return PublicUser{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		u.FullName = &name
	}
	if in.Role != nil && callerRole == rbac.RoleAdmin {
		role, err := rbac.ParseRole(*in.Role)
		if err != nil {
			return PublicUser{}, err
		}
		u.Role = role
	}

	updated, err := s.repo.Update(ctx, u)
	if err != nil {
		return PublicUser{}, err
	}
	return updated.Public(), nil
}

// Delete removes the target user; allowed for the user themselves or an admin.
func (s *Service) Delete(ctx context.Context, id, callerID int64, callerRole rbac.Role) error {
	if err := rbac.SelfOrAdmin(callerID, callerRole, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
