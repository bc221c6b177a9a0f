package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bizinsight360/bizinsight360/internal/platform/httpx"
	"github.com/bizinsight360/bizinsight360/internal/users"
)

// Service implements customer management.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: httpx.NewValidator()}
}

// List returns all customers ordered by id.
func (s *Service) List(ctx context.Context) ([]Customer, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	if items == nil {
		items = []Customer{}
	}
	return items, nil
}

// Get returns one customer.
func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a customer and, when requested, links it to a user.
func (s *Service) Create(ctx context.Context, in CreateInput) (Customer, error) {
	if err := s.validate.Struct(in); err != nil {
		return Customer{}, httpx.ValidationError(err)
	}
	c := Customer{
		Name:              strings.TrimSpace(in.Name),
		Email:             users.NormalizeEmail(in.Email),
		LoyaltyScore:      in.LoyaltyScore,
		PurchaseFrequency: in.PurchaseFrequency,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		created, err := tx.Create(ctx, c)
		if err != nil {
			return err
		}
		c = created
		if in.UserID != nil {
			if err := tx.LinkUser(ctx, c.ID, *in.UserID); err != nil {
				return err
			}
			c.UserID = in.UserID
		}
		return nil
	})
	if err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Customer, error) {
	if err := s.validate.Struct(in); err != nil {
		return Customer{}, httpx.ValidationError(err)
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Customer{}, err
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		c.Email = users.NormalizeEmail(*in.Email)
	}
	if in.LoyaltyScore != nil {
		c.LoyaltyScore = *in.LoyaltyScore
	}
	if in.PurchaseFrequency != nil {
		c.PurchaseFrequency = *in.PurchaseFrequency
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		updated, err := tx.Update(ctx, c)
		if err != nil {
			return err
		}
		updated.UserID = c.UserID
		c = updated
		if in.UserID != nil {
			if err := tx.LinkUser(ctx, c.ID, *in.UserID); err != nil {
				return err
			}
			c.UserID = in.UserID
		}
		return nil
	})
	if err != nil {
		return Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return c, nil
}

// Delete removes a customer; a linked user keeps existing without the link.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
