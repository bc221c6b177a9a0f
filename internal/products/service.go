package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/bizinsight360/bizinsight360/internal/platform/httpx"
	"github.com/bizinsight360/bizinsight360/internal/shared"
)

// Service implements product management.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: httpx.NewValidator()}
}

// List returns every product ordered by id.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if items == nil {
		items = []Product{}
	}
	return items, nil
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a product.
func (s *Service) Create(ctx context.Context, in CreateInput) (Product, error) {
	if err := s.check(in); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, Product{Name: strings.TrimSpace(in.Name), Stock: in.Stock, Price: in.Price})
}

// BulkCreate stores all inputs in one transaction; nothing is stored if any
// input is invalid.
func (s *Service) BulkCreate(ctx context.Context, in []CreateInput) ([]Product, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: at least one product required", shared.ErrValidation)
	}
	for i, item := range in {
		if err := s.check(item); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	created := make([]Product, 0, len(in))
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, item := range in {
			p, err := tx.Create(ctx, Product{Name: strings.TrimSpace(item.Name), Stock: item.Stock, Price: item.Price})
			if err != nil {
				return err
			}
			created = append(created, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bulk create products: %w", err)
	}
	return created, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Product, error) {
	if err := s.validate.Struct(in); err != nil {
		return Product{}, httpx.ValidationError(err)
	}
	if in.Price != nil {
		if err := checkPrice(*in.Price); err != nil {
			return Product{}, err
		}
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if in.Name != nil {
		current.Name = strings.TrimSpace(*in.Name)
	}
	if in.Stock != nil {
		current.Stock = *in.Stock
	}
	if in.Price != nil {
		current.Price = *in.Price
	}
	return s.repo.Update(ctx, current)
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) check(in CreateInput) error {
	if err := s.validate.Struct(in); err != nil {
		return httpx.ValidationError(err)
	}
	return checkPrice(in.Price)
}

// maxPrice is the largest value the NUMERIC(12,2) price column holds.
var maxPrice = decimal.RequireFromString("9999999999.99")

func checkPrice(price decimal.Decimal) error {
	switch {
	case price.IsNegative():
		return fmt.Errorf("%w: price: gte=0", shared.ErrValidation)
	case price.GreaterThan(maxPrice):
		return fmt.Errorf("%w: price: lte=%s", shared.ErrValidation, maxPrice)
	}
	return nil
}
