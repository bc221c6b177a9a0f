package sales

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/bizinsight360/bizinsight360/internal/platform/httpx"
	"github.com/bizinsight360/bizinsight360/internal/shared"
)

// CacheInvalidator drops derived reporting data after a sale.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service provides business logic for sales operations.
type Service struct {
	repo     Repository
	reports  CacheInvalidator
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs a sales service. reports may be nil.
func NewService(repo Repository, reports CacheInvalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		reports:  reports,
		logger:   logger,
		validate: httpx.NewValidator(),
		now:      time.Now,
	}
}

// CreateSale records a sale: it checks the product and user exist, checks and
// decrements stock, computes the total and stores the sale, all in one
// transaction holding the product row lock.
func (s *Service) CreateSale(ctx context.Context, in CreateSaleInput, opts CreateOptions) (Sale, error) {
	if err := s.validate.Struct(in); err != nil {
		return Sale{}, httpx.ValidationError(err)
	}
	date := s.now().UTC().Format(DateLayout)
	if in.Date != nil && strings.TrimSpace(*in.Date) != "" {
		date = strings.TrimSpace(*in.Date)
	}

	var sale Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if key := strings.TrimSpace(opts.IdempotencyKey); key != "" {
			if err := tx.ClaimIdempotencyKey(ctx, key); err != nil {
				return err
			}
		}

		product, err := tx.LockProduct(ctx, in.ProductID)
		if err != nil {
			return err
		}
		user, err := tx.GetUser(ctx, in.UserID)
		if err != nil {
			return err
		}
		if product.Stock < in.Quantity {
			return fmt.Errorf("%w for product %s", shared.ErrInsufficientStock, product.Name)
		}

		total := product.Price.Mul(decimal.NewFromInt(int64(in.Quantity)))
		stock, err := tx.DecrementStock(ctx, product.ID, in.Quantity)
		if err != nil {
			return err
		}
		product.Stock = stock

		created, err := tx.InsertSale(ctx, Sale{
			ProductID: product.ID,
			UserID:    user.ID,
			Quantity:  in.Quantity,
			Total:     total,
			Date:      date,
		})
		if err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		if err := tx.RecordAudit(ctx, shared.AuditLog{
			ActorID:  opts.ActorID,
			Action:   "sale.create",
			Entity:   "sale",
			EntityID: strconv.FormatInt(created.ID, 10),
			Meta: map[string]any{
				"product_id": product.ID,
				"user_id":    user.ID,
				"quantity":   in.Quantity,
				"total":      total.String(),
			},
		}); err != nil {
			return fmt.Errorf("audit sale: %w", err)
		}

		public := user.Public()
		created.Product, created.User = &product, &public
		sale = created
		return nil
	})
	if err != nil {
		return Sale{}, err
	}

	if s.reports != nil {
		if err := s.reports.Invalidate(ctx); err != nil {
			s.logger.Warn("invalidate report cache", slog.Int64("sale_id", sale.ID), slog.Any("error", err))
		}
	}
	s.logger.Info("sale created",
		slog.Int64("sale_id", sale.ID),
		slog.Int64("product_id", sale.ProductID),
		slog.Int("quantity", sale.Quantity),
		slog.String("total", sale.Total.String()))
	return sale, nil
}

// ListSales returns all sales with product and user expanded.
func (s *Service) ListSales(ctx context.Context) ([]Sale, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	if items == nil {
		items = []Sale{}
	}
	return items, nil
}

// GetSale returns one sale.
func (s *Service) GetSale(ctx context.Context, id int64) (Sale, error) {
	return s.repo.Get(ctx, id)
}
