package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizinsight360/bizinsight360/internal/platform/db"
	"github.com/bizinsight360/bizinsight360/internal/products"
	"github.com/bizinsight360/bizinsight360/internal/rbac"
	"github.com/bizinsight360/bizinsight360/internal/shared"
	"github.com/bizinsight360/bizinsight360/internal/users"
)

const idempotencyModule = "sales"

// Repository provides persistence for sales.
type Repository interface {
	List(ctx context.Context) ([]Sale, error)
	Get(ctx context.Context, id int64) (Sale, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations of the sale transaction.
type TxRepository interface {
	// LockProduct reads the product row and holds it until the transaction ends.
	LockProduct(ctx context.Context, id int64) (products.Product, error)
	GetUser(ctx context.Context, id int64) (users.User, error)
	// DecrementStock lowers stock by qty and returns the new level. It fails with
	// shared.ErrInsufficientStock instead of going below zero.
	DecrementStock(ctx context.Context, productID int64, qty int) (int, error)
	InsertSale(ctx context.Context, sale Sale) (Sale, error)
	ClaimIdempotencyKey(ctx context.Context, key string) error
	RecordAudit(ctx context.Context, log shared.AuditLog) error
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool        *pgxpool.Pool
	idempotency *shared.IdempotencyStore
	audit       *shared.AuditLogger
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool, idempotency *shared.IdempotencyStore, audit *shared.AuditLogger) *PGRepository {
	return &PGRepository{pool: pool, idempotency: idempotency, audit: audit}
}

type txRepo struct {
	tx          pgx.Tx
	idempotency *shared.IdempotencyStore
	audit       *shared.AuditLogger
}

// WithTx runs fn in a read-committed transaction so concurrent sales of one
// product queue on the row lock and re-read its stock.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, idempotency: r.idempotency, audit: r.audit})
	})
}

const saleSelect = `SELECT s.id, s.product_id, s.user_id, s.quantity, s.total, s.date,
	p.id, p.name, p.stock, p.price,
	u.id, u.email, u.full_name, u.role::text, u.customer_id
FROM sale s
JOIN product p ON p.id = s.product_id
JOIN "user" u ON u.id = s.user_id`

func scanSale(row pgx.Row) (Sale, error) {
	var (
		s    Sale
		p    products.Product
		u    users.PublicUser
		role string
	)
	err := row.Scan(&s.ID, &s.ProductID, &s.UserID, &s.Quantity, &s.Total, &s.Date,
		&p.ID, &p.Name, &p.Stock, &p.Price,
		&u.ID, &u.Email, &u.FullName, &role, &u.CustomerID)
	if err != nil {
		return Sale{}, err
	}
	u.Role = rbac.Role(role)
	s.Product, s.User = &p, &u
	return s, nil
}

// List returns all sales with their product and user, ordered by id.
func (r *PGRepository) List(ctx context.Context) ([]Sale, error) {
	rows, err := r.pool.Query(ctx, saleSelect+` ORDER BY s.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get returns one expanded sale.
func (r *PGRepository) Get(ctx context.Context, id int64) (Sale, error) {
	s, err := scanSale(r.pool.QueryRow(ctx, saleSelect+` WHERE s.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, fmt.Errorf("%w: sale with ID %d", shared.ErrNotFound, id)
	}
	return s, err
}

func (t *txRepo) LockProduct(ctx context.Context, id int64) (products.Product, error) {
	var p products.Product
	err := t.tx.QueryRow(ctx, `SELECT id, name, stock, price FROM product WHERE id = $1 FOR UPDATE`, id).
		Scan(&p.ID, &p.Name, &p.Stock, &p.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return products.Product{}, fmt.Errorf("%w: product with ID %d", shared.ErrNotFound, id)
	}
	return p, err
}

func (t *txRepo) GetUser(ctx context.Context, id int64) (users.User, error) {
	return users.NewTxRepository(t.tx).Get(ctx, id)
}

func (t *txRepo) DecrementStock(ctx context.Context, productID int64, qty int) (int, error) {
	var stock int
	err := t.tx.QueryRow(ctx,
		`UPDATE product SET stock = stock - $2 WHERE id = $1 AND stock >= $2 RETURNING stock`,
		productID, qty).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w for product %d", shared.ErrInsufficientStock, productID)
	}
	return stock, err
}

func (t *txRepo) InsertSale(ctx context.Context, s Sale) (Sale, error) {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO sale (product_id, user_id, quantity, total, date) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		s.ProductID, s.UserID, s.Quantity, s.Total, s.Date).Scan(&s.ID)
	return s, err
}

func (t *txRepo) ClaimIdempotencyKey(ctx context.Context, key string) error {
	return t.idempotency.Claim(ctx, t.tx, key, idempotencyModule)
}

func (t *txRepo) RecordAudit(ctx context.Context, log shared.AuditLog) error {
	return t.audit.Record(ctx, t.tx, log)
}

var _ Repository = (*PGRepository)(nil)
