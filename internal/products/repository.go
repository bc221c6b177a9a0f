package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizinsight360/bizinsight360/internal/platform/db"
	"github.com/bizinsight360/bizinsight360/internal/shared"
)

// Repository defines persistence for products.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id int64) error
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the writes available inside a transaction.
type TxRepository interface {
	Create(ctx context.Context, p Product) (Product, error)
}

type queries struct {
	conn db.DBTX
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	queries
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{queries: queries{conn: pool}, pool: pool}
}

// WithTx wraps fn in a repeatable-read transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, queries{conn: tx})
	})
}

const productColumns = `id, name, stock, price`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Stock, &p.Price)
	return p, err
}

func (q queries) List(ctx context.Context) ([]Product, error) {
	rows, err := q.conn.Query(ctx, `SELECT `+productColumns+` FROM product ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q queries) Get(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(q.conn.QueryRow(ctx, `SELECT `+productColumns+` FROM product WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: product with ID %d", shared.ErrNotFound, id)
	}
	return p, err
}

func (q queries) Create(ctx context.Context, p Product) (Product, error) {
	return scanProduct(q.conn.QueryRow(ctx,
		`INSERT INTO product (name, stock, price) VALUES ($1, $2, $3) RETURNING `+productColumns,
		p.Name, p.Stock, p.Price))
}

func (q queries) Update(ctx context.Context, p Product) (Product, error) {
	updated, err := scanProduct(q.conn.QueryRow(ctx,
		`UPDATE product SET name = $2, stock = $3, price = $4 WHERE id = $1 RETURNING `+productColumns,
		p.ID, p.Name, p.Stock, p.Price))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: product with ID %d", shared.ErrNotFound, p.ID)
	}
	return updated, err
}

func (q queries) Delete(ctx context.Context, id int64) error {
	tag, err := q.conn.Exec(ctx, `DELETE FROM product WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: product %d is referenced by sales", shared.ErrValidation, id)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product with ID %d", shared.ErrNotFound, id)
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
