package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizinsight360/bizinsight360/internal/platform/db"
	"github.com/bizinsight360/bizinsight360/internal/shared"
)

// Repository defines persistence for customers. The user link lives on the
// user row (user.customer_id), so LinkUser writes there.
type Repository interface {
	List(ctx context.Context) ([]Customer, error)
	Get(ctx context.Context, id int64) (Customer, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Delete(ctx context.Context, id int64) error
}

// TxRepository exposes the writes that run together.
type TxRepository interface {
	Create(ctx context.Context, c Customer) (Customer, error)
	Update(ctx context.Context, c Customer) (Customer, error)
	LinkUser(ctx context.Context, customerID, userID int64) error
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

// WithTx wraps fn in a read-committed transaction; LinkUser takes a row lock
// on the user.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, queries{conn: tx})
	})
}

const customerSelect = `SELECT c.id, c.name, c.email, c.loyalty_score, c.purchase_frequency, u.id
FROM customer c LEFT JOIN "user" u ON u.customer_id = c.id`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.LoyaltyScore, &c.PurchaseFrequency, &c.UserID)
	return c, err
}

func (q queries) List(ctx context.Context) ([]Customer, error) {
	rows, err := q.conn.Query(ctx, customerSelect+` ORDER BY c.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (q queries) Get(ctx context.Context, id int64) (Customer, error) {
	c, err := scanCustomer(q.conn.QueryRow(ctx, customerSelect+` WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, fmt.Errorf("%w: customer with ID %d", shared.ErrNotFound, id)
	}
	return c, err
}

func (q queries) Create(ctx context.Context, c Customer) (Customer, error) {
	err := q.conn.QueryRow(ctx,
		`INSERT INTO customer (name, email, loyalty_score, purchase_frequency) VALUES ($1, $2, $3, $4) RETURNING id`,
		c.Name, c.Email, c.LoyaltyScore, c.PurchaseFrequency).Scan(&c.ID)
	if db.IsUniqueViolation(err) {
		return Customer{}, fmt.Errorf("%w: customer email already exists", shared.ErrDuplicate)
	}
	return c, err
}

func (q queries) Update(ctx context.Context, c Customer) (Customer, error) {
	tag, err := q.conn.Exec(ctx,
		`UPDATE customer SET name = $2, email = $3, loyalty_score = $4, purchase_frequency = $5 WHERE id = $1`,
		c.ID, c.Name, c.Email, c.LoyaltyScore, c.PurchaseFrequency)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Customer{}, fmt.Errorf("%w: customer email already exists", shared.ErrDuplicate)
		}
		return Customer{}, err
	}
	if tag.RowsAffected() == 0 {
		return Customer{}, fmt.Errorf("%w: customer with ID %d", shared.ErrNotFound, c.ID)
	}
	return c, nil
}

func (q queries) LinkUser(ctx context.Context, customerID, userID int64) error {
	var current *int64
	err := q.conn.QueryRow(ctx, `SELECT customer_id FROM "user" WHERE id = $1 FOR UPDATE`, userID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: user with ID %d", shared.ErrNotFound, userID)
	}
	if err != nil {
		return err
	}
	if current != nil && *current != customerID {
		return fmt.Errorf("%w: user %d already has a customer", shared.ErrDuplicate, userID)
	}
	if _, err := q.conn.Exec(ctx, `UPDATE "user" SET customer_id = NULL WHERE customer_id = $1 AND id <> $2`, customerID, userID); err != nil {
		return err
	}
	_, err = q.conn.Exec(ctx, `UPDATE "user" SET customer_id = $2 WHERE id = $1`, userID, customerID)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: user %d already has a customer", shared.ErrDuplicate, userID)
	}
	return err
}

func (q queries) Delete(ctx context.Context, id int64) error {
	tag, err := q.conn.Exec(ctx, `DELETE FROM customer WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: customer with ID %d", shared.ErrNotFound, id)
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
