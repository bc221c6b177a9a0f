package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizinsight360/bizinsight360/internal/platform/db"
	"github.com/bizinsight360/bizinsight360/internal/rbac"
	"github.com/bizinsight360/bizinsight360/internal/shared"
)

// Repository defines persistence for users and their credential state.
type Repository interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByResetToken(ctx context.Context, token string) (User, error)
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) (User, error)
	Delete(ctx context.Context, id int64) error
	SetRefreshToken(ctx context.Context, id int64, token *string) error
	SetResetToken(ctx context.Context, id int64, token *string, expires *time.Time) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	conn db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{conn: pool}
}

// NewTxRepository binds a repository to conn, typically an open transaction.
func NewTxRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{conn: conn}
}

const userColumns = `id, email, full_name, password, role::text, refresh_token, reset_token, reset_token_expires, customer_id`

// ScanUser reads a row selected with the standard user column list.
func ScanUser(row pgx.Row) (User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &role,
		&u.RefreshToken, &u.ResetToken, &u.ResetTokenExpires, &u.CustomerID)
	u.Role = rbac.Role(role)
	return u, err
}

func (r *PGRepository) one(ctx context.Context, what string, query string, args ...any) (User, error) {
	u, err := ScanUser(r.conn.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user with %s", shared.ErrNotFound, what)
	}
	return u, err
}

func (r *PGRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+userColumns+` FROM "user" ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := ScanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PGRepository) Get(ctx context.Context, id int64) (User, error) {
	return r.one(ctx, fmt.Sprintf("ID %d", id), `SELECT `+userColumns+` FROM "user" WHERE id = $1`, id)
}

func (r *PGRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.one(ctx, fmt.Sprintf("email %s", email), `SELECT `+userColumns+` FROM "user" WHERE email = $1`, email)
}

func (r *PGRepository) GetByResetToken(ctx context.Context, token string) (User, error) {
	return r.one(ctx, "reset token", `SELECT `+userColumns+` FROM "user" WHERE reset_token = $1`, token)
}

func (r *PGRepository) Create(ctx context.Context, u User) (User, error) {
	created, err := ScanUser(r.conn.QueryRow(ctx,
		`INSERT INTO "user" (email, full_name, password, role) VALUES ($1, $2, $3, $4::user_role) RETURNING `+userColumns,
		u.Email, u.FullName, u.PasswordHash, string(u.Role)))
	if db.IsUniqueViolation(err) {
		return User{}, fmt.Errorf("%w: email already exists", shared.ErrDuplicate)
	}
	return created, err
}

func (r *PGRepository) Update(ctx context.Context, u User) (User, error) {
	updated, err := ScanUser(r.conn.QueryRow(ctx,
		`UPDATE "user" SET email = $2, full_name = $3, password = $4, role = $5::user_role WHERE id = $1 RETURNING `+userColumns,
		u.ID, u.Email, u.FullName, u.PasswordHash, string(u.Role)))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return User{}, fmt.Errorf("%w: user with ID %d", shared.ErrNotFound, u.ID)
	case db.IsUniqueViolation(err):
		return User{}, fmt.Errorf("%w: email already exists", shared.ErrDuplicate)
	}
	return updated, err
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM "user" WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: user %d is referenced by sales", shared.ErrValidation, id)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user with ID %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *PGRepository) SetRefreshToken(ctx context.Context, id int64, token *string) error {
	return r.exec(ctx, id, `UPDATE "user" SET refresh_token = $2 WHERE id = $1`, id, token)
}

func (r *PGRepository) SetResetToken(ctx context.Context, id int64, token *string, expires *time.Time) error {
	return r.exec(ctx, id, `UPDATE "user" SET reset_token = $2, reset_token_expires = $3 WHERE id = $1`, id, token, expires)
}

func (r *PGRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.exec(ctx, id, `UPDATE "user" SET password = $2, reset_token = NULL, reset_token_expires = NULL WHERE id = $1`, id, hash)
}

func (r *PGRepository) exec(ctx context.Context, id int64, query string, args ...any) error {
	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user with ID %d", shared.ErrNotFound, id)
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
