package kpis

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizinsight360/bizinsight360/internal/platform/db"
)

// Repository reads KPI snapshots.
type Repository interface {
	List(ctx context.Context) ([]Kpi, error)
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	conn db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{conn: pool}
}

// List returns every KPI, newest first.
func (r *PGRepository) List(ctx context.Context) ([]Kpi, error) {
	rows, err := r.conn.Query(ctx, `SELECT id, name, value, date FROM kpi ORDER BY date DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Kpi
	for rows.Next() {
		var k Kpi
		if err := rows.Scan(&k.ID, &k.Name, &k.Value, &k.Date); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
