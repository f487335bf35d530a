package tariff

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voltvend/voltvend/internal/faults"
)

// Repository looks up tariffs. Read-only, no side effects.
type Repository interface {
	Get(ctx context.Context, id int64) (Tariff, error)
}

// PostgresRepository reads tariffs from PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get fetches an active tariff by identifier. Inactive tariffs are treated
// the same as absent ones.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (Tariff, error) {
	row := r.db.QueryRow(ctx, `SELECT tariff_id, rate, fixed_charge, description, active
        FROM tariffs WHERE tariff_id = $1`, id)

	var t Tariff
	if err := row.Scan(&t.ID, &t.Rate, &t.FixedCharge, &t.Description, &t.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tariff{}, faults.NotFoundf("tariff %d", id)
		}
		return Tariff{}, faults.Store(err)
	}
	if !t.Active {
		return Tariff{}, faults.NotFoundf("tariff %d", id)
	}
	return t, nil
}
