package meter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voltvend/voltvend/internal/faults"
)

// Repository persists meter metadata. Balance mutation is not part of this
// contract; it belongs to the ledger engine's atomic unit.
type Repository interface {
	Create(ctx context.Context, m Meter) (Meter, error)
	Get(ctx context.Context, id int64) (Meter, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Meter, error)
}

// PostgresRepository stores meters in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a meter with a zero balance. A duplicate meter number
// surfaces as an integrity fault.
func (r *PostgresRepository) Create(ctx context.Context, m Meter) (Meter, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO meters
        (customer_id, meter_number, meter_type, installation_address, current_balance, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING meter_id`,
		m.CustomerID, m.MeterNumber, m.MeterType, m.InstallationAddress, m.CurrentBalance, m.CreatedAt.UTC())
	if err := row.Scan(&m.ID); err != nil {
		return Meter{}, faults.Postgres(err)
	}
	return m, nil
}

// Get fetches a meter by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (Meter, error) {
	row := r.db.QueryRow(ctx, `SELECT meter_id, customer_id, meter_number, meter_type,
        installation_address, current_balance, created_at
        FROM meters WHERE meter_id = $1`, id)

	var m Meter
	if err := row.Scan(&m.ID, &m.CustomerID, &m.MeterNumber, &m.MeterType,
		&m.InstallationAddress, &m.CurrentBalance, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Meter{}, faults.NotFoundf("meter %d", id)
		}
		return Meter{}, faults.Store(err)
	}
	return m, nil
}

// ListByCustomer returns all meters owned by a customer.
func (r *PostgresRepository) ListByCustomer(ctx context.Context, customerID int64) ([]Meter, error) {
	rows, err := r.db.Query(ctx, `SELECT meter_id, customer_id, meter_number, meter_type,
        installation_address, current_balance, created_at
        FROM meters WHERE customer_id = $1 ORDER BY meter_id`, customerID)
	if err != nil {
		return nil, faults.Store(err)
	}
	defer rows.Close()

	var meters []Meter
	for rows.Next() {
		var m Meter
		if err := rows.Scan(&m.ID, &m.CustomerID, &m.MeterNumber, &m.MeterType,
			&m.InstallationAddress, &m.CurrentBalance, &m.CreatedAt); err != nil {
			return nil, faults.Store(err)
		}
		meters = append(meters, m)
	}
	if err := rows.Err(); err != nil {
		return nil, faults.Store(err)
	}
	return meters, nil
}
