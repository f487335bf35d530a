package customer

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voltvend/voltvend/internal/faults"
)

// Repository persists customers.
type Repository interface {
	Create(ctx context.Context, c Customer) (Customer, error)
	Get(ctx context.Context, id int64) (Customer, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed customer repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a customer. A duplicate email surfaces as an integrity fault.
func (r *PostgresRepository) Create(ctx context.Context, c Customer) (Customer, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO customers (full_name, email, phone, created_at)
        VALUES ($1, $2, $3, $4) RETURNING customer_id`,
		c.FullName, c.Email, c.Phone, c.CreatedAt.UTC())
	if err := row.Scan(&c.ID); err != nil {
		return Customer{}, faults.Postgres(err)
	}
	return c, nil
}

// Get fetches a customer by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT customer_id, full_name, email, phone, created_at
        FROM customers WHERE customer_id = $1`, id)

	var c Customer
	if err := row.Scan(&c.ID, &c.FullName, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, faults.NotFoundf("customer %d", id)
		}
		return Customer{}, faults.Store(err)
	}
	return c, nil
}
