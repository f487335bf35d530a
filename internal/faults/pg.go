package faults

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Postgres classifies a pgx write error into the taxonomy. Unique and foreign
// key violations are client-attributable integrity faults; anything else is a
// store fault whose driver text stays out of responses.
func Postgres(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return Integrityf("duplicate value violates %s", pgErr.ConstraintName)
		case foreignKeyViolation:
			return NotFoundf("referenced record does not exist")
		}
	}
	return Store(err)
}
