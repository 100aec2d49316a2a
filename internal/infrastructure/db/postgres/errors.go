package postgres

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

const (
	codeUniqueViolation = "23505"
	codeInvalidText     = "22P02" // e.g. malformed uuid
)

// sqlState works for both drivers Open supports.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool { return sqlState(err) == codeUniqueViolation }

// notFound maps a missing row (or an id that cannot exist) to a domain not_found.
func notFound(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) || sqlState(err) == codeInvalidText {
		return domain.ErrNotFound(msg)
	}
	return err
}
