package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgCodeUniqueViolation  = "23505"
	pgCodeNotNullViolation = "23502"
	pgCodeUndefinedColumn  = "42703"
)

// IsUniqueViolation reports whether the provided error references a Postgres
// unique violation constraint. When constraintName is provided, the helper looks
// for the constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if constraintName == "" && pgCode(err) == pgCodeUniqueViolation {
		return true
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}

// IsUndefinedColumn reports whether the error means the target schema is
// missing a column the application expected. The ledger writer's degrading
// chain treats this as "fall back to the minimal column set".
func IsUndefinedColumn(err error) bool {
	if err == nil {
		return false
	}
	if pgCode(err) == pgCodeUndefinedColumn {
		return true
	}
	return strings.Contains(err.Error(), "does not exist")
}

// IsNotNullViolation reports whether the error is a NOT NULL constraint
// failure outside the caller's control.
func IsNotNullViolation(err error) bool {
	if err == nil {
		return false
	}
	if pgCode(err) == pgCodeNotNullViolation {
		return true
	}
	return strings.Contains(err.Error(), "null value in column")
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
