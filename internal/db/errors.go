package db

import (
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	pgconnv5 "github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// IsNotFound reports whether err is pgx.ErrNoRows.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports a duplicate key error from either pgconn major version.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// IsForeignKeyViolation reports a foreign key error.
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == codeForeignKeyViolation
}

func pgCode(err error) string {
	var v5 *pgconnv5.PgError
	if errors.As(err, &v5) {
		return v5.Code
	}
	// Nothing in this module's pool returns v1 errors; kept for pgx/v4 callers.
	var v4 *pgconn.PgError
	if errors.As(err, &v4) {
		return v4.Code
	}
	return ""
}
