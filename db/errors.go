package db

import (
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/teranos/pharmadex/errors"
)

// ErrDatabaseClosed is returned when operations are attempted on a closed database.
// This typically occurs during graceful shutdown when the database connection
// is closed before all in-flight requests have finished.
var ErrDatabaseClosed = errors.New("database is closed")

// postgres SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

// IsDatabaseClosed checks if an error indicates the database connection is closed.
// The string matching fallback is necessary because the underlying sql driver
// returns its own error types that we cannot wrap at the source.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "database is closed") ||
		strings.Contains(errMsg, "sql: database is closed")
}

// IsUniqueViolation reports whether err is a unique-constraint failure from
// either dialect (duplicate slug, duplicate join row).
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// postgres SQLSTATE for foreign_key_violation
const pgForeignKeyViolation = "23503"

// IsForeignKeyViolation reports whether err is a failed reference (unknown
// company id, unknown therapeutic area id) from either dialect.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
