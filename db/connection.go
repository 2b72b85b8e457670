package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"go.uber.org/zap"

	"github.com/teranos/pharmadex/errors"
)

// SQLiteBusyTimeoutMS is how long SQLite waits on a locked database
const SQLiteBusyTimeoutMS = 5000

// pingTimeout bounds the connectivity check performed by OpenPostgres
const pingTimeout = 5 * time.Second

// Open opens a SQLite database at the specified path with optimized settings.
// If logger is provided, logs database operations; otherwise operates silently.
func Open(path string, logger *zap.SugaredLogger) (*sql.DB, error) {
	if logger != nil {
		logger.Debugw("Opening database", "path", path, "dialect", DialectSQLite)
	}
	db, err := sql.Open(DialectSQLite.driverName(), sqliteDSN(path))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// Enable WAL mode for concurrent reads during writes
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable WAL mode")
	}

	// Enable foreign key constraints (ON DELETE CASCADE on join tables)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable foreign keys")
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to set busy timeout")
	}

	if logger != nil {
		logger.Infow("Database opened successfully",
			"path", path,
			"wal_mode", true,
			"foreign_keys", true,
		)
	}

	return db, nil
}

// sqliteDSN adds per-connection settings. PRAGMAs executed after Open only
// reach the first pooled connection; DSN parameters reach all of them.
func sqliteDSN(path string) string {
	params := fmt.Sprintf("_foreign_keys=on&_busy_timeout=%d", SQLiteBusyTimeoutMS)
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return path + "?" + params
}

// OpenPostgres connects to the hosted Postgres store. key, when non-empty,
// replaces the password in rawURL so the same endpoint can be reached with the
// anonymous or the privileged role.
func OpenPostgres(rawURL, key string, logger *zap.SugaredLogger) (*sql.DB, error) {
	dsn, err := WithPassword(rawURL, key)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Debugw("Opening database", "host", hostOf(dsn), "dialect", DialectPostgres)
	}

	db, err := sql.Open(DialectPostgres.driverName(), dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}

	if logger != nil {
		logger.Infow("Database opened successfully", "host", hostOf(dsn), "dialect", DialectPostgres)
	}
	return db, nil
}

// OpenWithMigrations opens the local SQLite database and applies migrations.
func OpenWithMigrations(path string, logger *zap.SugaredLogger) (*sql.DB, error) {
	db, err := Open(path, logger)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, DialectSQLite, logger); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to run migrations")
	}
	return db, nil
}

// WithPassword returns rawURL with its user password set to key.
// An empty key leaves rawURL untouched.
func WithPassword(rawURL, key string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrap(err, "parse storage url")
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", errors.Newf("storage url must use postgres:// scheme, got %q", u.Scheme)
	}
	if key == "" {
		return u.String(), nil
	}
	user := "anon"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, key)
	return u.String(), nil
}

// hostOf returns the host part of a DSN for logging (never the password)
func hostOf(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return ""
	}
	return u.Host
}
