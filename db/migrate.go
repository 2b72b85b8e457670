package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/pharmadex/errors"
)

//go:embed sqlite/migrations/*.sql postgres/migrations/*.sql
var migrations embed.FS

// migrationDir returns the embedded directory holding the dialect's migrations
func migrationDir(dialect Dialect) string {
	if dialect == DialectPostgres {
		return "postgres/migrations"
	}
	return "sqlite/migrations"
}

// MigrationFiles lists the embedded migration filenames for dialect in apply order.
func MigrationFiles(dialect Dialect) ([]string, error) {
	entries, err := migrations.ReadDir(migrationDir(dialect))
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	// 000_create_schema_migrations.sql runs first
	sort.Strings(files)
	return files, nil
}

// Migrate runs all pending migrations for the given dialect.
// If logger is provided, logs migration progress; otherwise operates silently.
func Migrate(db *sql.DB, dialect Dialect, logger *zap.SugaredLogger) error {
	files, err := MigrationFiles(dialect)
	if err != nil {
		return err
	}

	existsQuery := "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)"
	recordQuery := "INSERT INTO schema_migrations (version) VALUES (?)"
	if dialect == DialectPostgres {
		existsQuery = "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)"
		recordQuery = "INSERT INTO schema_migrations (version) VALUES ($1)"
	}

	applied := 0
	for _, filename := range files {
		version := strings.Split(filename, "_")[0]

		// Check if already applied (schema_migrations created by 000)
		var exists bool
		err := db.QueryRow(existsQuery, version).Scan(&exists)
		if err != nil {
			// Table doesn't exist yet - this must be migration 000
			if version != "000" {
				return errors.Newf("schema_migrations table missing, but migration is not 000: %s", filename)
			}
		} else if exists {
			if logger != nil {
				logger.Debugw("Skipping migration (already applied)",
					"migration", filename,
					"version", version,
				)
			}
			continue
		}

		sqlBytes, err := migrations.ReadFile(path.Join(migrationDir(dialect), filename))
		if err != nil {
			return errors.Wrapf(err, "read %s", filename)
		}

		if logger != nil {
			logger.Infow("Applying migration",
				"migration", filename,
				"version", version,
				"dialect", dialect,
			)
		}

		tx, err := db.Begin()
		if err != nil {
			return errors.Wrapf(err, "begin tx for %s", filename)
		}

		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "execute %s", filename)
		}

		// Record migration (000 creates the table, then records itself)
		if _, err := tx.Exec(recordQuery, version); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "record %s", filename)
		}

		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "commit %s", filename)
		}
		applied++
	}

	if logger != nil {
		logger.Infow("Migrations complete",
			"dialect", dialect,
			"total_migrations", len(files),
			"applied", applied,
		)
	}

	return nil
}
