package db

// Dialect identifies the SQL flavour spoken by a connection.
type Dialect string

const (
	// DialectSQLite is the local embedded store (mattn/go-sqlite3)
	DialectSQLite Dialect = "sqlite"
	// DialectPostgres is the hosted remote store (pgx)
	DialectPostgres Dialect = "postgres"
)

// driverName returns the database/sql driver registered for the dialect
func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return sqliteDriver
}
