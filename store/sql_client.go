package store

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/pharmadex/db"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/logger"
)

// conn is satisfied by *sql.DB and *sql.Tx
type conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLClient implements Client over database/sql.
type SQLClient struct {
	db      *sql.DB
	conn    conn
	dialect db.Dialect
	timeout time.Duration
	logger  *zap.SugaredLogger
	inTx    bool
}

// NewSQLClient wraps an open database. timeout bounds every round trip
// (zero disables it).
func NewSQLClient(sqlDB *sql.DB, dialect db.Dialect, timeout time.Duration, log *zap.SugaredLogger) *SQLClient {
	return &SQLClient{
		db:      sqlDB,
		conn:    sqlDB,
		dialect: dialect,
		timeout: timeout,
		logger:  logger.OrNop(log),
	}
}

// From starts a query against table.
func (c *SQLClient) From(table string) *Query {
	return newQuery(c, c.dialect, table)
}

// Dialect reports the SQL flavour of the underlying store.
func (c *SQLClient) Dialect() db.Dialect {
	return c.dialect
}

// DB exposes the underlying handle for migrations and maintenance commands.
func (c *SQLClient) DB() *sql.DB {
	return c.db
}

// Close closes the underlying database. A transaction-scoped client does nothing.
func (c *SQLClient) Close() error {
	if c.inTx || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Insert writes rows as new records.
func (c *SQLClient) Insert(ctx context.Context, table string, rows ...Row) error {
	return c.write(ctx, "insert", table, nil, rows)
}

// Upsert writes rows, updating non-key columns on conflict.
func (c *SQLClient) Upsert(ctx context.Context, table string, onConflict []string, rows ...Row) error {
	if len(onConflict) == 0 {
		return errors.Newf("upsert %s: conflict columns required", table)
	}
	return c.write(ctx, "upsert", table, onConflict, rows)
}

func (c *SQLClient) write(ctx context.Context, op, table string, onConflict []string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	if len(rows) > 1 && !c.inTx {
		return c.Tx(ctx, func(tx Client) error {
			return tx.(*SQLClient).write(ctx, op, table, onConflict, rows)
		})
	}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		stmt, args := insertSQL(c.dialect, table, row, onConflict)
		if _, err := c.exec(ctx, op, table, stmt, args); err != nil {
			return err
		}
	}
	return nil
}

// Tx runs fn in a transaction. Nested calls reuse the open transaction.
func (c *SQLClient) Tx(ctx context.Context, fn func(tx Client) error) error {
	if c.inTx {
		return fn(c)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return c.wrapErr(ctx, err, "begin", "")
	}
	txClient := &SQLClient{
		db:      c.db,
		conn:    tx,
		dialect: c.dialect,
		timeout: c.timeout,
		logger:  c.logger,
		inTx:    true,
	}

	if err := fn(txClient); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			c.logger.Warnw("Rollback failed", logger.FieldError, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return c.wrapErr(ctx, err, "commit", "")
	}
	return nil
}

func (c *SQLClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *SQLClient) query(ctx context.Context, op, table, stmt string, args []any) ([]Row, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	rows, err := c.conn.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, c.wrapErr(ctx, err, op, table)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, c.wrapErr(ctx, err, op, table)
	}

	c.logger.Debugw("Storage query",
		logger.FieldOperation, op,
		logger.FieldTable, table,
		logger.FieldQuery, stmt,
		logger.FieldCount, len(out),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (c *SQLClient) exec(ctx context.Context, op, table, stmt string, args []any) (int64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	res, err := c.conn.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, c.wrapErr(ctx, err, op, table)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}

	c.logger.Debugw("Storage exec",
		logger.FieldOperation, op,
		logger.FieldTable, table,
		logger.FieldQuery, stmt,
		logger.FieldCount, affected,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return affected, nil
}

// wrapErr converts a driver error into the database category.
// Deadline overruns carry ErrTimeout; unique violations are validation
// errors marked ErrConflict; broken references are validation errors.
func (c *SQLClient) wrapErr(ctx context.Context, err error, op, table string) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.Database(errors.Mark(err, errors.ErrTimeout), "%s %s timed out after %s", op, table, c.timeout)
	case db.IsUniqueViolation(err):
		c.logger.Debugw("Unique violation", logger.FieldTable, table, logger.FieldError, err)
		return errors.Mark(errors.Validation("%s %s: duplicate key", op, table), errors.ErrConflict)
	case db.IsForeignKeyViolation(err):
		return errors.Validation("%s %s: referenced row does not exist", op, table)
	case db.IsDatabaseClosed(err):
		return errors.Database(errors.Mark(err, db.ErrDatabaseClosed), "%s %s", op, table)
	default:
		return errors.Database(err, "%s %s", op, table)
	}
}

// scanRows reads every row into a column-keyed map. []byte values become
// strings so mappers see one representation across drivers.
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
