package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/teranos/pharmadex/db"
	"github.com/teranos/pharmadex/errors"
)

// runner executes built statements. SQLClient implements it; the stub
// client never hands one out.
type runner interface {
	query(ctx context.Context, op, table, stmt string, args []any) ([]Row, error)
	exec(ctx context.Context, op, table, stmt string, args []any) (int64, error)
}

// clause is one AND-ed WHERE fragment with its bind arguments
type clause struct {
	expr string
	args []any
}

// Query accumulates a single-table statement. Methods chain; the first
// builder error (such as an empty IN list) is kept and returned by the
// terminal call without touching the store.
type Query struct {
	run     runner
	dialect db.Dialect
	table   string
	columns []string
	count   bool
	where   []clause
	orders  []string
	offset  int
	limit   int
	err     error
}

func newQuery(run runner, dialect db.Dialect, table string) *Query {
	return &Query{run: run, dialect: dialect, table: table}
}

// Select restricts the returned columns. No call selects every column.
func (q *Query) Select(columns ...string) *Query {
	q.columns = append(q.columns, columns...)
	return q
}

// Count asks Execute to also report the exact number of matching rows,
// ignoring Range.
func (q *Query) Count() *Query {
	q.count = true
	return q
}

func (q *Query) addClause(expr string, args ...any) *Query {
	q.where = append(q.where, clause{expr: expr, args: args})
	return q
}

// Eq filters column = value. A nil value filters IS NULL.
func (q *Query) Eq(column string, value any) *Query {
	if value == nil {
		return q.IsNull(column)
	}
	return q.addClause(column+" = ?", value)
}

// Neq filters column <> value.
func (q *Query) Neq(column string, value any) *Query {
	return q.addClause(column+" <> ?", value)
}

// ILike filters a case-insensitive substring match of term against column.
func (q *Query) ILike(column, term string) *Query {
	return q.addClause(q.likeExpr(column), "%"+escapeLikePattern(term)+"%")
}

// ILikeAny matches term against any of columns (OR).
func (q *Query) ILikeAny(term string, columns ...string) *Query {
	if len(columns) == 0 {
		return q
	}
	if len(columns) == 1 {
		return q.ILike(columns[0], term)
	}
	pattern := "%" + escapeLikePattern(term) + "%"
	exprs := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		exprs[i] = q.likeExpr(column)
		args[i] = pattern
	}
	return q.addClause("("+strings.Join(exprs, " OR ")+")", args...)
}

func (q *Query) likeExpr(column string) string {
	if q.dialect == db.DialectPostgres {
		return column + " ILIKE ? ESCAPE '\\'"
	}
	return db.SQLiteLowerFunc + "(" + column + ") LIKE " + db.SQLiteLowerFunc + "(?) ESCAPE '\\'"
}

// In filters column IN (values). An empty list records ErrEmptyIn.
func (q *Query) In(column string, values []string) *Query {
	if len(values) == 0 {
		if q.err == nil {
			q.err = errors.Wrapf(ErrEmptyIn, "%s.%s", q.table, column)
		}
		return q
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return q.addClause(column+" IN ("+placeholders+")", args...)
}

// IsNull filters column IS NULL.
func (q *Query) IsNull(column string) *Query {
	return q.addClause(column + " IS NULL")
}

// NotNull filters column IS NOT NULL.
func (q *Query) NotNull(column string) *Query {
	return q.addClause(column + " IS NOT NULL")
}

// Gte filters column >= value.
func (q *Query) Gte(column string, value any) *Query {
	return q.addClause(column+" >= ?", value)
}

// Lte filters column <= value.
func (q *Query) Lte(column string, value any) *Query {
	return q.addClause(column+" <= ?", value)
}

// Order appends a sort key. Calls accumulate, so a tiebreak is a second Order.
// NULLs sort last in both directions and both dialects.
func (q *Query) Order(column string, ascending, caseInsensitive bool) *Query {
	dir := "ASC"
	if !ascending {
		dir = "DESC"
	}
	expr := column
	if caseInsensitive {
		if q.dialect == db.DialectPostgres {
			expr = "LOWER(" + column + ")"
		} else {
			expr = db.SQLiteLowerFunc + "(" + column + ")"
		}
	}
	q.orders = append(q.orders, expr+" "+dir+" NULLS LAST")
	return q
}

// Range selects limit rows starting at offset. limit <= 0 means no limit.
func (q *Query) Range(offset, limit int) *Query {
	if offset < 0 {
		offset = 0
	}
	q.offset = offset
	q.limit = limit
	return q
}

// Clone returns an independent copy of the query.
func (q *Query) Clone() *Query {
	c := *q
	c.columns = append([]string(nil), q.columns...)
	c.where = append([]clause(nil), q.where...)
	c.orders = append([]string(nil), q.orders...)
	return &c
}

// Err returns the first builder error, if any.
func (q *Query) Err() error {
	return q.err
}

// Table returns the table the query targets.
func (q *Query) Table() string {
	return q.table
}

func (q *Query) whereSQL() (string, []any) {
	if len(q.where) == 0 {
		return "", nil
	}
	exprs := make([]string, len(q.where))
	var args []any
	for i, c := range q.where {
		exprs[i] = c.expr
		args = append(args, c.args...)
	}
	return " WHERE " + strings.Join(exprs, " AND "), args
}

// SelectSQL renders the data statement in the query's dialect.
func (q *Query) SelectSQL() (string, []any) {
	cols := "*"
	if len(q.columns) > 0 {
		cols = strings.Join(q.columns, ", ")
	}
	where, args := q.whereSQL()

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(cols)
	b.WriteString(" FROM ")
	b.WriteString(q.table)
	b.WriteString(where)
	if len(q.orders) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(q.orders, ", "))
	}
	switch {
	case q.limit > 0:
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, q.limit, q.offset)
	case q.offset > 0 && q.dialect == db.DialectPostgres:
		b.WriteString(" OFFSET ?")
		args = append(args, q.offset)
	case q.offset > 0:
		b.WriteString(" LIMIT -1 OFFSET ?")
		args = append(args, q.offset)
	}
	return rebind(q.dialect, b.String()), args
}

// CountSQL renders the exact-count statement in the query's dialect.
func (q *Query) CountSQL() (string, []any) {
	where, args := q.whereSQL()
	return rebind(q.dialect, "SELECT COUNT(*) AS count FROM "+q.table+where), args
}

// Execute runs the select (and the count, when requested).
func (q *Query) Execute(ctx context.Context) (Result, error) {
	if q.err != nil {
		return Result{}, q.err
	}

	stmt, args := q.SelectSQL()
	rows, err := q.run.query(ctx, "select", q.table, stmt, args)
	if err != nil {
		return Result{}, err
	}
	res := Result{Rows: rows, Count: len(rows)}

	if q.count {
		stmt, args := q.CountSQL()
		countRows, err := q.run.query(ctx, "count", q.table, stmt, args)
		if err != nil {
			return Result{}, err
		}
		if len(countRows) == 1 {
			res.Count = toInt(countRows[0]["count"])
		}
	}
	return res, nil
}

// Single returns the first matching row, or ErrNoRows.
func (q *Query) Single(ctx context.Context) (Row, error) {
	one := q.Clone()
	one.count = false
	one.Range(0, 1)
	res, err := one.Execute(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, errors.Wrapf(ErrNoRows, "%s", q.table)
	}
	return res.Rows[0], nil
}

// GroupCount counts matching rows per distinct value of column.
// NULL values are not counted.
func (q *Query) GroupCount(ctx context.Context, column string) (map[string]int, error) {
	if q.err != nil {
		return nil, q.err
	}
	where, args := q.whereSQL()
	stmt := rebind(q.dialect, fmt.Sprintf(
		"SELECT %s AS grp, COUNT(*) AS n FROM %s%s GROUP BY %s", column, q.table, where, column))

	rows, err := q.run.query(ctx, "group", q.table, stmt, args)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		if r["grp"] == nil {
			continue
		}
		counts[toString(r["grp"])] += toInt(r["n"])
	}
	return counts, nil
}

// Update sets values on every matching row and returns the affected count.
func (q *Query) Update(ctx context.Context, values Row) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	if len(q.where) == 0 {
		return 0, errors.Wrapf(ErrUnfilteredWrite, "update %s", q.table)
	}
	if len(values) == 0 {
		return 0, nil
	}

	keys := sortedKeys(values)
	sets := make([]string, len(keys))
	args := make([]any, 0, len(keys))
	for i, k := range keys {
		sets[i] = k + " = ?"
		args = append(args, values[k])
	}
	where, whereArgs := q.whereSQL()
	stmt := rebind(q.dialect, "UPDATE "+q.table+" SET "+strings.Join(sets, ", ")+where)
	return q.run.exec(ctx, "update", q.table, stmt, append(args, whereArgs...))
}

// Delete removes every matching row and returns the affected count.
func (q *Query) Delete(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	if len(q.where) == 0 {
		return 0, errors.Wrapf(ErrUnfilteredWrite, "delete %s", q.table)
	}
	where, args := q.whereSQL()
	stmt := rebind(q.dialect, "DELETE FROM "+q.table+where)
	return q.run.exec(ctx, "delete", q.table, stmt, args)
}

// insertSQL renders a single-row INSERT, optionally with an upsert clause.
func insertSQL(dialect db.Dialect, table string, row Row, onConflict []string) (string, []any) {
	keys := sortedKeys(row)
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = row[k]
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
	stmt := "INSERT INTO " + table + " (" + strings.Join(keys, ", ") + ") VALUES (" + placeholders + ")"

	if len(onConflict) > 0 {
		conflict := make(map[string]bool, len(onConflict))
		for _, c := range onConflict {
			conflict[c] = true
		}
		var sets []string
		for _, k := range keys {
			if !conflict[k] {
				sets = append(sets, k+" = excluded."+k)
			}
		}
		stmt += " ON CONFLICT (" + strings.Join(onConflict, ", ") + ")"
		if len(sets) == 0 {
			stmt += " DO NOTHING"
		} else {
			stmt += " DO UPDATE SET " + strings.Join(sets, ", ")
		}
	}
	return rebind(dialect, stmt), args
}

// rebind rewrites ? placeholders to $n for Postgres. Statements never carry
// literal question marks; values always travel as arguments.
func rebind(dialect db.Dialect, stmt string) string {
	if dialect != db.DialectPostgres || !strings.Contains(stmt, "?") {
		return stmt
	}
	var b strings.Builder
	n := 0
	for _, r := range stmt {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapeLikePattern escapes special characters in LIKE patterns for SQL ESCAPE clause
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

func sortedKeys(row Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
