// Package store is the storage client used by every data access path.
//
// It exposes a small fluent query builder over database/sql that speaks both
// the local SQLite dialect and the hosted Postgres dialect:
//
//	res, err := client.From("companies").
//	    Select("id", "name").Count().
//	    ILikeAny("bio", "name", "description").
//	    Order("name", true, true).
//	    Range(0, 20).
//	    Execute(ctx)
//
// Table and column identifiers are always code constants; only values travel
// as bind parameters. Every round trip runs under the client's per-call timeout.
package store

import (
	"context"

	"github.com/teranos/pharmadex/db"
	"github.com/teranos/pharmadex/errors"
)

// Row is a raw storage record keyed by snake_case column name.
type Row map[string]any

// Result is the outcome of a select: the page of rows and, when Count was
// requested, the exact number of rows matching the filters.
type Result struct {
	Rows  []Row
	Count int
}

var (
	// ErrNoRows is returned by Single when the filters match nothing.
	ErrNoRows = errors.New("no rows in result set")

	// ErrEmptyIn is returned when In receives an empty value list.
	// An empty IN list is never sent to the engine; callers short-circuit first.
	ErrEmptyIn = errors.New("empty IN list")

	// ErrUnfilteredWrite guards Delete and Update without any filter.
	ErrUnfilteredWrite = errors.New("refusing to write without a filter")

	// ErrInvalidCredentials is reported by the stub client.
	ErrInvalidCredentials = errors.ErrInvalidCredentials
)

// Client is the storage client contract.
type Client interface {
	// From starts a query against table.
	From(table string) *Query

	// Insert writes rows as new records.
	Insert(ctx context.Context, table string, rows ...Row) error

	// Upsert writes rows, updating the non-key columns of any row that
	// conflicts on onConflict.
	Upsert(ctx context.Context, table string, onConflict []string, rows ...Row) error

	// Tx runs fn inside a transaction. fn's client shares the transaction;
	// returning an error rolls everything back.
	Tx(ctx context.Context, fn func(tx Client) error) error

	// Dialect reports the SQL flavour of the underlying store.
	Dialect() db.Dialect

	Close() error
}

// IsNoRows reports whether err is the zero-row condition of Single.
func IsNoRows(err error) bool {
	return errors.Is(err, ErrNoRows)
}
