package store

import (
	"context"

	"github.com/teranos/pharmadex/db"
	"github.com/teranos/pharmadex/errors"
)

// StubClient stands in for a storage client that could not be built.
// Every operation returns its error immediately; nothing touches the network.
type StubClient struct {
	err error
}

// NewStubClient returns a client whose every call reports invalid credentials.
func NewStubClient() *StubClient {
	return &StubClient{err: errors.Configuration(ErrInvalidCredentials, "storage url or key missing or placeholder")}
}

// newFailedClient reports err from every call (used when connecting failed).
func newFailedClient(err error) *StubClient {
	return &StubClient{err: err}
}

// From returns a query that fails on execution.
func (s *StubClient) From(table string) *Query {
	q := newQuery(nil, db.DialectPostgres, table)
	q.err = s.err
	return q
}

func (s *StubClient) Insert(context.Context, string, ...Row) error { return s.err }

func (s *StubClient) Upsert(context.Context, string, []string, ...Row) error { return s.err }

func (s *StubClient) Tx(context.Context, func(Client) error) error { return s.err }

func (s *StubClient) Dialect() db.Dialect { return db.DialectPostgres }

func (s *StubClient) Close() error { return nil }

// Err returns the error every call reports.
func (s *StubClient) Err() error { return s.err }
