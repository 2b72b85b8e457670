package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pharmadex/config"
	"github.com/teranos/pharmadex/db"
	"github.com/teranos/pharmadex/errors"
)

func TestIsPlaceholder(t *testing.T) {
	for _, v := range []string{"", "  ", "your-anon-key", "YOUR_SERVICE_KEY", "placeholder", "my-placeholder-url", "changeme", "xxx", "XXXXXXXX", "<anon key>"} {
		assert.True(t, IsPlaceholder(v), "%q should be a placeholder", v)
	}
	for _, v := range []string{"eyJhbGciOiJIUzI1NiJ9.abc", "postgres://anon@db.example.com/directory", "xx"} {
		assert.False(t, IsPlaceholder(v), "%q should be accepted", v)
	}
}

func TestStubClientReportsInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	stub := NewStubClient()

	_, err := stub.From("companies").Eq("slug", "acme").Execute(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	assert.Equal(t, errors.CategoryConfiguration, errors.CategoryOf(err))

	_, err = stub.From("companies").Single(ctx)
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	assert.False(t, IsNoRows(err))

	assert.True(t, errors.Is(stub.Insert(ctx, "companies", Row{"id": "x"}), ErrInvalidCredentials))
	assert.True(t, errors.Is(stub.Upsert(ctx, "companies", []string{"id"}), ErrInvalidCredentials))
	assert.True(t, errors.Is(stub.Tx(ctx, func(Client) error { return nil }), ErrInvalidCredentials))
	assert.NoError(t, stub.Close())
}

func TestProviderSubstitutesStub(t *testing.T) {
	p := NewProvider(config.StorageConfig{URL: "postgres://db.example.com/x", AnonKey: "your-anon-key"}, nil)

	anon := p.Anon()
	assert.IsType(t, &StubClient{}, anon)
	assert.Same(t, anon, p.Anon(), "client is built once")

	assert.IsType(t, &StubClient{}, p.Privileged())
	assert.NoError(t, p.Close())
}

func TestProviderLocalSharesOneHandle(t *testing.T) {
	p := NewProvider(config.StorageConfig{
		UseLocal:  true,
		LocalPath: filepath.Join(t.TempDir(), "local.db"),
	}, nil)
	defer p.Close()

	anon := p.Anon()
	require.IsType(t, &SQLClient{}, anon)
	assert.Equal(t, db.DialectSQLite, anon.Dialect())
	assert.Same(t, anon, p.Privileged())

	_, err := anon.From("companies").Execute(context.Background())
	assert.NoError(t, err, "local database is migrated on open")
}
