package batch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/teranos/pharmadex/internal/testing"
)

func TestResolveNames(t *testing.T) {
	client := testutil.CreateTestClient(t)
	testutil.MustExec(t, client.DB(),
		`INSERT INTO companies (id, slug, name) VALUES ('c1', 'acme', 'Acme'), ('c2', 'bio', 'Bio'), ('c3', 'cura', 'Cura')`,
		`INSERT INTO therapeutic_areas (id, slug, name) VALUES ('ta1', 'oncology', 'Oncology'), ('ta2', 'cardiology', 'Cardiology')`,
		`INSERT INTO company_therapeutic_areas (company_id, therapeutic_area_id) VALUES ('c1', 'ta1'), ('c1', 'ta2'), ('c2', 'ta1')`,
	)

	links := Links(client, "company_therapeutic_areas", "company_id", "therapeutic_area_id")
	names := Values(client, "therapeutic_areas", "id", "name")

	got, err := ResolveNames(context.Background(), links, names, []string{"c1", "c2", "c3", "c1"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"c1": {"Cardiology", "Oncology"},
		"c2": {"Oncology"},
		"c3": {},
	}, got)
}

func TestLinksChunked(t *testing.T) {
	client := testutil.CreateTestClient(t)
	testutil.MustExec(t, client.DB(),
		`INSERT INTO companies (id, slug, name) VALUES ('c1', 'acme', 'Acme'), ('c2', 'bio', 'Bio')`,
		`INSERT INTO products (id, slug, name, company_id) VALUES ('p1', 'p1', 'P1', 'c1'), ('p2', 'p2', 'P2', 'c2'), ('p3', 'p3', 'P3', NULL)`,
	)

	owners := Links(client, "products", "company_id", "id", WithChunkSize(1))
	got, err := owners.Load(context.Background(), []string{"c1", "c2"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"c1": {"p1"}, "c2": {"p2"}}, got)
}
