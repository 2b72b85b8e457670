package datasource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pharmadex/entity"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/internal/util"
)

func TestDefaultFixturesParse(t *testing.T) {
	fx, err := DefaultFixtures()
	require.NoError(t, err)

	assert.Equal(t, FixtureFormat, fx.Format)
	assert.Len(t, fx.TherapeuticAreas, 6)
	assert.Len(t, fx.Companies, 6)
	assert.Len(t, fx.Products, 8)
	assert.Len(t, fx.Websites, 4)

	pfizer := fx.Companies[0]
	assert.Equal(t, "Pfizer", pfizer.Name)
	assert.Equal(t, 160.5, *pfizer.MarketCapBillions)
	assert.Equal(t, []string{"ta-oncology", "ta-breast-cancer", "ta-vaccines"}, pfizer.TherapeuticAreaIDs)

	assert.Nil(t, fx.Products[7].CompanyID, "HX-101 is orphaned")
	assert.Equal(t, "Drupal", fx.Websites[0].TechStack.CMS)
}

func TestParseFixturesRejectsUnknownKeys(t *testing.T) {
	_, err := ParseFixtures([]byte("companies:\n  - id: x\n    name: X\n    marketcap: 3\n"))
	require.Error(t, err)
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))
}

func TestParseFixturesChecksFormat(t *testing.T) {
	_, err := ParseFixtures([]byte("format: 1.4.2\n"))
	assert.NoError(t, err)

	_, err = ParseFixtures([]byte("format: 2.0.0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")

	_, err = ParseFixtures([]byte("format: latest\n"))
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))
}

func TestLoadFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fx.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: 1.0.0\ntherapeuticAreas:\n  - id: a\n    name: A\n"), 0o644))

	fx, err := LoadFixtures(path)
	require.NoError(t, err)
	require.Len(t, fx.TherapeuticAreas, 1)

	_, err = LoadFixtures(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, errors.CategoryConfiguration, errors.CategoryOf(err))

	def, err := LoadFixtures("")
	require.NoError(t, err)
	assert.NotEmpty(t, def.Companies)
}

func area(id, parent string) AreaFixture {
	a := AreaFixture{entity.TherapeuticArea{ID: id, Name: id}}
	if parent != "" {
		a.ParentID = util.Ptr(parent)
	}
	return a
}

func TestParentsFirst(t *testing.T) {
	ordered, err := parentsFirst([]AreaFixture{area("leaf", "mid"), area("mid", "root"), area("root", ""), area("solo", "")})
	require.NoError(t, err)

	pos := map[string]int{}
	for i, a := range ordered {
		pos[a.ID] = i
	}
	assert.Len(t, ordered, 4)
	assert.Less(t, pos["root"], pos["mid"])
	assert.Less(t, pos["mid"], pos["leaf"])

	_, err = parentsFirst([]AreaFixture{area("a", "b"), area("b", "a")})
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))

	_, err = parentsFirst([]AreaFixture{area("a", "ghost")})
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))
}

func TestSeedIsRepeatable(t *testing.T) {
	fx, err := DefaultFixtures()
	require.NoError(t, err)
	ctx := context.Background()

	m := NewMemory()
	first, err := Seed(ctx, m, fx)
	require.NoError(t, err)
	second, err := Seed(ctx, m, fx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	page, err := m.Companies().List(ctx, entity.CompanyFilter{})
	require.NoError(t, err)
	assert.Equal(t, 6, page.Total)
}
