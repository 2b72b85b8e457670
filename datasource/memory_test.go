package datasource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pharmadex/entity"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/internal/util"
)

func demoMemory(t *testing.T) *Memory {
	t.Helper()
	fx, err := DefaultFixtures()
	require.NoError(t, err)
	m, err := NewMemoryFromFixtures(context.Background(), fx, WithClock(func() time.Time {
		return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	}))
	require.NoError(t, err)
	return m
}

func TestMemorySearchAndSortScenario(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.Companies().Create(ctx, entity.CompanyInput{Name: util.Ptr("Acme Pharma"), MarketCapBillions: util.Ptr(500.0)})
	require.NoError(t, err)
	_, err = m.Companies().Create(ctx, entity.CompanyInput{Name: util.Ptr("Bio Solutions"), MarketCapBillions: util.Ptr(300.0)})
	require.NoError(t, err)

	found, err := m.Companies().List(ctx, entity.CompanyFilter{ListOptions: entity.ListOptions{Search: "bio"}})
	require.NoError(t, err)
	require.Len(t, found.Data, 1)
	assert.Equal(t, "Bio Solutions", found.Data[0].Name)

	desc, err := m.Companies().List(ctx, entity.CompanyFilter{ListOptions: entity.ListOptions{SortBy: "name", SortDirection: entity.SortDesc}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bio Solutions", "Acme Pharma"}, []string{desc.Data[0].Name, desc.Data[1].Name})
}

func TestMemoryOrphanProduct(t *testing.T) {
	m := demoMemory(t)
	ctx := context.Background()

	orphan, err := m.Products().GetByID(ctx, "pr-hx-101")
	require.NoError(t, err)
	require.NotNil(t, orphan)
	assert.Nil(t, orphan.CompanyID)

	for _, company := range []string{"co-pfizer", "co-novartis", "co-helix", ""} {
		page, err := m.Products().ListByCompany(ctx, company, entity.ListOptions{Limit: 100})
		require.NoError(t, err)
		for _, p := range page.Data {
			assert.NotEqual(t, "pr-hx-101", p.ID)
		}
	}
}

func TestMemorySlugFallback(t *testing.T) {
	m := demoMemory(t)
	ctx := context.Background()

	bySlug, err := m.Companies().GetBySlug(ctx, "helix-bio")
	require.NoError(t, err)
	byID, err := m.Companies().GetBySlug(ctx, "co-helix")
	require.NoError(t, err)
	assert.Equal(t, bySlug, byID)

	none, err := m.Websites().GetBySlug(ctx, "nothing-here")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := demoMemory(t)
	ctx := context.Background()

	site, err := m.Websites().GetByID(ctx, "ws-pfizer")
	require.NoError(t, err)
	site.TechStack.CMS = "mutated"
	site.Features[0] = "mutated"

	again, err := m.Websites().GetByID(ctx, "ws-pfizer")
	require.NoError(t, err)
	assert.Equal(t, "Drupal", again.TechStack.CMS)
	assert.NotContains(t, again.Features, "mutated")
}

func TestMemoryWriteErrors(t *testing.T) {
	m := demoMemory(t)
	ctx := context.Background()

	_, err := m.Companies().Create(ctx, entity.CompanyInput{Name: util.Ptr("Pfizer"), Slug: util.Ptr("pfizer")})
	assert.True(t, errors.Is(err, errors.ErrConflict))
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))

	_, err = m.Companies().Create(ctx, entity.CompanyInput{Name: util.Ptr("X"), TherapeuticAreaIDs: []string{"ta-ghost"}})
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))

	_, err = m.Companies().Update(ctx, "co-ghost", entity.CompanyInput{Name: util.Ptr("Ghost")})
	assert.Equal(t, errors.CategoryNotFound, errors.CategoryOf(err))

	_, err = m.Products().Create(ctx, entity.ProductInput{Name: util.Ptr("Y"), CompanyID: util.Ptr("co-ghost")})
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))

	_, err = m.TherapeuticAreas().Update(ctx, "ta-oncology", entity.TherapeuticAreaInput{ParentID: util.Ptr("ta-breast-cancer")})
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))

	_, err = m.Websites().Create(ctx, entity.WebsiteInput{Domain: util.Ptr("x.example"), ProductIDs: []string{"pr-ghost"}})
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))

	_, err = m.Websites().Update(ctx, "ws-pfizer", entity.WebsiteInput{Slug: util.Ptr("ibrance-com")})
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestMemoryDeleteCascades(t *testing.T) {
	m := demoMemory(t)
	ctx := context.Background()

	ok, err := m.Companies().Delete(ctx, "co-pfizer")
	require.NoError(t, err)
	assert.True(t, ok)

	ibrance, err := m.Products().GetByID(ctx, "pr-ibrance")
	require.NoError(t, err)
	assert.Nil(t, ibrance.CompanyID)

	site, err := m.Websites().GetByID(ctx, "ws-pfizer")
	require.NoError(t, err)
	assert.Nil(t, site.CompanyID)

	_, err = m.Products().Delete(ctx, "pr-ibrance")
	require.NoError(t, err)
	site, err = m.Websites().GetByID(ctx, "ws-ibrance")
	require.NoError(t, err)
	assert.Equal(t, []string{}, site.ProductIDs)

	_, err = m.TherapeuticAreas().Delete(ctx, "ta-neurology")
	require.NoError(t, err)
	ms, err := m.TherapeuticAreas().GetBySlug(ctx, "multiple-sclerosis")
	require.NoError(t, err)
	assert.Nil(t, ms.ParentID)
	biogen, err := m.Companies().GetByID(ctx, "co-biogen")
	require.NoError(t, err)
	assert.Equal(t, []string{"Multiple Sclerosis"}, biogen.TherapeuticAreas)

	again, err := m.Companies().Delete(ctx, "co-pfizer")
	require.NoError(t, err)
	assert.False(t, again)
}

func TestMemoryUpdateKeepsUnsetFields(t *testing.T) {
	m := demoMemory(t)
	ctx := context.Background()

	later := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	m.now = func() time.Time { return later }

	updated, err := m.Companies().Update(ctx, "co-biogen", entity.CompanyInput{EmployeeCount: util.Ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, *updated.EmployeeCount, "zero is a value, not absence")
	assert.Equal(t, "BIIB", updated.Ticker)
	assert.Equal(t, []string{"Multiple Sclerosis", "Neurology"}, updated.TherapeuticAreas)
	assert.Equal(t, later, updated.UpdatedAt)
	assert.True(t, updated.CreatedAt.Before(later))

	site, err := m.Websites().Update(ctx, "ws-novartis", entity.WebsiteInput{Features: []string{"search", "search"}})
	require.NoError(t, err)
	assert.Equal(t, "Azure", site.Hosting.Provider)
	assert.Equal(t, []string{"search"}, site.Features)
}

func TestMemoryTherapeuticAreaCountsAndTree(t *testing.T) {
	m := demoMemory(t)
	ctx := context.Background()

	onc, err := m.TherapeuticAreas().GetByID(ctx, "ta-oncology")
	require.NoError(t, err)
	assert.Equal(t, 3, onc.CompanyCount)
	assert.Equal(t, 2, onc.ProductCount)
	assert.Equal(t, 3, onc.WebsiteCount, "pfizer has two sites, novartis one, roche none")
	assert.Equal(t, []string{"co-novartis", "co-pfizer", "co-roche"}, onc.CompanyIDs)

	tree, err := m.TherapeuticAreas().Tree(ctx)
	require.NoError(t, err)
	var names []string
	for _, root := range tree {
		names = append(names, root.Name)
	}
	assert.Equal(t, []string{"Immunology", "Neurology", "Oncology", "Vaccines"}, names)
	assert.Equal(t, "Breast Cancer", tree[2].Children[0].Name)
}
