package access

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/pharmadex/aggregate"
	"github.com/teranos/pharmadex/db"
	"github.com/teranos/pharmadex/entity"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/internal/util"
	"github.com/teranos/pharmadex/store"
)

func companyName(c entity.Company) string { return c.Name }

func TestCompaniesListSearchIsCaseInsensitive(t *testing.T) {
	a, _ := seeded(t)

	page, err := a.Companies.List(context.Background(), entity.CompanyFilter{
		ListOptions: entity.ListOptions{Search: "BIO"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Biogen"}, pluck(page.Data, companyName))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, entity.DefaultLimit, page.Limit)
}

func TestCompaniesListSortsDescendingWithNullsLast(t *testing.T) {
	a, _ := seeded(t)

	page, err := a.Companies.List(context.Background(), entity.CompanyFilter{
		ListOptions: entity.ListOptions{SortBy: "marketCap", SortDirection: entity.SortDesc},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Novartis", "Pfizer", "Biogen", "Acme Therapeutics", "Moderna"}, pluck(page.Data, companyName))
}

func TestCompaniesListUnknownSortFallsBackToName(t *testing.T) {
	a, _ := seeded(t)

	page, err := a.Companies.List(context.Background(), entity.CompanyFilter{
		ListOptions: entity.ListOptions{SortBy: "name; DROP TABLE companies"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Therapeutics", "Biogen", "Moderna", "Novartis", "Pfizer"}, pluck(page.Data, companyName))
}

func TestCompaniesListFilters(t *testing.T) {
	a, _ := seeded(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter entity.CompanyFilter
		want   []string
	}{
		{"exchange", entity.CompanyFilter{Exchange: "NASDAQ"}, []string{"Biogen", "Moderna"}},
		{"region substring", entity.CompanyFilter{Region: "usa"}, []string{"Biogen", "Moderna", "Pfizer"}},
		{"market cap range", entity.CompanyFilter{MinMarketCap: util.Ptr(50.0), MaxMarketCap: util.Ptr(170.0)}, []string{"Pfizer"}},
		{"founded range", entity.CompanyFilter{MinFoundedYear: util.Ptr(1990)}, []string{"Acme Therapeutics", "Moderna", "Novartis"}},
		{"therapeutic area", entity.CompanyFilter{TherapeuticAreaID: "ta-onc"}, []string{"Novartis", "Pfizer"}},
		{"has products", entity.CompanyFilter{HasProducts: true}, []string{"Biogen", "Moderna", "Novartis", "Pfizer"}},
		{"area and products", entity.CompanyFilter{TherapeuticAreaID: "ta-vacc", HasProducts: true}, []string{"Moderna", "Pfizer"}},
		{"unknown area", entity.CompanyFilter{TherapeuticAreaID: "ta-missing"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := a.Companies.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pluck(page.Data, companyName))
			assert.Equal(t, len(tt.want), page.Total)
		})
	}
}

func TestCompaniesListAttachesSortedAreaNames(t *testing.T) {
	a, _ := seeded(t)

	page, err := a.Companies.List(context.Background(), entity.CompanyFilter{})
	require.NoError(t, err)

	byName := map[string][]string{}
	for _, c := range page.Data {
		byName[c.Name] = c.TherapeuticAreas
	}
	assert.Equal(t, []string{"Oncology", "Vaccines"}, byName["Pfizer"])
	assert.Equal(t, []string{"Multiple Sclerosis", "Neurology"}, byName["Biogen"])
	assert.Equal(t, []string{}, byName["Acme Therapeutics"])
}

func TestCompaniesPaginationCoversEveryRowOnce(t *testing.T) {
	a, _ := seeded(t)
	ctx := context.Background()

	var seen []string
	for offset := 0; ; offset += 2 {
		page, err := a.Companies.List(ctx, entity.CompanyFilter{
			ListOptions: entity.ListOptions{Limit: 2, Offset: offset},
		})
		require.NoError(t, err)
		assert.Equal(t, 5, page.Total)
		if len(page.Data) == 0 {
			break
		}
		seen = append(seen, pluck(page.Data, companyName)...)
	}
	assert.Equal(t, []string{"Acme Therapeutics", "Biogen", "Moderna", "Novartis", "Pfizer"}, seen)
}

func TestCompaniesGetBySlugFallsBackToID(t *testing.T) {
	a, _ := seeded(t)
	ctx := context.Background()

	bySlug, err := a.Companies.GetBySlug(ctx, "pfizer")
	require.NoError(t, err)
	require.NotNil(t, bySlug)
	assert.Equal(t, "c-pfizer", bySlug.ID)
	assert.Equal(t, []string{"Oncology", "Vaccines"}, bySlug.TherapeuticAreas)

	byID, err := a.Companies.GetBySlug(ctx, "c-novartis")
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "Novartis", byID.Name)

	missing, err := a.Companies.GetBySlug(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	none, err := a.Companies.GetByID(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestCompaniesListWithTicker(t *testing.T) {
	a, _ := seeded(t)

	companies, err := a.Companies.ListWithTicker(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Biogen", "Moderna", "Novartis", "Pfizer"}, pluck(companies, companyName))
}

func TestCompaniesCreateUpdateDelete(t *testing.T) {
	a, _ := seeded(t)
	ctx := context.Background()

	created, err := a.Companies.Create(ctx, entity.CompanyInput{
		Name:               util.Ptr("Roche Holding"),
		Headquarters:       util.Ptr("Basel, Switzerland"),
		MarketCapBillions:  util.Ptr(210.0),
		TherapeuticAreaIDs: []string{"ta-onc", "ta-neuro", "ta-onc"},
	})
	require.NoError(t, err)
	assert.Equal(t, "gen-a", created.ID)
	assert.Equal(t, "roche-holding", created.Slug)
	assert.Equal(t, []string{"Neurology", "Oncology"}, created.TherapeuticAreas)
	assert.Equal(t, fixedNow, created.CreatedAt.UTC())

	updated, err := a.Companies.Update(ctx, created.ID, entity.CompanyInput{
		Ticker:             util.Ptr("ROG"),
		TherapeuticAreaIDs: []string{},
	})
	require.NoError(t, err)
	assert.Equal(t, "ROG", updated.Ticker)
	assert.Equal(t, "Roche Holding", updated.Name, "unset fields are kept")
	assert.Equal(t, []string{}, updated.TherapeuticAreas)

	_, err = a.Companies.Update(ctx, "c-missing", entity.CompanyInput{Ticker: util.Ptr("X")})
	assert.Equal(t, errors.CategoryNotFound, errors.CategoryOf(err))

	deleted, err := a.Companies.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = a.Companies.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCompaniesCreateValidation(t *testing.T) {
	a, _ := seeded(t)
	ctx := context.Background()

	_, err := a.Companies.Create(ctx, entity.CompanyInput{})
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))

	_, err = a.Companies.Create(ctx, entity.CompanyInput{Name: util.Ptr("X"), Slug: util.Ptr("Not A Slug")})
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))

	_, err = a.Companies.Create(ctx, entity.CompanyInput{Name: util.Ptr("Pfizer Again"), Slug: util.Ptr("pfizer")})
	assert.True(t, errors.Is(err, errors.ErrConflict), "duplicate slug: %v", err)
}

func TestCompaniesCreateRollsBackOnLinkFailure(t *testing.T) {
	a, _ := seeded(t)
	ctx := context.Background()

	_, err := a.Companies.Create(ctx, entity.CompanyInput{
		ID:                 util.Ptr("c-rollback"),
		Name:               util.Ptr("Rollback Bio"),
		TherapeuticAreaIDs: []string{"ta-does-not-exist"},
	})
	require.Error(t, err)
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))

	got, err := a.Companies.GetByID(ctx, "c-rollback")
	require.NoError(t, err)
	assert.Nil(t, got, "company insert must roll back with its links")
}

func TestCompaniesDeleteKeepsProductsAsOrphans(t *testing.T) {
	a, _ := seeded(t)
	ctx := context.Background()

	_, err := a.Companies.Delete(ctx, "c-biogen")
	require.NoError(t, err)

	product, err := a.Products.GetByID(ctx, "p-tecfidera")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Nil(t, product.CompanyID)
}

func TestCompaniesFilters(t *testing.T) {
	a, _ := seeded(t)

	f, err := a.Companies.Filters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []entity.Facet{
		{Value: "USA", Label: "USA", Count: 3},
		{Value: "Germany", Label: "Germany", Count: 1},
		{Value: "Switzerland", Label: "Switzerland", Count: 1},
	}, f.Regions)
	assert.Equal(t, []entity.Facet{
		{Value: "NASDAQ", Label: "NASDAQ", Count: 2},
		{Value: "NYSE", Label: "NYSE", Count: 2},
	}, f.Exchanges)
	assert.Equal(t, []entity.Facet{
		{Value: "ta-neuro", Label: "Neurology", Count: 2},
		{Value: "ta-onc", Label: "Oncology", Count: 2},
		{Value: "ta-vacc", Label: "Vaccines", Count: 2},
		{Value: "ta-ms", Label: "Multiple Sclerosis", Count: 1},
	}, f.TherapeuticAreas)
}

func TestCompaniesFiltersMatchAcrossAggregationStrategies(t *testing.T) {
	scan, client := seeded(t)
	grouped := New(Options{Reader: client, Aggregation: aggregate.Grouped{}})

	want, err := scan.Companies.Filters(context.Background())
	require.NoError(t, err)
	got, err := grouped.Companies.Filters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func mockAccess(t *testing.T) (*Access, sqlmock.Sqlmock, *observer.ObservedLogs) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	core, logs := observer.New(zapcore.DebugLevel)
	client := store.NewSQLClient(sqlDB, db.DialectSQLite, 0, nil)
	return New(Options{Reader: client, Logger: zap.New(core).Sugar()}), mock, logs
}

func TestCompaniesListSkipsMainQueryWhenRelationIsEmpty(t *testing.T) {
	a, mock, _ := mockAccess(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT company_id FROM company_therapeutic_areas")).
		WillReturnRows(sqlmock.NewRows([]string{"company_id"}))

	page, err := a.Companies.List(context.Background(), entity.CompanyFilter{TherapeuticAreaID: "ta-none"})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.NotNil(t, page.Data)
	assert.Equal(t, 0, page.Total)
	require.NoError(t, mock.ExpectationsWereMet(), "no query against companies may run")
}

func TestCompaniesListDegradesWhenAreaResolutionFails(t *testing.T) {
	a, mock, logs := mockAccess(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM companies")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "name"}).AddRow("c1", "acme", "Acme"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS count FROM companies")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta("FROM company_therapeutic_areas")).
		WillReturnError(errors.New("connection reset"))

	page, err := a.Companies.List(context.Background(), entity.CompanyFilter{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, []string{}, page.Data[0].TherapeuticAreas)
	assert.Equal(t, 1, logs.FilterMessage("Relation resolution failed, returning without it").Len())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompaniesListPropagatesMainQueryFailure(t *testing.T) {
	a, mock, _ := mockAccess(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM companies")).
		WillReturnError(errors.New("relation does not exist"))

	_, err := a.Companies.List(context.Background(), entity.CompanyFilter{})
	require.Error(t, err)
	assert.Equal(t, errors.CategoryDatabase, errors.CategoryOf(err))
}

func TestCompaniesOnStubClientReportCredentials(t *testing.T) {
	a := New(Options{Reader: store.NewStubClient()})

	_, err := a.Companies.List(context.Background(), entity.CompanyFilter{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrInvalidCredentials))
	assert.Equal(t, errors.CategoryConfiguration, errors.CategoryOf(err))
}

func TestIdentity(t *testing.T) {
	newID := func() string { return "gen-1" }

	id, slug, err := Identity(nil, nil, util.Ptr("Bayer AG"), newID)
	require.NoError(t, err)
	assert.Equal(t, "gen-1", id)
	assert.Equal(t, "bayer-ag", slug)

	_, _, err = Identity(nil, nil, util.Ptr("武田薬品"), newID)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))
	assert.Contains(t, err.Error(), "yields an empty slug; supply slug")

	id, slug, err = Identity(util.Ptr("co-takeda"), util.Ptr("takeda"), util.Ptr("武田薬品"), newID)
	require.NoError(t, err)
	assert.Equal(t, "co-takeda", id)
	assert.Equal(t, "takeda", slug)

	_, _, err = Identity(nil, util.Ptr("Not Valid"), util.Ptr("Acme"), newID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be lowercase letters")
}
