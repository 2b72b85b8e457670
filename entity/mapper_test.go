package entity

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"

	"github.com/teranos/pharmadex/internal/util"
	"github.com/teranos/pharmadex/store"
)

// timestamps are set by the store and derived lists by relation resolution
var ignoreDerived = cmpopts.IgnoreFields(Company{}, "CreatedAt", "UpdatedAt", "TherapeuticAreas")

func TestCompanyRoundTrip(t *testing.T) {
	c := Company{
		ID:                "c1",
		Slug:              "acme-pharma",
		Name:              "Acme Pharma",
		Description:       "",
		Headquarters:      "Basel, Switzerland",
		FoundedYear:       util.Ptr(1896),
		EmployeeCount:     util.Ptr(0),
		MarketCapBillions: util.Ptr(500.5),
		Ticker:            "ACME",
		Exchange:          "SIX",
		TherapeuticAreas:  []string{"Oncology"},
	}

	got := CompanyFromRow(CompanyInputToRow(c.Input()))
	if diff := cmp.Diff(c, got, ignoreDerived); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestProductRoundTrip(t *testing.T) {
	tests := []Product{
		{ID: "p1", Slug: "acmezumab", Name: "Acmezumab", CompanyID: util.Ptr("c1"), Stage: StagePhase2, MoleculeType: "antibody"},
		{ID: "p2", Slug: "orphan", Name: "Orphan", CompanyID: nil, Stage: StageDiscovery},
	}
	for _, p := range tests {
		got := ProductFromRow(ProductInputToRow(p.Input()))
		if diff := cmp.Diff(p, got, cmpopts.IgnoreFields(Product{}, "CreatedAt", "UpdatedAt", "TherapeuticAreas")); diff != "" {
			t.Errorf("%s round trip mismatch (-want +got):\n%s", p.ID, diff)
		}
	}
}

func TestTherapeuticAreaRoundTrip(t *testing.T) {
	a := TherapeuticArea{ID: "ta2", Slug: "breast-cancer", Name: "Breast Cancer", ParentID: util.Ptr("ta1")}
	got := TherapeuticAreaFromRow(TherapeuticAreaInputToRow(a.Input()))
	if diff := cmp.Diff(a, got, cmpopts.IgnoreFields(TherapeuticArea{}, "CreatedAt", "UpdatedAt")); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWebsiteRoundTrip(t *testing.T) {
	w := Website{
		ID: "w1", Slug: "acme-com", Domain: "acme.com", URL: "https://acme.com",
		CompanyID: util.Ptr("c1"), Category: "corporate", IsActive: false,
		Features: []string{}, ProductIDs: []string{},
	}
	got := WebsiteFromRow(WebsiteInputToRow(w.Input()))
	if diff := cmp.Diff(w, got, cmpopts.IgnoreFields(Website{}, "CreatedAt", "UpdatedAt")); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	ts := TechStack{CMS: "Drupal", CDN: "Akamai"}
	assert.Equal(t, &ts, TechStackFromRow(TechStackToRow("w1", ts)))
	h := Hosting{Provider: "AWS", SSLEnabled: true}
	assert.Equal(t, &h, HostingFromRow(HostingToRow("w1", h)))
	l := Legal{TermsURL: "https://acme.com/terms"}
	assert.Equal(t, &l, LegalFromRow(LegalToRow("w1", l)))
}

func TestPartialInputOnlyWritesPresentKeys(t *testing.T) {
	row := CompanyInputToRow(CompanyInput{
		Name:          util.Ptr(""),
		EmployeeCount: util.Ptr(0),
	})
	assert.Equal(t, store.Row{"name": "", "employee_count": 0}, row)

	row = WebsiteInputToRow(WebsiteInput{IsActive: util.Ptr(false)})
	assert.Equal(t, store.Row{"is_active": false}, row)

	row = ProductInputToRow(ProductInput{CompanyID: util.Ptr("")})
	assert.Equal(t, store.Row{"company_id": nil}, row, "empty company id clears the reference")

	assert.Empty(t, ProductInputToRow(ProductInput{}))
}

func TestMappersTolerateDriverTypes(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := CompanyFromRow(store.Row{
		"id":             []byte("c1"),
		"founded_year":   int32(1849),
		"employee_count": "83000",
		"market_cap":     int64(160),
		"created_at":     "2024-03-01 12:00:00",
		"updated_at":     ts,
	})
	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, 1849, *c.FoundedYear)
	assert.Equal(t, 83000, *c.EmployeeCount)
	assert.Equal(t, 160.0, *c.MarketCapBillions)
	assert.Equal(t, ts, c.CreatedAt)
	assert.Equal(t, ts, c.UpdatedAt)

	w := WebsiteFromRow(store.Row{"is_active": int64(1), "company_id": nil})
	assert.True(t, w.IsActive)
	assert.Nil(t, w.CompanyID)
}

func TestMappersAreTotal(t *testing.T) {
	assert.NotPanics(t, func() {
		c := CompanyFromRow(nil)
		assert.Equal(t, "", c.Name)
		assert.Equal(t, []string{}, c.TherapeuticAreas)
		assert.Nil(t, c.MarketCapBillions)

		p := ProductFromRow(store.Row{"founded_year": "not a number"})
		assert.Nil(t, p.CompanyID)

		w := WebsiteFromRow(store.Row{})
		assert.Equal(t, []string{}, w.Features)
		assert.Nil(t, w.TechStack)
	})
}
