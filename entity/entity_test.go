package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Pharma", "acme-pharma"},
		{"  Bio--Solutions, Inc. ", "bio-solutions-inc"},
		{"Merck & Co.", "merck-co"},
		{"Phase_3 Trial #2", "phase-3-trial-2"},
		{"Roche", "roche"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
	assert.True(t, ValidSlug("acme-pharma"))
	assert.False(t, ValidSlug("Acme Pharma"))
	assert.False(t, ValidSlug(""))
}

func TestParseStage(t *testing.T) {
	for raw, want := range map[string]Stage{
		"Phase 2":      StagePhase2,
		"phase_3":      StagePhase3,
		"PRECLINICAL":  StagePreclinical,
		"discontinued": StageDiscontinued,
	} {
		got, ok := ParseStage(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := ParseStage("phase 4")
	assert.False(t, ok)
	assert.Less(t, StageDiscovery.Rank(), StageMarket.Rank())
	assert.Len(t, Stages(), 8)
}

func TestListOptionsNormalized(t *testing.T) {
	o := ListOptions{}.Normalized()
	assert.Equal(t, DefaultLimit, o.Limit)
	assert.Equal(t, 0, o.Offset)
	assert.Equal(t, SortAsc, o.SortDirection)

	o = ListOptions{Limit: 1000, Offset: -5, SortDirection: "DESC", Search: "  bio "}.Normalized()
	assert.Equal(t, MaxLimit, o.Limit)
	assert.Equal(t, 0, o.Offset)
	assert.Equal(t, SortDesc, o.SortDirection)
	assert.Equal(t, "bio", o.Search)

	assert.Equal(t, SortAsc, ListOptions{SortDirection: "sideways"}.Normalized().SortDirection)
}

func TestPageArithmetic(t *testing.T) {
	p := Page[Company]{Total: 41, Limit: 20, Offset: 40}
	assert.Equal(t, 3, p.Pages())
	assert.Equal(t, 3, p.Number())

	assert.Equal(t, 0, Page[Company]{Limit: 20}.Pages())

	empty := EmptyPage[Product](ListOptions{Offset: 20})
	assert.Equal(t, []Product{}, empty.Data)
	assert.Equal(t, 0, empty.Total)
	assert.Equal(t, 20, empty.Limit)
	assert.Equal(t, 20, empty.Offset)
}

func TestRegionOf(t *testing.T) {
	assert.Equal(t, "Switzerland", RegionOf("Basel, Switzerland"))
	assert.Equal(t, "USA", RegionOf("New York, NY, USA"))
	assert.Equal(t, "Tokyo", RegionOf("Tokyo"))
	assert.Equal(t, "", RegionOf(""))
	assert.Equal(t, "Denmark", RegionOf("Bagsværd, Denmark, "))
}
