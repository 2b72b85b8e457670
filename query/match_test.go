package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/pharmadex/entity"
	"github.com/teranos/pharmadex/store"
)

func ids(rows []store.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r["id"].(string)
	}
	return out
}

func TestMatchesSearch(t *testing.T) {
	row := store.Row{"name": "Bio Solutions", "ticker": "BIOS"}
	assert.True(t, MatchesSearch(Companies, row, "bio"))
	assert.True(t, MatchesSearch(Companies, row, "ios"))
	assert.True(t, MatchesSearch(Companies, row, ""))
	assert.False(t, MatchesSearch(Companies, store.Row{"name": "Acme Pharma"}, "bio"))
}

func TestSortRows(t *testing.T) {
	rows := []store.Row{
		{"id": "c1", "name": "acme pharma", "market_cap": 500.0},
		{"id": "c2", "name": "Bio Solutions", "market_cap": 300.0},
		{"id": "c3", "name": "Cura", "market_cap": nil},
		{"id": "c0", "name": "Bio Solutions", "market_cap": int64(300)},
	}

	SortRows(Companies, rows, entity.ListOptions{SortBy: "name", SortDirection: entity.SortDesc})
	assert.Equal(t, []string{"c3", "c0", "c2", "c1"}, ids(rows), "case-insensitive desc with id tiebreak")

	SortRows(Companies, rows, entity.ListOptions{SortBy: "marketCap"})
	assert.Equal(t, []string{"c0", "c2", "c1", "c3"}, ids(rows), "nulls last")

	SortRows(Companies, rows, entity.ListOptions{SortBy: "marketCap", SortDirection: entity.SortDesc})
	assert.Equal(t, []string{"c1", "c0", "c2", "c3"}, ids(rows), "nulls last when descending")

	SortRows(Companies, rows, entity.ListOptions{SortBy: "unknown"})
	assert.Equal(t, []string{"c1", "c0", "c2", "c3"}, ids(rows), "falls back to name")
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, Paginate(items, entity.ListOptions{Offset: 2, Limit: 2}))
	assert.Equal(t, []int{5}, Paginate(items, entity.ListOptions{Offset: 4, Limit: 2}))
	assert.Equal(t, []int{}, Paginate(items, entity.ListOptions{Offset: 10}))

	var all []int
	for off := 0; off < len(items); off += 2 {
		all = append(all, Paginate(items, entity.ListOptions{Offset: off, Limit: 2})...)
	}
	assert.Equal(t, items, all, "pages are exhaustive and non-overlapping")
}
