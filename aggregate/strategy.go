// Package aggregate counts rows per distinct column value for facets and
// therapeutic-area counts. Two strategies are available and selected by
// the storage.aggregation setting:
//
//   - scan: read the column for every matching row and group in process.
//     Cost is linear in table size on every call; fine for a directory of a
//     few thousand rows, and the first thing to revisit as data grows.
//   - grouped: let the store run GROUP BY and return one row per value.
package aggregate

import (
	"context"
	"sort"

	"github.com/teranos/pharmadex/entity"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/store"
)

const (
	NameScan    = "scan"
	NameGrouped = "grouped"
)

// Strategy counts rows of q per distinct non-empty value of column.
type Strategy interface {
	Count(ctx context.Context, q *store.Query, column string) (map[string]int, error)
	Name() string
}

// New returns the strategy registered under name ("" selects scan).
func New(name string) (Strategy, error) {
	switch name {
	case "", NameScan:
		return ScanAndGroup{}, nil
	case NameGrouped:
		return Grouped{}, nil
	}
	return nil, errors.Validation("unknown aggregation strategy %q", name)
}

// ScanAndGroup reads every matching value and groups in process.
type ScanAndGroup struct{}

func (ScanAndGroup) Name() string { return NameScan }

func (ScanAndGroup) Count(ctx context.Context, q *store.Query, column string) (map[string]int, error) {
	res, err := q.Select(column).Execute(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, row := range res.Rows {
		if key := key(row[column]); key != "" {
			counts[key]++
		}
	}
	return counts, nil
}

// Grouped delegates grouping to the store.
type Grouped struct{}

func (Grouped) Name() string { return NameGrouped }

func (Grouped) Count(ctx context.Context, q *store.Query, column string) (map[string]int, error) {
	counts, err := q.GroupCount(ctx, column)
	if err != nil {
		return nil, err
	}
	delete(counts, "")
	return counts, nil
}

// Rekey folds counts through fn, summing values whose keys map to the same
// result. Keys mapping to "" are dropped.
func Rekey(counts map[string]int, fn func(string) string) map[string]int {
	out := make(map[string]int, len(counts))
	for k, n := range counts {
		if nk := fn(k); nk != "" {
			out[nk] += n
		}
	}
	return out
}

// Facets converts counts to facets ordered by count (descending) then label.
// labels maps values to display names; values without a label show
// themselves.
func Facets(counts map[string]int, labels map[string]string) []entity.Facet {
	facets := make([]entity.Facet, 0, len(counts))
	for value, n := range counts {
		label := value
		if l, ok := labels[value]; ok && l != "" {
			label = l
		}
		facets = append(facets, entity.Facet{Value: value, Label: label, Count: n})
	}
	sort.Slice(facets, func(i, j int) bool {
		if facets[i].Count != facets[j].Count {
			return facets[i].Count > facets[j].Count
		}
		if facets[i].Label != facets[j].Label {
			return facets[i].Label < facets[j].Label
		}
		return facets[i].Value < facets[j].Value
	})
	return facets
}

func key(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}
