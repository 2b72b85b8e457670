package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teranos/pharmadex/entity"
	"github.com/teranos/pharmadex/store"
)

// The functions below evaluate list semantics over rows held in process,
// so an in-memory source filters, sorts and pages exactly like the store.

// MatchesSearch reports whether term occurs, case-insensitively, in any of
// e's search columns. An empty term matches everything.
func MatchesSearch(e Entity, row store.Row, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, col := range e.SearchColumns {
		if strings.Contains(strings.ToLower(text(row[col])), term) {
			return true
		}
	}
	return false
}

// ContainsFold reports whether term occurs in value ignoring case.
func ContainsFold(value, term string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(term))
}

// SortRows orders rows like Builder.Build: the validated sort column in
// opts' direction with NULLs last, then id ascending.
func SortRows(e Entity, rows []store.Row, opts entity.ListOptions) {
	opts = opts.Normalized()
	col := e.SortColumn(opts.SortBy)
	fold := e.TextColumns[col]
	desc := opts.SortDirection == entity.SortDesc

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][col], rows[j][col]
		switch {
		case a == nil && b == nil:
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			if c := compare(a, b, fold); c != 0 {
				if desc {
					return c > 0
				}
				return c < 0
			}
		}
		return text(rows[i]["id"]) < text(rows[j]["id"])
	})
}

// Paginate slices items by opts' offset and limit.
func Paginate[T any](items []T, opts entity.ListOptions) []T {
	opts = opts.Normalized()
	if opts.Offset >= len(items) {
		return []T{}
	}
	end := opts.Offset + opts.Limit
	if end > len(items) {
		end = len(items)
	}
	return append([]T{}, items[opts.Offset:end]...)
}

func compare(a, b any, fold bool) int {
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	sa, sb := text(a), text(b)
	if fold {
		sa, sb = strings.ToLower(sa), strings.ToLower(sb)
	}
	return strings.Compare(sa, sb)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	}
	return fmt.Sprint(v)
}
