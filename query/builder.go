package query

import (
	"github.com/teranos/pharmadex/entity"
	"github.com/teranos/pharmadex/store"
)

// Builder collects filters for one list query and applies them in a fixed
// order regardless of call order: search, equality, range, relation.
// The relation stage may short-circuit: when a relation key set is empty
// the query is never executed (see Empty).
type Builder struct {
	e    Entity
	opts entity.ListOptions

	equality []func(*store.Query)
	ranges   []func(*store.Query)
	relation []func(*store.Query)
	empty    bool
}

// New starts a list query for e with normalized opts.
func New(e Entity, opts entity.ListOptions) *Builder {
	return &Builder{e: e, opts: opts.Normalized()}
}

// Options returns the normalized list options.
func (b *Builder) Options() entity.ListOptions {
	return b.opts
}

// Eq adds column = value when value is non-empty.
func (b *Builder) Eq(column, value string) *Builder {
	if value == "" {
		return b
	}
	b.equality = append(b.equality, func(q *store.Query) { q.Eq(column, value) })
	return b
}

// EqBool adds column = *value when value is set.
func (b *Builder) EqBool(column string, value *bool) *Builder {
	if value == nil {
		return b
	}
	v := *value
	b.equality = append(b.equality, func(q *store.Query) { q.Eq(column, v) })
	return b
}

// EqOrNull adds column = *value, or column IS NULL when *value is "".
func (b *Builder) EqOrNull(column string, value *string) *Builder {
	if value == nil {
		return b
	}
	if *value == "" {
		b.equality = append(b.equality, func(q *store.Query) { q.IsNull(column) })
		return b
	}
	return b.Eq(column, *value)
}

// Contains adds a case-insensitive substring match on column when term is
// non-empty. It belongs to the equality stage.
func (b *Builder) Contains(column, term string) *Builder {
	if term == "" {
		return b
	}
	b.equality = append(b.equality, func(q *store.Query) { q.ILike(column, term) })
	return b
}

// RangeFloat bounds column between min and max (inclusive); nil bounds are open.
func (b *Builder) RangeFloat(column string, min, max *float64) *Builder {
	if min != nil {
		v := *min
		b.ranges = append(b.ranges, func(q *store.Query) { q.Gte(column, v) })
	}
	if max != nil {
		v := *max
		b.ranges = append(b.ranges, func(q *store.Query) { q.Lte(column, v) })
	}
	return b
}

// RangeInt bounds column between min and max (inclusive); nil bounds are open.
func (b *Builder) RangeInt(column string, min, max *int) *Builder {
	if min != nil {
		v := *min
		b.ranges = append(b.ranges, func(q *store.Query) { q.Gte(column, v) })
	}
	if max != nil {
		v := *max
		b.ranges = append(b.ranges, func(q *store.Query) { q.Lte(column, v) })
	}
	return b
}

// InRelation restricts column to ids resolved from a relation. An empty
// set marks the builder empty instead of sending IN ().
func (b *Builder) InRelation(column string, ids []string) *Builder {
	if len(ids) == 0 {
		b.empty = true
		return b
	}
	set := append([]string(nil), ids...)
	b.relation = append(b.relation, func(q *store.Query) { q.In(column, set) })
	return b
}

// Empty reports whether a relation filter resolved to no keys; the caller
// returns an empty page without executing.
func (b *Builder) Empty() bool {
	return b.empty
}

// Filter applies the where clauses (no order, no range) to q. Used for
// facet and count queries that share a list's filters.
func (b *Builder) Filter(q *store.Query) *store.Query {
	if b.opts.Search != "" {
		q.ILikeAny(b.opts.Search, b.e.SearchColumns...)
	}
	for _, stage := range [][]func(*store.Query){b.equality, b.ranges, b.relation} {
		for _, apply := range stage {
			apply(q)
		}
	}
	return q
}

// Build returns the complete list query against c: columns, exact count,
// filters, validated sort with an id tiebreak, and offset pagination.
// Offset pagination costs grow with the offset; pages deep into large
// tables get slower.
func (b *Builder) Build(c store.Client) *store.Query {
	q := c.From(b.e.Table).Select(b.e.Columns...).Count()
	b.Filter(q)

	col := b.e.SortColumn(b.opts.SortBy)
	asc := b.opts.SortDirection != entity.SortDesc
	q.Order(col, asc, b.e.TextColumns[col])
	if col != "id" {
		q.Order("id", true, false)
	}
	return q.Range(b.opts.Offset, b.opts.Limit)
}
