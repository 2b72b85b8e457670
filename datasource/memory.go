package datasource

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/pharmadex/entity"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/logger"
	"github.com/teranos/pharmadex/query"
	"github.com/teranos/pharmadex/store"
)

// Memory is the DataSource held in process. Entities are stored without
// their derived fields; area names, counts and links are computed on every
// read, as the store does. Filtering, search, sorting and paging reuse the
// query package's metadata so results match the Storage data source.
type Memory struct {
	mu           sync.RWMutex
	companies    map[string]entity.Company
	products     map[string]entity.Product
	areas        map[string]entity.TherapeuticArea
	websites     map[string]entity.Website
	companyAreas map[string][]string
	productAreas map[string][]string

	now    func() time.Time
	newID  func() string
	logger *zap.SugaredLogger
}

// MemoryOption configures a Memory data source.
type MemoryOption func(*Memory)

// WithClock sets the time source for created/updated timestamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// WithIDGenerator sets the id source for creates without an id.
func WithIDGenerator(newID func() string) MemoryOption {
	return func(m *Memory) { m.newID = newID }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) MemoryOption {
	return func(m *Memory) { m.logger = logger.OrNop(l) }
}

// NewMemory returns an empty in-memory data source.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		companies:    make(map[string]entity.Company),
		products:     make(map[string]entity.Product),
		areas:        make(map[string]entity.TherapeuticArea),
		websites:     make(map[string]entity.Website),
		companyAreas: make(map[string][]string),
		productAreas: make(map[string][]string),
		now:          time.Now,
		newID:        uuid.NewString,
		logger:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewMemoryFromFixtures returns a Memory data source holding fx.
func NewMemoryFromFixtures(ctx context.Context, fx Fixtures, opts ...MemoryOption) (*Memory, error) {
	m := NewMemory(opts...)
	report, err := Seed(ctx, m, fx)
	if err != nil {
		return nil, err
	}
	m.logger.Debugw("Loaded memory data source",
		"therapeutic_areas", report.TherapeuticAreas,
		"companies", report.Companies,
		"products", report.Products,
		"websites", report.Websites,
	)
	return m, nil
}

// Replace swaps the whole contents for fx. Readers see either the old or
// the new directory, never a mix. On error the contents are unchanged.
func (m *Memory) Replace(ctx context.Context, fx Fixtures) error {
	next := NewMemory(WithClock(m.now), WithIDGenerator(m.newID))
	if _, err := Seed(ctx, next, fx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies = next.companies
	m.products = next.products
	m.areas = next.areas
	m.websites = next.websites
	m.companyAreas = next.companyAreas
	m.productAreas = next.productAreas
	return nil
}

func (m *Memory) Type() string { return TypeMemory }

func (m *Memory) Companies() CompanyStore { return memCompanies{m} }

func (m *Memory) Products() ProductStore { return memProducts{m} }

func (m *Memory) Websites() WebsiteStore { return memWebsites{m} }

func (m *Memory) TherapeuticAreas() TherapeuticAreaStore { return memAreas{m} }

func (m *Memory) Close() error { return nil }

func (m *Memory) stamp() time.Time {
	return m.now().UTC()
}

// filterSort keeps items passing keep and the search term, sorted like the
// store would sort them.
func filterSort[T any](e query.Entity, items map[string]T, toRow func(T) store.Row, opts entity.ListOptions, keep func(T) bool) []T {
	rows := make([]store.Row, 0, len(items))
	byID := make(map[string]T, len(items))
	for id, item := range items {
		if keep != nil && !keep(item) {
			continue
		}
		row := toRow(item)
		if !query.MatchesSearch(e, row, opts.Normalized().Search) {
			continue
		}
		byID[id] = item
		rows = append(rows, row)
	}
	query.SortRows(e, rows, opts)

	sorted := make([]T, len(rows))
	for i, row := range rows {
		sorted[i] = byID[row["id"].(string)]
	}
	return sorted
}

// listPage is filterSort followed by offset pagination.
func listPage[T any](e query.Entity, items map[string]T, toRow func(T) store.Row, opts entity.ListOptions, keep func(T) bool) entity.Page[T] {
	opts = opts.Normalized()
	sorted := filterSort(e, items, toRow, opts, keep)
	return entity.Page[T]{
		Data:   query.Paginate(sorted, opts),
		Total:  len(sorted),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
}

func withTimes(r store.Row, created, updated time.Time) store.Row {
	r["created_at"] = created
	r["updated_at"] = updated
	return r
}

// slugTaken reports whether another entity in items already uses slug.
func slugTaken[T any](items map[string]T, slugOf func(T) string, slug, exceptID string) bool {
	for id, item := range items {
		if id != exceptID && slugOf(item) == slug {
			return true
		}
	}
	return false
}

func conflict(what, field, value string) error {
	return errors.Mark(errors.Validation("%s %s %q already exists", what, field, value), errors.ErrConflict)
}

func missingRef(what, id string) error {
	return errors.Validation("%s %q does not exist", what, id)
}

// distinct drops empty and repeated ids, keeping order.
func distinct(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func sortedCopy(ids []string) []string {
	out := append([]string{}, ids...)
	sort.Strings(out)
	return out
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func inFloat(v, min, max *float64) bool {
	if min == nil && max == nil {
		return true
	}
	if v == nil {
		return false
	}
	return (min == nil || *v >= *min) && (max == nil || *v <= *max)
}

func inInt(v, min, max *int) bool {
	if min == nil && max == nil {
		return true
	}
	if v == nil {
		return false
	}
	return (min == nil || *v >= *min) && (max == nil || *v <= *max)
}

// requireAreas fails when any id is not a stored therapeutic area.
func (m *Memory) requireAreas(ids []string) error {
	for _, id := range ids {
		if _, ok := m.areas[id]; !ok {
			return missingRef("therapeutic area", id)
		}
	}
	return nil
}

// areaNames resolves linked area ids to sorted names.
func (m *Memory) areaNames(ids []string) []string {
	names := []string{}
	for _, id := range ids {
		if a, ok := m.areas[id]; ok {
			names = append(names, a.Name)
		}
	}
	sort.Strings(names)
	return names
}

// counter tallies non-empty values.
type counter map[string]int

func (c counter) add(v string) {
	if v != "" {
		c[v]++
	}
}

func (c counter) addPtr(v *string) {
	if v != nil {
		c.add(*v)
	}
}
