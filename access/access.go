// Package access implements the data access functions for the directory:
// one type per entity (companies, products, therapeutic areas, websites),
// each listing with typed filters, fetching by id or slug, writing partial
// inputs transactionally and computing facet counts.
//
// Every list follows the same shape: resolve relation filters to key sets
// (an empty set returns an empty page without running the main query),
// apply filters in the fixed order of query.Builder, execute, map rows
// through the entity mappers, then resolve N-N relations for the whole
// page with batch loaders. Failures of the main query propagate; failures
// of relation resolution are logged and leave the relation empty.
package access

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/pharmadex/aggregate"
	"github.com/teranos/pharmadex/entity"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/logger"
	"github.com/teranos/pharmadex/query"
	"github.com/teranos/pharmadex/store"
)

// Join tables
const (
	tableCompanyAreas = "company_therapeutic_areas"
	tableProductAreas = "product_therapeutic_areas"
	tableProductSites = "product_websites"
	tableTechStacks   = "website_tech_stacks"
	tableHosting      = "website_hosting"
	tableLegal        = "website_legal"
	tableFeatures     = "website_features"
	colCompanyID      = "company_id"
	colProductID      = "product_id"
	colWebsiteID      = "website_id"
	colAreaID         = "therapeutic_area_id"
)

// Access bundles the per-entity data access functions over one pair of
// storage clients.
type Access struct {
	Companies        *Companies
	Products         *Products
	TherapeuticAreas *TherapeuticAreas
	Websites         *Websites
}

// Options configures Access.
type Options struct {
	// Reader serves lists and lookups (the anonymous client).
	Reader store.Client
	// Writer serves creates, updates and deletes (the privileged client).
	// Defaults to Reader.
	Writer store.Client
	// Aggregation counts facets; defaults to scan-and-group.
	Aggregation aggregate.Strategy
	Logger      *zap.SugaredLogger

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// New builds the data access functions.
func New(opts Options) *Access {
	b := &base{
		reader: opts.Reader,
		writer: opts.Writer,
		agg:    opts.Aggregation,
		logger: logger.OrNop(opts.Logger),
		now:    opts.Now,
		newID:  opts.NewID,
	}
	if b.writer == nil {
		b.writer = b.reader
	}
	if b.agg == nil {
		b.agg = aggregate.ScanAndGroup{}
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.newID == nil {
		b.newID = uuid.NewString
	}
	return &Access{
		Companies:        &Companies{b},
		Products:         &Products{b},
		TherapeuticAreas: &TherapeuticAreas{b},
		Websites:         &Websites{b},
	}
}

type base struct {
	reader store.Client
	writer store.Client
	agg    aggregate.Strategy
	logger *zap.SugaredLogger
	now    func() time.Time
	newID  func() string
}

func (b *base) log(ctx context.Context) *zap.SugaredLogger {
	return logger.FromContext(ctx, b.logger)
}

// degrade logs a failed relation resolution. The caller continues with an
// empty relation.
func (b *base) degrade(ctx context.Context, e query.Entity, relation string, err error) {
	b.log(ctx).Warnw("Relation resolution failed, returning without it",
		logger.FieldEntity, e.Name,
		"relation", relation,
		logger.FieldError, err,
		logger.FieldErrorCategory, errors.CategoryOf(err),
	)
}

// list executes a built list query and maps every row.
func list[T any](ctx context.Context, client store.Client, qb *query.Builder, e query.Entity, mapRow func(store.Row) T) (entity.Page[T], error) {
	opts := qb.Options()
	if qb.Empty() {
		return entity.EmptyPage[T](opts), nil
	}
	res, err := qb.Build(client).Execute(ctx)
	if err != nil {
		return entity.Page[T]{}, errors.Wrapf(err, "list %s", e.Table)
	}
	data := make([]T, len(res.Rows))
	for i, row := range res.Rows {
		data[i] = mapRow(row)
	}
	return entity.Page[T]{Data: data, Total: res.Count, Limit: opts.Limit, Offset: opts.Offset}, nil
}

// getBy fetches one row where column = value. Zero rows is (nil, nil).
func getBy[T any](ctx context.Context, client store.Client, e query.Entity, column, value string, mapRow func(store.Row) T) (*T, error) {
	if value == "" {
		return nil, nil
	}
	row, err := client.From(e.Table).Select(e.Columns...).Eq(column, value).Single(ctx)
	if store.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s by %s", e.Name, column)
	}
	v := mapRow(row)
	return &v, nil
}

// getBySlugOrID looks up by slug, then retries the same value as an id.
// nil only when both lookups find nothing; other errors propagate.
func getBySlugOrID[T any](ctx context.Context, client store.Client, e query.Entity, slug string, mapRow func(store.Row) T) (*T, error) {
	v, err := getBy(ctx, client, e, "slug", slug, mapRow)
	if err != nil || v != nil {
		return v, err
	}
	return getBy(ctx, client, e, "id", slug, mapRow)
}

// relationKeys returns distinct values of selectColumn in table where
// whereColumn = value (or, with value "", where selectColumn is not null).
func relationKeys(ctx context.Context, client store.Client, table, selectColumn, whereColumn, value string) ([]string, error) {
	q := client.From(table).Select(selectColumn).NotNull(selectColumn)
	if whereColumn != "" {
		q.Eq(whereColumn, value)
	}
	res, err := q.Execute(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s.%s", table, selectColumn)
	}
	seen := make(map[string]bool, len(res.Rows))
	keys := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		k, _ := row[selectColumn].(string)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys, nil
}

// replaceLinks rewrites ownerID's rows in a join table.
func replaceLinks(ctx context.Context, tx store.Client, table, ownerColumn, targetColumn, ownerID string, targets []string) error {
	if _, err := tx.From(table).Eq(ownerColumn, ownerID).Delete(ctx); err != nil {
		return errors.Wrapf(err, "clear %s", table)
	}
	rows := make([]store.Row, 0, len(targets))
	seen := map[string]bool{}
	for _, t := range targets {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		rows = append(rows, store.Row{ownerColumn: ownerID, targetColumn: t})
	}
	if len(rows) == 0 {
		return nil
	}
	return errors.Wrapf(tx.Upsert(ctx, table, []string{ownerColumn, targetColumn}, rows...), "link %s", table)
}

// requireExists fails with a validation error when no row of table has id.
func requireExists(ctx context.Context, client store.Client, table, what, id string) error {
	_, err := client.From(table).Select("id").Eq("id", id).Single(ctx)
	if store.IsNoRows(err) {
		return errors.Validation("%s %q does not exist", what, id)
	}
	return err
}

// Identity returns the id and slug for a new entity named name: the given
// values when set, otherwise a generated id and the slugified name.
func Identity(id, slug, name *string, newID func() string) (string, string, error) {
	if name == nil || *name == "" {
		return "", "", errors.Validation("name is required")
	}
	if id != nil && *id != "" {
		return checkSlug(*id, slug, *name)
	}
	return checkSlug(newID(), slug, *name)
}

func checkSlug(id string, slug *string, name string) (string, string, error) {
	s := entity.Slugify(name)
	if slug != nil && *slug != "" {
		s = *slug
	} else if s == "" {
		return "", "", errors.Validation("name %q yields an empty slug; supply slug", name)
	}
	if !entity.ValidSlug(s) {
		return "", "", errors.Validation("slug %q must be lowercase letters, digits and single hyphens", s)
	}
	return id, s, nil
}

func (b *base) prepareCreate(id, slug, name *string) (string, string, error) {
	return Identity(id, slug, name, b.newID)
}

// CheckUpdate validates the identity fields of a partial update row and
// drops its id, which never changes.
func CheckUpdate(row store.Row) error {
	delete(row, "id")
	if v, ok := row["slug"]; ok {
		if s, _ := v.(string); !entity.ValidSlug(s) {
			return errors.Validation("slug %q must be lowercase letters, digits and single hyphens", s)
		}
	}
	for _, col := range []string{"name", "domain"} {
		if v, ok := row[col]; ok {
			if s, _ := v.(string); s == "" {
				return errors.Validation("%s cannot be empty", col)
			}
		}
	}
	return nil
}

// touch updates columns of id (plus updated_at) and reports whether it exists.
func (b *base) touch(ctx context.Context, tx store.Client, table, id string, row store.Row) (bool, error) {
	row = entity.Merge(row, entity.Timestamps(b.now(), false))
	n, err := tx.From(table).Eq("id", id).Update(ctx, row)
	if err != nil {
		return false, errors.Wrapf(err, "update %s", table)
	}
	return n > 0, nil
}

// remove deletes id from table.
func (b *base) remove(ctx context.Context, table, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	n, err := b.writer.From(table).Eq("id", id).Delete(ctx)
	if err != nil {
		return false, errors.Wrapf(err, "delete %s", table)
	}
	return n > 0, nil
}
