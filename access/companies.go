package access

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/teranos/pharmadex/aggregate"
	"github.com/teranos/pharmadex/batch"
	"github.com/teranos/pharmadex/entity"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/logger"
	"github.com/teranos/pharmadex/query"
	"github.com/teranos/pharmadex/store"
)

// Companies reads and writes companies.
type Companies struct {
	*base
}

// List returns one page of companies matching f, each with its therapeutic
// area names.
func (c *Companies) List(ctx context.Context, f entity.CompanyFilter) (entity.Page[entity.Company], error) {
	qb := query.New(query.Companies, f.ListOptions)

	if err := c.relationFilters(ctx, qb, f); err != nil {
		return entity.Page[entity.Company]{}, err
	}
	if qb.Empty() {
		c.log(ctx).Debugw("Relation filter matched nothing, skipping companies query",
			"therapeutic_area_id", f.TherapeuticAreaID,
			"has_products", f.HasProducts,
		)
		return entity.EmptyPage[entity.Company](f.ListOptions), nil
	}

	qb.Eq("exchange", f.Exchange).
		Contains("headquarters", f.Region).
		RangeFloat("market_cap", f.MinMarketCap, f.MaxMarketCap).
		RangeInt("founded_year", f.MinFoundedYear, f.MaxFoundedYear)

	page, err := list(ctx, c.reader, qb, query.Companies, entity.CompanyFromRow)
	if err != nil {
		return page, err
	}
	c.attachAreas(ctx, c.reader, page.Data)

	c.log(ctx).Debugw("Listed companies",
		logger.FieldCount, len(page.Data),
		logger.FieldTotalCount, page.Total,
	)
	return page, nil
}

// relationFilters resolves the existence filters to company id sets.
// These sets decide the result, so failures propagate.
func (c *Companies) relationFilters(ctx context.Context, qb *query.Builder, f entity.CompanyFilter) error {
	var withArea, withProducts []string
	g, gctx := errgroup.WithContext(ctx)
	if f.TherapeuticAreaID != "" {
		g.Go(func() (err error) {
			withArea, err = relationKeys(gctx, c.reader, tableCompanyAreas, colCompanyID, colAreaID, f.TherapeuticAreaID)
			return err
		})
	}
	if f.HasProducts {
		g.Go(func() (err error) {
			withProducts, err = relationKeys(gctx, c.reader, query.Products.Table, colCompanyID, "", "")
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if f.TherapeuticAreaID != "" {
		qb.InRelation("id", withArea)
	}
	if f.HasProducts {
		qb.InRelation("id", withProducts)
	}
	return nil
}

// attachAreas fills TherapeuticAreas for every company in two queries.
func (c *Companies) attachAreas(ctx context.Context, client store.Client, companies []entity.Company) {
	if len(companies) == 0 {
		return
	}
	ids := make([]string, len(companies))
	for i := range companies {
		ids[i] = companies[i].ID
	}
	names, err := batch.ResolveNames(ctx,
		batch.Links(client, tableCompanyAreas, colCompanyID, colAreaID),
		batch.Values(client, query.TherapeuticAreas.Table, "id", "name"),
		ids)
	if err != nil {
		c.degrade(ctx, query.Companies, "therapeutic_areas", err)
		return
	}
	for i := range companies {
		if n, ok := names[companies[i].ID]; ok {
			companies[i].TherapeuticAreas = n
		}
	}
}

func (c *Companies) get(ctx context.Context, client store.Client, id string) (*entity.Company, error) {
	company, err := getBy(ctx, client, query.Companies, "id", id, entity.CompanyFromRow)
	if err != nil || company == nil {
		return nil, err
	}
	one := []entity.Company{*company}
	c.attachAreas(ctx, client, one)
	return &one[0], nil
}

// GetByID returns the company with id, or nil.
func (c *Companies) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	return c.get(ctx, c.reader, id)
}

// GetBySlug returns the company with slug, falling back to slug as an id.
// Returns nil when neither matches.
func (c *Companies) GetBySlug(ctx context.Context, slug string) (*entity.Company, error) {
	company, err := getBySlugOrID(ctx, c.reader, query.Companies, slug, entity.CompanyFromRow)
	if err != nil || company == nil {
		return nil, err
	}
	one := []entity.Company{*company}
	c.attachAreas(ctx, c.reader, one)
	return &one[0], nil
}

// ListWithTicker returns every company that has a ticker symbol.
func (c *Companies) ListWithTicker(ctx context.Context) ([]entity.Company, error) {
	res, err := c.reader.From(query.Companies.Table).
		Select(query.Companies.Columns...).
		NotNull("ticker").
		Neq("ticker", "").
		Order("ticker", true, true).
		Order("id", true, false).
		Execute(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list companies with ticker")
	}
	out := make([]entity.Company, len(res.Rows))
	for i, row := range res.Rows {
		out[i] = entity.CompanyFromRow(row)
	}
	c.attachAreas(ctx, c.reader, out)
	return out, nil
}

// Create inserts a company and its therapeutic area links in one
// transaction. ID and slug are generated when absent.
func (c *Companies) Create(ctx context.Context, in entity.CompanyInput) (*entity.Company, error) {
	id, slug, err := c.prepareCreate(in.ID, in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	row := entity.CompanyInputToRow(in)
	row["id"], row["slug"] = id, slug
	entity.Merge(row, entity.Timestamps(c.now(), true))

	err = c.writer.Tx(ctx, func(tx store.Client) error {
		if err := tx.Insert(ctx, query.Companies.Table, row); err != nil {
			return errors.Wrap(err, "insert company")
		}
		if in.TherapeuticAreaIDs == nil {
			return nil
		}
		return replaceLinks(ctx, tx, tableCompanyAreas, colCompanyID, colAreaID, id, in.TherapeuticAreaIDs)
	})
	if err != nil {
		return nil, err
	}

	c.log(ctx).Infow("Created company", "id", id, logger.FieldSlug, slug)
	return c.get(ctx, c.writer, id)
}

// Update applies the fields set on in. Returns a not_found error when id
// does not exist.
func (c *Companies) Update(ctx context.Context, id string, in entity.CompanyInput) (*entity.Company, error) {
	row := entity.CompanyInputToRow(in)
	if err := CheckUpdate(row); err != nil {
		return nil, err
	}

	err := c.writer.Tx(ctx, func(tx store.Client) error {
		found, err := c.touch(ctx, tx, query.Companies.Table, id, row)
		if err != nil {
			return err
		}
		if !found {
			return errors.NotFound("company %q", id)
		}
		if in.TherapeuticAreaIDs == nil {
			return nil
		}
		return replaceLinks(ctx, tx, tableCompanyAreas, colCompanyID, colAreaID, id, in.TherapeuticAreaIDs)
	})
	if err != nil {
		return nil, err
	}
	return c.get(ctx, c.writer, id)
}

// Delete removes the company. Its products and websites keep existing
// with a null company; its area links are removed. Reports whether a row
// was deleted.
func (c *Companies) Delete(ctx context.Context, id string) (bool, error) {
	return c.remove(ctx, query.Companies.Table, id)
}

// Filters returns the company facets: regions (last part of headquarters),
// exchanges and therapeutic areas.
func (c *Companies) Filters(ctx context.Context) (entity.CompanyFilters, error) {
	var out entity.CompanyFilters
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := c.agg.Count(gctx, c.reader.From(query.Companies.Table), "headquarters")
		if err != nil {
			return errors.Wrap(err, "region facet")
		}
		out.Regions = aggregate.Facets(aggregate.Rekey(counts, entity.RegionOf), nil)
		return nil
	})
	g.Go(func() error {
		counts, err := c.agg.Count(gctx, c.reader.From(query.Companies.Table), "exchange")
		if err != nil {
			return errors.Wrap(err, "exchange facet")
		}
		out.Exchanges = aggregate.Facets(counts, nil)
		return nil
	})
	g.Go(func() error {
		facets, err := c.labelledFacet(gctx, tableCompanyAreas, colAreaID, query.TherapeuticAreas.Table)
		if err != nil {
			return errors.Wrap(err, "therapeutic area facet")
		}
		out.TherapeuticAreas = facets
		return nil
	})

	if err := g.Wait(); err != nil {
		return entity.CompanyFilters{}, err
	}
	return out, nil
}

// labelledFacet counts table rows per column value and labels each value
// with the name of the matching row in labelTable.
func (b *base) labelledFacet(ctx context.Context, table, column, labelTable string) ([]entity.Facet, error) {
	counts, err := b.agg.Count(ctx, b.reader.From(table), column)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	labels, err := batch.Values(b.reader, labelTable, "id", "name").Load(ctx, keys)
	if err != nil {
		b.degrade(ctx, query.Entity{Name: labelTable}, "labels", err)
		labels = nil
	}
	return aggregate.Facets(counts, labels), nil
}
