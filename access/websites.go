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

const colFeature = "feature"

// Websites reads and writes websites with their sub-records.
type Websites struct {
	*base
}

// List returns one page of websites matching f with tech stack, hosting,
// legal, features and product ids attached.
func (w *Websites) List(ctx context.Context, f entity.WebsiteFilter) (entity.Page[entity.Website], error) {
	qb := query.New(query.Websites, f.ListOptions)
	if f.ProductID != "" {
		ids, err := relationKeys(ctx, w.reader, tableProductSites, colWebsiteID, colProductID, f.ProductID)
		if err != nil {
			return entity.Page[entity.Website]{}, err
		}
		qb.InRelation("id", ids)
	}
	if qb.Empty() {
		return entity.EmptyPage[entity.Website](f.ListOptions), nil
	}

	qb.Eq(colCompanyID, f.CompanyID).
		Eq("category", f.Category).
		EqBool("is_active", f.IsActive)

	page, err := list(ctx, w.reader, qb, query.Websites, entity.WebsiteFromRow)
	if err != nil {
		return page, err
	}
	w.attach(ctx, w.reader, page.Data)

	w.log(ctx).Debugw("Listed websites",
		logger.FieldCount, len(page.Data),
		logger.FieldTotalCount, page.Total,
	)
	return page, nil
}

// ListByCompany returns the websites owned by companyID.
func (w *Websites) ListByCompany(ctx context.Context, companyID string, opts entity.ListOptions) (entity.Page[entity.Website], error) {
	if companyID == "" {
		return entity.EmptyPage[entity.Website](opts), nil
	}
	return w.List(ctx, entity.WebsiteFilter{ListOptions: opts, CompanyID: companyID})
}

// subRecords loads one row per website from a 1-1 table.
func subRecords(client store.Client, table string) *batch.Loader[string, store.Row] {
	return batch.NewLoader(func(ctx context.Context, ids []string) (map[string]store.Row, error) {
		res, err := client.From(table).In(colWebsiteID, ids).Execute(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[string]store.Row, len(res.Rows))
		for _, row := range res.Rows {
			if id, ok := row[colWebsiteID].(string); ok {
				out[id] = row
			}
		}
		return out, nil
	})
}

// attach loads every sub-record kind for the page concurrently. Each kind
// degrades on its own.
func (w *Websites) attach(ctx context.Context, client store.Client, sites []entity.Website) {
	if len(sites) == 0 {
		return
	}
	ids := make([]string, len(sites))
	for i := range sites {
		ids[i] = sites[i].ID
	}

	var tech, hosting, legal map[string]store.Row
	var features, products map[string][]string

	var g errgroup.Group
	load := func(relation string, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				w.degrade(ctx, query.Websites, relation, err)
			}
			return nil
		})
	}
	load("tech_stack", func() (err error) {
		tech, err = subRecords(client, tableTechStacks).Load(ctx, ids)
		return err
	})
	load("hosting", func() (err error) {
		hosting, err = subRecords(client, tableHosting).Load(ctx, ids)
		return err
	})
	load("legal", func() (err error) {
		legal, err = subRecords(client, tableLegal).Load(ctx, ids)
		return err
	})
	load("features", func() (err error) {
		features, err = batch.Links(client, tableFeatures, colWebsiteID, colFeature).Load(ctx, ids)
		return err
	})
	load("product_ids", func() (err error) {
		products, err = batch.Links(client, tableProductSites, colWebsiteID, colProductID).Load(ctx, ids)
		return err
	})
	_ = g.Wait()

	for i := range sites {
		id := sites[i].ID
		if row, ok := tech[id]; ok {
			sites[i].TechStack = entity.TechStackFromRow(row)
		}
		if row, ok := hosting[id]; ok {
			sites[i].Hosting = entity.HostingFromRow(row)
		}
		if row, ok := legal[id]; ok {
			sites[i].Legal = entity.LegalFromRow(row)
		}
		sites[i].Features = append([]string{}, features[id]...)
		sites[i].ProductIDs = append([]string{}, products[id]...)
	}
}

func (w *Websites) one(ctx context.Context, client store.Client, site *entity.Website, err error) (*entity.Website, error) {
	if err != nil || site == nil {
		return nil, err
	}
	items := []entity.Website{*site}
	w.attach(ctx, client, items)
	return &items[0], nil
}

// GetByID returns the website with id, or nil.
func (w *Websites) GetByID(ctx context.Context, id string) (*entity.Website, error) {
	site, err := getBy(ctx, w.reader, query.Websites, "id", id, entity.WebsiteFromRow)
	return w.one(ctx, w.reader, site, err)
}

// GetBySlug returns the website with slug, falling back to slug as an id.
func (w *Websites) GetBySlug(ctx context.Context, slug string) (*entity.Website, error) {
	site, err := getBySlugOrID(ctx, w.reader, query.Websites, slug, entity.WebsiteFromRow)
	return w.one(ctx, w.reader, site, err)
}

// writeChildren replaces the sub-records set on in.
func writeChildren(ctx context.Context, tx store.Client, id string, in entity.WebsiteInput) error {
	key := []string{colWebsiteID}
	if in.TechStack != nil {
		if err := tx.Upsert(ctx, tableTechStacks, key, entity.TechStackToRow(id, *in.TechStack)); err != nil {
			return errors.Wrap(err, "write tech stack")
		}
	}
	if in.Hosting != nil {
		if err := tx.Upsert(ctx, tableHosting, key, entity.HostingToRow(id, *in.Hosting)); err != nil {
			return errors.Wrap(err, "write hosting")
		}
	}
	if in.Legal != nil {
		if err := tx.Upsert(ctx, tableLegal, key, entity.LegalToRow(id, *in.Legal)); err != nil {
			return errors.Wrap(err, "write legal")
		}
	}
	if in.Features != nil {
		if err := replaceLinks(ctx, tx, tableFeatures, colWebsiteID, colFeature, id, in.Features); err != nil {
			return err
		}
	}
	if in.ProductIDs != nil {
		if err := replaceLinks(ctx, tx, tableProductSites, colWebsiteID, colProductID, id, in.ProductIDs); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts a website and its sub-records in one transaction. The
// slug defaults to the slugified domain.
func (w *Websites) Create(ctx context.Context, in entity.WebsiteInput) (*entity.Website, error) {
	if in.Domain == nil || *in.Domain == "" {
		return nil, errors.Validation("domain is required")
	}
	id, slug, err := w.prepareCreate(in.ID, in.Slug, in.Domain)
	if err != nil {
		return nil, err
	}
	row := entity.WebsiteInputToRow(in)
	row["id"], row["slug"] = id, slug
	if _, ok := row["is_active"]; !ok {
		row["is_active"] = true
	}
	entity.Merge(row, entity.Timestamps(w.now(), true))

	err = w.writer.Tx(ctx, func(tx store.Client) error {
		if err := tx.Insert(ctx, query.Websites.Table, row); err != nil {
			return errors.Wrap(err, "insert website")
		}
		return writeChildren(ctx, tx, id, in)
	})
	if err != nil {
		return nil, err
	}

	w.log(ctx).Infow("Created website", "id", id, logger.FieldSlug, slug)
	site, err := getBy(ctx, w.writer, query.Websites, "id", id, entity.WebsiteFromRow)
	return w.one(ctx, w.writer, site, err)
}

// Update applies the fields set on in, sub-records included.
func (w *Websites) Update(ctx context.Context, id string, in entity.WebsiteInput) (*entity.Website, error) {
	row := entity.WebsiteInputToRow(in)
	if err := CheckUpdate(row); err != nil {
		return nil, err
	}

	err := w.writer.Tx(ctx, func(tx store.Client) error {
		found, err := w.touch(ctx, tx, query.Websites.Table, id, row)
		if err != nil {
			return err
		}
		if !found {
			return errors.NotFound("website %q", id)
		}
		return writeChildren(ctx, tx, id, in)
	})
	if err != nil {
		return nil, err
	}
	site, err := getBy(ctx, w.writer, query.Websites, "id", id, entity.WebsiteFromRow)
	return w.one(ctx, w.writer, site, err)
}

// Delete removes the website and every sub-record.
func (w *Websites) Delete(ctx context.Context, id string) (bool, error) {
	return w.remove(ctx, query.Websites.Table, id)
}

// Filters returns the website facets: categories and owning companies.
func (w *Websites) Filters(ctx context.Context) (entity.WebsiteFilters, error) {
	var out entity.WebsiteFilters
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := w.agg.Count(gctx, w.reader.From(query.Websites.Table), "category")
		if err != nil {
			return errors.Wrap(err, "category facet")
		}
		out.Categories = aggregate.Facets(counts, nil)
		return nil
	})
	g.Go(func() error {
		facets, err := w.labelledFacet(gctx, query.Websites.Table, colCompanyID, query.Companies.Table)
		if err != nil {
			return errors.Wrap(err, "company facet")
		}
		out.Companies = facets
		return nil
	})

	if err := g.Wait(); err != nil {
		return entity.WebsiteFilters{}, err
	}
	return out, nil
}
