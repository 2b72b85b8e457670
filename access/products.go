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

// Products reads and writes products.
type Products struct {
	*base
}

// List returns one page of products matching f, each with its therapeutic
// area names.
func (p *Products) List(ctx context.Context, f entity.ProductFilter) (entity.Page[entity.Product], error) {
	if f.Stage != "" && !f.Stage.Valid() {
		return entity.Page[entity.Product]{}, errors.Validation("unknown development stage %q", f.Stage)
	}

	qb := query.New(query.Products, f.ListOptions)
	if f.TherapeuticAreaID != "" {
		ids, err := relationKeys(ctx, p.reader, tableProductAreas, colProductID, colAreaID, f.TherapeuticAreaID)
		if err != nil {
			return entity.Page[entity.Product]{}, err
		}
		qb.InRelation("id", ids)
	}
	if qb.Empty() {
		return entity.EmptyPage[entity.Product](f.ListOptions), nil
	}

	qb.Eq(colCompanyID, f.CompanyID).
		Eq("development_stage", string(f.Stage)).
		Eq("molecule_type", f.MoleculeType)

	page, err := list(ctx, p.reader, qb, query.Products, entity.ProductFromRow)
	if err != nil {
		return page, err
	}
	p.attachAreas(ctx, p.reader, page.Data)

	p.log(ctx).Debugw("Listed products",
		logger.FieldCount, len(page.Data),
		logger.FieldTotalCount, page.Total,
	)
	return page, nil
}

// ListByCompany returns the products owned by companyID. Orphaned products
// never match; an empty companyID returns an empty page.
func (p *Products) ListByCompany(ctx context.Context, companyID string, opts entity.ListOptions) (entity.Page[entity.Product], error) {
	if companyID == "" {
		return entity.EmptyPage[entity.Product](opts), nil
	}
	return p.List(ctx, entity.ProductFilter{ListOptions: opts, CompanyID: companyID})
}

func (p *Products) attachAreas(ctx context.Context, client store.Client, products []entity.Product) {
	if len(products) == 0 {
		return
	}
	ids := make([]string, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	names, err := batch.ResolveNames(ctx,
		batch.Links(client, tableProductAreas, colProductID, colAreaID),
		batch.Values(client, query.TherapeuticAreas.Table, "id", "name"),
		ids)
	if err != nil {
		p.degrade(ctx, query.Products, "therapeutic_areas", err)
		return
	}
	for i := range products {
		if n, ok := names[products[i].ID]; ok {
			products[i].TherapeuticAreas = n
		}
	}
}

func (p *Products) one(ctx context.Context, client store.Client, product *entity.Product, err error) (*entity.Product, error) {
	if err != nil || product == nil {
		return nil, err
	}
	items := []entity.Product{*product}
	p.attachAreas(ctx, client, items)
	return &items[0], nil
}

// GetByID returns the product with id, or nil.
func (p *Products) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	product, err := getBy(ctx, p.reader, query.Products, "id", id, entity.ProductFromRow)
	return p.one(ctx, p.reader, product, err)
}

// GetBySlug returns the product with slug, falling back to slug as an id.
func (p *Products) GetBySlug(ctx context.Context, slug string) (*entity.Product, error) {
	product, err := getBySlugOrID(ctx, p.reader, query.Products, slug, entity.ProductFromRow)
	return p.one(ctx, p.reader, product, err)
}

// ValidateProduct rejects unknown development stages.
func ValidateProduct(in entity.ProductInput) error {
	if in.Stage != nil && *in.Stage != "" && !in.Stage.Valid() {
		return errors.Validation("unknown development stage %q", *in.Stage)
	}
	return nil
}

// Create inserts a product and its therapeutic area links in one transaction.
func (p *Products) Create(ctx context.Context, in entity.ProductInput) (*entity.Product, error) {
	if err := ValidateProduct(in); err != nil {
		return nil, err
	}
	id, slug, err := p.prepareCreate(in.ID, in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	row := entity.ProductInputToRow(in)
	row["id"], row["slug"] = id, slug
	entity.Merge(row, entity.Timestamps(p.now(), true))

	err = p.writer.Tx(ctx, func(tx store.Client) error {
		if err := tx.Insert(ctx, query.Products.Table, row); err != nil {
			return errors.Wrap(err, "insert product")
		}
		if in.TherapeuticAreaIDs == nil {
			return nil
		}
		return replaceLinks(ctx, tx, tableProductAreas, colProductID, colAreaID, id, in.TherapeuticAreaIDs)
	})
	if err != nil {
		return nil, err
	}

	p.log(ctx).Infow("Created product", "id", id, logger.FieldSlug, slug)
	product, err := getBy(ctx, p.writer, query.Products, "id", id, entity.ProductFromRow)
	return p.one(ctx, p.writer, product, err)
}

// Update applies the fields set on in. CompanyID "" orphans the product.
func (p *Products) Update(ctx context.Context, id string, in entity.ProductInput) (*entity.Product, error) {
	if err := ValidateProduct(in); err != nil {
		return nil, err
	}
	row := entity.ProductInputToRow(in)
	if err := CheckUpdate(row); err != nil {
		return nil, err
	}

	err := p.writer.Tx(ctx, func(tx store.Client) error {
		found, err := p.touch(ctx, tx, query.Products.Table, id, row)
		if err != nil {
			return err
		}
		if !found {
			return errors.NotFound("product %q", id)
		}
		if in.TherapeuticAreaIDs == nil {
			return nil
		}
		return replaceLinks(ctx, tx, tableProductAreas, colProductID, colAreaID, id, in.TherapeuticAreaIDs)
	})
	if err != nil {
		return nil, err
	}
	product, err := getBy(ctx, p.writer, query.Products, "id", id, entity.ProductFromRow)
	return p.one(ctx, p.writer, product, err)
}

// Delete removes the product and its links.
func (p *Products) Delete(ctx context.Context, id string) (bool, error) {
	return p.remove(ctx, query.Products.Table, id)
}

// Filters returns the product facets: stages, molecule types and owning
// companies.
func (p *Products) Filters(ctx context.Context) (entity.ProductFilters, error) {
	var out entity.ProductFilters
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := p.agg.Count(gctx, p.reader.From(query.Products.Table), "development_stage")
		if err != nil {
			return errors.Wrap(err, "stage facet")
		}
		out.Stages = aggregate.Facets(counts, nil)
		return nil
	})
	g.Go(func() error {
		counts, err := p.agg.Count(gctx, p.reader.From(query.Products.Table), "molecule_type")
		if err != nil {
			return errors.Wrap(err, "molecule type facet")
		}
		out.MoleculeTypes = aggregate.Facets(counts, nil)
		return nil
	})
	g.Go(func() error {
		facets, err := p.labelledFacet(gctx, query.Products.Table, colCompanyID, query.Companies.Table)
		if err != nil {
			return errors.Wrap(err, "company facet")
		}
		out.Companies = facets
		return nil
	})

	if err := g.Wait(); err != nil {
		return entity.ProductFilters{}, err
	}
	return out, nil
}
