package access

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/teranos/pharmadex/batch"
	"github.com/teranos/pharmadex/entity"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/logger"
	"github.com/teranos/pharmadex/query"
	"github.com/teranos/pharmadex/store"
)

// TherapeuticAreas reads and writes the therapeutic-area tree.
type TherapeuticAreas struct {
	*base
}

// List returns one page of areas. Counts and related ids are computed from
// the join tables when requested.
func (t *TherapeuticAreas) List(ctx context.Context, f entity.TherapeuticAreaFilter) (entity.Page[entity.TherapeuticArea], error) {
	qb := query.New(query.TherapeuticAreas, f.ListOptions).EqOrNull("parent_id", f.ParentID)

	page, err := list(ctx, t.reader, qb, query.TherapeuticAreas, entity.TherapeuticAreaFromRow)
	if err != nil {
		return page, err
	}
	t.enrich(ctx, t.reader, page.Data, f.IncludeCounts, f.IncludeRelations)

	t.log(ctx).Debugw("Listed therapeutic areas",
		logger.FieldCount, len(page.Data),
		logger.FieldTotalCount, page.Total,
	)
	return page, nil
}

func (t *TherapeuticAreas) enrich(ctx context.Context, client store.Client, areas []entity.TherapeuticArea, counts, relations bool) {
	if len(areas) == 0 {
		return
	}
	var g errgroup.Group
	if counts {
		g.Go(func() error { t.attachCounts(ctx, client, areas); return nil })
	}
	if relations {
		g.Go(func() error { t.attachRelations(ctx, client, areas); return nil })
	}
	_ = g.Wait()
}

func areaIDs(areas []entity.TherapeuticArea) []string {
	ids := make([]string, len(areas))
	for i := range areas {
		ids[i] = areas[i].ID
	}
	return ids
}

// attachCounts sets company, product and website counts. A website counts
// toward an area when its company is linked to the area; websites without
// a company never count.
func (t *TherapeuticAreas) attachCounts(ctx context.Context, client store.Client, areas []entity.TherapeuticArea) {
	ids := areaIDs(areas)
	var companies, products, websites map[string]int

	var g errgroup.Group
	g.Go(func() error {
		var err error
		companies, err = t.agg.Count(ctx, client.From(tableCompanyAreas).In(colAreaID, ids), colAreaID)
		if err != nil {
			t.degrade(ctx, query.TherapeuticAreas, "company_count", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		products, err = t.agg.Count(ctx, client.From(tableProductAreas).In(colAreaID, ids), colAreaID)
		if err != nil {
			t.degrade(ctx, query.TherapeuticAreas, "product_count", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		websites, err = t.websiteCounts(ctx, client, ids)
		if err != nil {
			t.degrade(ctx, query.TherapeuticAreas, "website_count", err)
		}
		return nil
	})
	_ = g.Wait()

	for i := range areas {
		id := areas[i].ID
		areas[i].CompanyCount = companies[id]
		areas[i].ProductCount = products[id]
		areas[i].WebsiteCount = websites[id]
	}
}

func (t *TherapeuticAreas) websiteCounts(ctx context.Context, client store.Client, areaIDs []string) (map[string]int, error) {
	linked, err := batch.Links(client, tableCompanyAreas, colAreaID, colCompanyID).Load(ctx, areaIDs)
	if err != nil {
		return nil, err
	}
	var companyIDs []string
	for _, ids := range linked {
		companyIDs = append(companyIDs, ids...)
	}
	companyIDs = batch.Distinct(companyIDs)
	if len(companyIDs) == 0 {
		return map[string]int{}, nil
	}

	perCompany, err := t.agg.Count(ctx, client.From(query.Websites.Table).In(colCompanyID, companyIDs), colCompanyID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(linked))
	for area, ids := range linked {
		for _, companyID := range ids {
			out[area] += perCompany[companyID]
		}
	}
	return out, nil
}

// attachRelations sets CompanyIDs and ProductIDs.
func (t *TherapeuticAreas) attachRelations(ctx context.Context, client store.Client, areas []entity.TherapeuticArea) {
	ids := areaIDs(areas)
	var companies, products map[string][]string

	var g errgroup.Group
	g.Go(func() error {
		var err error
		companies, err = batch.Links(client, tableCompanyAreas, colAreaID, colCompanyID).Load(ctx, ids)
		if err != nil {
			t.degrade(ctx, query.TherapeuticAreas, "company_ids", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		products, err = batch.Links(client, tableProductAreas, colAreaID, colProductID).Load(ctx, ids)
		if err != nil {
			t.degrade(ctx, query.TherapeuticAreas, "product_ids", err)
		}
		return nil
	})
	_ = g.Wait()

	for i := range areas {
		areas[i].CompanyIDs = append([]string{}, companies[areas[i].ID]...)
		areas[i].ProductIDs = append([]string{}, products[areas[i].ID]...)
	}
}

func (t *TherapeuticAreas) one(ctx context.Context, client store.Client, area *entity.TherapeuticArea, err error) (*entity.TherapeuticArea, error) {
	if err != nil || area == nil {
		return nil, err
	}
	items := []entity.TherapeuticArea{*area}
	t.enrich(ctx, client, items, true, true)
	return &items[0], nil
}

// GetByID returns the area with id (counts and relations included), or nil.
func (t *TherapeuticAreas) GetByID(ctx context.Context, id string) (*entity.TherapeuticArea, error) {
	area, err := getBy(ctx, t.reader, query.TherapeuticAreas, "id", id, entity.TherapeuticAreaFromRow)
	return t.one(ctx, t.reader, area, err)
}

// GetBySlug returns the area with slug, falling back to slug as an id.
func (t *TherapeuticAreas) GetBySlug(ctx context.Context, slug string) (*entity.TherapeuticArea, error) {
	area, err := getBySlugOrID(ctx, t.reader, query.TherapeuticAreas, slug, entity.TherapeuticAreaFromRow)
	return t.one(ctx, t.reader, area, err)
}

// Tree returns every area arranged under its parent, children sorted by
// name, with counts. Areas whose parent is missing become roots.
func (t *TherapeuticAreas) Tree(ctx context.Context) ([]*entity.TherapeuticArea, error) {
	res, err := t.reader.From(query.TherapeuticAreas.Table).
		Select(query.TherapeuticAreas.Columns...).
		Execute(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list therapeutic areas")
	}
	areas := make([]entity.TherapeuticArea, len(res.Rows))
	for i, row := range res.Rows {
		areas[i] = entity.TherapeuticAreaFromRow(row)
	}
	t.enrich(ctx, t.reader, areas, true, false)
	return BuildTree(areas), nil
}

// BuildTree links areas into a forest. Nodes caught in a parent cycle are
// promoted to roots so none is lost.
func BuildTree(areas []entity.TherapeuticArea) []*entity.TherapeuticArea {
	nodes := make(map[string]*entity.TherapeuticArea, len(areas))
	for i := range areas {
		a := areas[i]
		a.Children = nil
		nodes[a.ID] = &a
	}

	var roots []*entity.TherapeuticArea
	for i := range areas {
		n := nodes[areas[i].ID]
		if n.ParentID != nil {
			if parent, ok := nodes[*n.ParentID]; ok && parent != n {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	reached := map[string]bool{}
	var walk func([]*entity.TherapeuticArea)
	walk = func(level []*entity.TherapeuticArea) {
		sortByName(level)
		for _, n := range level {
			if reached[n.ID] {
				continue
			}
			reached[n.ID] = true
			walk(n.Children)
		}
	}
	walk(roots)
	for i := range areas {
		if n := nodes[areas[i].ID]; !reached[n.ID] {
			parent := nodes[*n.ParentID]
			parent.Children = detach(parent.Children, n)
			roots = append(roots, n)
			reached[n.ID] = true
			walk(n.Children)
		}
	}
	sortByName(roots)
	return roots
}

func detach(level []*entity.TherapeuticArea, n *entity.TherapeuticArea) []*entity.TherapeuticArea {
	out := level[:0]
	for _, c := range level {
		if c != n {
			out = append(out, c)
		}
	}
	return out
}

func sortByName(level []*entity.TherapeuticArea) {
	sort.SliceStable(level, func(i, j int) bool {
		if level[i].Name != level[j].Name {
			return level[i].Name < level[j].Name
		}
		return level[i].ID < level[j].ID
	})
}

// Create inserts an area.
func (t *TherapeuticAreas) Create(ctx context.Context, in entity.TherapeuticAreaInput) (*entity.TherapeuticArea, error) {
	id, slug, err := t.prepareCreate(in.ID, in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	if in.ParentID != nil && *in.ParentID != "" {
		if err := requireExists(ctx, t.writer, query.TherapeuticAreas.Table, "parent therapeutic area", *in.ParentID); err != nil {
			return nil, err
		}
	}
	row := entity.TherapeuticAreaInputToRow(in)
	row["id"], row["slug"] = id, slug
	entity.Merge(row, entity.Timestamps(t.now(), true))

	if err := t.writer.Insert(ctx, query.TherapeuticAreas.Table, row); err != nil {
		return nil, errors.Wrap(err, "insert therapeutic area")
	}
	t.log(ctx).Infow("Created therapeutic area", "id", id, logger.FieldSlug, slug)

	area, err := getBy(ctx, t.writer, query.TherapeuticAreas, "id", id, entity.TherapeuticAreaFromRow)
	return t.one(ctx, t.writer, area, err)
}

// Update applies the fields set on in. Re-parenting under itself or one of
// its descendants is rejected.
func (t *TherapeuticAreas) Update(ctx context.Context, id string, in entity.TherapeuticAreaInput) (*entity.TherapeuticArea, error) {
	row := entity.TherapeuticAreaInputToRow(in)
	if err := CheckUpdate(row); err != nil {
		return nil, err
	}

	err := t.writer.Tx(ctx, func(tx store.Client) error {
		if in.ParentID != nil && *in.ParentID != "" {
			if err := t.checkParent(ctx, tx, id, *in.ParentID); err != nil {
				return err
			}
		}
		found, err := t.touch(ctx, tx, query.TherapeuticAreas.Table, id, row)
		if err != nil {
			return err
		}
		if !found {
			return errors.NotFound("therapeutic area %q", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	area, err := getBy(ctx, t.writer, query.TherapeuticAreas, "id", id, entity.TherapeuticAreaFromRow)
	return t.one(ctx, t.writer, area, err)
}

// checkParent walks up from parentID and fails if it reaches id.
func (t *TherapeuticAreas) checkParent(ctx context.Context, client store.Client, id, parentID string) error {
	seen := map[string]bool{}
	for cur := parentID; cur != ""; {
		if cur == id {
			return errors.Validation("therapeutic area %q cannot be its own ancestor", id)
		}
		if seen[cur] {
			return nil
		}
		seen[cur] = true

		row, err := client.From(query.TherapeuticAreas.Table).Select("id", "parent_id").Eq("id", cur).Single(ctx)
		if store.IsNoRows(err) {
			if cur == parentID {
				return errors.Validation("parent therapeutic area %q does not exist", parentID)
			}
			return nil
		}
		if err != nil {
			return err
		}
		cur, _ = row["parent_id"].(string)
	}
	return nil
}

// Delete removes the area. Children become roots; links are removed.
func (t *TherapeuticAreas) Delete(ctx context.Context, id string) (bool, error) {
	return t.remove(ctx, query.TherapeuticAreas.Table, id)
}

// Filters returns the parent facet: each parent area with its number of
// direct children.
func (t *TherapeuticAreas) Filters(ctx context.Context) (entity.TherapeuticAreaFilters, error) {
	parents, err := t.labelledFacet(ctx, query.TherapeuticAreas.Table, "parent_id", query.TherapeuticAreas.Table)
	if err != nil {
		return entity.TherapeuticAreaFilters{}, errors.Wrap(err, "parent facet")
	}
	return entity.TherapeuticAreaFilters{Parents: parents}, nil
}
