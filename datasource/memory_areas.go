package datasource

import (
	"context"

	"github.com/teranos/pharmadex/access"
	"github.com/teranos/pharmadex/aggregate"
	"github.com/teranos/pharmadex/entity"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/query"
	"github.com/teranos/pharmadex/store"
)

type memAreas struct{ m *Memory }

func areaRow(a entity.TherapeuticArea) store.Row {
	return withTimes(entity.TherapeuticAreaInputToRow(a.Input()), a.CreatedAt, a.UpdatedAt)
}

func (s memAreas) List(_ context.Context, f entity.TherapeuticAreaFilter) (entity.Page[entity.TherapeuticArea], error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	keep := func(a entity.TherapeuticArea) bool {
		if f.ParentID == nil {
			return true
		}
		if *f.ParentID == "" {
			return a.ParentID == nil
		}
		return a.ParentID != nil && *a.ParentID == *f.ParentID
	}
	out := listPage(query.TherapeuticAreas, m.areas, areaRow, f.ListOptions, keep)
	for i := range out.Data {
		out.Data[i] = m.area(out.Data[i], f.IncludeCounts, f.IncludeRelations)
	}
	return out, nil
}

// area returns a with the requested derived fields.
func (m *Memory) area(a entity.TherapeuticArea, counts, relations bool) entity.TherapeuticArea {
	a.Children = nil
	if !counts && !relations {
		return a
	}

	var companies, products []string
	for id, links := range m.companyAreas {
		if _, ok := m.companies[id]; ok && contains(links, a.ID) {
			companies = append(companies, id)
		}
	}
	for id, links := range m.productAreas {
		if _, ok := m.products[id]; ok && contains(links, a.ID) {
			products = append(products, id)
		}
	}

	if counts {
		a.CompanyCount = len(companies)
		a.ProductCount = len(products)
		a.WebsiteCount = 0
		for _, w := range m.websites {
			if w.CompanyID != nil && contains(companies, *w.CompanyID) {
				a.WebsiteCount++
			}
		}
	}
	if relations {
		a.CompanyIDs = sortedCopy(companies)
		a.ProductIDs = sortedCopy(products)
	}
	return a
}

func (s memAreas) GetByID(_ context.Context, id string) (*entity.TherapeuticArea, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	if a, ok := s.m.areas[id]; ok && id != "" {
		out := s.m.area(a, true, true)
		return &out, nil
	}
	return nil, nil
}

func (s memAreas) GetBySlug(ctx context.Context, slug string) (*entity.TherapeuticArea, error) {
	s.m.mu.RLock()
	for _, a := range s.m.areas {
		if slug != "" && a.Slug == slug {
			out := s.m.area(a, true, true)
			s.m.mu.RUnlock()
			return &out, nil
		}
	}
	s.m.mu.RUnlock()
	return s.GetByID(ctx, slug)
}

func (s memAreas) Tree(_ context.Context) ([]*entity.TherapeuticArea, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	areas := make([]entity.TherapeuticArea, 0, len(m.areas))
	for _, a := range m.areas {
		areas = append(areas, m.area(a, true, false))
	}
	return access.BuildTree(areas), nil
}

// checkParent rejects a parent that is missing, or that is id itself or
// one of its descendants.
func (m *Memory) checkParent(id, parentID string) error {
	if _, ok := m.areas[parentID]; !ok {
		return errors.Validation("parent therapeutic area %q does not exist", parentID)
	}
	seen := map[string]bool{}
	for cur := parentID; cur != "" && !seen[cur]; {
		if cur == id {
			return errors.Validation("therapeutic area %q cannot be its own ancestor", id)
		}
		seen[cur] = true
		next, ok := m.areas[cur]
		if !ok || next.ParentID == nil {
			break
		}
		cur = *next.ParentID
	}
	return nil
}

func (s memAreas) Create(_ context.Context, in entity.TherapeuticAreaInput) (*entity.TherapeuticArea, error) {
	m := s.m
	id, slug, err := access.Identity(in.ID, in.Slug, in.Name, m.newID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if in.ParentID != nil && *in.ParentID != "" {
		if _, ok := m.areas[*in.ParentID]; !ok {
			return nil, errors.Validation("parent therapeutic area %q does not exist", *in.ParentID)
		}
	}
	if _, exists := m.areas[id]; exists {
		return nil, conflict("therapeutic area", "id", id)
	}
	if slugTaken(m.areas, func(a entity.TherapeuticArea) string { return a.Slug }, slug, "") {
		return nil, conflict("therapeutic area", "slug", slug)
	}

	row := entity.TherapeuticAreaInputToRow(in)
	row["id"], row["slug"] = id, slug
	now := m.stamp()
	a := entity.TherapeuticAreaFromRow(withTimes(row, now, now))

	m.areas[id] = a
	out := m.area(a, true, true)
	return &out, nil
}

func (s memAreas) Update(_ context.Context, id string, in entity.TherapeuticAreaInput) (*entity.TherapeuticArea, error) {
	row := entity.TherapeuticAreaInputToRow(in)
	if err := access.CheckUpdate(row); err != nil {
		return nil, err
	}
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if in.ParentID != nil && *in.ParentID != "" {
		if err := m.checkParent(id, *in.ParentID); err != nil {
			return nil, err
		}
	}
	existing, ok := m.areas[id]
	if !ok {
		return nil, errors.NotFound("therapeutic area %q", id)
	}
	if slug, ok := row["slug"].(string); ok && slugTaken(m.areas, func(a entity.TherapeuticArea) string { return a.Slug }, slug, id) {
		return nil, conflict("therapeutic area", "slug", slug)
	}

	merged := entity.Merge(areaRow(existing), row)
	merged["updated_at"] = m.stamp()
	a := entity.TherapeuticAreaFromRow(merged)

	m.areas[id] = a
	out := m.area(a, true, true)
	return &out, nil
}

// Delete removes the area. Children become roots and links are dropped.
func (s memAreas) Delete(_ context.Context, id string) (bool, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.areas[id]; !ok {
		return false, nil
	}
	delete(m.areas, id)
	for cid, a := range m.areas {
		if a.ParentID != nil && *a.ParentID == id {
			a.ParentID = nil
			m.areas[cid] = a
		}
	}
	for owner, links := range m.companyAreas {
		m.companyAreas[owner] = without(links, id)
	}
	for owner, links := range m.productAreas {
		m.productAreas[owner] = without(links, id)
	}
	return true, nil
}

func (s memAreas) Filters(_ context.Context) (entity.TherapeuticAreaFilters, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	parents := counter{}
	for _, a := range m.areas {
		parents.addPtr(a.ParentID)
	}
	return entity.TherapeuticAreaFilters{Parents: aggregate.Facets(parents, m.areaLabels())}, nil
}
