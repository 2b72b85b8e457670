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

type memWebsites struct{ m *Memory }

func websiteRow(w entity.Website) store.Row {
	return withTimes(entity.WebsiteInputToRow(w.Input()), w.CreatedAt, w.UpdatedAt)
}

func (s memWebsites) List(_ context.Context, f entity.WebsiteFilter) (entity.Page[entity.Website], error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	keep := func(w entity.Website) bool {
		switch {
		case f.ProductID != "" && !contains(w.ProductIDs, f.ProductID):
			return false
		case f.CompanyID != "" && (w.CompanyID == nil || *w.CompanyID != f.CompanyID):
			return false
		case f.Category != "" && w.Category != f.Category:
			return false
		case f.IsActive != nil && w.IsActive != *f.IsActive:
			return false
		}
		return true
	}
	out := listPage(query.Websites, m.websites, websiteRow, f.ListOptions, keep)
	for i := range out.Data {
		out.Data[i] = website(out.Data[i])
	}
	return out, nil
}

func (s memWebsites) ListByCompany(ctx context.Context, companyID string, opts entity.ListOptions) (entity.Page[entity.Website], error) {
	if companyID == "" {
		return entity.EmptyPage[entity.Website](opts), nil
	}
	return s.List(ctx, entity.WebsiteFilter{ListOptions: opts, CompanyID: companyID})
}

// website returns a copy of w that shares no memory with the stored value.
func website(w entity.Website) entity.Website {
	if w.TechStack != nil {
		t := *w.TechStack
		w.TechStack = &t
	}
	if w.Hosting != nil {
		h := *w.Hosting
		w.Hosting = &h
	}
	if w.Legal != nil {
		l := *w.Legal
		w.Legal = &l
	}
	w.Features = sortedCopy(w.Features)
	w.ProductIDs = sortedCopy(w.ProductIDs)
	return w
}

func (s memWebsites) GetByID(_ context.Context, id string) (*entity.Website, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	if w, ok := s.m.websites[id]; ok && id != "" {
		out := website(w)
		return &out, nil
	}
	return nil, nil
}

func (s memWebsites) GetBySlug(ctx context.Context, slug string) (*entity.Website, error) {
	s.m.mu.RLock()
	for _, w := range s.m.websites {
		if slug != "" && w.Slug == slug {
			out := website(w)
			s.m.mu.RUnlock()
			return &out, nil
		}
	}
	s.m.mu.RUnlock()
	return s.GetByID(ctx, slug)
}

func (m *Memory) requireProducts(ids []string) error {
	for _, id := range ids {
		if _, ok := m.products[id]; !ok {
			return missingRef("product", id)
		}
	}
	return nil
}

// applyChildren replaces the sub-records set on in.
func applyChildren(w *entity.Website, in entity.WebsiteInput) {
	if in.TechStack != nil {
		w.TechStack = in.TechStack
	}
	if in.Hosting != nil {
		w.Hosting = in.Hosting
	}
	if in.Legal != nil {
		w.Legal = in.Legal
	}
	if in.Features != nil {
		w.Features = distinct(in.Features)
	}
	if in.ProductIDs != nil {
		w.ProductIDs = distinct(in.ProductIDs)
	}
}

func (s memWebsites) Create(_ context.Context, in entity.WebsiteInput) (*entity.Website, error) {
	if in.Domain == nil || *in.Domain == "" {
		return nil, errors.Validation("domain is required")
	}
	m := s.m
	id, slug, err := access.Identity(in.ID, in.Slug, in.Domain, m.newID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.websites[id]; exists {
		return nil, conflict("website", "id", id)
	}
	if slugTaken(m.websites, func(w entity.Website) string { return w.Slug }, slug, "") {
		return nil, conflict("website", "slug", slug)
	}
	if err := m.requireCompany(in.CompanyID); err != nil {
		return nil, err
	}
	if err := m.requireProducts(distinct(in.ProductIDs)); err != nil {
		return nil, err
	}

	row := entity.WebsiteInputToRow(in)
	row["id"], row["slug"] = id, slug
	if _, ok := row["is_active"]; !ok {
		row["is_active"] = true
	}
	now := m.stamp()
	w := entity.WebsiteFromRow(withTimes(row, now, now))
	applyChildren(&w, in)
	w = website(w)

	m.websites[id] = w
	out := website(w)
	return &out, nil
}

func (s memWebsites) Update(_ context.Context, id string, in entity.WebsiteInput) (*entity.Website, error) {
	row := entity.WebsiteInputToRow(in)
	if err := access.CheckUpdate(row); err != nil {
		return nil, err
	}
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.websites[id]
	if !ok {
		return nil, errors.NotFound("website %q", id)
	}
	if slug, ok := row["slug"].(string); ok && slugTaken(m.websites, func(w entity.Website) string { return w.Slug }, slug, id) {
		return nil, conflict("website", "slug", slug)
	}
	if err := m.requireCompany(in.CompanyID); err != nil {
		return nil, err
	}
	if err := m.requireProducts(distinct(in.ProductIDs)); err != nil {
		return nil, err
	}

	merged := entity.Merge(websiteRow(existing), row)
	merged["updated_at"] = m.stamp()
	w := entity.WebsiteFromRow(merged)
	w.TechStack, w.Hosting, w.Legal = existing.TechStack, existing.Hosting, existing.Legal
	w.Features, w.ProductIDs = existing.Features, existing.ProductIDs
	applyChildren(&w, in)
	w = website(w)

	m.websites[id] = w
	out := website(w)
	return &out, nil
}

func (s memWebsites) Delete(_ context.Context, id string) (bool, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.websites[id]; !ok {
		return false, nil
	}
	delete(m.websites, id)
	return true, nil
}

func (s memWebsites) Filters(_ context.Context) (entity.WebsiteFilters, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	categories, companies := counter{}, counter{}
	for _, w := range m.websites {
		categories.add(w.Category)
		companies.addPtr(w.CompanyID)
	}
	return entity.WebsiteFilters{
		Categories: aggregate.Facets(categories, nil),
		Companies:  aggregate.Facets(companies, m.companyLabels()),
	}, nil
}
