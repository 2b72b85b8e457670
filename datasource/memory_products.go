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

type memProducts struct{ m *Memory }

func productRow(p entity.Product) store.Row {
	return withTimes(entity.ProductInputToRow(p.Input()), p.CreatedAt, p.UpdatedAt)
}

func (s memProducts) List(_ context.Context, f entity.ProductFilter) (entity.Page[entity.Product], error) {
	if f.Stage != "" && !f.Stage.Valid() {
		return entity.Page[entity.Product]{}, errors.Validation("unknown development stage %q", f.Stage)
	}
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	keep := func(p entity.Product) bool {
		switch {
		case f.TherapeuticAreaID != "" && !contains(m.productAreas[p.ID], f.TherapeuticAreaID):
			return false
		case f.CompanyID != "" && (p.CompanyID == nil || *p.CompanyID != f.CompanyID):
			return false
		case f.Stage != "" && p.Stage != f.Stage:
			return false
		case f.MoleculeType != "" && p.MoleculeType != f.MoleculeType:
			return false
		}
		return true
	}
	out := listPage(query.Products, m.products, productRow, f.ListOptions, keep)
	for i := range out.Data {
		out.Data[i] = m.product(out.Data[i])
	}
	return out, nil
}

func (s memProducts) ListByCompany(ctx context.Context, companyID string, opts entity.ListOptions) (entity.Page[entity.Product], error) {
	if companyID == "" {
		return entity.EmptyPage[entity.Product](opts), nil
	}
	return s.List(ctx, entity.ProductFilter{ListOptions: opts, CompanyID: companyID})
}

func (m *Memory) product(p entity.Product) entity.Product {
	p.TherapeuticAreas = m.areaNames(m.productAreas[p.ID])
	return p
}

func (s memProducts) GetByID(_ context.Context, id string) (*entity.Product, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	if p, ok := s.m.products[id]; ok && id != "" {
		out := s.m.product(p)
		return &out, nil
	}
	return nil, nil
}

func (s memProducts) GetBySlug(ctx context.Context, slug string) (*entity.Product, error) {
	s.m.mu.RLock()
	for _, p := range s.m.products {
		if slug != "" && p.Slug == slug {
			out := s.m.product(p)
			s.m.mu.RUnlock()
			return &out, nil
		}
	}
	s.m.mu.RUnlock()
	return s.GetByID(ctx, slug)
}

func (m *Memory) requireCompany(id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	if _, ok := m.companies[*id]; !ok {
		return missingRef("company", *id)
	}
	return nil
}

func (s memProducts) Create(_ context.Context, in entity.ProductInput) (*entity.Product, error) {
	if err := access.ValidateProduct(in); err != nil {
		return nil, err
	}
	m := s.m
	id, slug, err := access.Identity(in.ID, in.Slug, in.Name, m.newID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.products[id]; exists {
		return nil, conflict("product", "id", id)
	}
	if slugTaken(m.products, func(p entity.Product) string { return p.Slug }, slug, "") {
		return nil, conflict("product", "slug", slug)
	}
	if err := m.requireCompany(in.CompanyID); err != nil {
		return nil, err
	}
	links := distinct(in.TherapeuticAreaIDs)
	if err := m.requireAreas(links); err != nil {
		return nil, err
	}

	row := entity.ProductInputToRow(in)
	row["id"], row["slug"] = id, slug
	now := m.stamp()
	p := entity.ProductFromRow(withTimes(row, now, now))
	p.TherapeuticAreas = nil

	m.products[id] = p
	if in.TherapeuticAreaIDs != nil {
		m.productAreas[id] = links
	}
	out := m.product(p)
	return &out, nil
}

func (s memProducts) Update(_ context.Context, id string, in entity.ProductInput) (*entity.Product, error) {
	if err := access.ValidateProduct(in); err != nil {
		return nil, err
	}
	row := entity.ProductInputToRow(in)
	if err := access.CheckUpdate(row); err != nil {
		return nil, err
	}
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.products[id]
	if !ok {
		return nil, errors.NotFound("product %q", id)
	}
	if slug, ok := row["slug"].(string); ok && slugTaken(m.products, func(p entity.Product) string { return p.Slug }, slug, id) {
		return nil, conflict("product", "slug", slug)
	}
	if err := m.requireCompany(in.CompanyID); err != nil {
		return nil, err
	}
	links := distinct(in.TherapeuticAreaIDs)
	if err := m.requireAreas(links); err != nil {
		return nil, err
	}

	merged := entity.Merge(productRow(existing), row)
	merged["updated_at"] = m.stamp()
	p := entity.ProductFromRow(merged)
	p.TherapeuticAreas = nil

	m.products[id] = p
	if in.TherapeuticAreaIDs != nil {
		m.productAreas[id] = links
	}
	out := m.product(p)
	return &out, nil
}

// Delete removes the product with its area and website links.
func (s memProducts) Delete(_ context.Context, id string) (bool, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return false, nil
	}
	delete(m.products, id)
	delete(m.productAreas, id)
	for wid, w := range m.websites {
		if contains(w.ProductIDs, id) {
			w.ProductIDs = without(w.ProductIDs, id)
			m.websites[wid] = w
		}
	}
	return true, nil
}

func (s memProducts) Filters(_ context.Context) (entity.ProductFilters, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	stages, molecules, companies := counter{}, counter{}, counter{}
	for _, p := range m.products {
		stages.add(string(p.Stage))
		molecules.add(p.MoleculeType)
		companies.addPtr(p.CompanyID)
	}
	return entity.ProductFilters{
		Stages:        aggregate.Facets(stages, nil),
		MoleculeTypes: aggregate.Facets(molecules, nil),
		Companies:     aggregate.Facets(companies, m.companyLabels()),
	}, nil
}

func (m *Memory) companyLabels() map[string]string {
	labels := make(map[string]string, len(m.companies))
	for id, c := range m.companies {
		labels[id] = c.Name
	}
	return labels
}
