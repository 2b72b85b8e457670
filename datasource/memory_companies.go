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

type memCompanies struct{ m *Memory }

func companyRow(c entity.Company) store.Row {
	return withTimes(entity.CompanyInputToRow(c.Input()), c.CreatedAt, c.UpdatedAt)
}

func (s memCompanies) List(_ context.Context, f entity.CompanyFilter) (entity.Page[entity.Company], error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	keep := func(c entity.Company) bool {
		switch {
		case f.TherapeuticAreaID != "" && !contains(m.companyAreas[c.ID], f.TherapeuticAreaID):
			return false
		case f.HasProducts && !m.hasProducts(c.ID):
			return false
		case f.Exchange != "" && c.Exchange != f.Exchange:
			return false
		case f.Region != "" && !query.ContainsFold(c.Headquarters, f.Region):
			return false
		}
		return inFloat(c.MarketCapBillions, f.MinMarketCap, f.MaxMarketCap) &&
			inInt(c.FoundedYear, f.MinFoundedYear, f.MaxFoundedYear)
	}
	p := listPage(query.Companies, m.companies, companyRow, f.ListOptions, keep)
	for i := range p.Data {
		p.Data[i] = m.company(p.Data[i])
	}
	return p, nil
}

func (m *Memory) hasProducts(companyID string) bool {
	for _, p := range m.products {
		if p.CompanyID != nil && *p.CompanyID == companyID {
			return true
		}
	}
	return false
}

// company returns c with its derived area names.
func (m *Memory) company(c entity.Company) entity.Company {
	c.TherapeuticAreas = m.areaNames(m.companyAreas[c.ID])
	return c
}

func (m *Memory) companyBy(match func(entity.Company) bool) *entity.Company {
	for _, c := range m.companies {
		if match(c) {
			out := m.company(c)
			return &out
		}
	}
	return nil
}

func (s memCompanies) GetByID(_ context.Context, id string) (*entity.Company, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	if c, ok := s.m.companies[id]; ok && id != "" {
		out := s.m.company(c)
		return &out, nil
	}
	return nil, nil
}

func (s memCompanies) GetBySlug(ctx context.Context, slug string) (*entity.Company, error) {
	s.m.mu.RLock()
	c := s.m.companyBy(func(c entity.Company) bool { return slug != "" && c.Slug == slug })
	s.m.mu.RUnlock()
	if c != nil {
		return c, nil
	}
	return s.GetByID(ctx, slug)
}

func (s memCompanies) ListWithTicker(_ context.Context) ([]entity.Company, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	sorted := filterSort(query.Companies, m.companies, companyRow,
		entity.ListOptions{SortBy: "ticker"},
		func(c entity.Company) bool { return c.Ticker != "" })
	out := make([]entity.Company, len(sorted))
	for i, c := range sorted {
		out[i] = m.company(c)
	}
	return out, nil
}

func (s memCompanies) Create(_ context.Context, in entity.CompanyInput) (*entity.Company, error) {
	m := s.m
	id, slug, err := access.Identity(in.ID, in.Slug, in.Name, m.newID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.companies[id]; exists {
		return nil, conflict("company", "id", id)
	}
	if slugTaken(m.companies, func(c entity.Company) string { return c.Slug }, slug, "") {
		return nil, conflict("company", "slug", slug)
	}
	links := distinct(in.TherapeuticAreaIDs)
	if err := m.requireAreas(links); err != nil {
		return nil, err
	}

	row := entity.CompanyInputToRow(in)
	row["id"], row["slug"] = id, slug
	now := m.stamp()
	c := entity.CompanyFromRow(withTimes(row, now, now))
	c.TherapeuticAreas = nil

	m.companies[id] = c
	if in.TherapeuticAreaIDs != nil {
		m.companyAreas[id] = links
	}
	out := m.company(c)
	return &out, nil
}

func (s memCompanies) Update(_ context.Context, id string, in entity.CompanyInput) (*entity.Company, error) {
	m := s.m
	row := entity.CompanyInputToRow(in)
	if err := access.CheckUpdate(row); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.companies[id]
	if !ok {
		return nil, errors.NotFound("company %q", id)
	}
	if slug, ok := row["slug"].(string); ok && slugTaken(m.companies, func(c entity.Company) string { return c.Slug }, slug, id) {
		return nil, conflict("company", "slug", slug)
	}
	links := distinct(in.TherapeuticAreaIDs)
	if err := m.requireAreas(links); err != nil {
		return nil, err
	}

	merged := entity.Merge(companyRow(existing), row)
	merged["updated_at"] = m.stamp()
	c := entity.CompanyFromRow(merged)
	c.TherapeuticAreas = nil

	m.companies[id] = c
	if in.TherapeuticAreaIDs != nil {
		m.companyAreas[id] = links
	}
	out := m.company(c)
	return &out, nil
}

// Delete removes the company. Its products and websites are orphaned.
func (s memCompanies) Delete(_ context.Context, id string) (bool, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.companies[id]; !ok {
		return false, nil
	}
	delete(m.companies, id)
	delete(m.companyAreas, id)
	for pid, p := range m.products {
		if p.CompanyID != nil && *p.CompanyID == id {
			p.CompanyID = nil
			m.products[pid] = p
		}
	}
	for wid, w := range m.websites {
		if w.CompanyID != nil && *w.CompanyID == id {
			w.CompanyID = nil
			m.websites[wid] = w
		}
	}
	return true, nil
}

func (s memCompanies) Filters(_ context.Context) (entity.CompanyFilters, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	regions, exchanges, areas := counter{}, counter{}, counter{}
	for _, c := range m.companies {
		regions.add(c.Headquarters)
		exchanges.add(c.Exchange)
		for _, a := range m.companyAreas[c.ID] {
			areas.add(a)
		}
	}
	return entity.CompanyFilters{
		Regions:          aggregate.Facets(aggregate.Rekey(regions, entity.RegionOf), nil),
		Exchanges:        aggregate.Facets(exchanges, nil),
		TherapeuticAreas: aggregate.Facets(areas, m.areaLabels()),
	}, nil
}

func (m *Memory) areaLabels() map[string]string {
	labels := make(map[string]string, len(m.areas))
	for id, a := range m.areas {
		labels[id] = a.Name
	}
	return labels
}
