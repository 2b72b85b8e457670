package server

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/teranos/pharmadex/entity"
	"github.com/teranos/pharmadex/errors"
)

// params reads typed query parameters, keeping the first parse error.
type params struct {
	q   url.Values
	err error
}

func (p *params) str(key string) string {
	return strings.TrimSpace(p.q.Get(key))
}

func (p *params) integer(key string) int {
	v := p.intPtr(key)
	if v == nil {
		return 0
	}
	return *v
}

func (p *params) intPtr(key string) *int {
	raw := p.str(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.setErr(key, raw)
		return nil
	}
	return &v
}

func (p *params) floatPtr(key string) *float64 {
	raw := p.str(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.setErr(key, raw)
		return nil
	}
	return &v
}

func (p *params) boolPtr(key string) *bool {
	raw := p.str(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.setErr(key, raw)
		return nil
	}
	return &v
}

func (p *params) flag(key string) bool {
	v := p.boolPtr(key)
	return v != nil && *v
}

func (p *params) setErr(key, raw string) {
	if p.err == nil {
		p.err = errors.Validation("invalid value %q for %s", raw, key)
	}
}

// listOptions reads search, limit, offset, page, sortBy and sortDirection.
// page (1-based) is an alternative to offset.
func (p *params) listOptions() entity.ListOptions {
	opts := entity.ListOptions{
		Search:        p.str("search"),
		Limit:         p.integer("limit"),
		Offset:        p.integer("offset"),
		SortBy:        p.str("sortBy"),
		SortDirection: entity.SortDirection(strings.ToLower(p.str("sortDirection"))),
	}
	if page := p.integer("page"); page > 1 && opts.Offset == 0 {
		opts.Offset = (page - 1) * opts.Normalized().Limit
	}
	return opts
}

func companyFilter(q url.Values) (entity.CompanyFilter, error) {
	p := &params{q: q}
	f := entity.CompanyFilter{
		ListOptions:       p.listOptions(),
		Exchange:          p.str("exchange"),
		Region:            p.str("region"),
		MinMarketCap:      p.floatPtr("minMarketCap"),
		MaxMarketCap:      p.floatPtr("maxMarketCap"),
		MinFoundedYear:    p.intPtr("minFoundedYear"),
		MaxFoundedYear:    p.intPtr("maxFoundedYear"),
		TherapeuticAreaID: p.str("therapeuticAreaId"),
		HasProducts:       p.flag("hasProducts"),
	}
	return f, p.err
}

func productFilter(q url.Values) (entity.ProductFilter, error) {
	p := &params{q: q}
	f := entity.ProductFilter{
		ListOptions:       p.listOptions(),
		CompanyID:         p.str("companyId"),
		MoleculeType:      p.str("moleculeType"),
		TherapeuticAreaID: p.str("therapeuticAreaId"),
	}
	if raw := p.str("stage"); raw != "" {
		stage, ok := entity.ParseStage(raw)
		if !ok {
			return f, errors.Validation("unknown development stage %q", raw)
		}
		f.Stage = stage
	}
	return f, p.err
}

func websiteFilter(q url.Values) (entity.WebsiteFilter, error) {
	p := &params{q: q}
	f := entity.WebsiteFilter{
		ListOptions: p.listOptions(),
		CompanyID:   p.str("companyId"),
		Category:    p.str("category"),
		IsActive:    p.boolPtr("isActive"),
		ProductID:   p.str("productId"),
	}
	return f, p.err
}

// therapeuticAreaFilter treats parentId=root (or an empty parentId) as
// "root areas only".
func therapeuticAreaFilter(q url.Values) (entity.TherapeuticAreaFilter, error) {
	p := &params{q: q}
	f := entity.TherapeuticAreaFilter{
		ListOptions:      p.listOptions(),
		IncludeCounts:    p.flag("includeCounts"),
		IncludeRelations: p.flag("includeRelations"),
	}
	if q.Has("parentId") {
		parent := p.str("parentId")
		if parent == "root" {
			parent = ""
		}
		f.ParentID = &parent
	}
	return f, p.err
}
