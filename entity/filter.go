package entity

import "strings"

const (
	// DefaultLimit is the page size when none is given
	DefaultLimit = 20
	// MaxLimit caps any requested page size
	MaxLimit = 100
)

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ListOptions are the options common to every list operation.
// SortBy names an entity field ("name", "marketCap", ...); unknown values
// fall back to name.
type ListOptions struct {
	Search        string        `json:"search,omitempty"`
	Limit         int           `json:"limit,omitempty"`
	Offset        int           `json:"offset,omitempty"`
	SortBy        string        `json:"sortBy,omitempty"`
	SortDirection SortDirection `json:"sortDirection,omitempty"`
}

// Normalized applies defaults: limit 20 (max 100), offset >= 0,
// ascending order, trimmed search.
func (o ListOptions) Normalized() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	if strings.EqualFold(string(o.SortDirection), string(SortDesc)) {
		o.SortDirection = SortDesc
	} else {
		o.SortDirection = SortAsc
	}
	o.Search = strings.TrimSpace(o.Search)
	return o
}

// Ascending reports whether the normalized direction is ascending.
func (o ListOptions) Ascending() bool {
	return o.Normalized().SortDirection == SortAsc
}

// CompanyFilter selects companies.
type CompanyFilter struct {
	ListOptions
	Exchange          string   `json:"exchange,omitempty"`
	Region            string   `json:"region,omitempty"` // substring of headquarters
	MinMarketCap      *float64 `json:"minMarketCap,omitempty"`
	MaxMarketCap      *float64 `json:"maxMarketCap,omitempty"`
	MinFoundedYear    *int     `json:"minFoundedYear,omitempty"`
	MaxFoundedYear    *int     `json:"maxFoundedYear,omitempty"`
	TherapeuticAreaID string   `json:"therapeuticAreaId,omitempty"`
	HasProducts       bool     `json:"hasProducts,omitempty"`
}

// ProductFilter selects products.
type ProductFilter struct {
	ListOptions
	CompanyID         string `json:"companyId,omitempty"`
	Stage             Stage  `json:"stage,omitempty"`
	MoleculeType      string `json:"moleculeType,omitempty"`
	TherapeuticAreaID string `json:"therapeuticAreaId,omitempty"`
}

// WebsiteFilter selects websites.
type WebsiteFilter struct {
	ListOptions
	CompanyID string `json:"companyId,omitempty"`
	Category  string `json:"category,omitempty"`
	IsActive  *bool  `json:"isActive,omitempty"`
	ProductID string `json:"productId,omitempty"`
}

// TherapeuticAreaFilter selects therapeutic areas. ParentID pointing at ""
// selects root areas only.
type TherapeuticAreaFilter struct {
	ListOptions
	ParentID         *string `json:"parentId,omitempty"`
	IncludeCounts    bool    `json:"includeCounts,omitempty"`
	IncludeRelations bool    `json:"includeRelations,omitempty"`
}

// Page is one page of a list result. Total counts every match, not just Data.
type Page[T any] struct {
	Data   []T `json:"data"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// EmptyPage is a page with no rows for opts.
func EmptyPage[T any](opts ListOptions) Page[T] {
	opts = opts.Normalized()
	return Page[T]{Data: []T{}, Limit: opts.Limit, Offset: opts.Offset}
}

// Pages is the number of pages of size Limit needed for Total.
func (p Page[T]) Pages() int {
	if p.Limit <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// Number is the 1-based number of this page.
func (p Page[T]) Number() int {
	if p.Limit <= 0 {
		return 1
	}
	return p.Offset/p.Limit + 1
}
