// Package datasource defines the DataSource abstraction: uniform list, get,
// create, update, delete and facet operations per entity, regardless of
// what backs them. Two implementations ship with the module: Memory, held
// in process and loaded from YAML fixtures, and Storage, which delegates
// to the access package over a store.Client. Both honor the same filter
// semantics and the same null-versus-error contract:
//
//   - a lookup that finds nothing returns (nil, nil)
//   - Update of a missing id returns a not_found error
//   - Delete reports whether anything was removed
//   - a relation filter with no matching keys returns an empty page
//
// Factory registers constructors per type and keeps named instances, one
// of which is active.
package datasource

import (
	"context"

	"github.com/teranos/pharmadex/entity"
)

// Built-in data source types.
const (
	TypeMemory  = "memory"
	TypeStorage = "storage"
)

// Repository is the operation set every entity exposes.
// F is the filter type, I the partial input and X the facet set.
type Repository[T, F, I, X any] interface {
	List(ctx context.Context, f F) (entity.Page[T], error)
	GetByID(ctx context.Context, id string) (*T, error)
	GetBySlug(ctx context.Context, slug string) (*T, error)
	Create(ctx context.Context, in I) (*T, error)
	Update(ctx context.Context, id string, in I) (*T, error)
	Delete(ctx context.Context, id string) (bool, error)
	Filters(ctx context.Context) (X, error)
}

// CompanyStore serves companies.
type CompanyStore interface {
	Repository[entity.Company, entity.CompanyFilter, entity.CompanyInput, entity.CompanyFilters]
	ListWithTicker(ctx context.Context) ([]entity.Company, error)
}

// ProductStore serves products.
type ProductStore interface {
	Repository[entity.Product, entity.ProductFilter, entity.ProductInput, entity.ProductFilters]
	ListByCompany(ctx context.Context, companyID string, opts entity.ListOptions) (entity.Page[entity.Product], error)
}

// WebsiteStore serves websites.
type WebsiteStore interface {
	Repository[entity.Website, entity.WebsiteFilter, entity.WebsiteInput, entity.WebsiteFilters]
	ListByCompany(ctx context.Context, companyID string, opts entity.ListOptions) (entity.Page[entity.Website], error)
}

// TherapeuticAreaStore serves therapeutic areas.
type TherapeuticAreaStore interface {
	Repository[entity.TherapeuticArea, entity.TherapeuticAreaFilter, entity.TherapeuticAreaInput, entity.TherapeuticAreaFilters]
	Tree(ctx context.Context) ([]*entity.TherapeuticArea, error)
}

// DataSource groups the per-entity stores of one backing.
type DataSource interface {
	Type() string
	Companies() CompanyStore
	Products() ProductStore
	Websites() WebsiteStore
	TherapeuticAreas() TherapeuticAreaStore
	Close() error
}
