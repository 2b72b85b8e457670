package server

import (
	"net/http"

	"github.com/teranos/pharmadex/datasource"
	"github.com/teranos/pharmadex/entity"
)

var (
	companies = resource[entity.Company, entity.CompanyFilter, entity.CompanyInput, entity.CompanyFilters]{
		listKey: "companies",
		what:    "company",
		repo: func(ds datasource.DataSource) datasource.Repository[entity.Company, entity.CompanyFilter, entity.CompanyInput, entity.CompanyFilters] {
			return ds.Companies()
		},
		entity: "company",
		filter: companyFilter,
		idOf:   func(v *entity.Company) string { return v.ID },
	}
	products = resource[entity.Product, entity.ProductFilter, entity.ProductInput, entity.ProductFilters]{
		listKey: "products",
		what:    "product",
		repo: func(ds datasource.DataSource) datasource.Repository[entity.Product, entity.ProductFilter, entity.ProductInput, entity.ProductFilters] {
			return ds.Products()
		},
		entity: "product",
		filter: productFilter,
		idOf:   func(v *entity.Product) string { return v.ID },
	}
	websites = resource[entity.Website, entity.WebsiteFilter, entity.WebsiteInput, entity.WebsiteFilters]{
		listKey: "websites",
		what:    "website",
		repo: func(ds datasource.DataSource) datasource.Repository[entity.Website, entity.WebsiteFilter, entity.WebsiteInput, entity.WebsiteFilters] {
			return ds.Websites()
		},
		entity: "website",
		filter: websiteFilter,
		idOf:   func(v *entity.Website) string { return v.ID },
	}
	therapeuticAreas = resource[entity.TherapeuticArea, entity.TherapeuticAreaFilter, entity.TherapeuticAreaInput, entity.TherapeuticAreaFilters]{
		listKey: "therapeuticAreas",
		what:    "therapeutic area",
		repo: func(ds datasource.DataSource) datasource.Repository[entity.TherapeuticArea, entity.TherapeuticAreaFilter, entity.TherapeuticAreaInput, entity.TherapeuticAreaFilters] {
			return ds.TherapeuticAreas()
		},
		entity: "therapeutic_area",
		filter: therapeuticAreaFilter,
		idOf:   func(v *entity.TherapeuticArea) string { return v.ID },
	}
)

// routes builds the mux and wraps it in middleware
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.HandleHealth)

	companies.mount(s, mux, "companies")
	mux.HandleFunc("GET /api/companies/{slug}/products", s.HandleCompanyProducts)
	mux.HandleFunc("GET /api/companies/{slug}/websites", s.HandleCompanyWebsites)
	mux.HandleFunc("GET /api/tickers", s.HandleTickers)

	products.mount(s, mux, "products")
	websites.mount(s, mux, "websites")

	therapeuticAreas.mount(s, mux, "therapeutic-areas")
	mux.HandleFunc("GET /api/therapeutic-areas/tree", s.HandleTherapeuticAreaTree)

	mux.HandleFunc("GET /api/datasources", s.HandleDataSources)
	mux.HandleFunc("POST /api/datasources", s.HandleCreateDataSource)
	mux.HandleFunc("POST /api/datasources/active", s.HandleSetActiveDataSource)

	mux.HandleFunc("GET /api/events", s.HandleEvents)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no route for "+r.Method+" "+r.URL.Path)
	})

	return s.requestLog(s.recoverPanic(s.cors(mux)))
}
