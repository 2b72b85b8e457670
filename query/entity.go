// Package query composes list queries for every directory entity from one
// set of metadata: table, selected columns, searchable columns and the
// sort allow-list. Both the data access functions and the storage-backed
// DataSource build their queries here, and the in-memory DataSource uses
// the same metadata to evaluate filters in process.
package query

import (
	"strings"

	"github.com/teranos/pharmadex/entity"
)

// Entity describes how an entity is stored and may be listed.
type Entity struct {
	Name          string
	Table         string
	Columns       []string
	SearchColumns []string

	// SortFields maps accepted sortBy values to columns. Anything else
	// sorts by DefaultSort.
	SortFields  map[string]string
	DefaultSort string

	// TextColumns sort case-insensitively.
	TextColumns map[string]bool
}

var (
	Companies = Entity{
		Name:          "company",
		Table:         "companies",
		Columns:       entity.CompanyColumns,
		SearchColumns: []string{"name", "description", "headquarters", "ticker"},
		SortFields: map[string]string{
			"name":              "name",
			"marketCap":         "market_cap",
			"marketCapBillions": "market_cap",
			"foundedYear":       "founded_year",
			"employeeCount":     "employee_count",
			"headquarters":      "headquarters",
			"ticker":            "ticker",
			"createdAt":         "created_at",
			"updatedAt":         "updated_at",
		},
		DefaultSort: "name",
		TextColumns: map[string]bool{"name": true, "headquarters": true, "ticker": true},
	}

	Products = Entity{
		Name:          "product",
		Table:         "products",
		Columns:       entity.ProductColumns,
		SearchColumns: []string{"name", "generic_name", "description"},
		SortFields: map[string]string{
			"name":             "name",
			"genericName":      "generic_name",
			"developmentStage": "development_stage",
			"stage":            "development_stage",
			"moleculeType":     "molecule_type",
			"createdAt":        "created_at",
			"updatedAt":        "updated_at",
		},
		DefaultSort: "name",
		TextColumns: map[string]bool{"name": true, "generic_name": true, "molecule_type": true},
	}

	TherapeuticAreas = Entity{
		Name:          "therapeutic area",
		Table:         "therapeutic_areas",
		Columns:       entity.TherapeuticAreaColumns,
		SearchColumns: []string{"name", "description"},
		SortFields: map[string]string{
			"name":      "name",
			"createdAt": "created_at",
			"updatedAt": "updated_at",
		},
		DefaultSort: "name",
		TextColumns: map[string]bool{"name": true},
	}

	Websites = Entity{
		Name:          "website",
		Table:         "websites",
		Columns:       entity.WebsiteColumns,
		SearchColumns: []string{"domain", "title", "description"},
		SortFields: map[string]string{
			"name":      "domain",
			"domain":    "domain",
			"title":     "title",
			"category":  "category",
			"createdAt": "created_at",
			"updatedAt": "updated_at",
		},
		DefaultSort: "domain",
		TextColumns: map[string]bool{"domain": true, "title": true, "category": true},
	}
)

// SortColumn resolves sortBy through the allow-list. Unknown or empty
// values fall back to the default column; nothing from the caller ever
// reaches the statement text.
func (e Entity) SortColumn(sortBy string) string {
	if col, ok := e.SortFields[strings.TrimSpace(sortBy)]; ok {
		return col
	}
	return e.DefaultSort
}
