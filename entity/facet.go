package entity

// Facet is one distinct value with the number of entities carrying it.
// Label is the display name when Value is an ID.
type Facet struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CompanyFilters are the facets offered when listing companies.
type CompanyFilters struct {
	Regions          []Facet `json:"regions"`
	Exchanges        []Facet `json:"exchanges"`
	TherapeuticAreas []Facet `json:"therapeuticAreas"`
}

// ProductFilters are the facets offered when listing products.
type ProductFilters struct {
	Stages        []Facet `json:"stages"`
	MoleculeTypes []Facet `json:"moleculeTypes"`
	Companies     []Facet `json:"companies"`
}

// WebsiteFilters are the facets offered when listing websites.
type WebsiteFilters struct {
	Categories []Facet `json:"categories"`
	Companies  []Facet `json:"companies"`
}

// TherapeuticAreaFilters are the facets offered when listing therapeutic areas.
type TherapeuticAreaFilters struct {
	Parents []Facet `json:"parents"`
}

// RegionOf extracts the region from a free-text headquarters value: the
// last comma-separated part, trimmed ("Basel, Switzerland" -> "Switzerland").
func RegionOf(headquarters string) string {
	parts := splitTrim(headquarters, ',')
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
