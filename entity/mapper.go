package entity

import (
	"time"

	"github.com/teranos/pharmadex/store"
)

// Storage columns per table. Access code selects with these lists so a
// column added here is read everywhere.
var (
	CompanyColumns = []string{
		"id", "slug", "name", "description", "logo_url", "website_url",
		"headquarters", "founded_year", "employee_count", "market_cap",
		"ticker", "exchange", "ceo", "created_at", "updated_at",
	}
	ProductColumns = []string{
		"id", "slug", "name", "generic_name", "company_id", "development_stage",
		"molecule_type", "description", "created_at", "updated_at",
	}
	TherapeuticAreaColumns = []string{
		"id", "slug", "name", "description", "parent_id", "created_at", "updated_at",
	}
	WebsiteColumns = []string{
		"id", "slug", "domain", "url", "company_id", "category", "title",
		"description", "is_active", "created_at", "updated_at",
	}
)

// CompanyFromRow maps a companies row. Missing values become "" or nil;
// TherapeuticAreas starts empty and is filled by relation resolution.
func CompanyFromRow(r store.Row) Company {
	return Company{
		ID:                asString(r["id"]),
		Slug:              asString(r["slug"]),
		Name:              asString(r["name"]),
		Description:       asString(r["description"]),
		LogoURL:           asString(r["logo_url"]),
		WebsiteURL:        asString(r["website_url"]),
		Headquarters:      asString(r["headquarters"]),
		FoundedYear:       asIntPtr(r["founded_year"]),
		EmployeeCount:     asIntPtr(r["employee_count"]),
		MarketCapBillions: asFloatPtr(r["market_cap"]),
		Ticker:            asString(r["ticker"]),
		Exchange:          asString(r["exchange"]),
		CEO:               asString(r["ceo"]),
		TherapeuticAreas:  []string{},
		CreatedAt:         asTime(r["created_at"]),
		UpdatedAt:         asTime(r["updated_at"]),
	}
}

// CompanyInputToRow maps the fields set on in. Join-table IDs are not
// columns and are handled by the caller.
func CompanyInputToRow(in CompanyInput) store.Row {
	r := store.Row{}
	setString(r, "id", in.ID)
	setString(r, "slug", in.Slug)
	setString(r, "name", in.Name)
	setString(r, "description", in.Description)
	setString(r, "logo_url", in.LogoURL)
	setString(r, "website_url", in.WebsiteURL)
	setString(r, "headquarters", in.Headquarters)
	if in.FoundedYear != nil {
		r["founded_year"] = *in.FoundedYear
	}
	if in.EmployeeCount != nil {
		r["employee_count"] = *in.EmployeeCount
	}
	if in.MarketCapBillions != nil {
		r["market_cap"] = *in.MarketCapBillions
	}
	setString(r, "ticker", in.Ticker)
	setString(r, "exchange", in.Exchange)
	setString(r, "ceo", in.CEO)
	return r
}

// ProductFromRow maps a products row. A NULL company_id stays nil.
func ProductFromRow(r store.Row) Product {
	return Product{
		ID:               asString(r["id"]),
		Slug:             asString(r["slug"]),
		Name:             asString(r["name"]),
		GenericName:      asString(r["generic_name"]),
		CompanyID:        asStringPtr(r["company_id"]),
		Stage:            Stage(asString(r["development_stage"])),
		MoleculeType:     asString(r["molecule_type"]),
		Description:      asString(r["description"]),
		TherapeuticAreas: []string{},
		CreatedAt:        asTime(r["created_at"]),
		UpdatedAt:        asTime(r["updated_at"]),
	}
}

// ProductInputToRow maps the fields set on in. CompanyID "" writes NULL.
func ProductInputToRow(in ProductInput) store.Row {
	r := store.Row{}
	setString(r, "id", in.ID)
	setString(r, "slug", in.Slug)
	setString(r, "name", in.Name)
	setString(r, "generic_name", in.GenericName)
	if in.CompanyID != nil {
		r["company_id"] = nullable(*in.CompanyID)
	}
	if in.Stage != nil {
		r["development_stage"] = string(*in.Stage)
	}
	setString(r, "molecule_type", in.MoleculeType)
	setString(r, "description", in.Description)
	return r
}

// TherapeuticAreaFromRow maps a therapeutic_areas row.
func TherapeuticAreaFromRow(r store.Row) TherapeuticArea {
	return TherapeuticArea{
		ID:          asString(r["id"]),
		Slug:        asString(r["slug"]),
		Name:        asString(r["name"]),
		Description: asString(r["description"]),
		ParentID:    asStringPtr(r["parent_id"]),
		CreatedAt:   asTime(r["created_at"]),
		UpdatedAt:   asTime(r["updated_at"]),
	}
}

// TherapeuticAreaInputToRow maps the fields set on in. ParentID "" writes NULL.
func TherapeuticAreaInputToRow(in TherapeuticAreaInput) store.Row {
	r := store.Row{}
	setString(r, "id", in.ID)
	setString(r, "slug", in.Slug)
	setString(r, "name", in.Name)
	setString(r, "description", in.Description)
	if in.ParentID != nil {
		r["parent_id"] = nullable(*in.ParentID)
	}
	return r
}

// WebsiteFromRow maps a websites row. Sub-records, features and product
// links come from their own tables and are attached by the caller.
func WebsiteFromRow(r store.Row) Website {
	return Website{
		ID:          asString(r["id"]),
		Slug:        asString(r["slug"]),
		Domain:      asString(r["domain"]),
		URL:         asString(r["url"]),
		CompanyID:   asStringPtr(r["company_id"]),
		Category:    asString(r["category"]),
		Title:       asString(r["title"]),
		Description: asString(r["description"]),
		IsActive:    asBool(r["is_active"]),
		Features:    []string{},
		ProductIDs:  []string{},
		CreatedAt:   asTime(r["created_at"]),
		UpdatedAt:   asTime(r["updated_at"]),
	}
}

// WebsiteInputToRow maps the websites columns set on in.
func WebsiteInputToRow(in WebsiteInput) store.Row {
	r := store.Row{}
	setString(r, "id", in.ID)
	setString(r, "slug", in.Slug)
	setString(r, "domain", in.Domain)
	setString(r, "url", in.URL)
	if in.CompanyID != nil {
		r["company_id"] = nullable(*in.CompanyID)
	}
	setString(r, "category", in.Category)
	setString(r, "title", in.Title)
	setString(r, "description", in.Description)
	if in.IsActive != nil {
		r["is_active"] = *in.IsActive
	}
	return r
}

// TechStackFromRow maps a website_tech_stacks row.
func TechStackFromRow(r store.Row) *TechStack {
	return &TechStack{
		CMS:       asString(r["cms"]),
		Framework: asString(r["framework"]),
		Analytics: asString(r["analytics"]),
		CDN:       asString(r["cdn"]),
	}
}

// TechStackToRow maps t for websiteID.
func TechStackToRow(websiteID string, t TechStack) store.Row {
	return store.Row{
		"website_id": websiteID,
		"cms":        t.CMS,
		"framework":  t.Framework,
		"analytics":  t.Analytics,
		"cdn":        t.CDN,
	}
}

// HostingFromRow maps a website_hosting row.
func HostingFromRow(r store.Row) *Hosting {
	return &Hosting{
		Provider:   asString(r["provider"]),
		IPAddress:  asString(r["ip_address"]),
		Country:    asString(r["country"]),
		SSLEnabled: asBool(r["ssl_enabled"]),
	}
}

// HostingToRow maps h for websiteID.
func HostingToRow(websiteID string, h Hosting) store.Row {
	return store.Row{
		"website_id":  websiteID,
		"provider":    h.Provider,
		"ip_address":  h.IPAddress,
		"country":     h.Country,
		"ssl_enabled": h.SSLEnabled,
	}
}

// LegalFromRow maps a website_legal row.
func LegalFromRow(r store.Row) *Legal {
	return &Legal{
		PrivacyPolicyURL: asString(r["privacy_policy_url"]),
		TermsURL:         asString(r["terms_url"]),
		CookiePolicyURL:  asString(r["cookie_policy_url"]),
		LastReviewed:     asString(r["last_reviewed"]),
	}
}

// LegalToRow maps l for websiteID.
func LegalToRow(websiteID string, l Legal) store.Row {
	return store.Row{
		"website_id":         websiteID,
		"privacy_policy_url": l.PrivacyPolicyURL,
		"terms_url":          l.TermsURL,
		"cookie_policy_url":  l.CookiePolicyURL,
		"last_reviewed":      l.LastReviewed,
	}
}

// Timestamps returns created_at/updated_at values for a write at now.
// created is false for updates, which keep the stored created_at.
func Timestamps(now time.Time, created bool) store.Row {
	r := store.Row{"updated_at": now.UTC()}
	if created {
		r["created_at"] = now.UTC()
	}
	return r
}

// Merge copies every key of src into dst and returns dst.
func Merge(dst, src store.Row) store.Row {
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func setString(r store.Row, column string, v *string) {
	if v != nil {
		r[column] = *v
	}
}
