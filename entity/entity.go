// Package entity defines the application-facing shapes of the directory:
// companies, products, therapeutic areas and websites, the filter options
// used to list them, and the mappers that convert storage rows (snake_case)
// into entities (camelCase JSON) and back.
//
// The mappers in mapper.go are the only place storage column names and
// entity field names meet.
package entity

import "time"

// Company is a pharmaceutical company.
// TherapeuticAreas holds area names resolved from company_therapeutic_areas
// at read time; it is never persisted.
type Company struct {
	ID                string    `json:"id" yaml:"id"`
	Slug              string    `json:"slug" yaml:"slug"`
	Name              string    `json:"name" yaml:"name"`
	Description       string    `json:"description" yaml:"description"`
	LogoURL           string    `json:"logoUrl" yaml:"logoUrl"`
	WebsiteURL        string    `json:"websiteUrl" yaml:"websiteUrl"`
	Headquarters      string    `json:"headquarters" yaml:"headquarters"`
	FoundedYear       *int      `json:"foundedYear" yaml:"foundedYear"`
	EmployeeCount     *int      `json:"employeeCount" yaml:"employeeCount"`
	MarketCapBillions *float64  `json:"marketCapBillions" yaml:"marketCapBillions"`
	Ticker            string    `json:"ticker" yaml:"ticker"`
	Exchange          string    `json:"exchange" yaml:"exchange"`
	CEO               string    `json:"ceo" yaml:"ceo"`
	TherapeuticAreas  []string  `json:"therapeuticAreas" yaml:"-"`
	CreatedAt         time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt         time.Time `json:"updatedAt" yaml:"-"`
}

// Product is a drug or candidate. CompanyID is nil for orphaned products.
type Product struct {
	ID               string    `json:"id" yaml:"id"`
	Slug             string    `json:"slug" yaml:"slug"`
	Name             string    `json:"name" yaml:"name"`
	GenericName      string    `json:"genericName" yaml:"genericName"`
	CompanyID        *string   `json:"companyId" yaml:"companyId"`
	Stage            Stage     `json:"developmentStage" yaml:"developmentStage"`
	MoleculeType     string    `json:"moleculeType" yaml:"moleculeType"`
	Description      string    `json:"description" yaml:"description"`
	TherapeuticAreas []string  `json:"therapeuticAreas" yaml:"-"`
	CreatedAt        time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt        time.Time `json:"updatedAt" yaml:"-"`
}

// TherapeuticArea is a node in the therapeutic-area tree.
// CompanyIDs, ProductIDs and the counts are aggregated from join tables
// on request and never stored.
type TherapeuticArea struct {
	ID           string             `json:"id" yaml:"id"`
	Slug         string             `json:"slug" yaml:"slug"`
	Name         string             `json:"name" yaml:"name"`
	Description  string             `json:"description" yaml:"description"`
	ParentID     *string            `json:"parentId" yaml:"parentId"`
	CompanyIDs   []string           `json:"companyIds,omitempty" yaml:"-"`
	ProductIDs   []string           `json:"productIds,omitempty" yaml:"-"`
	CompanyCount int                `json:"companyCount" yaml:"-"`
	ProductCount int                `json:"productCount" yaml:"-"`
	WebsiteCount int                `json:"websiteCount" yaml:"-"`
	Children     []*TherapeuticArea `json:"children,omitempty" yaml:"-"`
	CreatedAt    time.Time          `json:"createdAt" yaml:"-"`
	UpdatedAt    time.Time          `json:"updatedAt" yaml:"-"`
}

// Website is a company web property with its flattened sub-records.
type Website struct {
	ID          string     `json:"id" yaml:"id"`
	Slug        string     `json:"slug" yaml:"slug"`
	Domain      string     `json:"domain" yaml:"domain"`
	URL         string     `json:"url" yaml:"url"`
	CompanyID   *string    `json:"companyId" yaml:"companyId"`
	Category    string     `json:"category" yaml:"category"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	IsActive    bool       `json:"isActive" yaml:"isActive"`
	TechStack   *TechStack `json:"techStack" yaml:"techStack"`
	Hosting     *Hosting   `json:"hosting" yaml:"hosting"`
	Legal       *Legal     `json:"legal" yaml:"legal"`
	Features    []string   `json:"features" yaml:"features"`
	ProductIDs  []string   `json:"productIds" yaml:"productIds"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time  `json:"updatedAt" yaml:"-"`
}

// TechStack is stored in website_tech_stacks.
type TechStack struct {
	CMS       string `json:"cms" yaml:"cms"`
	Framework string `json:"framework" yaml:"framework"`
	Analytics string `json:"analytics" yaml:"analytics"`
	CDN       string `json:"cdn" yaml:"cdn"`
}

// Hosting is stored in website_hosting.
type Hosting struct {
	Provider   string `json:"provider" yaml:"provider"`
	IPAddress  string `json:"ipAddress" yaml:"ipAddress"`
	Country    string `json:"country" yaml:"country"`
	SSLEnabled bool   `json:"sslEnabled" yaml:"sslEnabled"`
}

// Legal is stored in website_legal.
type Legal struct {
	PrivacyPolicyURL string `json:"privacyPolicyUrl" yaml:"privacyPolicyUrl"`
	TermsURL         string `json:"termsUrl" yaml:"termsUrl"`
	CookiePolicyURL  string `json:"cookiePolicyUrl" yaml:"cookiePolicyUrl"`
	LastReviewed     string `json:"lastReviewed" yaml:"lastReviewed"`
}
