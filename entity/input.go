package entity

// Inputs are partial entities for create and update. A nil field is absent
// and left untouched; a non-nil field is written even when it holds the
// zero value. For nullable references, a pointer to "" clears the column.
// A nil ID slice leaves the join table untouched; a non-nil slice (even
// empty) replaces the links.

// CompanyInput is a partial Company.
type CompanyInput struct {
	ID                 *string  `json:"id,omitempty"`
	Slug               *string  `json:"slug,omitempty"`
	Name               *string  `json:"name,omitempty"`
	Description        *string  `json:"description,omitempty"`
	LogoURL            *string  `json:"logoUrl,omitempty"`
	WebsiteURL         *string  `json:"websiteUrl,omitempty"`
	Headquarters       *string  `json:"headquarters,omitempty"`
	FoundedYear        *int     `json:"foundedYear,omitempty"`
	EmployeeCount      *int     `json:"employeeCount,omitempty"`
	MarketCapBillions  *float64 `json:"marketCapBillions,omitempty"`
	Ticker             *string  `json:"ticker,omitempty"`
	Exchange           *string  `json:"exchange,omitempty"`
	CEO                *string  `json:"ceo,omitempty"`
	TherapeuticAreaIDs []string `json:"therapeuticAreaIds,omitempty"`
}

// ProductInput is a partial Product.
type ProductInput struct {
	ID                 *string  `json:"id,omitempty"`
	Slug               *string  `json:"slug,omitempty"`
	Name               *string  `json:"name,omitempty"`
	GenericName        *string  `json:"genericName,omitempty"`
	CompanyID          *string  `json:"companyId,omitempty"`
	Stage              *Stage   `json:"developmentStage,omitempty"`
	MoleculeType       *string  `json:"moleculeType,omitempty"`
	Description        *string  `json:"description,omitempty"`
	TherapeuticAreaIDs []string `json:"therapeuticAreaIds,omitempty"`
}

// TherapeuticAreaInput is a partial TherapeuticArea.
type TherapeuticAreaInput struct {
	ID          *string `json:"id,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ParentID    *string `json:"parentId,omitempty"`
}

// WebsiteInput is a partial Website. Sub-records replace the stored record
// when set.
type WebsiteInput struct {
	ID          *string    `json:"id,omitempty"`
	Slug        *string    `json:"slug,omitempty"`
	Domain      *string    `json:"domain,omitempty"`
	URL         *string    `json:"url,omitempty"`
	CompanyID   *string    `json:"companyId,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	IsActive    *bool      `json:"isActive,omitempty"`
	TechStack   *TechStack `json:"techStack,omitempty"`
	Hosting     *Hosting   `json:"hosting,omitempty"`
	Legal       *Legal     `json:"legal,omitempty"`
	Features    []string   `json:"features,omitempty"`
	ProductIDs  []string   `json:"productIds,omitempty"`
}

// Input returns the full partial for c (every mapped field set).
func (c *Company) Input() CompanyInput {
	return CompanyInput{
		ID:                &c.ID,
		Slug:              &c.Slug,
		Name:              &c.Name,
		Description:       &c.Description,
		LogoURL:           &c.LogoURL,
		WebsiteURL:        &c.WebsiteURL,
		Headquarters:      &c.Headquarters,
		FoundedYear:       c.FoundedYear,
		EmployeeCount:     c.EmployeeCount,
		MarketCapBillions: c.MarketCapBillions,
		Ticker:            &c.Ticker,
		Exchange:          &c.Exchange,
		CEO:               &c.CEO,
	}
}

// Input returns the full partial for p.
func (p *Product) Input() ProductInput {
	companyID := ""
	if p.CompanyID != nil {
		companyID = *p.CompanyID
	}
	return ProductInput{
		ID:           &p.ID,
		Slug:         &p.Slug,
		Name:         &p.Name,
		GenericName:  &p.GenericName,
		CompanyID:    &companyID,
		Stage:        &p.Stage,
		MoleculeType: &p.MoleculeType,
		Description:  &p.Description,
	}
}

// Input returns the full partial for a.
func (a *TherapeuticArea) Input() TherapeuticAreaInput {
	parentID := ""
	if a.ParentID != nil {
		parentID = *a.ParentID
	}
	return TherapeuticAreaInput{
		ID:          &a.ID,
		Slug:        &a.Slug,
		Name:        &a.Name,
		Description: &a.Description,
		ParentID:    &parentID,
	}
}

// Input returns the full partial for w, sub-records included.
func (w *Website) Input() WebsiteInput {
	companyID := ""
	if w.CompanyID != nil {
		companyID = *w.CompanyID
	}
	return WebsiteInput{
		ID:          &w.ID,
		Slug:        &w.Slug,
		Domain:      &w.Domain,
		URL:         &w.URL,
		CompanyID:   &companyID,
		Category:    &w.Category,
		Title:       &w.Title,
		Description: &w.Description,
		IsActive:    &w.IsActive,
		TechStack:   w.TechStack,
		Hosting:     w.Hosting,
		Legal:       w.Legal,
		Features:    append([]string{}, w.Features...),
		ProductIDs:  append([]string{}, w.ProductIDs...),
	}
}
