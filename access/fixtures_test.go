package access

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/teranos/pharmadex/db"
	testutil "github.com/teranos/pharmadex/internal/testing"
	"github.com/teranos/pharmadex/store"
)

var fixedNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// seeded returns Access over a fresh SQLite database holding a small
// directory: five companies (one with no products, one with no market
// cap), a two-level area tree, five products (one orphaned) and three
// websites.
func seeded(t *testing.T) (*Access, *store.SQLClient) {
	t.Helper()
	sqlDB := testutil.CreateTestDB(t)
	testutil.MustExec(t, sqlDB,
		`INSERT INTO companies (id, slug, name, description, headquarters, founded_year, market_cap, ticker, exchange) VALUES
			('c-pfizer', 'pfizer', 'Pfizer', 'Vaccines and oncology', 'New York, USA', 1849, 160.5, 'PFE', 'NYSE'),
			('c-novartis', 'novartis', 'Novartis', 'Innovative medicines', 'Basel, Switzerland', 1996, 190.0, 'NVS', 'NYSE'),
			('c-biogen', 'biogen', 'Biogen', 'Neuroscience biotechnology', 'Cambridge, USA', 1978, 40.2, 'BIIB', 'NASDAQ'),
			('c-moderna', 'moderna', 'Moderna', 'mRNA medicines', 'Cambridge, USA', 2010, NULL, 'MRNA', 'NASDAQ'),
			('c-acme', 'acme', 'Acme Therapeutics', 'Early stage platform', 'Berlin, Germany', 2019, 0.3, NULL, NULL)`,
		`INSERT INTO therapeutic_areas (id, slug, name, parent_id) VALUES
			('ta-onc', 'oncology', 'Oncology', NULL),
			('ta-neuro', 'neurology', 'Neurology', NULL),
			('ta-ms', 'multiple-sclerosis', 'Multiple Sclerosis', 'ta-neuro'),
			('ta-vacc', 'vaccines', 'Vaccines', NULL)`,
		`INSERT INTO company_therapeutic_areas (company_id, therapeutic_area_id) VALUES
			('c-pfizer', 'ta-onc'), ('c-pfizer', 'ta-vacc'),
			('c-novartis', 'ta-onc'), ('c-novartis', 'ta-neuro'),
			('c-biogen', 'ta-neuro'), ('c-biogen', 'ta-ms'),
			('c-moderna', 'ta-vacc')`,
		`INSERT INTO products (id, slug, name, generic_name, company_id, development_stage, molecule_type) VALUES
			('p-ibrance', 'ibrance', 'Ibrance', 'palbociclib', 'c-pfizer', 'approved', 'small_molecule'),
			('p-kisqali', 'kisqali', 'Kisqali', 'ribociclib', 'c-novartis', 'approved', 'small_molecule'),
			('p-tecfidera', 'tecfidera', 'Tecfidera', 'dimethyl fumarate', 'c-biogen', 'market', 'small_molecule'),
			('p-mrna1345', 'mrna-1345', 'mRNA-1345', NULL, 'c-moderna', 'phase3', 'mrna'),
			('p-orphan', 'orphan-x', 'Orphan X', NULL, NULL, 'preclinical', 'antibody')`,
		`INSERT INTO product_therapeutic_areas (product_id, therapeutic_area_id) VALUES
			('p-ibrance', 'ta-onc'), ('p-kisqali', 'ta-onc'),
			('p-tecfidera', 'ta-ms'), ('p-mrna1345', 'ta-vacc')`,
		`INSERT INTO websites (id, slug, domain, url, company_id, category, title, is_active) VALUES
			('w-pfizer', 'pfizer-com', 'pfizer.com', 'https://www.pfizer.com', 'c-pfizer', 'corporate', 'Pfizer', 1),
			('w-ibrance', 'ibrance-com', 'ibrance.com', 'https://www.ibrance.com', 'c-pfizer', 'product', 'IBRANCE', 1),
			('w-novartis-old', 'novartis-legacy', 'legacy.novartis.com', NULL, 'c-novartis', 'corporate', 'Legacy', 0)`,
		`INSERT INTO website_tech_stacks (website_id, cms, framework, analytics, cdn) VALUES
			('w-pfizer', 'Drupal', 'React', 'Adobe Analytics', 'Akamai')`,
		`INSERT INTO website_hosting (website_id, provider, ip_address, country, ssl_enabled) VALUES
			('w-pfizer', 'AWS', '203.0.113.7', 'US', 1)`,
		`INSERT INTO website_legal (website_id, privacy_policy_url, terms_url) VALUES
			('w-pfizer', 'https://www.pfizer.com/privacy', 'https://www.pfizer.com/terms')`,
		`INSERT INTO website_features (website_id, feature) VALUES
			('w-pfizer', 'search'), ('w-pfizer', 'careers'), ('w-ibrance', 'hcp-portal')`,
		`INSERT INTO product_websites (product_id, website_id) VALUES ('p-ibrance', 'w-ibrance')`,
	)

	client := store.NewSQLClient(sqlDB, db.DialectSQLite, 5*time.Second, zaptest.NewLogger(t).Sugar())
	ids := 0
	a := New(Options{
		Reader: client,
		Logger: zaptest.NewLogger(t).Sugar(),
		Now:    func() time.Time { return fixedNow },
		NewID: func() string {
			ids++
			return "gen-" + string(rune('a'+ids-1))
		},
	})
	return a, client
}

func pluck[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = name(it)
	}
	return out
}
