package datasource

import (
	"bytes"
	"context"
	_ "embed"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/teranos/pharmadex/entity"
	"github.com/teranos/pharmadex/errors"
)

// FixtureFormat is the fixture file format this build writes and reads.
const FixtureFormat = "1.0.0"

// fixtureConstraint accepts every 1.x fixture file.
const fixtureConstraint = "^1.0.0"

//go:embed fixtures/directory.yaml
var defaultFixtures []byte

// Fixtures is the YAML document used to fill a Memory data source and to
// seed the store. Link lists reference ids within the same document.
type Fixtures struct {
	Format           string           `yaml:"format"`
	TherapeuticAreas []AreaFixture    `yaml:"therapeuticAreas"`
	Companies        []CompanyFixture `yaml:"companies"`
	Products         []ProductFixture `yaml:"products"`
	Websites         []entity.Website `yaml:"websites"`
}

// AreaFixture is a therapeutic area.
type AreaFixture struct {
	entity.TherapeuticArea `yaml:",inline"`
}

// CompanyFixture is a company with its therapeutic area links.
type CompanyFixture struct {
	entity.Company     `yaml:",inline"`
	TherapeuticAreaIDs []string `yaml:"therapeuticAreaIds"`
}

// ProductFixture is a product with its therapeutic area links.
type ProductFixture struct {
	entity.Product     `yaml:",inline"`
	TherapeuticAreaIDs []string `yaml:"therapeuticAreaIds"`
}

// ParseFixtures decodes a fixture document. Unknown keys and unsupported
// format versions are rejected.
func ParseFixtures(data []byte) (Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return Fixtures{}, errors.Wrap(errors.Validation("malformed fixtures: %v", err), "parse fixtures")
	}
	if err := checkFormat(fx.Format); err != nil {
		return Fixtures{}, err
	}
	return fx, nil
}

func checkFormat(format string) error {
	if format == "" {
		return nil
	}
	v, err := semver.NewVersion(format)
	if err != nil {
		return errors.Validation("fixture format %q is not a version", format)
	}
	c, err := semver.NewConstraint(fixtureConstraint)
	if err != nil {
		return errors.Wrap(err, "fixture constraint")
	}
	if !c.Check(v) {
		return errors.Validation("fixture format %s is not supported (want %s)", format, fixtureConstraint)
	}
	return nil
}

// LoadFixtures reads a fixture file. An empty path loads the built-in
// demo directory.
func LoadFixtures(path string) (Fixtures, error) {
	if path == "" {
		return DefaultFixtures()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixtures{}, errors.Wrap(errors.Configuration(err, "read fixtures %s", path), "load fixtures")
	}
	return ParseFixtures(data)
}

// DefaultFixtures returns the built-in demo directory.
func DefaultFixtures() (Fixtures, error) {
	return ParseFixtures(defaultFixtures)
}

// SeedReport counts what Seed wrote.
type SeedReport struct {
	TherapeuticAreas int `json:"therapeuticAreas"`
	Companies        int `json:"companies"`
	Products         int `json:"products"`
	Websites         int `json:"websites"`
}

// Seed writes fx into ds. Entities whose id already exists are updated,
// so seeding twice is harmless. Areas are written parents first.
func Seed(ctx context.Context, ds DataSource, fx Fixtures) (SeedReport, error) {
	var report SeedReport

	areas, err := parentsFirst(fx.TherapeuticAreas)
	if err != nil {
		return report, err
	}
	for _, a := range areas {
		in := a.Input()
		in.Slug = orNil(in.Slug)
		if err := upsert(ctx, ds.TherapeuticAreas(), a.ID, in); err != nil {
			return report, errors.Wrapf(err, "seed therapeutic area %s", a.ID)
		}
		report.TherapeuticAreas++
	}

	for _, c := range fx.Companies {
		in := c.Input()
		in.Slug = orNil(in.Slug)
		in.TherapeuticAreaIDs = nonNil(c.TherapeuticAreaIDs)
		if err := upsert(ctx, ds.Companies(), c.ID, in); err != nil {
			return report, errors.Wrapf(err, "seed company %s", c.ID)
		}
		report.Companies++
	}

	for _, p := range fx.Products {
		in := p.Input()
		in.Slug = orNil(in.Slug)
		in.TherapeuticAreaIDs = nonNil(p.TherapeuticAreaIDs)
		if err := upsert(ctx, ds.Products(), p.ID, in); err != nil {
			return report, errors.Wrapf(err, "seed product %s", p.ID)
		}
		report.Products++
	}

	for _, w := range fx.Websites {
		in := w.Input()
		in.Slug = orNil(in.Slug)
		if err := upsert(ctx, ds.Websites(), w.ID, in); err != nil {
			return report, errors.Wrapf(err, "seed website %s", w.ID)
		}
		report.Websites++
	}
	return report, nil
}

type writer[T, I any] interface {
	GetByID(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, in I) (*T, error)
	Update(ctx context.Context, id string, in I) (*T, error)
}

func upsert[T, I any](ctx context.Context, w writer[T, I], id string, in I) error {
	if id != "" {
		existing, err := w.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing != nil {
			_, err = w.Update(ctx, id, in)
			return err
		}
	}
	_, err := w.Create(ctx, in)
	return err
}

// parentsFirst orders areas so every parent precedes its children.
// A parent that is neither in fx nor empty is an error, as is a cycle.
func parentsFirst(areas []AreaFixture) ([]entity.TherapeuticArea, error) {
	byID := make(map[string]entity.TherapeuticArea, len(areas))
	for _, a := range areas {
		byID[a.ID] = a.TherapeuticArea
	}

	out := make([]entity.TherapeuticArea, 0, len(areas))
	state := map[string]int{} // 1 visiting, 2 done
	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case 1:
			return errors.Validation("therapeutic area %q is its own ancestor", id)
		case 2:
			return nil
		}
		state[id] = 1
		a := byID[id]
		if a.ParentID != nil && *a.ParentID != "" {
			if _, ok := byID[*a.ParentID]; !ok {
				return errors.Validation("therapeutic area %q has unknown parent %q", id, *a.ParentID)
			}
			if err := visit(*a.ParentID); err != nil {
				return err
			}
		}
		state[id] = 2
		out = append(out, a)
		return nil
	}
	for _, a := range areas {
		if err := visit(a.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func orNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
