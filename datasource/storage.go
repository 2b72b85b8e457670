package datasource

import (
	"github.com/teranos/pharmadex/access"
)

// Storage is the DataSource backed by the store through the access
// package. Reads use the anonymous client, writes the privileged one.
type Storage struct {
	access *access.Access
	close  func() error
}

// NewStorage wraps data access functions. closeFn (optional) runs on Close.
func NewStorage(a *access.Access, closeFn func() error) *Storage {
	return &Storage{access: a, close: closeFn}
}

func (s *Storage) Type() string { return TypeStorage }

func (s *Storage) Companies() CompanyStore { return s.access.Companies }

func (s *Storage) Products() ProductStore { return s.access.Products }

func (s *Storage) Websites() WebsiteStore { return s.access.Websites }

func (s *Storage) TherapeuticAreas() TherapeuticAreaStore { return s.access.TherapeuticAreas }

// Close releases the underlying clients when the Storage owns them.
func (s *Storage) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
