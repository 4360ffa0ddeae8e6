package property

import "context"

// Directory abstracts repository operations for consumers outside this package.
type Directory interface {
	GetByID(ctx context.Context, id string) (Property, error)
	SetAvailable(ctx context.Context, id string, available bool) error
	List(ctx context.Context, filters Filters) ([]Property, int, error)
}

// Service exposes business-level property directory operations.
type Service struct {
	repo Directory
}

// NewService builds a Service using the provided repository.
func NewService(repo Directory) *Service {
	return &Service{repo: repo}
}

// GetByID returns the property for the given identifier.
func (s *Service) GetByID(ctx context.Context, id string) (Property, error) {
	return s.repo.GetByID(ctx, id)
}

// SetAvailable updates the availability flag on a property.
func (s *Service) SetAvailable(ctx context.Context, id string, available bool) error {
	return s.repo.SetAvailable(ctx, id, available)
}

// List returns properties matching the filters plus the total match count.
func (s *Service) List(ctx context.Context, filters Filters) ([]Property, int, error) {
	return s.repo.List(ctx, filters)
}
