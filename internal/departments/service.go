package departments

import (
	"context"
	"strings"

	"faceattend/internal/models"
	"faceattend/internal/paging"
)

// Store is the persistence surface the service needs.
type Store interface {
	List(ctx context.Context, f Filters, page int) ([]models.Department, paging.Meta, error)
	Get(ctx context.Context, id string) (models.Department, error)
	Create(ctx context.Context, d models.Department) (models.Department, error)
	Update(ctx context.Context, d models.Department) (models.Department, error)
	Delete(ctx context.Context, id string) error
}

// Service validates and coordinates department mutations.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// validate rejects a department before any store call happens, so a bad
// payload never reaches the database.
func validate(d models.Department) error {
	verr := models.NewValidationError()
	if strings.TrimSpace(d.Name) == "" {
		verr.Add("name", "name is required")
	}
	if strings.TrimSpace(d.Code) == "" {
		verr.Add("code", "code is required")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// List returns one page of departments.
func (s *Service) List(ctx context.Context, f Filters, page int) ([]models.Department, paging.Meta, error) {
	return s.store.List(ctx, f, page)
}

// Get returns a single department.
func (s *Service) Get(ctx context.Context, id string) (models.Department, error) {
	return s.store.Get(ctx, id)
}

// Create validates and inserts a department.
func (s *Service) Create(ctx context.Context, d models.Department) (models.Department, error) {
	if err := validate(d); err != nil {
		return models.Department{}, err
	}
	d.Name = strings.TrimSpace(d.Name)
	d.Code = strings.ToUpper(strings.TrimSpace(d.Code))
	return s.store.Create(ctx, d)
}

// Update validates and rewrites a department.
func (s *Service) Update(ctx context.Context, d models.Department) (models.Department, error) {
	if err := validate(d); err != nil {
		return models.Department{}, err
	}
	d.Name = strings.TrimSpace(d.Name)
	d.Code = strings.ToUpper(strings.TrimSpace(d.Code))
	return s.store.Update(ctx, d)
}

// Delete removes a department.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
