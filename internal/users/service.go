package users

import (
	"context"
	"strings"
	"time"

	"faceattend/internal/auth"
	"faceattend/internal/models"
	"faceattend/internal/paging"
	"faceattend/internal/store"
)

const statsCacheKey = "faceattend:stats:users"

// Store is the persistence surface the service needs.
type Store interface {
	List(ctx context.Context, f Filters, page int) ([]models.User, paging.Meta, error)
	All(ctx context.Context, f Filters) ([]models.User, error)
	Get(ctx context.Context, id string) (models.User, error)
	Create(ctx context.Context, u models.User, passwordHash string) (models.User, error)
	Update(ctx context.Context, u models.User) (models.User, error)
	SetPassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (int, error)
	BulkSetActive(ctx context.Context, ids []string, active bool) (int, error)
	Stats(ctx context.Context) (Stats, error)
}

// Service validates and coordinates user mutations, with stats cached in
// redis for a short window.
type Service struct {
	store    Store
	cache    *store.Redis
	cacheTTL time.Duration
}

// NewService creates a service. cache may be nil (stats are computed on
// every call then).
func NewService(s Store, cache *store.Redis, cacheTTL time.Duration) *Service {
	return &Service{store: s, cache: cache, cacheTTL: cacheTTL}
}

func validate(u models.User) error {
	verr := models.NewValidationError()
	if strings.TrimSpace(u.Name) == "" {
		verr.Add("name", "name is required")
	}
	if strings.TrimSpace(u.Email) == "" || !strings.Contains(u.Email, "@") {
		verr.Add("email", "a valid email is required")
	}
	if !u.Role.Valid() {
		verr.Add("role", "role must be student, faculty or admin")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// List returns one page of users.
func (s *Service) List(ctx context.Context, f Filters, page int) ([]models.User, paging.Meta, error) {
	return s.store.List(ctx, f, page)
}

// Export returns every user matching the filters.
func (s *Service) Export(ctx context.Context, f Filters) ([]models.User, error) {
	return s.store.All(ctx, f)
}

// Get returns a single user.
func (s *Service) Get(ctx context.Context, id string) (models.User, error) {
	return s.store.Get(ctx, id)
}

// Create validates, hashes the password and inserts a user.
func (s *Service) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	if err := validate(u); err != nil {
		return models.User{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, models.NewValidationError().Add("password", err.Error())
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	created, err := s.store.Create(ctx, u, hash)
	if err != nil {
		return models.User{}, err
	}
	s.dropStats(ctx)
	return created, nil
}

// Update validates and rewrites a user.
func (s *Service) Update(ctx context.Context, u models.User) (models.User, error) {
	if err := validate(u); err != nil {
		return models.User{}, err
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	updated, err := s.store.Update(ctx, u)
	if err != nil {
		return models.User{}, err
	}
	s.dropStats(ctx)
	return updated, nil
}

// ResetPassword replaces a user's password.
func (s *Service) ResetPassword(ctx context.Context, id, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.NewValidationError().Add("password", err.Error())
	}
	return s.store.SetPassword(ctx, id, hash)
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.dropStats(ctx)
	return nil
}

// BulkDelete removes several users, returning how many went away.
func (s *Service) BulkDelete(ctx context.Context, ids []string) (int, error) {
	n, err := s.store.BulkDelete(ctx, ids)
	if err == nil && n > 0 {
		s.dropStats(ctx)
	}
	return n, err
}

// BulkSetActive flips the active flag on several users.
func (s *Service) BulkSetActive(ctx context.Context, ids []string, active bool) (int, error) {
	n, err := s.store.BulkSetActive(ctx, ids, active)
	if err == nil && n > 0 {
		s.dropStats(ctx)
	}
	return n, err
}

// Stats returns aggregate counts, served from cache when fresh.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var cached Stats
	if s.cache.FetchJSON(ctx, statsCacheKey, &cached) {
		return cached, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	s.cache.CacheJSON(ctx, statsCacheKey, stats, s.cacheTTL)
	return stats, nil
}

func (s *Service) dropStats(ctx context.Context) {
	s.cache.Drop(ctx, statsCacheKey)
}
