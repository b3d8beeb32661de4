package attendance

import (
	"context"
	"time"

	"faceattend/internal/models"
	"faceattend/internal/paging"
	"faceattend/internal/store"
)

const statsCacheKey = "faceattend:stats:attendance"

// Store is the persistence surface the service needs.
type Store interface {
	List(ctx context.Context, f Filters, page int) ([]models.AttendanceRecord, paging.Meta, error)
	All(ctx context.Context, f Filters) ([]models.AttendanceRecord, error)
	Recent(ctx context.Context, userID string, since time.Time, limit int) ([]models.AttendanceRecord, error)
	Get(ctx context.Context, id string) (models.AttendanceRecord, error)
	Insert(ctx context.Context, rec models.AttendanceRecord) (models.AttendanceRecord, error)
	SetLegVerified(ctx context.Context, id string, leg Leg, verified bool) error
	BulkVerify(ctx context.Context, ids []string) (int, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, f Filters) (Stats, error)
}

// Service coordinates attendance queries and admin verification actions.
type Service struct {
	store    Store
	cache    *store.Redis
	cacheTTL time.Duration
}

// NewService creates a service. cache may be nil.
func NewService(s Store, cache *store.Redis, cacheTTL time.Duration) *Service {
	return &Service{store: s, cache: cache, cacheTTL: cacheTTL}
}

// List returns one page of records.
func (s *Service) List(ctx context.Context, f Filters, page int) ([]models.AttendanceRecord, paging.Meta, error) {
	return s.store.List(ctx, f, page)
}

// Export returns every record matching the filters.
func (s *Service) Export(ctx context.Context, f Filters) ([]models.AttendanceRecord, error) {
	return s.store.All(ctx, f)
}

// Recent returns a user's latest records for the detail view.
func (s *Service) Recent(ctx context.Context, userID string, since time.Time, limit int) ([]models.AttendanceRecord, error) {
	return s.store.Recent(ctx, userID, since, limit)
}

// Get returns a single record.
func (s *Service) Get(ctx context.Context, id string) (models.AttendanceRecord, error) {
	return s.store.Get(ctx, id)
}

// Record inserts a new attendance record (manual check-in or pipeline).
func (s *Service) Record(ctx context.Context, rec models.AttendanceRecord) (models.AttendanceRecord, error) {
	verr := models.NewValidationError()
	if rec.UserID == "" {
		verr.Add("user_id", "user is required")
	}
	if !rec.Status.Valid() {
		verr.Add("status", "status must be present, late or absent")
	}
	if !verr.Empty() {
		return models.AttendanceRecord{}, verr
	}
	created, err := s.store.Insert(ctx, rec)
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	s.dropStats(ctx)
	return created, nil
}

// Verify approves one leg of a record.
func (s *Service) Verify(ctx context.Context, id string, leg Leg) error {
	return s.decide(ctx, id, leg, true)
}

// Reject marks one leg of a record as rejected.
func (s *Service) Reject(ctx context.Context, id string, leg Leg) error {
	return s.decide(ctx, id, leg, false)
}

func (s *Service) decide(ctx context.Context, id string, leg Leg, verified bool) error {
	if !leg.Valid() {
		return models.NewValidationError().Add("type", "type must be checkIn or checkOut")
	}
	if err := s.store.SetLegVerified(ctx, id, leg, verified); err != nil {
		return err
	}
	s.dropStats(ctx)
	return nil
}

// BulkVerify approves both legs of several records.
func (s *Service) BulkVerify(ctx context.Context, ids []string) (int, error) {
	n, err := s.store.BulkVerify(ctx, ids)
	if err == nil && n > 0 {
		s.dropStats(ctx)
	}
	return n, err
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.dropStats(ctx)
	return nil
}

// Stats returns aggregate counts. Unfiltered stats are served from cache
// for a short window; filtered requests always hit the database.
func (s *Service) Stats(ctx context.Context, f Filters) (Stats, error) {
	unfiltered := f == Filters{}
	if unfiltered {
		var cached Stats
		if s.cache.FetchJSON(ctx, statsCacheKey, &cached) {
			return cached, nil
		}
	}
	stats, err := s.store.Stats(ctx, f)
	if err != nil {
		return Stats{}, err
	}
	if unfiltered {
		s.cache.CacheJSON(ctx, statsCacheKey, stats, s.cacheTTL)
	}
	return stats, nil
}

func (s *Service) dropStats(ctx context.Context) {
	s.cache.Drop(ctx, statsCacheKey)
}
