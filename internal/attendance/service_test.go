package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"faceattend/internal/models"
	"faceattend/internal/paging"
)

type fakeStore struct {
	inserts  int
	setCalls []struct {
		id       string
		leg      Leg
		verified bool
	}
	bulkIDs []string
}

func (s *fakeStore) List(ctx context.Context, f Filters, page int) ([]models.AttendanceRecord, paging.Meta, error) {
	return nil, paging.Meta{}, nil
}

func (s *fakeStore) All(ctx context.Context, f Filters) ([]models.AttendanceRecord, error) {
	return nil, nil
}

func (s *fakeStore) Recent(ctx context.Context, userID string, since time.Time, limit int) ([]models.AttendanceRecord, error) {
	return nil, nil
}

func (s *fakeStore) Get(ctx context.Context, id string) (models.AttendanceRecord, error) {
	return models.AttendanceRecord{}, models.ErrNotFound
}

func (s *fakeStore) Insert(ctx context.Context, rec models.AttendanceRecord) (models.AttendanceRecord, error) {
	s.inserts++
	rec.ID = "rec-1"
	return rec, nil
}

func (s *fakeStore) SetLegVerified(ctx context.Context, id string, leg Leg, verified bool) error {
	s.setCalls = append(s.setCalls, struct {
		id       string
		leg      Leg
		verified bool
	}{id, leg, verified})
	return nil
}

func (s *fakeStore) BulkVerify(ctx context.Context, ids []string) (int, error) {
	s.bulkIDs = ids
	return len(ids), nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error { return nil }

func (s *fakeStore) Stats(ctx context.Context, f Filters) (Stats, error) {
	return Stats{}, nil
}

func TestVerifyRequiresValidLeg(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil, 0)

	err := svc.Verify(context.Background(), "rec-1", Leg("checkin"))
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if verr.Fields["type"] == "" {
		t.Fatalf("want error on type, got %v", verr.Fields)
	}
	if len(store.setCalls) != 0 {
		t.Fatal("invalid leg must not reach the store")
	}
}

func TestVerifyAndRejectSetLegs(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil, 0)
	ctx := context.Background()

	if err := svc.Verify(ctx, "rec-1", LegCheckIn); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := svc.Reject(ctx, "rec-1", LegCheckOut); err != nil {
		t.Fatalf("reject: %v", err)
	}

	if len(store.setCalls) != 2 {
		t.Fatalf("store saw %d calls, want 2", len(store.setCalls))
	}
	if store.setCalls[0].leg != LegCheckIn || !store.setCalls[0].verified {
		t.Fatalf("first call = %+v", store.setCalls[0])
	}
	if store.setCalls[1].leg != LegCheckOut || store.setCalls[1].verified {
		t.Fatalf("second call = %+v", store.setCalls[1])
	}
}

func TestRecordValidation(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil, 0)

	_, err := svc.Record(context.Background(), models.AttendanceRecord{Status: "elsewhere"})
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if verr.Fields["user_id"] == "" || verr.Fields["status"] == "" {
		t.Fatalf("want errors on user_id and status, got %v", verr.Fields)
	}
	if store.inserts != 0 {
		t.Fatal("invalid record must not reach the store")
	}

	rec, err := svc.Record(context.Background(), models.AttendanceRecord{
		UserID: "user-1",
		Status: models.StatusPresent,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("created record should carry the store id")
	}
}

func TestBulkVerifyPassesIDs(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil, 0)

	n, err := svc.BulkVerify(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("bulk verify: %v", err)
	}
	if n != 3 || len(store.bulkIDs) != 3 {
		t.Fatalf("verified %d of %d", n, len(store.bulkIDs))
	}
}

func TestLegColumnMapping(t *testing.T) {
	if !LegCheckIn.Valid() || !LegCheckOut.Valid() || Leg("both").Valid() {
		t.Fatal("leg validity wrong")
	}
}
