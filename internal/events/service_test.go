package events

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"faceattend/internal/models"
	"faceattend/internal/paging"
	"faceattend/internal/queue"
)

type fakeStore struct {
	events    map[string]models.Event
	qrSet     string
	attendees int
}

func newFakeStore(events ...models.Event) *fakeStore {
	s := &fakeStore{events: map[string]models.Event{}}
	for _, e := range events {
		s.events[e.ID] = e
	}
	return s
}

func (s *fakeStore) List(ctx context.Context, f Filters, page int) ([]models.Event, paging.Meta, error) {
	return nil, paging.Meta{}, nil
}

func (s *fakeStore) Get(ctx context.Context, id string) (models.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return models.Event{}, models.ErrNotFound
	}
	return e, nil
}

func (s *fakeStore) Create(ctx context.Context, e models.Event) (models.Event, error) {
	e.ID = "evt-new"
	s.events[e.ID] = e
	return e, nil
}

func (s *fakeStore) Update(ctx context.Context, e models.Event) (models.Event, error) {
	s.events[e.ID] = e
	return e, nil
}

func (s *fakeStore) SetQRPayload(ctx context.Context, id, payload string) error {
	e := s.events[id]
	e.QRPayload = payload
	s.events[id] = e
	s.qrSet = payload
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error { return nil }

func (s *fakeStore) Attendees(ctx context.Context, eventID string) ([]models.EventAttendee, error) {
	return nil, nil
}

func (s *fakeStore) UpsertAttendee(ctx context.Context, eventID, userID string, checkInTime *time.Time) error {
	s.attendees++
	return nil
}

type fakeUsers struct {
	users map[string]models.User
}

func (f *fakeUsers) Get(ctx context.Context, id string) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

type fakeRecorder struct {
	records []models.AttendanceRecord
}

func (f *fakeRecorder) Record(ctx context.Context, rec models.AttendanceRecord) (models.AttendanceRecord, error) {
	rec.ID = "rec-1"
	f.records = append(f.records, rec)
	return rec, nil
}

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func activeEvent(id string) models.Event {
	return models.Event{
		ID:           id,
		Name:         "Orientation",
		StartAt:      testNow.Add(-30 * time.Minute),
		EndAt:        testNow.Add(time.Hour),
		AttendeeType: models.AttendeesAll,
		IsActive:     true,
	}
}

func newTestService(store *fakeStore, users *fakeUsers, rec *fakeRecorder) *Service {
	svc := NewService(store, users, rec, queue.NewInMemory(4), nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestCreateValidation(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeUsers{}, &fakeRecorder{})

	tests := []struct {
		name  string
		event models.Event
		field string
	}{
		{"missing name", models.Event{StartAt: testNow, EndAt: testNow.Add(time.Hour), AttendeeType: models.AttendeesAll}, "name"},
		{"end before start", models.Event{Name: "X", StartAt: testNow, EndAt: testNow.Add(-time.Hour), AttendeeType: models.AttendeesAll}, "end_at"},
		{"department type without departments", models.Event{Name: "X", StartAt: testNow, EndAt: testNow.Add(time.Hour), AttendeeType: models.AttendeesDepartment}, "eligible_departments"},
		{"specific type without users", models.Event{Name: "X", StartAt: testNow, EndAt: testNow.Add(time.Hour), AttendeeType: models.AttendeesSpecific}, "eligible_users"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.event)
			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("want ValidationError, got %v", err)
			}
			if verr.Fields[tt.field] == "" {
				t.Fatalf("want error on %s, got %v", tt.field, verr.Fields)
			}
		})
	}
	if len(store.events) != 0 {
		t.Fatal("invalid events must not be stored")
	}
}

func TestGenerateQRKeepsExistingPayload(t *testing.T) {
	e := activeEvent("evt-1")
	e.QRPayload = "faceattend:evt:evt-1:existing"
	store := newFakeStore(e)
	svc := newTestService(store, &fakeUsers{}, &fakeRecorder{})

	payload, err := svc.GenerateQR(context.Background(), "evt-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if payload != e.QRPayload {
		t.Fatalf("payload changed: %q", payload)
	}
	if store.qrSet != "" {
		t.Fatal("existing payload should not be rewritten")
	}
}

func TestRegenerateQRAlwaysReplaces(t *testing.T) {
	e := activeEvent("evt-1")
	e.QRPayload = "faceattend:evt:evt-1:old"
	store := newFakeStore(e)
	svc := newTestService(store, &fakeUsers{}, &fakeRecorder{})

	payload, err := svc.RegenerateQR(context.Background(), "evt-1")
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if payload == e.QRPayload {
		t.Fatal("payload should have been replaced")
	}
	if !strings.HasPrefix(payload, "faceattend:evt:evt-1:") {
		t.Fatalf("unexpected payload %q", payload)
	}
}

func TestManualCheckInRecordsAndRegistersAttendee(t *testing.T) {
	store := newFakeStore(activeEvent("evt-1"))
	users := &fakeUsers{users: map[string]models.User{
		"user-1": {ID: "user-1", Name: "Ada", IsActive: true},
	}}
	rec := &fakeRecorder{}
	svc := newTestService(store, users, rec)

	record, err := svc.ManualCheckIn(context.Background(), "evt-1", "user-1", "Front desk", "")
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if record.Status != models.StatusLate {
		// Event started 30 minutes ago, past the 15 minute grace.
		t.Fatalf("status = %s, want late", record.Status)
	}
	if record.CheckIn.Time == nil || !record.CheckIn.Time.Equal(testNow) {
		t.Fatalf("check-in time = %v", record.CheckIn.Time)
	}
	if store.attendees != 1 {
		t.Fatalf("attendee upserts = %d, want 1", store.attendees)
	}
}

func TestManualCheckInWithinGraceIsPresent(t *testing.T) {
	e := activeEvent("evt-1")
	e.StartAt = testNow.Add(-10 * time.Minute)
	store := newFakeStore(e)
	users := &fakeUsers{users: map[string]models.User{"user-1": {ID: "user-1"}}}
	svc := newTestService(store, users, &fakeRecorder{})

	record, err := svc.ManualCheckIn(context.Background(), "evt-1", "user-1", "", "")
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if record.Status != models.StatusPresent {
		t.Fatalf("status = %s, want present", record.Status)
	}
}

func TestManualCheckInRejectsCompletedEvent(t *testing.T) {
	e := activeEvent("evt-1")
	e.StartAt = testNow.Add(-3 * time.Hour)
	e.EndAt = testNow.Add(-time.Hour)
	store := newFakeStore(e)
	svc := newTestService(store, &fakeUsers{}, &fakeRecorder{})

	_, err := svc.ManualCheckIn(context.Background(), "evt-1", "user-1", "", "")
	if !errors.Is(err, ErrEventClosed) {
		t.Fatalf("want ErrEventClosed, got %v", err)
	}
}

func TestManualCheckInEligibility(t *testing.T) {
	deptA := "dept-a"
	deptB := "dept-b"
	users := &fakeUsers{users: map[string]models.User{
		"in-dept":  {ID: "in-dept", DepartmentID: &deptA},
		"other":    {ID: "other", DepartmentID: &deptB},
		"no-dept":  {ID: "no-dept"},
		"specific": {ID: "specific"},
	}}

	deptEvent := activeEvent("evt-dept")
	deptEvent.AttendeeType = models.AttendeesDepartment
	deptEvent.EligibleDepartments = []string{deptA}

	specificEvent := activeEvent("evt-spec")
	specificEvent.AttendeeType = models.AttendeesSpecific
	specificEvent.EligibleUsers = []string{"specific"}

	store := newFakeStore(deptEvent, specificEvent)
	svc := newTestService(store, users, &fakeRecorder{})
	ctx := context.Background()

	if _, err := svc.ManualCheckIn(ctx, "evt-dept", "in-dept", "", ""); err != nil {
		t.Fatalf("eligible department member rejected: %v", err)
	}
	if _, err := svc.ManualCheckIn(ctx, "evt-dept", "other", "", ""); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("other department should be ineligible, got %v", err)
	}
	if _, err := svc.ManualCheckIn(ctx, "evt-dept", "no-dept", "", ""); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("user without department should be ineligible, got %v", err)
	}
	if _, err := svc.ManualCheckIn(ctx, "evt-spec", "specific", "", ""); err != nil {
		t.Fatalf("listed user rejected: %v", err)
	}
	if _, err := svc.ManualCheckIn(ctx, "evt-spec", "in-dept", "", ""); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("unlisted user should be ineligible, got %v", err)
	}
}

func TestManualCheckInUnknownUser(t *testing.T) {
	store := newFakeStore(activeEvent("evt-1"))
	svc := newTestService(store, &fakeUsers{users: map[string]models.User{}}, &fakeRecorder{})

	_, err := svc.ManualCheckIn(context.Background(), "evt-1", "ghost", "", "")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
