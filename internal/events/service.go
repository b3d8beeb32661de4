package events

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"faceattend/internal/models"
	"faceattend/internal/paging"
	"faceattend/internal/queue"
)

// lateGrace is how long after an event starts a manual check-in still
// counts as present rather than late.
const lateGrace = 15 * time.Minute

// Store is the persistence surface the service needs.
type Store interface {
	List(ctx context.Context, f Filters, page int) ([]models.Event, paging.Meta, error)
	Get(ctx context.Context, id string) (models.Event, error)
	Create(ctx context.Context, e models.Event) (models.Event, error)
	Update(ctx context.Context, e models.Event) (models.Event, error)
	SetQRPayload(ctx context.Context, id, payload string) error
	Delete(ctx context.Context, id string) error
	Attendees(ctx context.Context, eventID string) ([]models.EventAttendee, error)
	UpsertAttendee(ctx context.Context, eventID, userID string, checkInTime *time.Time) error
}

// UserGetter resolves users for eligibility checks.
type UserGetter interface {
	Get(ctx context.Context, id string) (models.User, error)
}

// Recorder writes attendance records produced by manual check-ins.
type Recorder interface {
	Record(ctx context.Context, rec models.AttendanceRecord) (models.AttendanceRecord, error)
}

// Publisher hands freshly recorded check-ins to the verification worker.
type Publisher interface {
	Publish(ctx context.Context, msg queue.CheckInMessage) error
}

// Uploader stores a base64 check-in photo and returns its URL.
type Uploader func(data string) (string, error)

// Service validates events and coordinates QR payloads and manual
// check-ins.
type Service struct {
	store    Store
	users    UserGetter
	recorder Recorder
	pub      Publisher
	upload   Uploader
	now      func() time.Time
}

// NewService creates a service. upload may be nil when no image storage
// is configured; pub may be nil in tests.
func NewService(store Store, users UserGetter, recorder Recorder, pub Publisher, upload Uploader) *Service {
	return &Service{
		store:    store,
		users:    users,
		recorder: recorder,
		pub:      pub,
		upload:   upload,
		now:      time.Now,
	}
}

func validate(e models.Event) error {
	verr := models.NewValidationError()
	if strings.TrimSpace(e.Name) == "" {
		verr.Add("name", "name is required")
	}
	if e.StartAt.IsZero() || e.EndAt.IsZero() {
		verr.Add("dates", "start and end dates are required")
	} else if !e.EndAt.After(e.StartAt) {
		verr.Add("end_at", "end date must be after start date")
	}
	if !e.AttendeeType.Valid() {
		verr.Add("attendee_type", "attendee type must be all, department or specific")
	}
	switch e.AttendeeType {
	case models.AttendeesDepartment:
		if len(e.EligibleDepartments) == 0 {
			verr.Add("eligible_departments", "select at least one department")
		}
	case models.AttendeesSpecific:
		if len(e.EligibleUsers) == 0 {
			verr.Add("eligible_users", "select at least one user")
		}
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// List returns one page of events.
func (s *Service) List(ctx context.Context, f Filters, page int) ([]models.Event, paging.Meta, error) {
	return s.store.List(ctx, f, page)
}

// Get returns a single event.
func (s *Service) Get(ctx context.Context, id string) (models.Event, error) {
	return s.store.Get(ctx, id)
}

// Create validates and inserts an event, stamping an initial QR payload.
func (s *Service) Create(ctx context.Context, e models.Event) (models.Event, error) {
	if err := validate(e); err != nil {
		return models.Event{}, err
	}
	e.QRPayload = newQRPayload(e.ID)
	return s.store.Create(ctx, e)
}

// Update validates and rewrites an event.
func (s *Service) Update(ctx context.Context, e models.Event) (models.Event, error) {
	if err := validate(e); err != nil {
		return models.Event{}, err
	}
	return s.store.Update(ctx, e)
}

// Delete removes an event.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Attendees lists everyone registered for an event.
func (s *Service) Attendees(ctx context.Context, id string) ([]models.EventAttendee, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Attendees(ctx, id)
}

// GenerateQR returns the event's QR payload, minting one if the event
// does not have one yet.
func (s *Service) GenerateQR(ctx context.Context, id string) (string, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if e.QRPayload != "" {
		return e.QRPayload, nil
	}
	return s.setQR(ctx, e.ID)
}

// RegenerateQR replaces the event's QR payload unconditionally,
// invalidating any previously printed code.
func (s *Service) RegenerateQR(ctx context.Context, id string) (string, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return "", err
	}
	return s.setQR(ctx, id)
}

func (s *Service) setQR(ctx context.Context, id string) (string, error) {
	payload := newQRPayload(id)
	if err := s.store.SetQRPayload(ctx, id, payload); err != nil {
		return "", err
	}
	return payload, nil
}

// newQRPayload mints an opaque scannable payload. The embedded id lets
// the check-in flow resolve the event; the random suffix makes old codes
// revocable.
func newQRPayload(eventID string) string {
	if eventID == "" {
		eventID = uuid.NewString()
	}
	return fmt.Sprintf("faceattend:evt:%s:%s", eventID, uuid.NewString())
}

// ErrNotEligible is returned when a user fails the event's attendee rule.
var ErrNotEligible = errors.New("user is not eligible for this event")

// ErrEventClosed is returned for manual check-ins to completed or
// deactivated events.
var ErrEventClosed = errors.New("event is not open for check-in")

// ManualCheckIn registers the user as an attendee, records a check-in
// attendance record and queues it for face verification. imageData, when
// present, is a base64 photo captured at the desk.
func (s *Service) ManualCheckIn(ctx context.Context, eventID, userID, location, imageData string) (models.AttendanceRecord, error) {
	e, err := s.store.Get(ctx, eventID)
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	now := s.now()
	if !e.IsActive || e.StatusAt(now) == models.EventCompleted {
		return models.AttendanceRecord{}, ErrEventClosed
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	if !s.eligible(e, user) {
		return models.AttendanceRecord{}, ErrNotEligible
	}

	imageURL := ""
	if imageData != "" && s.upload != nil {
		url, err := s.upload(imageData)
		if err != nil {
			// A failed photo upload does not block the check-in itself.
			log.Printf("check-in image upload failed: %v", err)
		} else {
			imageURL = url
		}
	}

	status := models.StatusPresent
	if now.After(e.StartAt.Add(lateGrace)) {
		status = models.StatusLate
	}

	rec := models.AttendanceRecord{
		UserID:  userID,
		EventID: &e.ID,
		Date:    now.UTC(),
		Status:  status,
		CheckIn: models.CheckLeg{
			Time:     &now,
			Location: location,
			ImageURL: imageURL,
		},
	}
	created, err := s.recorder.Record(ctx, rec)
	if err != nil {
		return models.AttendanceRecord{}, err
	}

	if err := s.store.UpsertAttendee(ctx, e.ID, userID, &now); err != nil {
		log.Printf("attendee upsert failed for event %s: %v", e.ID, err)
	}

	if s.pub != nil {
		msg := queue.CheckInMessage{
			RecordID: created.ID,
			UserID:   userID,
			EventID:  e.ID,
			ImageURL: imageURL,
			At:       now,
		}
		if err := s.pub.Publish(ctx, msg); err != nil {
			log.Printf("queue publish failed: %v", err)
		}
	}
	return created, nil
}

// eligible applies the event's attendee rule to a user.
func (s *Service) eligible(e models.Event, u models.User) bool {
	switch e.AttendeeType {
	case models.AttendeesAll:
		return true
	case models.AttendeesDepartment:
		if u.DepartmentID == nil {
			return false
		}
		for _, id := range e.EligibleDepartments {
			if id == *u.DepartmentID {
				return true
			}
		}
		return false
	case models.AttendeesSpecific:
		for _, id := range e.EligibleUsers {
			if id == u.ID {
				return true
			}
		}
		return false
	default:
		return false
	}
}
