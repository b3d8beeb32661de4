package models

import (
	"time"
)

// Role classifies a user account.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// Valid returns true when the role is a supported value.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	default:
		return false
	}
}

// AttendanceStatus is the daily present/late/absent state of a record,
// independent of check-in/check-out verification.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusLate    AttendanceStatus = "late"
	StatusAbsent  AttendanceStatus = "absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent:
		return true
	default:
		return false
	}
}

// AttendeeType determines who may register for or be checked into an event.
type AttendeeType string

const (
	AttendeesAll        AttendeeType = "all"
	AttendeesDepartment AttendeeType = "department"
	AttendeesSpecific   AttendeeType = "specific"
)

// Valid returns true when the attendee type is a supported value.
func (t AttendeeType) Valid() bool {
	switch t {
	case AttendeesAll, AttendeesDepartment, AttendeesSpecific:
		return true
	default:
		return false
	}
}

// EventStatus is derived from the current time, never stored.
type EventStatus string

const (
	EventCompleted EventStatus = "Completed"
	EventUpcoming  EventStatus = "Upcoming"
	EventActive    EventStatus = "Active"
)

// User is an account known to the attendance system.
type User struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Role           Role       `json:"role"`
	RegistrationID *string    `json:"registration_id,omitempty"`
	DepartmentID   *string    `json:"department_id,omitempty"`
	DepartmentName *string    `json:"department_name,omitempty"`
	IsActive       bool       `json:"is_active"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Department groups users and events.
type Department struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Manager     string    `json:"manager,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Event is a scheduled occasion users check into.
type Event struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Description         string       `json:"description,omitempty"`
	StartAt             time.Time    `json:"start_at"`
	EndAt               time.Time    `json:"end_at"`
	Location            string       `json:"location,omitempty"`
	DepartmentID        *string      `json:"department_id,omitempty"`
	DepartmentName      *string      `json:"department_name,omitempty"`
	AttendeeType        AttendeeType `json:"attendee_type"`
	EligibleDepartments []string     `json:"eligible_departments,omitempty"`
	EligibleUsers       []string     `json:"eligible_users,omitempty"`
	IsActive            bool         `json:"is_active"`
	QRPayload           string       `json:"qr_payload,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// StatusAt derives the event phase from the clock: ended events are
// Completed, not-yet-started events are Upcoming, everything else Active.
func (e Event) StatusAt(now time.Time) EventStatus {
	switch {
	case e.EndAt.Before(now):
		return EventCompleted
	case e.StartAt.After(now):
		return EventUpcoming
	default:
		return EventActive
	}
}

// CheckLeg is one half of an attendance record: the check-in or the
// check-out, each independently verifiable by an admin.
type CheckLeg struct {
	Time     *time.Time `json:"time,omitempty"`
	Verified *bool      `json:"verified,omitempty"`
	Location string     `json:"location,omitempty"`
	ImageURL string     `json:"image_url,omitempty"`
}

// Rejected reports whether an admin explicitly rejected this leg.
func (l CheckLeg) Rejected() bool {
	return l.Verified != nil && !*l.Verified
}

// AttendanceRecord is one user's attendance for one date, optionally tied
// to an event.
type AttendanceRecord struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	UserName  *string          `json:"user_name,omitempty"`
	EventID   *string          `json:"event_id,omitempty"`
	EventName *string          `json:"event_name,omitempty"`
	Date      time.Time        `json:"date"`
	Status    AttendanceStatus `json:"status"`
	CheckIn   CheckLeg         `json:"check_in"`
	CheckOut  CheckLeg         `json:"check_out"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// IsVerified classifies the record: verified exactly when neither leg has
// been explicitly rejected. A leg that was never reviewed does not count
// against the record.
func (r AttendanceRecord) IsVerified() bool {
	return !r.CheckIn.Rejected() && !r.CheckOut.Rejected()
}

// EventAttendee joins an event and a user.
type EventAttendee struct {
	EventID      string     `json:"event_id"`
	UserID       string     `json:"user_id"`
	UserName     *string    `json:"user_name,omitempty"`
	UserEmail    *string    `json:"user_email,omitempty"`
	RegisteredAt time.Time  `json:"registered_at"`
	CheckInTime  *time.Time `json:"check_in_time,omitempty"`
}
