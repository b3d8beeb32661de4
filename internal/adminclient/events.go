package adminclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"faceattend/internal/models"
	"faceattend/internal/paging"
)

// EventFilters narrow the event listing. Status filters on the derived
// phase: "upcoming", "active" or "completed".
type EventFilters struct {
	Search     string
	Department string
	Status     string
	Active     *bool
	Page       int
}

func (f EventFilters) query() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Department != "" {
		q.Set("department_id", f.Department)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Active != nil {
		q.Set("active", strconv.FormatBool(*f.Active))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

// Event is a server event with its derived status.
type Event struct {
	models.Event
	Status models.EventStatus `json:"status"`
}

// EventPage is one page of events.
type EventPage struct {
	Events     []Event     `json:"events"`
	Pagination paging.Meta `json:"pagination"`
}

// EventInput carries the writable event fields.
type EventInput struct {
	Name                string    `json:"name"`
	Description         string    `json:"description,omitempty"`
	StartAt             time.Time `json:"start_at"`
	EndAt               time.Time `json:"end_at"`
	Location            string    `json:"location,omitempty"`
	DepartmentID        *string   `json:"department_id,omitempty"`
	AttendeeType        string    `json:"attendee_type,omitempty"`
	EligibleDepartments []string  `json:"eligible_departments,omitempty"`
	EligibleUsers       []string  `json:"eligible_users,omitempty"`
	IsActive            *bool     `json:"is_active,omitempty"`
}

func (c *Client) ListEvents(ctx context.Context, f EventFilters) (EventPage, error) {
	var page EventPage
	err := c.do(ctx, http.MethodGet, "/api/events", f.query(), nil, &page)
	return page, err
}

func (c *Client) GetEvent(ctx context.Context, id string) (Event, error) {
	var out struct {
		Event Event `json:"event"`
	}
	err := c.do(ctx, http.MethodGet, "/api/events/"+id, nil, nil, &out)
	return out.Event, err
}

func (c *Client) CreateEvent(ctx context.Context, in EventInput) (Event, error) {
	var out struct {
		Event Event `json:"event"`
	}
	err := c.do(ctx, http.MethodPost, "/api/events", nil, in, &out)
	return out.Event, err
}

func (c *Client) UpdateEvent(ctx context.Context, id string, in EventInput) (Event, error) {
	var out struct {
		Event Event `json:"event"`
	}
	err := c.do(ctx, http.MethodPut, "/api/events/"+id, nil, in, &out)
	return out.Event, err
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/events/"+id, nil, nil, nil)
}

// EventAttendees lists everyone registered for the event.
func (c *Client) EventAttendees(ctx context.Context, id string) ([]models.EventAttendee, error) {
	var out struct {
		Attendees []models.EventAttendee `json:"attendees"`
	}
	err := c.do(ctx, http.MethodGet, "/api/events/"+id+"/attendees", nil, nil, &out)
	return out.Attendees, err
}

// EventQR returns the event's current QR payload, minting one if needed.
func (c *Client) EventQR(ctx context.Context, id string) (string, error) {
	var out struct {
		QRPayload string `json:"qr_payload"`
	}
	err := c.do(ctx, http.MethodPost, "/api/events/"+id+"/qr", nil, nil, &out)
	return out.QRPayload, err
}

// RegenerateEventQR replaces the QR payload, invalidating printed codes.
func (c *Client) RegenerateEventQR(ctx context.Context, id string) (string, error) {
	var out struct {
		QRPayload string `json:"qr_payload"`
	}
	err := c.do(ctx, http.MethodPost, "/api/events/"+id+"/regenerate-qr", nil, nil, &out)
	return out.QRPayload, err
}

// ManualCheckIn records a desk check-in for userID at the event.
// imageData is an optional base64 photo.
func (c *Client) ManualCheckIn(ctx context.Context, eventID, userID, location, imageData string) (models.AttendanceRecord, error) {
	var out struct {
		Record models.AttendanceRecord `json:"record"`
	}
	body := map[string]string{"user_id": userID, "location": location, "image_data": imageData}
	err := c.do(ctx, http.MethodPost, "/api/events/"+eventID+"/manual-checkin", nil, body, &out)
	return out.Record, err
}
