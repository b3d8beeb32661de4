package adminclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"faceattend/internal/models"
	"faceattend/internal/paging"
)

// AttendanceFilters narrow the record listing. Verification is one of
// "verified", "pending" or "rejected".
type AttendanceFilters struct {
	UserID       string
	EventID      string
	Status       string
	Verification string
	Start        string // YYYY-MM-DD
	End          string // YYYY-MM-DD
	Page         int
}

func (f AttendanceFilters) query() url.Values {
	q := url.Values{}
	if f.UserID != "" {
		q.Set("user", f.UserID)
	}
	if f.EventID != "" {
		q.Set("event", f.EventID)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Verification != "" {
		q.Set("verification", f.Verification)
	}
	if f.Start != "" {
		q.Set("start", f.Start)
	}
	if f.End != "" {
		q.Set("end", f.End)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

// AttendancePage is one page of records.
type AttendancePage struct {
	Records    []models.AttendanceRecord `json:"records"`
	Pagination paging.Meta               `json:"pagination"`
}

// AttendanceStats is the aggregate card data for the attendance view.
type AttendanceStats struct {
	Total               int `json:"total"`
	Present             int `json:"present"`
	Late                int `json:"late"`
	Absent              int `json:"absent"`
	PendingVerification int `json:"pending_verification"`
}

// Leg discriminators for verify/reject calls.
const (
	LegCheckIn  = "checkIn"
	LegCheckOut = "checkOut"
)

func (c *Client) ListAttendance(ctx context.Context, f AttendanceFilters) (AttendancePage, error) {
	var page AttendancePage
	err := c.do(ctx, http.MethodGet, "/api/attendance", f.query(), nil, &page)
	return page, err
}

func (c *Client) GetAttendance(ctx context.Context, id string) (models.AttendanceRecord, error) {
	var out struct {
		Record models.AttendanceRecord `json:"record"`
	}
	err := c.do(ctx, http.MethodGet, "/api/attendance/"+id, nil, nil, &out)
	return out.Record, err
}

func (c *Client) DeleteAttendance(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/attendance/"+id, nil, nil, nil)
}

func (c *Client) AttendanceStats(ctx context.Context, f AttendanceFilters) (AttendanceStats, error) {
	q := f.query()
	q.Del("page")
	var out struct {
		Stats AttendanceStats `json:"stats"`
	}
	err := c.do(ctx, http.MethodGet, "/api/attendance/admin/stats", q, nil, &out)
	return out.Stats, err
}

// ExportAttendance downloads the filtered records as CSV. The server
// names the file attendance_<start>_to_<end>.csv.
func (c *Client) ExportAttendance(ctx context.Context, f AttendanceFilters) (string, []byte, error) {
	q := f.query()
	q.Del("page")
	return c.download(ctx, "/api/attendance/export", q)
}

// VerifyAttendance approves one leg of a record; leg is LegCheckIn or
// LegCheckOut.
func (c *Client) VerifyAttendance(ctx context.Context, id, leg string) error {
	body := map[string]string{"type": leg}
	return c.do(ctx, http.MethodPut, "/api/attendance/"+id+"/verify", nil, body, nil)
}

// RejectAttendance rejects one leg of a record.
func (c *Client) RejectAttendance(ctx context.Context, id, leg string) error {
	body := map[string]string{"type": leg}
	return c.do(ctx, http.MethodPut, "/api/attendance/"+id+"/reject", nil, body, nil)
}

// BulkVerifyAttendance approves both legs of every given record.
func (c *Client) BulkVerifyAttendance(ctx context.Context, ids []string) (int, error) {
	var out struct {
		Verified int `json:"verified"`
	}
	body := map[string]any{"ids": ids}
	err := c.do(ctx, http.MethodPost, "/api/attendance/bulk-verify", nil, body, &out)
	return out.Verified, err
}
