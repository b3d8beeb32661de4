package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"faceattend/internal/models"
	"faceattend/internal/paging"
)

// Filters narrow the event listing. Phase filters on derived status.
type Filters struct {
	Search       string
	DepartmentID string
	Active       *bool
	Phase        string // "upcoming", "active" or "completed"
}

const eventColumns = `e.id, e.name, e.description, e.start_at, e.end_at, e.location,
	e.department_id, d.name, e.attendee_type, e.eligible_departments, e.eligible_users,
	e.is_active, e.qr_payload, e.created_at, e.updated_at`

const eventJoins = ` FROM events e LEFT JOIN departments d ON d.id = e.department_id`

// Repository persists events in Postgres. Eligibility lists live in JSONB
// columns.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (f Filters) where() (string, []any) {
	clauses := []string{}
	args := []any{}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		clauses = append(clauses, fmt.Sprintf("e.name ILIKE $%d", len(args)))
	}
	if f.DepartmentID != "" {
		args = append(args, f.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("e.department_id = $%d", len(args)))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		clauses = append(clauses, fmt.Sprintf("e.is_active = $%d", len(args)))
	}
	switch f.Phase {
	case "completed":
		clauses = append(clauses, "e.end_at < NOW()")
	case "upcoming":
		clauses = append(clauses, "e.start_at > NOW()")
	case "active":
		clauses = append(clauses, "e.start_at <= NOW() AND e.end_at >= NOW()")
	}
	if len(clauses) == 0 {
		return "", args
	}
	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

func scanEvent(row interface{ Scan(...any) error }) (models.Event, error) {
	var e models.Event
	var eligibleDepts, eligibleUsers []byte
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.StartAt, &e.EndAt, &e.Location,
		&e.DepartmentID, &e.DepartmentName, &e.AttendeeType, &eligibleDepts, &eligibleUsers,
		&e.IsActive, &e.QRPayload, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return models.Event{}, err
	}
	if err := json.Unmarshal(eligibleDepts, &e.EligibleDepartments); err != nil {
		return models.Event{}, fmt.Errorf("decode eligible departments: %w", err)
	}
	if err := json.Unmarshal(eligibleUsers, &e.EligibleUsers); err != nil {
		return models.Event{}, fmt.Errorf("decode eligible users: %w", err)
	}
	return e, nil
}

func marshalList(list []string) []byte {
	if list == nil {
		list = []string{}
	}
	data, _ := json.Marshal(list)
	return data
}

// List returns one page of events matching the filters, soonest first.
func (r *Repository) List(ctx context.Context, f Filters, page int) ([]models.Event, paging.Meta, error) {
	where, args := f.where()

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+eventJoins+where, args...).Scan(&total); err != nil {
		return nil, paging.Meta{}, err
	}
	meta := paging.NewMeta(page, paging.DefaultPageSize, total)

	query := fmt.Sprintf("SELECT %s%s%s ORDER BY e.start_at DESC LIMIT $%d OFFSET $%d",
		eventColumns, eventJoins, where, len(args)+1, len(args)+2)
	args = append(args, meta.PageSize, meta.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	defer rows.Close()

	var res []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, paging.Meta{}, err
		}
		res = append(res, e)
	}
	return res, meta, rows.Err()
}

// Get returns a single event by id.
func (r *Repository) Get(ctx context.Context, id string) (models.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT %s%s WHERE e.id = $1", eventColumns, eventJoins), id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Event{}, models.ErrNotFound
	}
	return e, err
}

// Create inserts an event.
func (r *Repository) Create(ctx context.Context, e models.Event) (models.Event, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO events (id, name, description, start_at, end_at, location, department_id,
			attendee_type, eligible_departments, eligible_users, is_active, qr_payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at
	`, e.ID, e.Name, e.Description, e.StartAt, e.EndAt, e.Location, e.DepartmentID,
		e.AttendeeType, marshalList(e.EligibleDepartments), marshalList(e.EligibleUsers), e.IsActive, e.QRPayload)
	if err := row.Scan(&e.CreatedAt, &e.UpdatedAt); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// Update rewrites an event's editable fields. The QR payload is managed
// separately by SetQRPayload.
func (r *Repository) Update(ctx context.Context, e models.Event) (models.Event, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE events
		SET name = $2, description = $3, start_at = $4, end_at = $5, location = $6,
			department_id = $7, attendee_type = $8, eligible_departments = $9,
			eligible_users = $10, is_active = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING qr_payload, created_at, updated_at
	`, e.ID, e.Name, e.Description, e.StartAt, e.EndAt, e.Location, e.DepartmentID,
		e.AttendeeType, marshalList(e.EligibleDepartments), marshalList(e.EligibleUsers), e.IsActive)
	err := row.Scan(&e.QRPayload, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Event{}, models.ErrNotFound
	}
	if err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// SetQRPayload replaces the event's QR payload.
func (r *Repository) SetQRPayload(ctx context.Context, id, payload string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE events SET qr_payload = $2, updated_at = NOW() WHERE id = $1`, id, payload)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes an event; attendees and attendance records cascade.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Attendees lists everyone registered for an event.
func (r *Repository) Attendees(ctx context.Context, eventID string) ([]models.EventAttendee, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ea.event_id, ea.user_id, u.name, u.email, ea.registered_at, ea.check_in_time
		FROM event_attendees ea
		LEFT JOIN users u ON u.id = ea.user_id
		WHERE ea.event_id = $1
		ORDER BY ea.registered_at
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.EventAttendee
	for rows.Next() {
		var a models.EventAttendee
		if err := rows.Scan(&a.EventID, &a.UserID, &a.UserName, &a.UserEmail, &a.RegisteredAt, &a.CheckInTime); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// UpsertAttendee registers a user for an event, stamping the check-in
// time when one is provided. Re-registration keeps the original
// registered_at.
func (r *Repository) UpsertAttendee(ctx context.Context, eventID, userID string, checkInTime *time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO event_attendees (event_id, user_id, check_in_time)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, user_id) DO UPDATE SET
			check_in_time = COALESCE(EXCLUDED.check_in_time, event_attendees.check_in_time)
	`, eventID, userID, checkInTime)
	return err
}
