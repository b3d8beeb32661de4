package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"faceattend/internal/models"
	"faceattend/internal/paging"
)

// Leg discriminates which half of a record a verification action targets.
type Leg string

const (
	LegCheckIn  Leg = "checkIn"
	LegCheckOut Leg = "checkOut"
)

// Valid returns true when the leg is a supported value.
func (l Leg) Valid() bool {
	return l == LegCheckIn || l == LegCheckOut
}

func (l Leg) column() string {
	if l == LegCheckOut {
		return "check_out_verified"
	}
	return "check_in_verified"
}

// Verification filter values. "verified" matches records where neither
// leg was explicitly rejected, "rejected" where at least one was, and
// "pending" where no leg was rejected but at least one awaits review.
const (
	VerificationVerified = "verified"
	VerificationPending  = "pending"
	VerificationRejected = "rejected"
)

// Filters narrow the attendance listing.
type Filters struct {
	UserID       string
	EventID      string
	Status       string
	Verification string
	From, To     time.Time
}

// Stats are the aggregate counts shown above the attendance list.
type Stats struct {
	Total               int `json:"total"`
	Present             int `json:"present"`
	Late                int `json:"late"`
	Absent              int `json:"absent"`
	PendingVerification int `json:"pending_verification"`
}

const recordColumns = `a.id, a.user_id, u.name, a.event_id, e.name, a.date, a.status,
	a.check_in_time, a.check_in_verified, a.check_in_location, a.check_in_image_url,
	a.check_out_time, a.check_out_verified, a.check_out_location, a.check_out_image_url,
	a.created_at, a.updated_at`

const recordJoins = ` FROM attendance_records a
	LEFT JOIN users u ON u.id = a.user_id
	LEFT JOIN events e ON e.id = a.event_id`

// Repository persists attendance records in Postgres.
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
	if f.UserID != "" {
		args = append(args, f.UserID)
		clauses = append(clauses, fmt.Sprintf("a.user_id = $%d", len(args)))
	}
	if f.EventID != "" {
		args = append(args, f.EventID)
		clauses = append(clauses, fmt.Sprintf("a.event_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, fmt.Sprintf("a.status = $%d", len(args)))
	}
	switch f.Verification {
	case VerificationVerified:
		clauses = append(clauses, "COALESCE(a.check_in_verified, TRUE) AND COALESCE(a.check_out_verified, TRUE)")
	case VerificationRejected:
		clauses = append(clauses, "(a.check_in_verified = FALSE OR a.check_out_verified = FALSE)")
	case VerificationPending:
		clauses = append(clauses, "COALESCE(a.check_in_verified, TRUE) AND COALESCE(a.check_out_verified, TRUE) AND (a.check_in_verified IS NULL OR a.check_out_verified IS NULL)")
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		clauses = append(clauses, fmt.Sprintf("a.date >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		clauses = append(clauses, fmt.Sprintf("a.date <= $%d", len(args)))
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

func scanRecord(row interface{ Scan(...any) error }) (models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := row.Scan(&rec.ID, &rec.UserID, &rec.UserName, &rec.EventID, &rec.EventName,
		&rec.Date, &rec.Status,
		&rec.CheckIn.Time, &rec.CheckIn.Verified, &rec.CheckIn.Location, &rec.CheckIn.ImageURL,
		&rec.CheckOut.Time, &rec.CheckOut.Verified, &rec.CheckOut.Location, &rec.CheckOut.ImageURL,
		&rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

// List returns one page of records matching the filters, newest first.
func (r *Repository) List(ctx context.Context, f Filters, page int) ([]models.AttendanceRecord, paging.Meta, error) {
	where, args := f.where()

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+recordJoins+where, args...).Scan(&total); err != nil {
		return nil, paging.Meta{}, err
	}
	meta := paging.NewMeta(page, paging.DefaultPageSize, total)

	query := fmt.Sprintf("SELECT %s%s%s ORDER BY a.date DESC, a.created_at DESC LIMIT $%d OFFSET $%d",
		recordColumns, recordJoins, where, len(args)+1, len(args)+2)
	args = append(args, meta.PageSize, meta.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	defer rows.Close()

	var res []models.AttendanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, paging.Meta{}, err
		}
		res = append(res, rec)
	}
	return res, meta, rows.Err()
}

// All returns every record matching the filters, for CSV export.
func (r *Repository) All(ctx context.Context, f Filters) ([]models.AttendanceRecord, error) {
	where, args := f.where()
	query := fmt.Sprintf("SELECT %s%s%s ORDER BY a.date DESC, a.created_at DESC", recordColumns, recordJoins, where)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.AttendanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// Recent returns the newest records for one user since a cutoff, capped.
// The user detail page shows the last 30 days, first 10.
func (r *Repository) Recent(ctx context.Context, userID string, since time.Time, limit int) ([]models.AttendanceRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf("SELECT %s%s WHERE a.user_id = $1 AND a.date >= $2 ORDER BY a.date DESC LIMIT $3",
		recordColumns, recordJoins)
	rows, err := r.db.QueryContext(ctx, query, userID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.AttendanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// Get returns a single record by id.
func (r *Repository) Get(ctx context.Context, id string) (models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s%s WHERE a.id = $1", recordColumns, recordJoins)
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.AttendanceRecord{}, models.ErrNotFound
	}
	return rec, err
}

// Insert writes a new record.
func (r *Repository) Insert(ctx context.Context, rec models.AttendanceRecord) (models.AttendanceRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now().UTC()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, user_id, event_id, date, status,
			check_in_time, check_in_verified, check_in_location, check_in_image_url,
			check_out_time, check_out_verified, check_out_location, check_out_image_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at
	`, rec.ID, rec.UserID, rec.EventID, rec.Date, rec.Status,
		rec.CheckIn.Time, rec.CheckIn.Verified, rec.CheckIn.Location, rec.CheckIn.ImageURL,
		rec.CheckOut.Time, rec.CheckOut.Verified, rec.CheckOut.Location, rec.CheckOut.ImageURL)
	if err := row.Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return models.AttendanceRecord{}, err
	}
	return rec, nil
}

// SetLegVerified records an admin decision on one leg.
func (r *Repository) SetLegVerified(ctx context.Context, id string, leg Leg, verified bool) error {
	query := fmt.Sprintf(`UPDATE attendance_records SET %s = $2, updated_at = NOW() WHERE id = $1`, leg.column())
	res, err := r.db.ExecContext(ctx, query, id, verified)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// BulkVerify approves both legs of several records at once.
func (r *Repository) BulkVerify(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := ""
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders += ","
		}
		placeholders += fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance_records
		SET check_in_verified = TRUE, check_out_verified = TRUE, updated_at = NOW()
		WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Delete removes a record.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Stats returns aggregate counts scoped by the same filters as the list.
func (r *Repository) Stats(ctx context.Context, f Filters) (Stats, error) {
	// Verification scoping is left out of the stats query on purpose:
	// the pending count must cover the whole filtered date range.
	scoped := f
	scoped.Verification = ""
	where, args := scoped.where()

	var stats Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE a.status = 'present'),
			COUNT(*) FILTER (WHERE a.status = 'late'),
			COUNT(*) FILTER (WHERE a.status = 'absent'),
			COUNT(*) FILTER (WHERE COALESCE(a.check_in_verified, TRUE) AND COALESCE(a.check_out_verified, TRUE)
				AND (a.check_in_verified IS NULL OR a.check_out_verified IS NULL))
		`+recordJoins+where, args...).
		Scan(&stats.Total, &stats.Present, &stats.Late, &stats.Absent, &stats.PendingVerification)
	return stats, err
}
