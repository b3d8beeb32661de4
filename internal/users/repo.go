package users

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

const userColumns = `u.id, u.name, u.email, u.role, u.registration_id, u.department_id, d.name,
	u.is_active, u.last_login_at, u.created_at, u.updated_at`

// Filters narrow the user listing. An empty search term means no filter.
type Filters struct {
	Search       string
	Role         string
	DepartmentID string
	Active       *bool
	From, To     time.Time
}

// Stats are the aggregate counts the dashboard shows above the user list.
type Stats struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	Inactive int            `json:"inactive"`
	ByRole   map[string]int `json:"by_role"`
}

// Repository persists users in Postgres.
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
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(u.name ILIKE $%d OR u.email ILIKE $%d)", n, n))
	}
	if f.Role != "" {
		args = append(args, f.Role)
		clauses = append(clauses, fmt.Sprintf("u.role = $%d", len(args)))
	}
	if f.DepartmentID != "" {
		args = append(args, f.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("u.department_id = $%d", len(args)))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		clauses = append(clauses, fmt.Sprintf("u.is_active = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		clauses = append(clauses, fmt.Sprintf("u.created_at >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		clauses = append(clauses, fmt.Sprintf("u.created_at <= $%d", len(args)))
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

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.RegistrationID, &u.DepartmentID,
		&u.DepartmentName, &u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// List returns one page of users matching the filters plus pagination
// metadata from the full match count.
func (r *Repository) List(ctx context.Context, f Filters, page int) ([]models.User, paging.Meta, error) {
	where, args := f.where()

	var total int
	count := "SELECT COUNT(*) FROM users u LEFT JOIN departments d ON d.id = u.department_id" + where
	if err := r.db.QueryRowContext(ctx, count, args...).Scan(&total); err != nil {
		return nil, paging.Meta{}, err
	}
	meta := paging.NewMeta(page, paging.DefaultPageSize, total)

	query := fmt.Sprintf(`
		SELECT %s
		FROM users u LEFT JOIN departments d ON d.id = u.department_id%s
		ORDER BY u.name
		LIMIT $%d OFFSET $%d`, userColumns, where, len(args)+1, len(args)+2)
	args = append(args, meta.PageSize, meta.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	defer rows.Close()

	var res []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, paging.Meta{}, err
		}
		res = append(res, u)
	}
	return res, meta, rows.Err()
}

// All returns every user matching the filters, for CSV export.
func (r *Repository) All(ctx context.Context, f Filters) ([]models.User, error) {
	where, args := f.where()
	query := fmt.Sprintf(`
		SELECT %s
		FROM users u LEFT JOIN departments d ON d.id = u.department_id%s
		ORDER BY u.name`, userColumns, where)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// Get returns a single user by id.
func (r *Repository) Get(ctx context.Context, id string) (models.User, error) {
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM users u LEFT JOIN departments d ON d.id = u.department_id
		WHERE u.id = $1`, userColumns), id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrNotFound
	}
	return u, err
}

// UserByID satisfies the auth credential store.
func (r *Repository) UserByID(ctx context.Context, id string) (models.User, error) {
	return r.Get(ctx, id)
}

// UserByEmail returns a user and their password hash for login checks.
func (r *Repository) UserByEmail(ctx context.Context, email string) (models.User, string, error) {
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s, u.password_hash
		FROM users u LEFT JOIN departments d ON d.id = u.department_id
		WHERE lower(u.email) = lower($1)`, userColumns), email)
	var u models.User
	var hash string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.RegistrationID, &u.DepartmentID,
		&u.DepartmentName, &u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, "", models.ErrNotFound
	}
	return u, hash, err
}

// TouchLastLogin stamps a successful login.
func (r *Repository) TouchLastLogin(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	return err
}

// Create inserts a user with a pre-hashed password.
func (r *Repository) Create(ctx context.Context, u models.User, passwordHash string) (models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, registration_id, department_id, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at
	`, u.ID, u.Name, u.Email, passwordHash, u.Role, u.RegistrationID, u.DepartmentID, u.IsActive)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Update rewrites a user's editable fields.
func (r *Repository) Update(ctx context.Context, u models.User) (models.User, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET name = $2, email = $3, role = $4, registration_id = $5, department_id = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, u.ID, u.Name, u.Email, u.Role, u.RegistrationID, u.DepartmentID, u.IsActive)
	err := row.Scan(&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// SetPassword replaces a user's password hash.
func (r *Repository) SetPassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes a user; their attendance records cascade.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// BulkDelete removes several users at once.
func (r *Repository) BulkDelete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders, args := inArgs(ids)
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// BulkSetActive flips the active flag for several users at once.
func (r *Repository) BulkSetActive(ctx context.Context, ids []string, active bool) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders, args := inArgs(ids)
	args = append(args, active)
	query := fmt.Sprintf(`UPDATE users SET is_active = $%d, updated_at = NOW() WHERE id IN (%s)`, len(args), placeholders)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Stats returns aggregate user counts.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByRole: map[string]int{}}
	rows, err := r.db.QueryContext(ctx, `
		SELECT role, is_active, COUNT(*)
		FROM users
		GROUP BY role, is_active
	`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		var active bool
		var count int
		if err := rows.Scan(&role, &active, &count); err != nil {
			return Stats{}, err
		}
		stats.Total += count
		stats.ByRole[role] += count
		if active {
			stats.Active += count
		} else {
			stats.Inactive += count
		}
	}
	return stats, rows.Err()
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, userID, expiresAt)
	return err
}

// RefreshTokenActive reports whether a refresh token is known, unexpired
// and not revoked.
func (r *Repository) RefreshTokenActive(ctx context.Context, token string) (bool, error) {
	var active bool
	err := r.db.QueryRowContext(ctx, `
		SELECT NOT revoked AND expires_at > NOW()
		FROM refresh_tokens WHERE token = $1
	`, token).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return active, err
}

// RevokeRefreshToken marks a token revoked.
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, token)
	return err
}

// inArgs builds "$1,$2,..." placeholders for an IN clause.
func inArgs(ids []string) (string, []any) {
	placeholders := ""
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders += ","
		}
		placeholders += fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}
	return placeholders, args
}
