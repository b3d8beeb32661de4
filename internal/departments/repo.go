package departments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"faceattend/internal/models"
	"faceattend/internal/paging"
)

// Filters narrow the department listing. An empty search term means no
// filter at all, not an empty-string match.
type Filters struct {
	Search string
	Active *bool
}

// Repository persists departments in Postgres.
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
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", n, n))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		clauses = append(clauses, fmt.Sprintf("is_active = $%d", len(args)))
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

// List returns one page of departments matching the filters, newest name
// first, with pagination metadata computed from the full match count.
func (r *Repository) List(ctx context.Context, f Filters, page int) ([]models.Department, paging.Meta, error) {
	where, args := f.where()

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM departments"+where, args...).Scan(&total); err != nil {
		return nil, paging.Meta{}, err
	}
	meta := paging.NewMeta(page, paging.DepartmentPageSize, total)

	query := fmt.Sprintf(`
		SELECT id, name, code, description, location, manager, is_active, created_at, updated_at
		FROM departments%s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, meta.PageSize, meta.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	defer rows.Close()

	var res []models.Department
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Code, &d.Description, &d.Location, &d.Manager, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, paging.Meta{}, err
		}
		res = append(res, d)
	}
	return res, meta, rows.Err()
}

// Get returns a single department by id.
func (r *Repository) Get(ctx context.Context, id string) (models.Department, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, code, description, location, manager, is_active, created_at, updated_at
		FROM departments WHERE id = $1
	`, id)
	var d models.Department
	err := row.Scan(&d.ID, &d.Name, &d.Code, &d.Description, &d.Location, &d.Manager, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Department{}, models.ErrNotFound
	}
	return d, err
}

// Create inserts a department.
func (r *Repository) Create(ctx context.Context, d models.Department) (models.Department, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO departments (id, name, code, description, location, manager, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at
	`, d.ID, d.Name, d.Code, d.Description, d.Location, d.Manager, d.IsActive)
	if err := row.Scan(&d.CreatedAt, &d.UpdatedAt); err != nil {
		return models.Department{}, err
	}
	return d, nil
}

// Update rewrites a department's editable fields.
func (r *Repository) Update(ctx context.Context, d models.Department) (models.Department, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE departments
		SET name = $2, code = $3, description = $4, location = $5, manager = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, d.ID, d.Name, d.Code, d.Description, d.Location, d.Manager, d.IsActive)
	err := row.Scan(&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Department{}, models.ErrNotFound
	}
	if err != nil {
		return models.Department{}, err
	}
	return d, nil
}

// Delete removes a department. Users and events referencing it fall back
// to no department.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}
