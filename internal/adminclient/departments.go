package adminclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"faceattend/internal/models"
	"faceattend/internal/paging"
)

// DepartmentFilters narrow the department listing.
type DepartmentFilters struct {
	Search string
	Active *bool
	Page   int
}

func (f DepartmentFilters) query() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Active != nil {
		q.Set("active", strconv.FormatBool(*f.Active))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

// DepartmentPage is one page of departments.
type DepartmentPage struct {
	Departments []models.Department `json:"departments"`
	Pagination  paging.Meta         `json:"pagination"`
}

// DepartmentInput carries the writable department fields.
type DepartmentInput struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Manager     string `json:"manager,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

func (c *Client) ListDepartments(ctx context.Context, f DepartmentFilters) (DepartmentPage, error) {
	var page DepartmentPage
	err := c.do(ctx, http.MethodGet, "/api/departments", f.query(), nil, &page)
	return page, err
}

func (c *Client) GetDepartment(ctx context.Context, id string) (models.Department, error) {
	var out struct {
		Department models.Department `json:"department"`
	}
	err := c.do(ctx, http.MethodGet, "/api/departments/"+id, nil, nil, &out)
	return out.Department, err
}

func (c *Client) CreateDepartment(ctx context.Context, in DepartmentInput) (models.Department, error) {
	var out struct {
		Department models.Department `json:"department"`
	}
	err := c.do(ctx, http.MethodPost, "/api/departments", nil, in, &out)
	return out.Department, err
}

func (c *Client) UpdateDepartment(ctx context.Context, id string, in DepartmentInput) (models.Department, error) {
	var out struct {
		Department models.Department `json:"department"`
	}
	err := c.do(ctx, http.MethodPut, "/api/departments/"+id, nil, in, &out)
	return out.Department, err
}

func (c *Client) DeleteDepartment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/departments/"+id, nil, nil, nil)
}
