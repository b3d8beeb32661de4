package adminclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"faceattend/internal/models"
	"faceattend/internal/paging"
)

// UserFilters narrow the user listing. Zero values mean "no filter".
type UserFilters struct {
	Search     string
	Role       string
	Department string
	Active     *bool
	Page       int
}

func (f UserFilters) query() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Role != "" {
		q.Set("role", f.Role)
	}
	if f.Department != "" {
		q.Set("department", f.Department)
	}
	if f.Active != nil {
		q.Set("active", strconv.FormatBool(*f.Active))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

// UserPage is one page of users.
type UserPage struct {
	Users      []models.User `json:"users"`
	Pagination paging.Meta   `json:"pagination"`
}

// UserStats is the aggregate card data for the users view.
type UserStats struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	Inactive int            `json:"inactive"`
	ByRole   map[string]int `json:"by_role"`
}

// UserInput carries the writable user fields.
type UserInput struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Password       string  `json:"password,omitempty"`
	Role           string  `json:"role"`
	RegistrationID *string `json:"registration_id,omitempty"`
	DepartmentID   *string `json:"department_id,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
}

func (c *Client) ListUsers(ctx context.Context, f UserFilters) (UserPage, error) {
	var page UserPage
	err := c.do(ctx, http.MethodGet, "/api/users", f.query(), nil, &page)
	return page, err
}

func (c *Client) GetUser(ctx context.Context, id string) (models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/api/users/"+id, nil, nil, &out)
	return out.User, err
}

func (c *Client) CreateUser(ctx context.Context, in UserInput) (models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/users", nil, in, &out)
	return out.User, err
}

func (c *Client) UpdateUser(ctx context.Context, id string, in UserInput) (models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPut, "/api/users/"+id, nil, in, &out)
	return out.User, err
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/users/"+id, nil, nil, nil)
}

func (c *Client) UserStats(ctx context.Context) (UserStats, error) {
	var out struct {
		Stats UserStats `json:"stats"`
	}
	err := c.do(ctx, http.MethodGet, "/api/users/stats", nil, nil, &out)
	return out.Stats, err
}

// ExportUsers downloads the filtered user list as CSV.
func (c *Client) ExportUsers(ctx context.Context, f UserFilters, start, end string) (string, []byte, error) {
	q := f.query()
	q.Del("page")
	if start != "" {
		q.Set("start", start)
	}
	if end != "" {
		q.Set("end", end)
	}
	return c.download(ctx, "/api/users/export", q)
}

// BulkDeleteUsers removes the given users and returns how many went.
func (c *Client) BulkDeleteUsers(ctx context.Context, ids []string) (int, error) {
	var out struct {
		Deleted int `json:"deleted"`
	}
	body := map[string]any{"ids": ids}
	err := c.do(ctx, http.MethodPost, "/api/users/bulk", nil, body, &out)
	return out.Deleted, err
}

// BulkSetUserStatus activates or deactivates the given users.
func (c *Client) BulkSetUserStatus(ctx context.Context, ids []string, active bool) (int, error) {
	var out struct {
		Updated int `json:"updated"`
	}
	body := map[string]any{"ids": ids, "active": active}
	err := c.do(ctx, http.MethodPost, "/api/users/bulk-status", nil, body, &out)
	return out.Updated, err
}

func (c *Client) ResetUserPassword(ctx context.Context, id, password string) error {
	body := map[string]string{"password": password}
	return c.do(ctx, http.MethodPost, "/api/users/"+id+"/reset-password", nil, body, nil)
}
