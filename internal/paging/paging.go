package paging

import "strconv"

// Page sizes are fixed per resource. Departments render in a 3x3 card
// grid, everything else in 10-row tables.
const (
	DefaultPageSize    = 10
	DepartmentPageSize = 9
)

// Meta describes one page of a counted collection. Page indexes are
// 1-based; TotalPages is at least 1 even for an empty collection so the
// bounds logic stays uniform.
type Meta struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalCount int  `json:"total_count"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// NewMeta computes metadata for a requested page, clamping a request
// beyond the last page to the last page. Previous is available exactly
// when the page is not 1; Next exactly when it is not the last.
func NewMeta(page, pageSize, totalCount int) Meta {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	totalPages := (totalCount + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return Meta{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}

// Offset returns the row offset for the (already clamped) page.
func (m Meta) Offset() int {
	return (m.Page - 1) * m.PageSize
}

// ParsePage extracts a 1-based page number from a query value.
// Returns 1 if missing or invalid.
func ParsePage(s string) int {
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
