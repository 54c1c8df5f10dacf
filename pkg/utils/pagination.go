package utils

// Page sizes for list endpoints such as the admin review queue.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams is a bounded page request
type PaginationParams struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// PaginationMeta is returned alongside a page of results
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

// NewPaginationParams normalises client input. A missing or non-positive
// limit falls back to DefaultPageSize and anything above MaxPageSize is
// clamped, so a listing never returns an unbounded result set.
func NewPaginationParams(page, limit int) PaginationParams {
	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	return PaginationParams{Page: page, Limit: limit}
}

// Offset is the number of rows to skip
func (p PaginationParams) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Meta describes where this page sits in a result set of totalCount rows.
func (p PaginationParams) Meta(totalCount int64) PaginationMeta {
	p = NewPaginationParams(p.Page, p.Limit)
	if totalCount < 0 {
		totalCount = 0
	}
	limit := int64(p.Limit)
	totalPages := int((totalCount + limit - 1) / limit)
	return PaginationMeta{
		Page:       p.Page,
		Limit:      p.Limit,
		TotalCount: totalCount,
		TotalPages: totalPages,
		HasMore:    p.Page < totalPages,
	}
}
