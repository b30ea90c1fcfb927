package domain

// PagedResult is a page view over an ordered result set. It is computed per
// request and never stored.
type PagedResult[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// NewPagedResult assembles a page, deriving TotalPages as
// ceil(totalCount/pageSize).
func NewPagedResult[T any](items []T, totalCount, page, pageSize int) PagedResult[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalCount + pageSize - 1) / pageSize
	}
	return PagedResult[T]{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
