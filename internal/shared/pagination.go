package shared

import "math"

// Pagination contains metadata for paginated listings. Pages are
// zero-indexed to match the BeSy API's page envelope.
type Pagination struct {
	Page       int
	Size       int
	Total      int64
	TotalPages int
}

// NewPagination computes pagination metadata.
func NewPagination(page, size int, total int64) Pagination {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	totalPages := int(math.Ceil(float64(total) / float64(size)))
	return Pagination{Page: page, Size: size, Total: total, TotalPages: totalPages}
}

// Offset returns the SQL offset for the page.
func (p Pagination) Offset() int {
	return p.Page * p.Size
}
