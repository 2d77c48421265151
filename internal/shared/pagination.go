package shared

// Pagination bounds limit/offset listing parameters.
type Pagination struct {
	Limit  int
	Offset int
}

// NewPagination normalises raw limit/offset values.
func NewPagination(limit, offset, maxLimit int) Pagination {
	if maxLimit <= 0 {
		maxLimit = 100
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Pagination{Limit: limit, Offset: offset}
}
