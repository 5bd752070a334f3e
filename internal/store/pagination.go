package store

import "github.com/soramitsu/iroha-explorer/internal/httputil"

// PageRequest carries already-validated page/per_page values (see
// httputil.ParsePagination, which enforces page >= 1 and 1 <= per_page <= 100).
type PageRequest struct {
	Page    int
	PerPage int
}

// limitOffset returns the SQL LIMIT/OFFSET pair for this page request.
func (p PageRequest) limitOffset() (limit, offset int) {
	return p.PerPage, (p.Page - 1) * p.PerPage
}

// newPage builds the response envelope for a listing query, given the rows
// fetched for the current page and the total row count from a COUNT(*) query
// run in the same call.
func newPage[T any](items []T, req PageRequest, total int) httputil.Page[T] {
	t := total
	return httputil.NewPage(items, req.Page, req.PerPage, &t)
}
