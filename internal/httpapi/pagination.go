package httpapi

import (
	"fmt"
	"net/http"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
	"github.com/soramitsu/iroha-explorer/internal/store"
)

// pageAll is used internally (never from a query parameter) to fetch a
// single bounded page when a detail handler needs a related list in full,
// e.g. a block's transaction hashes.
var pageAll = store.PageRequest{Page: 1, PerPage: httputil.MaxPageSize}

// parsePage reads page/per_page from r, reporting the 400 itself on an
// out-of-range or non-numeric value (ok=false), per spec.md's "out-of-range
// or non-numeric -> 400" rule.
func parsePage(w http.ResponseWriter, r *http.Request) (store.PageRequest, bool) {
	page, perPage, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return store.PageRequest{}, false
	}
	return store.PageRequest{Page: page, PerPage: perPage}, true
}

// allowedFilters rejects a request carrying any query parameter outside
// page/per_page and the handler's own filter keys, reporting the 400 itself
// (ok=false), per spec.md's "Unknown filters -> 400" rule.
func allowedFilters(w http.ResponseWriter, r *http.Request, extra ...string) bool {
	allowed := append([]string{"page", "per_page"}, extra...)
	if bad := httputil.AllowedQueryParams(r, allowed...); bad != "" {
		httputil.BadRequest(w, fmt.Sprintf("unknown query parameter %q", bad))
		return false
	}
	return true
}
