package httpapi

import (
	"errors"
	"net/http"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
	"github.com/soramitsu/iroha-explorer/internal/store"
)

// notFoundBody is the 404 envelope spec.md §4.6 requires: the bare
// {"error": "..."} shape extended with the entity and id that were looked
// up, so clients can render a useful message without parsing it out of text.
type notFoundBody struct {
	Error  string `json:"error"`
	Entity string `json:"entity"`
	ID     string `json:"id"`
}

// writeStoreError maps a store-layer error to its HTTP status and body per
// the error taxonomy in spec.md §7: NotFoundError -> 404, ValidationError ->
// 400, anything else (StoreError, a bare driver error) -> 500.
func writeStoreError(w http.ResponseWriter, err error) {
	var nf *store.NotFoundError
	if errors.As(err, &nf) {
		httputil.WriteJSON(w, http.StatusNotFound, notFoundBody{Error: "not found", Entity: nf.Entity, ID: nf.ID})
		return
	}

	var ve *store.ValidationError
	if errors.As(err, &ve) {
		httputil.BadRequest(w, ve.Error())
		return
	}

	httputil.InternalError(w, "")
}

// writeUpstreamUnavailable answers 503 with the fixed envelope spec.md §4.6
// names for "upstream chain unreachable when required".
func writeUpstreamUnavailable(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.ErrorResponse{Error: "upstream_unavailable"})
}
