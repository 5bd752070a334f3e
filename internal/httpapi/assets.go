package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
	"github.com/soramitsu/iroha-explorer/internal/store"
)

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	if !allowedFilters(w, r, "owner") {
		return
	}
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	var filter store.AssetFilter
	if raw := httputil.QueryString(r, "owner", ""); raw != "" {
		owner, err := store.ParseAccountID(raw)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		filter.Owner = owner
	}

	result, err := s.store.ListAssets(r.Context(), page, filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	items := make([]assetResponse, 0, len(result.Items))
	for _, a := range result.Items {
		items = append(items, newAssetResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPage(items, result.Pagination.PageNumber, result.Pagination.PageSize, result.Pagination.TotalItems))
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["id"]

	id, err := store.ParseAssetID(raw)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	a, err := s.store.GetAsset(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, newAssetResponse(*a))
}
