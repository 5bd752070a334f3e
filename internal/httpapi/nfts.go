package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
	"github.com/soramitsu/iroha-explorer/internal/store"
)

func (s *Server) handleListNFTs(w http.ResponseWriter, r *http.Request) {
	if !allowedFilters(w, r, "domain") {
		return
	}
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	filter := store.NFTFilter{Domain: httputil.QueryString(r, "domain", "")}

	result, err := s.store.ListNFTs(r.Context(), page, filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	items := make([]nftResponse, 0, len(result.Items))
	for _, n := range result.Items {
		items = append(items, newNFTResponse(n))
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPage(items, result.Pagination.PageNumber, result.Pagination.PageSize, result.Pagination.TotalItems))
}

func (s *Server) handleGetNFT(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["id"]

	id, err := store.ParseNftID(raw)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	n, err := s.store.GetNFT(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, newNFTResponse(*n))
}
