package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
)

func (s *Server) handleListBlocks(w http.ResponseWriter, r *http.Request) {
	if !allowedFilters(w, r) {
		return
	}
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	result, err := s.store.ListBlocks(r.Context(), page)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	items := make([]blockShallowResponse, 0, len(result.Items))
	for _, b := range result.Items {
		items = append(items, newBlockShallowResponse(b))
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPage(items, result.Pagination.PageNumber, result.Pagination.PageSize, result.Pagination.TotalItems))
}

func (s *Server) handleGetBlock(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if height, err := strconv.ParseUint(id, 10, 64); err == nil && height == 0 {
		httputil.BadRequest(w, "block height must be >= 1")
		return
	}

	bv, err := s.store.GetBlock(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	page, err := s.store.ListTransactions(r.Context(), pageAll, transactionFilterForBlock(bv.Height))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	hashes := make([]string, 0, len(page.Items))
	for _, t := range page.Items {
		hashes = append(hashes, t.Hash)
	}

	httputil.WriteJSON(w, http.StatusOK, blockResponse{
		blockShallowResponse: newBlockShallowResponse(*bv),
		Transactions:         hashes,
	})
}
