package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
	"github.com/soramitsu/iroha-explorer/internal/store"
)

func transactionFilterForBlock(height uint64) store.TransactionFilter {
	return store.TransactionFilter{Block: &height}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if !allowedFilters(w, r, "authority", "status", "block") {
		return
	}
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	filter := store.TransactionFilter{
		Authority: httputil.QueryString(r, "authority", ""),
		Status:    httputil.QueryString(r, "status", ""),
	}
	if filter.Status != "" && filter.Status != "committed" && filter.Status != "rejected" {
		httputil.BadRequest(w, "status must be \"committed\" or \"rejected\"")
		return
	}
	if raw := r.URL.Query().Get("block"); raw != "" {
		height, err := parseHeight(raw)
		if err != nil {
			httputil.BadRequest(w, "block must be a positive integer")
			return
		}
		filter.Block = &height
	}

	result, err := s.store.ListTransactions(r.Context(), page, filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	items := make([]transactionResponse, 0, len(result.Items))
	for _, t := range result.Items {
		items = append(items, newTransactionResponse(t))
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPage(items, result.Pagination.PageNumber, result.Pagination.PageSize, result.Pagination.TotalItems))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]

	tv, err := s.store.GetTransaction(r.Context(), hash)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	instructions, err := s.store.InstructionsForTransaction(r.Context(), hash)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	resp := newTransactionResponse(*tv)
	resp.Instructions = make([]instructionPayloadResponse, 0, len(instructions))
	for _, i := range instructions {
		resp.Instructions = append(resp.Instructions, newInstructionPayloadResponse(i.Kind, i.Payload))
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
