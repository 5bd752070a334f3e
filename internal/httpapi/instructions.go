package httpapi

import (
	"net/http"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
	"github.com/soramitsu/iroha-explorer/internal/store"
)

func (s *Server) handleListInstructions(w http.ResponseWriter, r *http.Request) {
	if !allowedFilters(w, r, "kind", "authority", "transaction_status", "transaction_hash", "block") {
		return
	}
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	filter := store.InstructionFilter{
		Kind:              httputil.QueryString(r, "kind", ""),
		Authority:         httputil.QueryString(r, "authority", ""),
		TransactionStatus: httputil.QueryString(r, "transaction_status", ""),
		TransactionHash:   httputil.QueryString(r, "transaction_hash", ""),
	}
	if filter.TransactionStatus != "" && filter.TransactionStatus != "committed" && filter.TransactionStatus != "rejected" {
		httputil.BadRequest(w, "transaction_status must be \"committed\" or \"rejected\"")
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

	result, err := s.store.ListInstructions(r.Context(), page, filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	items := make([]instructionResponse, 0, len(result.Items))
	for _, iv := range result.Items {
		items = append(items, newInstructionResponse(iv))
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPage(items, result.Pagination.PageNumber, result.Pagination.PageSize, result.Pagination.TotalItems))
}
