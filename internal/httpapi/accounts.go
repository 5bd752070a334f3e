package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
	"github.com/soramitsu/iroha-explorer/internal/store"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	if !allowedFilters(w, r, "domain") {
		return
	}
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	filter := store.AccountFilter{Domain: httputil.QueryString(r, "domain", "")}

	result, err := s.store.ListAccounts(r.Context(), page, filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	items := make([]accountResponse, 0, len(result.Items))
	for _, a := range result.Items {
		items = append(items, newAccountResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPage(items, result.Pagination.PageNumber, result.Pagination.PageSize, result.Pagination.TotalItems))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["id"]

	id, err := store.ParseAccountID(raw)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	a, err := s.store.GetAccount(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, newAccountResponse(*a))
}
